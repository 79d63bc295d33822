package security

import (
	"fmt"
	"strings"
)

// ExportRestrictions bundles the per-role, per-resource export limits.
// MaxRecords of -1 means unlimited and 0 means exports of the resource are
// forbidden for this role. AllowedFields of ["*"] means every field.
type ExportRestrictions struct {
	MaxRecords      int
	AllowedFields   []string
	SensitiveFields []string
	RequireApproval bool
	AllowedFormats  []string
}

// AllFields reports whether the restriction allows every field.
func (r ExportRestrictions) AllFields() bool {
	return len(r.AllowedFields) == 1 && r.AllowedFields[0] == "*"
}

// exportTable is the static role x resource restriction table. A resource
// absent from a role's map is not exportable at all by that role.
var exportTable = map[string]map[string]ExportRestrictions{
	RoleBDR: {
		ResourceLeads: {
			MaxRecords:      100,
			AllowedFields:   []string{"full_name", "company", "status", "created_at"},
			SensitiveFields: []string{"email", "phone"},
			AllowedFormats:  []string{"csv"},
		},
		ResourceReports: {
			MaxRecords:     100,
			AllowedFields:  []string{"*"},
			AllowedFormats: []string{"csv"},
		},
	},
	RoleTeamLead: {
		ResourceLeads: {
			MaxRecords:      500,
			AllowedFields:   []string{"full_name", "company", "email", "status", "created_at"},
			SensitiveFields: []string{"phone"},
			AllowedFormats:  []string{"csv", "xlsx"},
		},
		ResourcePipeline: {
			MaxRecords:      500,
			AllowedFields:   []string{"contact_name", "company", "stage", "status", "created_at"},
			SensitiveFields: []string{"email", "phone"},
			AllowedFormats:  []string{"csv", "xlsx"},
		},
		ResourceReports: {
			MaxRecords:     500,
			AllowedFields:  []string{"*"},
			AllowedFormats: []string{"csv", "xlsx"},
		},
		// Present but zeroed: team leads may never export finance data.
		ResourceFinance: {MaxRecords: 0},
	},
	RoleManager: {
		ResourceLeads: {
			MaxRecords:      5000,
			AllowedFields:   []string{"*"},
			SensitiveFields: []string{"phone"},
			AllowedFormats:  []string{"csv", "xlsx"},
		},
		ResourcePipeline: {
			MaxRecords:     5000,
			AllowedFields:  []string{"*"},
			AllowedFormats: []string{"csv", "xlsx"},
		},
		ResourceFinance: {
			MaxRecords:      1000,
			AllowedFields:   []string{"*"},
			SensitiveFields: []string{"commission_pct"},
			RequireApproval: true,
			AllowedFormats:  []string{"csv", "xlsx"},
		},
		ResourceReports: {
			MaxRecords:     5000,
			AllowedFields:  []string{"*"},
			AllowedFormats: []string{"csv", "xlsx"},
		},
	},
	RoleDirector: {
		ResourceLeads:    {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourcePipeline: {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourceFinance:  {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourceReports:  {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
	},
	RoleAdmin: {
		ResourceLeads:    {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourcePipeline: {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourceFinance:  {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourceReports:  {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
		ResourceUsers:    {MaxRecords: -1, AllowedFields: []string{"*"}, AllowedFormats: []string{"csv", "xlsx", "json"}},
	},
}

// ExportRequest describes an export a caller wants to run.
type ExportRequest struct {
	Resource string
	Format   string
}

// ExportDecision is the outcome of CanExport. When Allowed is false, Reason
// explains why; when true, Restrictions carries the limits the caller must
// apply.
type ExportDecision struct {
	Allowed      bool
	Reason       string
	Restrictions *ExportRestrictions
}

// CanExport is the pure restriction-table lookup. It assumes the base
// RESOURCE:EXPORT (or ADMIN) permission was already checked by the caller's
// security context.
func CanExport(sc *Context, req ExportRequest) ExportDecision {
	table, ok := exportTable[sc.Role]
	if !ok {
		return ExportDecision{Reason: "role has no export access"}
	}
	r, ok := table[req.Resource]
	if !ok {
		return ExportDecision{Reason: fmt.Sprintf("resource %s is not accessible for export", req.Resource)}
	}
	if r.MaxRecords == 0 {
		return ExportDecision{Reason: fmt.Sprintf("export of %s is not permitted for role %s", req.Resource, sc.Role)}
	}
	if !formatAllowed(r.AllowedFormats, req.Format) {
		return ExportDecision{Reason: fmt.Sprintf("format %q not allowed; permitted formats: %s",
			req.Format, strings.Join(r.AllowedFormats, ", "))}
	}
	if r.RequireApproval {
		return ExportDecision{Reason: fmt.Sprintf("export of %s requires approval for role %s", req.Resource, sc.Role)}
	}
	return ExportDecision{Allowed: true, Restrictions: &r}
}

func formatAllowed(allowed []string, format string) bool {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, a := range allowed {
		if a == f {
			return true
		}
	}
	return false
}
