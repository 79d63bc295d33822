package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/sales-crm/internal/model"
)

func ctxWithRole(role string) *Context {
	return NewContext(model.User{ID: 1, Role: role}, nil, nil)
}

func TestCanExportFinanceDeniedForTeamLead(t *testing.T) {
	// maxRecords 0 means forbidden regardless of the requested format.
	for _, format := range []string{"csv", "xlsx", "json"} {
		d := CanExport(ctxWithRole(RoleTeamLead), ExportRequest{Resource: ResourceFinance, Format: format})
		assert.False(t, d.Allowed, "format %s", format)
		assert.Contains(t, d.Reason, "not permitted")
	}
}

func TestCanExportUnknownResource(t *testing.T) {
	d := CanExport(ctxWithRole(RoleBDR), ExportRequest{Resource: ResourceFinance, Format: "csv"})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "not accessible")
}

func TestCanExportFormatRejected(t *testing.T) {
	d := CanExport(ctxWithRole(RoleBDR), ExportRequest{Resource: ResourceLeads, Format: "xlsx"})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "csv", "reason should name the permitted formats")
}

func TestCanExportApprovalRequired(t *testing.T) {
	d := CanExport(ctxWithRole(RoleManager), ExportRequest{Resource: ResourceFinance, Format: "csv"})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "requires approval")
}

func TestCanExportAllowedCarriesRestrictions(t *testing.T) {
	d := CanExport(ctxWithRole(RoleBDR), ExportRequest{Resource: ResourceLeads, Format: "CSV"})
	require.True(t, d.Allowed, "format comparison is case-insensitive")
	require.NotNil(t, d.Restrictions)
	assert.Equal(t, 100, d.Restrictions.MaxRecords)
	assert.Contains(t, d.Restrictions.SensitiveFields, "email")
	assert.False(t, d.Restrictions.AllFields())
}

func TestCanExportAdminUnlimited(t *testing.T) {
	d := CanExport(ctxWithRole(RoleAdmin), ExportRequest{Resource: ResourceUsers, Format: "json"})
	require.True(t, d.Allowed)
	assert.Equal(t, -1, d.Restrictions.MaxRecords)
	assert.True(t, d.Restrictions.AllFields())
}
