package security

import "strings"

// DataAccessFilter is the abstract ownership/territory predicate attached
// to data queries. An all-zero filter with Unrestricted set means no
// row-level restriction at all. When OwnRecords is set, rows owned by
// OwnerID pass; when TerritoryIDs is non-empty, rows whose owner sits in
// one of those territories pass. The two predicates are OR-combined.
type DataAccessFilter struct {
	Unrestricted bool
	OwnRecords   bool
	OwnerID      uint64
	TerritoryIDs []uint64
}

// DataAccessFilterFor derives the row-level filter for a resource from a
// security context. ADMIN, DIRECTOR and VIEW_ALL holders are unrestricted.
// VIEW_TEAM holders get territory-or-own scoping: a manager's managed
// territories, otherwise the user's single territory. Everyone else is
// restricted to records they own.
func DataAccessFilterFor(sc *Context, resource string) DataAccessFilter {
	if sc.Role == RoleAdmin || sc.Role == RoleDirector || sc.Can(resource, ActionViewAll) {
		return DataAccessFilter{Unrestricted: true}
	}
	if sc.Can(resource, ActionViewTeam) {
		f := DataAccessFilter{OwnRecords: true, OwnerID: sc.UserID}
		if sc.Role == RoleManager && len(sc.ManagedTerritoryIDs) > 0 {
			f.TerritoryIDs = append(f.TerritoryIDs, sc.ManagedTerritoryIDs...)
		} else if sc.TerritoryID != nil {
			f.TerritoryIDs = append(f.TerritoryIDs, *sc.TerritoryID)
		}
		return f
	}
	return DataAccessFilter{OwnRecords: true, OwnerID: sc.UserID}
}

// resourceColumns maps a resource to the owner and territory columns its
// repository queries expose. Base queries passed to BuildSecureQuery must
// select from the matching aliases: leads as l joined to users as o,
// pipeline_items as p joined to users as o, finance_entries as f joined to
// users as o.
var resourceColumns = map[string]struct{ owner, territory string }{
	ResourceLeads:    {"l.bdr_id", "o.territory_id"},
	ResourcePipeline: {"p.bdr_id", "o.territory_id"},
	ResourceFinance:  {"f.bdr_id", "o.territory_id"},
}

// BuildSecureQuery appends the row-level predicate for (context, resource)
// to a base SQL query, AND-combined with any caller-supplied WHERE clause.
// ADMIN passes the query through untouched. FINANCE is hard-blocked for
// TEAM_LEAD regardless of the generic VIEW_TEAM rule and returns
// ErrForbidden.
func BuildSecureQuery(base string, args []any, sc *Context, resource string) (string, []any, error) {
	if sc.Role == RoleAdmin {
		return base, args, nil
	}
	if resource == ResourceFinance && sc.Role == RoleTeamLead {
		return "", nil, ErrForbidden
	}

	f := DataAccessFilterFor(sc, resource)
	if f.Unrestricted {
		return base, args, nil
	}

	cols, ok := resourceColumns[resource]
	if !ok {
		// Resources without a column mapping (messages, reports) have no
		// generic row predicate; their endpoints scope access themselves.
		return base, args, nil
	}

	parts := []string{}
	if f.OwnRecords {
		parts = append(parts, cols.owner+" = ?")
		args = append(args, f.OwnerID)
	}
	if len(f.TerritoryIDs) > 0 {
		in := make([]string, len(f.TerritoryIDs))
		for i, id := range f.TerritoryIDs {
			in[i] = "?"
			args = append(args, id)
		}
		parts = append(parts, cols.territory+" IN ("+strings.Join(in, ",")+")")
	}
	if len(parts) == 0 {
		// A filter that restricts but names nothing matches no rows.
		parts = append(parts, "1=0")
	}

	cond := "(" + strings.Join(parts, " OR ") + ")"
	if strings.Contains(strings.ToUpper(base), " WHERE ") {
		return base + " AND " + cond, args, nil
	}
	return base + " WHERE " + cond, args, nil
}
