package security

import "github.com/fieldline/sales-crm/internal/model"

// Grant is one (resource, action) pair from the static role table.
type Grant struct {
	Resource string
	Action   string
}

// roleGrants is the static role -> default permissions table. Lists are
// built cumulatively: every role inherits the grants of the role below it
// and widens the scope. ADMIN is generated as the full resource x action
// cross product, so the superset property holds by construction.
var roleGrants = buildRoleGrants()

func buildRoleGrants() map[string][]Grant {
	bdr := []Grant{
		{ResourceLeads, ActionView},
		{ResourceLeads, ActionCreate},
		{ResourceLeads, ActionUpdate},
		{ResourceLeads, ActionDelete},
		{ResourcePipeline, ActionView},
		{ResourcePipeline, ActionCreate},
		{ResourcePipeline, ActionUpdate},
		{ResourceFinance, ActionView},
		{ResourceMessages, ActionView},
		{ResourceMessages, ActionCreate},
		{ResourceReports, ActionView},
	}

	teamLead := append(clone(bdr),
		Grant{ResourceLeads, ActionViewTeam},
		Grant{ResourcePipeline, ActionViewTeam},
		Grant{ResourceReports, ActionViewTeam},
	)

	manager := append(clone(teamLead),
		Grant{ResourceFinance, ActionViewTeam},
		Grant{ResourcePipeline, ActionDelete},
		Grant{ResourceLeads, ActionExport},
		Grant{ResourcePipeline, ActionExport},
		Grant{ResourceReports, ActionExport},
	)

	director := append(clone(manager),
		Grant{ResourceLeads, ActionViewAll},
		Grant{ResourcePipeline, ActionViewAll},
		Grant{ResourceFinance, ActionViewAll},
		Grant{ResourceMessages, ActionViewAll},
		Grant{ResourceReports, ActionViewAll},
		Grant{ResourceFinance, ActionExport},
		Grant{ResourceUsers, ActionView},
	)

	// ADMIN holds every pair, including USERS:MANAGE which DIRECTOR
	// deliberately lacks.
	resources := []string{
		ResourceLeads, ResourcePipeline, ResourceFinance,
		ResourceMessages, ResourceReports, ResourceUsers,
	}
	actions := []string{
		ActionView, ActionCreate, ActionUpdate, ActionDelete,
		ActionViewTeam, ActionViewAll, ActionExport, ActionManage,
	}
	admin := make([]Grant, 0, len(resources)*len(actions))
	for _, r := range resources {
		for _, a := range actions {
			admin = append(admin, Grant{r, a})
		}
	}

	return map[string][]Grant{
		RoleBDR:      bdr,
		RoleTeamLead: teamLead,
		RoleManager:  manager,
		RoleDirector: director,
		RoleAdmin:    admin,
	}
}

func clone(g []Grant) []Grant {
	out := make([]Grant, len(g))
	copy(out, g)
	return out
}

// DefaultGrants returns a copy of the static grant list for a role. An
// unknown role has no grants.
func DefaultGrants(role string) []Grant {
	return clone(roleGrants[role])
}

// RoleHas reports whether the role's default table contains the pair.
func RoleHas(role, resource, action string) bool {
	for _, g := range roleGrants[role] {
		if g.Resource == resource && g.Action == action {
			return true
		}
	}
	return false
}

// EffectivePermissions unions the role's default table with explicit
// per-user grants, deduplicated into a "RESOURCE:ACTION" key set. Explicit
// grants are strictly additive; nothing here can revoke a role default, so
// the result is always a superset of the role table.
func EffectivePermissions(role string, grants []model.PermissionGrant) map[string]bool {
	perms := make(map[string]bool, len(roleGrants[role])+len(grants))
	for _, g := range roleGrants[role] {
		perms[PermKey(g.Resource, g.Action)] = true
	}
	for _, g := range grants {
		perms[PermKey(g.Resource, g.Action)] = true
	}
	return perms
}
