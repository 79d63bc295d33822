// Package security implements the permission model, per-request security
// contexts, row-level query filtering and export restrictions. It decides
// who may do what; it never authenticates — identity arrives already
// resolved from the session middleware.
package security

// Role names, ordered from narrowest to broadest scope. Each higher role's
// default grant set is a superset of the one below, with the single
// deliberate exception that DIRECTOR lacks USERS:MANAGE.
const (
	RoleBDR      = "BDR"
	RoleTeamLead = "TEAM_LEAD"
	RoleManager  = "MANAGER"
	RoleDirector = "DIRECTOR"
	RoleAdmin    = "ADMIN"
)

// roleRank orders roles for hierarchy comparisons.
var roleRank = map[string]int{
	RoleBDR:      0,
	RoleTeamLead: 1,
	RoleManager:  2,
	RoleDirector: 3,
	RoleAdmin:    4,
}

// KnownRole reports whether s is one of the defined role names.
func KnownRole(s string) bool {
	_, ok := roleRank[s]
	return ok
}

// RoleAtLeast reports whether role sits at or above min in the hierarchy.
// Unknown names on either side never satisfy the check.
func RoleAtLeast(role, min string) bool {
	r, rok := roleRank[role]
	m, mok := roleRank[min]
	return rok && mok && r >= m
}

// Resource names. These strings appear in permission keys, explicit grant
// rows and export restriction lookups.
const (
	ResourceLeads    = "LEADS"
	ResourcePipeline = "PIPELINE"
	ResourceFinance  = "FINANCE"
	ResourceMessages = "MESSAGES"
	ResourceReports  = "REPORTS"
	ResourceUsers    = "USERS"
)

// Action names.
const (
	ActionView     = "VIEW"
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionViewTeam = "VIEW_TEAM"
	ActionViewAll  = "VIEW_ALL"
	ActionExport   = "EXPORT"
	ActionManage   = "MANAGE"
)

// PermKey builds the canonical "RESOURCE:ACTION" permission string.
func PermKey(resource, action string) string {
	return resource + ":" + action
}
