package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldline/sales-crm/internal/model"
)

func u64(v uint64) *uint64 { return &v }

func bdrContext(id uint64, territory *uint64) *Context {
	return NewContext(model.User{ID: id, Role: RoleBDR, TerritoryID: territory}, nil, nil)
}

func TestNewContextSupersetOfRoleDefaults(t *testing.T) {
	sc := NewContext(model.User{ID: 1, Role: RoleTeamLead, TerritoryID: u64(3)}, nil, nil)
	for _, g := range DefaultGrants(RoleTeamLead) {
		assert.True(t, sc.Can(g.Resource, g.Action), "missing default %s:%s", g.Resource, g.Action)
	}
}

func TestNewContextManagedTerritoriesOnlyForManager(t *testing.T) {
	managed := []uint64{3, 4}
	mgr := NewContext(model.User{ID: 1, Role: RoleManager}, nil, managed)
	assert.Equal(t, managed, mgr.ManagedTerritoryIDs)

	lead := NewContext(model.User{ID: 2, Role: RoleTeamLead}, nil, managed)
	assert.Empty(t, lead.ManagedTerritoryIDs)
}

func TestCanAccessPermissionGate(t *testing.T) {
	sc := bdrContext(1, u64(3))
	// BDR has no export grant: step 1 rejects before any row-level logic.
	assert.False(t, sc.CanAccess(ResourceLeads, ActionExport, nil))
	assert.True(t, sc.CanAccess(ResourceLeads, ActionView, nil))
}

func TestCanAccessRowLevel(t *testing.T) {
	own := &RowOwner{OwnerID: 1, TerritoryID: u64(3)}
	other := &RowOwner{OwnerID: 2, TerritoryID: u64(3)}
	foreign := &RowOwner{OwnerID: 2, TerritoryID: u64(9)}

	bdr := bdrContext(1, u64(3))
	assert.True(t, bdr.CanAccess(ResourceLeads, ActionView, own))
	assert.False(t, bdr.CanAccess(ResourceLeads, ActionView, other))

	tl := NewContext(model.User{ID: 1, Role: RoleTeamLead, TerritoryID: u64(3)}, nil, nil)
	assert.True(t, tl.CanAccess(ResourceLeads, ActionView, other), "same territory passes for team lead")
	assert.False(t, tl.CanAccess(ResourceLeads, ActionView, foreign))

	mgr := NewContext(model.User{ID: 1, Role: RoleManager, TerritoryID: u64(3)}, nil, []uint64{9})
	assert.True(t, mgr.CanAccess(ResourceLeads, ActionView, foreign), "managed territory passes for manager")
	assert.False(t, mgr.CanAccess(ResourceLeads, ActionView, &RowOwner{OwnerID: 2, TerritoryID: u64(5)}))

	dir := NewContext(model.User{ID: 1, Role: RoleDirector}, nil, nil)
	assert.True(t, dir.CanAccess(ResourceLeads, ActionView, foreign))

	admin := NewContext(model.User{ID: 1, Role: RoleAdmin}, nil, nil)
	assert.True(t, admin.CanAccess(ResourceLeads, ActionDelete, foreign))
}

func TestCanAccessMessagesSkipsRowCheck(t *testing.T) {
	// Membership in a conversation is the endpoint's job; the context only
	// gates the flat MESSAGES permission.
	bdr := bdrContext(1, u64(3))
	assert.True(t, bdr.CanAccess(ResourceMessages, ActionView, &RowOwner{OwnerID: 99}))
}

func TestCanViewUserData(t *testing.T) {
	self := bdrContext(1, u64(3))
	assert.True(t, self.CanViewUserData(1, nil), "viewer always sees self")
	assert.False(t, self.CanViewUserData(2, u64(3)), "plain BDR never sees peers")

	admin := NewContext(model.User{ID: 1, Role: RoleAdmin}, nil, nil)
	dir := NewContext(model.User{ID: 1, Role: RoleDirector}, nil, nil)
	assert.True(t, admin.CanViewUserData(42, nil))
	assert.True(t, dir.CanViewUserData(42, nil))

	mgr := NewContext(model.User{ID: 1, Role: RoleManager, TerritoryID: u64(3)}, nil, []uint64{7})
	assert.True(t, mgr.CanViewUserData(2, u64(7)), "managed territory")
	assert.True(t, mgr.CanViewUserData(2, u64(3)), "own territory")
	assert.False(t, mgr.CanViewUserData(2, u64(5)))

	tl := NewContext(model.User{ID: 1, Role: RoleTeamLead, TerritoryID: u64(3)}, nil, nil)
	assert.True(t, tl.CanViewUserData(2, u64(3)))
	assert.False(t, tl.CanViewUserData(2, u64(4)))
}
