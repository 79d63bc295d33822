package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/sales-crm/internal/dedupe"
	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/security"
)

type captureSink struct {
	entries []model.AuditLogEntry
}

func (s *captureSink) Append(_ context.Context, e model.AuditLogEntry) error {
	s.entries = append(s.entries, e)
	return nil
}

func TestRequireAccessRecordsBothBranches(t *testing.T) {
	sink := &captureSink{}
	audit := &dedupe.AuditLogger{Sink: sink}
	bdr := security.NewContext(model.User{ID: 7, Role: security.RoleBDR}, nil, nil)

	// Held permission: the request passes and the pass lands on the trail.
	err := requireAccess(context.Background(), audit, bdr, security.ResourceLeads, security.ActionCreate, "", nil)
	require.NoError(t, err)

	// Missing permission: denied, with the reason on the trail.
	err = requireAccess(context.Background(), audit, bdr, security.ResourceFinance, security.ActionView, "", nil)
	assert.Equal(t, security.ErrForbidden, err)

	require.Len(t, sink.entries, 2)
	allowed, denied := sink.entries[0], sink.entries[1]

	assert.Equal(t, "access_create", allowed.Action)
	assert.Equal(t, "leads", allowed.EntityType)
	assert.Equal(t, uint64(7), allowed.UserID)
	assert.Equal(t, "allowed", allowed.ActualOutcome)
	assert.WithinDuration(t, time.Now().UTC(), allowed.CreatedAt, time.Minute)

	assert.Equal(t, "access_view", denied.Action)
	assert.Equal(t, "finance", denied.EntityType)
	assert.Equal(t, "denied: forbidden", denied.ActualOutcome)
}

func TestRequireAccessRowLevelDenialAudited(t *testing.T) {
	sink := &captureSink{}
	audit := &dedupe.AuditLogger{Sink: sink}
	bdr := security.NewContext(model.User{ID: 7, Role: security.RoleBDR}, nil, nil)

	// Another BDR's lead: the flat permission holds but the row check
	// rejects, and the rejection is recorded against the record id.
	err := requireAccess(context.Background(), audit, bdr, security.ResourceLeads, security.ActionDelete, "42",
		&security.RowOwner{OwnerID: 8})
	assert.Equal(t, security.ErrForbidden, err)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "42", sink.entries[0].EntityID)
	assert.Equal(t, "denied: forbidden", sink.entries[0].ActualOutcome)
}

func TestAuditAccessUnresolvedIdentity(t *testing.T) {
	sink := &captureSink{}
	audit := &dedupe.AuditLogger{Sink: sink}

	auditAccess(context.Background(), audit, 0, security.ResourceReports, security.ActionViewTeam, "", security.ErrUnauthorized)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, uint64(0), sink.entries[0].UserID)
	assert.Equal(t, "denied: unauthorized", sink.entries[0].ActualOutcome)
}
