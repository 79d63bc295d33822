package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/sales-crm/internal/model"
)

func newTestLifecycle(warnings *fakeWarnings, audit *fakeAudit) *Lifecycle {
	l := NewLifecycle(warnings, &AuditLogger{Sink: audit})
	l.now = func() time.Time { return now }
	return l
}

func storedWarning() model.DuplicateWarning {
	return model.DuplicateWarning{
		ID:       101,
		PublicID: "abc-123",
		Severity: model.SeverityCritical,
	}
}

func TestRecordDecisionRejectsInvalidValue(t *testing.T) {
	warnings := &fakeWarnings{byPublicID: map[string]model.DuplicateWarning{"abc-123": storedWarning()}}
	l := newTestLifecycle(warnings, &fakeAudit{})

	err := l.RecordDecision(context.Background(), "abc-123", "MAYBE", 1, nil)
	assert.ErrorIs(t, err, ErrInvalidDecision)
	assert.Empty(t, warnings.decisions, "validation happens before any store access")
}

func TestRecordDecisionProceeded(t *testing.T) {
	warnings := &fakeWarnings{byPublicID: map[string]model.DuplicateWarning{"abc-123": storedWarning()}}
	audit := &fakeAudit{}
	l := newTestLifecycle(warnings, audit)

	reason := "different buying center"
	err := l.RecordDecision(context.Background(), "abc-123", model.DecisionProceeded, 1, &reason)
	require.NoError(t, err)
	require.Equal(t, []string{model.DecisionProceeded}, warnings.decisions)
	assert.Equal(t, []uint64{101}, warnings.decisionIDs)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, AuditProceeded, audit.entries[0].Action)
	assert.Equal(t, reason, audit.entries[0].DecisionReason)
	assert.Equal(t, "abc-123", audit.entries[0].EntityID)
}

func TestRecordDecisionCancelled(t *testing.T) {
	warnings := &fakeWarnings{byPublicID: map[string]model.DuplicateWarning{"abc-123": storedWarning()}}
	audit := &fakeAudit{}
	l := newTestLifecycle(warnings, audit)

	require.NoError(t, l.RecordDecision(context.Background(), "abc-123", model.DecisionCancelled, 1, nil))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, AuditCancelled, audit.entries[0].Action)
}

func TestRecordDecisionLastWriteWins(t *testing.T) {
	warnings := &fakeWarnings{byPublicID: map[string]model.DuplicateWarning{"abc-123": storedWarning()}}
	l := newTestLifecycle(warnings, &fakeAudit{})

	require.NoError(t, l.RecordDecision(context.Background(), "abc-123", model.DecisionCancelled, 1, nil))
	require.NoError(t, l.RecordDecision(context.Background(), "abc-123", model.DecisionProceeded, 1, nil))
	assert.Equal(t, []string{model.DecisionCancelled, model.DecisionProceeded}, warnings.decisions)
}

func TestRecordDecisionAuditFailureSwallowed(t *testing.T) {
	warnings := &fakeWarnings{byPublicID: map[string]model.DuplicateWarning{"abc-123": storedWarning()}}
	audit := &fakeAudit{err: errors.New("audit down")}
	l := newTestLifecycle(warnings, audit)

	assert.NoError(t, l.RecordDecision(context.Background(), "abc-123", model.DecisionProceeded, 1, nil))
}

func TestRecordDecisionStoreErrorPropagates(t *testing.T) {
	warnings := &fakeWarnings{
		byPublicID:  map[string]model.DuplicateWarning{"abc-123": storedWarning()},
		decisionErr: errors.New("update failed"),
	}
	l := newTestLifecycle(warnings, &fakeAudit{})
	assert.Error(t, l.RecordDecision(context.Background(), "abc-123", model.DecisionProceeded, 1, nil))
}

func TestRecentClampsLimit(t *testing.T) {
	warnings := &fakeWarnings{}
	l := newTestLifecycle(warnings, &fakeAudit{})

	_, err := l.Recent(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Equal(t, 20, warnings.recentLimit)

	_, err = l.Recent(context.Background(), 500, false)
	require.NoError(t, err)
	assert.Equal(t, 20, warnings.recentLimit)
	assert.False(t, warnings.recentResolve)
}
