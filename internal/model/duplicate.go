package model

import "time"

// Severity levels for duplicate matches, ordered LOW < MEDIUM < HIGH <
// CRITICAL. The string values are part of the stored schema and of API
// responses, so they must not change.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// severityRank orders severities for max-aggregation and comparisons.
var severityRank = map[string]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityRank returns the ordinal position of a severity string; unknown
// values rank below LOW.
func SeverityRank(s string) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Match type enumeration: the dimension on which a candidate record matched
// an existing one.
const (
	MatchCompanyName     = "COMPANY_NAME"
	MatchContactEmail    = "CONTACT_EMAIL"
	MatchContactPhone    = "CONTACT_PHONE"
	MatchContactName     = "CONTACT_NAME"
	MatchCompanyDomain   = "COMPANY_DOMAIN"
	MatchLinkedInProfile = "LINKEDIN_PROFILE"
)

// Trigger actions: which create-type operation ran the duplicate check.
const (
	TriggerLeadCreate     = "LEAD_CREATE"
	TriggerPipelineCreate = "PIPELINE_CREATE"
)

// User decisions recorded against a warning.
const (
	DecisionProceeded = "PROCEEDED"
	DecisionCancelled = "CANCELLED"
)

// Source types for matched records.
const (
	SourceLead     = "lead"
	SourcePipeline = "pipeline"
)

// DuplicateWarning is the persistent record of one duplicate check that
// found something worth showing, from the `duplicate_warnings` table.
// Warnings are never deleted; they double as audit history. The invariant
// DecisionMade == (UserDecision != nil && DecisionAt != nil) is maintained
// by the repository.
//
// Fields:
//  ID            – primary key identifier.
//  PublicID      – UUID exposed to API clients.
//  TriggeredBy   – user whose create attempt raised the warning.
//  TriggerAction – the create-type action that was being performed.
//  WarningType   – dominant match type across the matches.
//  Severity      – overall severity (max of the match severities).
//  TriggerData   – JSON snapshot of the submitted candidate input.
//  UserDecision  – PROCEEDED or CANCELLED once decided (nullable).
//  DecisionMade  – whether a decision has been recorded.
//  DecisionAt    – when the decision was recorded (nullable).
//  ProceedReason – optional justification supplied on PROCEEDED.
//  CreatedAt     – creation timestamp.
type DuplicateWarning struct {
	ID            uint64     // duplicate_warnings.id
	PublicID      string     // duplicate_warnings.public_id
	TriggeredBy   uint64     // duplicate_warnings.triggered_by
	TriggerAction string     // duplicate_warnings.trigger_action
	WarningType   string     // duplicate_warnings.warning_type
	Severity      string     // duplicate_warnings.severity
	TriggerData   string     // duplicate_warnings.trigger_data (JSON)
	UserDecision  *string    // duplicate_warnings.user_decision (nullable)
	DecisionMade  bool       // duplicate_warnings.decision_made
	DecisionAt    *time.Time // duplicate_warnings.decision_at (nullable)
	ProceedReason *string    // duplicate_warnings.proceed_reason (nullable)
	CreatedAt     time.Time  // duplicate_warnings.created_at
}

// DuplicateWarningMatch is one matched record persisted with its warning,
// from the `duplicate_warning_matches` table. It snapshots the existing
// record and its owner at check time so the audit trail stays meaningful
// even after the underlying lead changes.
type DuplicateWarningMatch struct {
	ID            uint64     // duplicate_warning_matches.id
	WarningID     uint64     // duplicate_warning_matches.warning_id
	MatchKey      string     // duplicate_warning_matches.match_key ("<source>-<dimension>-<id>")
	MatchType     string     // duplicate_warning_matches.match_type
	Confidence    float64    // duplicate_warning_matches.confidence
	Severity      string     // duplicate_warning_matches.severity
	SourceType    string     // duplicate_warning_matches.source_type
	RecordID      uint64     // duplicate_warning_matches.record_id
	RecordName    string     // duplicate_warning_matches.record_name
	RecordCompany *string    // duplicate_warning_matches.record_company (nullable)
	RecordEmail   *string    // duplicate_warning_matches.record_email (nullable)
	RecordPhone   *string    // duplicate_warning_matches.record_phone (nullable)
	OwnerID       uint64     // duplicate_warning_matches.owner_id
	OwnerName     string     // duplicate_warning_matches.owner_name
	OwnerRole     string     // duplicate_warning_matches.owner_role
	LastContactAt *time.Time // duplicate_warning_matches.last_contact_at (nullable)
	RecordStatus  string     // duplicate_warning_matches.record_status
	RecordActive  bool       // duplicate_warning_matches.record_active
	Details       string     // duplicate_warning_matches.details (JSON)
}

// AuditLogEntry is an append-only row in the `duplicate_audit_log` table.
// Entries are never updated or deleted, and failures to write one must
// never abort the operation that produced it.
type AuditLogEntry struct {
	ID               uint64    // duplicate_audit_log.id
	UserID           uint64    // duplicate_audit_log.user_id
	Action           string    // duplicate_audit_log.action ("warning_shown", "proceeded_anyway", ...)
	WarningID        *uint64   // duplicate_audit_log.warning_id (nullable)
	EntityType       string    // duplicate_audit_log.entity_type
	EntityID         string    // duplicate_audit_log.entity_id
	DecisionReason   string    // duplicate_audit_log.decision_reason
	SystemSuggestion string    // duplicate_audit_log.system_suggestion
	ActualOutcome    string    // duplicate_audit_log.actual_outcome
	CreatedAt        time.Time // duplicate_audit_log.created_at
}
