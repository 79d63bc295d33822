// Package queue defines message payloads exchanged over the message broker
// and the background consumer that mirrors duplicate warnings into a local
// log file.
package queue

// DuplicateWarningEvent is published when a duplicate check raises a
// warning. It carries enough context for downstream consumers to log or
// alert without querying the primary database.
type DuplicateWarningEvent struct {
	WarningID     string `json:"warning_id"` // public UUID
	TriggeredBy   uint64 `json:"triggered_by"`
	TriggerAction string `json:"trigger_action"`
	WarningType   string `json:"warning_type"`
	Severity      string `json:"severity"`
	MatchCount    int    `json:"match_count"`
	RaisedAt      string `json:"raised_at"`
}
