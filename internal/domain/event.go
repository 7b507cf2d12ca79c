package domain

import "time"

// EventKind says which path produced an enrichment event.
type EventKind string

const (
	EventInserted   EventKind = "inserted"
	EventBackfilled EventKind = "backfilled"
)

// EnrichmentEvent announces that a record's environmental context was written.
type EnrichmentEvent struct {
	ID         string               `json:"id"`
	Kind       EventKind            `json:"kind"`
	RecordID   int64                `json:"record_id"`
	Group      FieldGroup           `json:"group,omitempty"`
	RunID      string               `json:"run_id,omitempty"`
	Env        EnvironmentalContext `json:"environment"`
	OccurredAt time.Time            `json:"occurred_at"`
}
