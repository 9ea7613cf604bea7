// Package events provides the append-only domain event store and the
// fire-and-forget emission pipeline.
package events

import (
	"encoding/json"
	"time"
)

// Envelope carries the cross-cutting fields attached to every event.
type Envelope struct {
	TenantID      string `json:"tenant_id"`
	UserID        string `json:"user_id"`
	Source        string `json:"source"`
	CorrelationID string `json:"correlation_id"`
	SchemaVersion int    `json:"schema_version"`
}

// Event is one record in an append-only stream.
type Event struct {
	ID         string          `json:"id"`
	StreamID   string          `json:"stream_id"`
	StreamType string          `json:"stream_type"`
	Type       string          `json:"type"`
	Sequence   uint64          `json:"sequence"`
	Payload    json.RawMessage `json:"payload"`
	Envelope   Envelope        `json:"envelope"`
	RecordedAt time.Time       `json:"recorded_at"`
}
