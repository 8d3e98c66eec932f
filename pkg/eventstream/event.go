// Package eventstream defines the events the relay emits after each
// generation and the Publisher port backends implement.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeGenerationCompleted is emitted once a generation has finished
	// streaming or has failed upstream.
	EventTypeGenerationCompleted = "thoughtstream.generation.completed"
)

// GenerationEvent is a transport-neutral summary of one relayed generation.
type GenerationEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	EventID       string         `json:"event_id"`
	EmittedAt     time.Time      `json:"emitted_at"`
	Request       GenerationMeta `json:"request"`
	Result        GenerationStat `json:"result"`
}

// GenerationMeta describes the inbound request and its lifecycle.
type GenerationMeta struct {
	RequestID   string    `json:"request_id"`
	ContentType string    `json:"content_type,omitempty"`
	PersonaID   string    `json:"persona_id,omitempty"`
	Model       string    `json:"model"`
	Streaming   bool      `json:"streaming"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	HTTPStatus  int       `json:"http_status"`
}

// GenerationStat captures what the relay observed while forwarding.
type GenerationStat struct {
	Characters int    `json:"characters"`
	Frames     int64  `json:"frames"`
	Fragments  int64  `json:"fragments"`
	Malformed  int64  `json:"malformed"`
	Incomplete int64  `json:"incomplete"`
	Error      string `json:"error,omitempty"`
}

// NewGenerationEvent stamps a v1 event with a fresh id and the current time.
func NewGenerationEvent(meta GenerationMeta, stat GenerationStat) *GenerationEvent {
	return &GenerationEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeGenerationCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Request:       meta,
		Result:        stat,
	}
}
