// Package events delivers one record per pipeline run to configured sinks
// (JSONL file, webhook) off the calling goroutine.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/straja-ai/rcc/internal/redact"
	"github.com/straja-ai/rcc/pkg/rcc"
)

const (
	schemaVersion = "1"
	previewLimit  = 160
)

// Event is the wire shape of a run record.
type Event struct {
	ID         string      `json:"id"`
	Version    string      `json:"version"`
	Timestamp  time.Time   `json:"timestamp"`
	State      rcc.State   `json:"state"`
	Score      float64     `json:"score"`
	Reason     rcc.Reason  `json:"reason"`
	Action     rcc.Action  `json:"action"`
	Channel    rcc.Channel `json:"channel"`
	DurationMs float64     `json:"duration_ms"`
	Preview    string      `json:"preview,omitempty"`
	MetaKeys   []string    `json:"meta_keys,omitempty"`
}

// FromResult builds an Event for a completed run. The message preview is
// redacted and capped when includePreview is set; meta values never leave
// the process, only their keys.
func FromResult(res rcc.Result, elapsed time.Duration, includePreview bool) *Event {
	ev := &Event{
		ID:         uuid.NewString(),
		Version:    schemaVersion,
		Timestamp:  time.Now().UTC(),
		State:      res.Analysis.State,
		Score:      res.Analysis.Score,
		Reason:     res.Analysis.Reason,
		Action:     res.Regulation.Action,
		Channel:    res.Routing.Channel,
		DurationMs: float64(elapsed.Microseconds()) / 1000.0,
	}
	if includePreview {
		ev.Preview = redact.Truncate(res.Regulation.Message, previewLimit)
	}
	if len(res.Meta) > 0 {
		ev.MetaKeys = sortedKeys(res.Meta)
	}
	return ev
}
