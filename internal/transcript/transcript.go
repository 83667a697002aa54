// Package transcript records what was said during a translated call: the
// original transcript of each frame, the translation that was produced, and
// which leg spoke. The pipeline appends entries best-effort; a failing store
// never blocks or aborts audio delivery.
package transcript

import (
	"context"
	"time"

	"github.com/voxbridge/voxbridge/internal/relay"
)

// Entry is one translated utterance, keyed by session and speaking leg.
// Translated equals Original when translation was skipped or fell back.
type Entry struct {
	SessionID    string                `json:"session_id"`
	Source       relay.ParticipantType `json:"source"`
	FromLanguage string                `json:"from_language"`
	ToLanguage   string                `json:"to_language"`
	Original     string                `json:"original"`
	Translated   string                `json:"translated"`
	SpokenAt     time.Time             `json:"spoken_at"`
}

// Store persists transcript entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append records one entry.
	Append(ctx context.Context, e Entry) error

	// BySession returns all entries for a session, oldest first.
	BySession(ctx context.Context, sessionID string) ([]Entry, error)
}
