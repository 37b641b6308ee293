package progress

import (
	"context"
	"errors"
	"time"

	"ai-interviewer/internal/interview"
)

// FreshnessWindow bounds how old a snapshot may be before it is ignored on
// resume. An abandoned session restarts clean instead of picking up day-old
// state.
const FreshnessWindow = 24 * time.Hour

// ErrNoProgress is returned by Load when no usable snapshot exists: nothing
// was saved, the snapshot is stale, it holds no answers, or it failed to
// decode. Callers start a fresh session in every one of those cases.
var ErrNoProgress = errors.New("no usable progress snapshot")

// Snapshot is the durable in-flight state of a session. The feedback slices
// are sparse: slot i resolves independently of its neighbours, so unresolved
// entries stay nil.
type Snapshot struct {
	CurrentIndex   int                          `json:"current_index"`
	Answers        []interview.Answer           `json:"answers"`
	TextFeedbacks  []*interview.TextFeedback    `json:"text_feedbacks"`
	VoiceFeedbacks []*interview.VoiceFeedback   `json:"voice_feedbacks"`
	SavedAt        time.Time                    `json:"saved_at"`
}

// Usable reports whether the snapshot should be restored.
func (s *Snapshot) Usable(now time.Time) bool {
	return now.Sub(s.SavedAt) <= FreshnessWindow && len(s.Answers) > 0
}

// Store persists session snapshots keyed by session id. Save is a full
// overwrite, last-writer-wins; a session is driven by a single logical actor
// so no further coordination is needed.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
	Clear(ctx context.Context, sessionID string) error
}
