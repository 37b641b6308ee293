// Package record persists interview session documents. The rest of the
// system treats it as a generic document store addressed by opaque id: the
// state machine reads the question list once at resume and writes the
// completed session exactly once at finalization.
package record

import (
	"context"
	"errors"

	"ai-interviewer/internal/interview"
)

var ErrNotFound = errors.New("interview record not found")

type Store interface {
	// Create stores a new draft record and returns its id.
	Create(ctx context.Context, rec *interview.Record) (string, error)

	// Get returns the record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*interview.Record, error)

	// Complete marks the record completed with the collected answers and
	// feedback, stamping the completion time. It is the finalization sink.
	Complete(ctx context.Context, id string, answers []interview.Answer,
		textFeedbacks []*interview.TextFeedback, voiceFeedbacks []*interview.VoiceFeedback) (*interview.Record, error)

	// ListByStatus returns all records with the given status.
	ListByStatus(ctx context.Context, status interview.Status) ([]*interview.Record, error)
}
