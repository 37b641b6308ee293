package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/interview"
	"ai-interviewer/internal/progress"
	"ai-interviewer/internal/record"
)

var ErrCompleted = errors.New("interview is already completed")

// Manager hands out one machine per interview record.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Machine
	records   record.Store
	store     progress.Store
	evaluator evaluation.Evaluator
}

func NewManager(records record.Store, store progress.Store, evaluator evaluation.Evaluator) *Manager {
	return &Manager{
		sessions:  make(map[string]*Machine),
		records:   records,
		store:     store,
		evaluator: evaluator,
	}
}

// Resume returns the live machine for the record, creating and resuming one
// if needed. Completed records cannot be resumed.
func (m *Manager) Resume(ctx context.Context, id string) (*Machine, error) {
	m.mu.RLock()
	machine, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return machine, nil
	}

	rec, err := m.records.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load interview %s: %w", id, err)
	}
	if rec.Status == interview.StatusCompleted {
		return nil, ErrCompleted
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if machine, ok := m.sessions[id]; ok {
		return machine, nil
	}
	machine = New(id, rec.Questions, m.store, m.evaluator, recordFinalizer{m.records})
	if err := machine.Resume(ctx); err != nil {
		return nil, err
	}
	m.sessions[id] = machine
	return machine, nil
}

// Get returns the live machine for the record, if any.
func (m *Manager) Get(id string) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.sessions[id]
	return machine, ok
}

// Release drops the machine from the live set. Restarting the interview
// later goes through Resume and the progress store again.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// recordFinalizer adapts the record store's Complete call to the machine's
// finalization sink.
type recordFinalizer struct {
	records record.Store
}

func (f recordFinalizer) SaveCompleted(ctx context.Context, sessionID string, answers []interview.Answer,
	textFeedbacks []*interview.TextFeedback, voiceFeedbacks []*interview.VoiceFeedback) error {
	_, err := f.records.Complete(ctx, sessionID, answers, textFeedbacks, voiceFeedbacks)
	return err
}
