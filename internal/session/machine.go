// Package session drives a single interview: question advancement, answer
// collection, asynchronous evaluation, durable progress and one-shot
// finalization.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/interview"
	"ai-interviewer/internal/progress"
)

type State string

const (
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateFinished State = "finished"
	StateArchived State = "archived"
)

var (
	ErrNotActive       = errors.New("session is not active")
	ErrNoMoreQuestions = errors.New("all questions have been answered")
	ErrAlreadyResumed  = errors.New("session was already resumed")
)

// Finalizer receives the completed session exactly once.
type Finalizer interface {
	SaveCompleted(ctx context.Context, sessionID string, answers []interview.Answer,
		textFeedbacks []*interview.TextFeedback, voiceFeedbacks []*interview.VoiceFeedback) error
}

// Event notifies a surface that something observable happened: a feedback
// slot settled, or the session finished.
type Event struct {
	Slot     int
	Text     *interview.TextFeedback
	Voice    *interview.VoiceFeedback
	Finished bool
}

// Machine is the per-session state machine. Submissions are synchronous and
// advance the question index immediately; evaluation runs on its own
// goroutine and settles into the slot captured at submission time, so the
// user can answer question k+1 while feedback for question k is in flight.
type Machine struct {
	id        string
	questions []interview.Question
	store     progress.Store
	evaluator evaluation.Evaluator
	finalizer Finalizer

	mu             sync.Mutex
	state          State
	index          int
	answers        []interview.Answer
	textFeedbacks  []*interview.TextFeedback
	voiceFeedbacks []*interview.VoiceFeedback
	finalized      bool
	subscribers    []chan Event
	done           chan struct{}
}

func New(id string, qs []interview.Question, store progress.Store, evaluator evaluation.Evaluator, finalizer Finalizer) *Machine {
	return &Machine{
		id:             id,
		questions:      qs,
		store:          store,
		evaluator:      evaluator,
		finalizer:      finalizer,
		state:          StateLoading,
		textFeedbacks:  make([]*interview.TextFeedback, len(qs)),
		voiceFeedbacks: make([]*interview.VoiceFeedback, len(qs)),
		done:           make(chan struct{}),
	}
}

// Resume attempts a progress restore and activates the machine. A missing,
// stale or inconsistent snapshot means a fresh start, never an error.
func (m *Machine) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLoading {
		return ErrAlreadyResumed
	}

	snap, err := m.store.Load(ctx, m.id)
	switch {
	case err == nil:
		m.restoreLocked(snap)
	case errors.Is(err, progress.ErrNoProgress):
		// fresh start
	default:
		log.Printf("progress load failed for %s, starting fresh: %v", m.id, err)
	}

	m.state = StateActive
	m.maybeFinishLocked(ctx)
	return nil
}

// restoreLocked adopts a snapshot if it obeys the session invariants;
// anything inconsistent is dropped wholesale.
func (m *Machine) restoreLocked(snap *progress.Snapshot) {
	if snap.CurrentIndex != len(snap.Answers) || snap.CurrentIndex > len(m.questions) {
		log.Printf("discarding inconsistent snapshot for %s (index=%d answers=%d)",
			m.id, snap.CurrentIndex, len(snap.Answers))
		return
	}
	m.index = snap.CurrentIndex
	m.answers = append([]interview.Answer(nil), snap.Answers...)
	copy(m.textFeedbacks, snap.TextFeedbacks)
	copy(m.voiceFeedbacks, snap.VoiceFeedbacks)
	log.Printf("restored session %s at question %d/%d", m.id, m.index, len(m.questions))
}

// SubmitText records a typed answer for the current question and dispatches
// its evaluation.
func (m *Machine) SubmitText(ctx context.Context, answer string) error {
	q, slot, err := m.accept(ctx, answer)
	if err != nil {
		return err
	}
	go m.evaluateText(q, slot, answer)
	return nil
}

// SubmitVoice records a spoken answer for the current question and
// dispatches its evaluation. Only a display placeholder is stored as the
// answer text; the audio itself is what gets scored.
func (m *Machine) SubmitVoice(ctx context.Context, audio evaluation.Audio) error {
	q, slot, err := m.accept(ctx, interview.VoicePlaceholder(len(audio.Data)))
	if err != nil {
		return err
	}
	go m.evaluateVoice(q, slot, audio)
	return nil
}

// accept performs the synchronous half of a submission: append the answer,
// capture the slot index, advance, persist. The slot is captured before the
// index moves so a settlement that arrives after further submissions still
// lands on the answer that triggered it.
func (m *Machine) accept(ctx context.Context, display string) (interview.Question, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return interview.Question{}, 0, ErrNotActive
	}
	if m.index >= len(m.questions) {
		return interview.Question{}, 0, ErrNoMoreQuestions
	}

	q := m.questions[m.index]
	slot := m.index
	m.answers = append(m.answers, interview.Answer{Question: q.Text, Response: display})
	m.index++
	m.persistLocked(ctx)
	return q, slot, nil
}

// Evaluation deliberately runs on a background context: an in-flight
// evaluation is never cancelled, and its settlement must outlive the
// submitting request.
func (m *Machine) evaluateText(q interview.Question, slot int, answer string) {
	raw, err := m.evaluator.EvaluateText(context.Background(), q.Text, answer)
	var fb interview.TextFeedback
	if err != nil {
		log.Printf("text evaluation failed for %s slot %d: %v", m.id, slot, err)
		fb = evaluation.TextFailure(err.Error())
	} else {
		fb = evaluation.NormalizeText(raw)
	}
	m.settle(slot, &fb, nil)
}

func (m *Machine) evaluateVoice(q interview.Question, slot int, audio evaluation.Audio) {
	raw, err := m.evaluator.EvaluateVoice(context.Background(), q.Text, audio)
	var fb interview.VoiceFeedback
	if err != nil {
		log.Printf("voice evaluation failed for %s slot %d: %v", m.id, slot, err)
		fb = evaluation.VoiceFailure(err.Error())
	} else {
		fb = evaluation.NormalizeVoice(raw)
	}
	m.settle(slot, nil, &fb)
}

// settle writes feedback into its slot, persists and re-checks completion.
func (m *Machine) settle(slot int, text *interview.TextFeedback, voice *interview.VoiceFeedback) {
	ctx := context.Background()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateArchived || slot < 0 || slot >= len(m.questions) {
		return
	}
	if text != nil {
		m.textFeedbacks[slot] = text
	}
	if voice != nil {
		m.voiceFeedbacks[slot] = voice
	}
	m.persistLocked(ctx)
	m.emitLocked(Event{Slot: slot, Text: text, Voice: voice})
	m.maybeFinishLocked(ctx)
}

// maybeFinishLocked evaluates the finalization predicate and, the first time
// it holds, runs finalization. The one-shot guard lives inside the same
// critical section as the predicate so a duplicate settlement cannot race a
// second finalization in.
func (m *Machine) maybeFinishLocked(ctx context.Context) {
	if m.finalized || m.state != StateActive {
		return
	}
	if m.index < len(m.questions) || len(m.answers) < len(m.questions) {
		return
	}
	for i := range m.answers {
		if m.textFeedbacks[i] == nil && m.voiceFeedbacks[i] == nil {
			return
		}
	}

	m.finalized = true
	m.state = StateFinished

	if err := m.finalizer.SaveCompleted(ctx, m.id, m.answers, m.textFeedbacks, m.voiceFeedbacks); err != nil {
		// The snapshot is about to be cleared, so a sink failure loses the
		// completed session. Accepted for now; see DESIGN.md.
		log.Printf("failed to save completed session %s: %v", m.id, err)
	}
	if err := m.store.Clear(ctx, m.id); err != nil {
		log.Printf("failed to clear progress for %s: %v", m.id, err)
	}

	m.state = StateArchived
	m.emitLocked(Event{Slot: -1, Finished: true})
	close(m.done)
	log.Printf("session %s archived with %d answers", m.id, len(m.answers))
}

// persistLocked writes the current snapshot. Persistence failures are logged
// and swallowed: losing a write bounds the damage to the interval since the
// previous one, while failing the submission would stall the interview.
func (m *Machine) persistLocked(ctx context.Context) {
	snap := &progress.Snapshot{
		CurrentIndex:   m.index,
		Answers:        append([]interview.Answer(nil), m.answers...),
		TextFeedbacks:  append([]*interview.TextFeedback(nil), m.textFeedbacks...),
		VoiceFeedbacks: append([]*interview.VoiceFeedback(nil), m.voiceFeedbacks...),
	}
	if err := m.store.Save(ctx, m.id, snap); err != nil {
		log.Printf("failed to persist progress for %s: %v", m.id, err)
	}
}

func (m *Machine) emitLocked(ev Event) {
	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel receiving settlement and finish events. The
// channel is buffered generously; a subscriber that stops draining misses
// events rather than blocking the machine.
func (m *Machine) Subscribe() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Event, 2*len(m.questions)+2)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

func (m *Machine) ID() string { return m.id }

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) QuestionCount() int { return len(m.questions) }

func (m *Machine) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (m *Machine) CurrentQuestion() (interview.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index >= len(m.questions) {
		return interview.Question{}, false
	}
	return m.questions[m.index], true
}

// Progress returns a copy of the collected answers and feedback slots.
func (m *Machine) Progress() (answers []interview.Answer, text []*interview.TextFeedback, voice []*interview.VoiceFeedback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	answers = append([]interview.Answer(nil), m.answers...)
	text = append([]*interview.TextFeedback(nil), m.textFeedbacks...)
	voice = append([]*interview.VoiceFeedback(nil), m.voiceFeedbacks...)
	return
}

// Wait blocks until the session archives or the context is done.
func (m *Machine) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
