package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/interview"
	"ai-interviewer/internal/progress"
)

func testQuestions(n int) []interview.Question {
	qs := make([]interview.Question, n)
	for i := range qs {
		qs[i] = interview.Question{Text: fmt.Sprintf("question %d", i)}
	}
	return qs
}

// fakeEvaluator returns a valid feedback object embedding the question text,
// optionally holding each reply until its gate opens.
type fakeEvaluator struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	err   error
}

func (f *fakeEvaluator) gateFor(question string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[string]chan struct{})
	}
	if f.gates[question] == nil {
		f.gates[question] = make(chan struct{})
	}
	return f.gates[question]
}

func (f *fakeEvaluator) wait(question string) {
	f.mu.Lock()
	gate := f.gates[question]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeEvaluator) EvaluateText(ctx context.Context, question, answer string) (string, error) {
	f.wait(question)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf(`{"relevance":"High","grammar":"Correct","feedback":"feedback for %s"}`, question), nil
}

func (f *fakeEvaluator) EvaluateVoice(ctx context.Context, question string, audio evaluation.Audio) (string, error) {
	f.wait(question)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf(`{"relevance":"Medium","grammar":"Correct","fluency":"Good","pronunciation":"Clear","feedback":"voice feedback for %s"}`, question), nil
}

// fakeFinalizer records every invocation of the sink.
type fakeFinalizer struct {
	mu    sync.Mutex
	calls int
	last  struct {
		answers []interview.Answer
		text    []*interview.TextFeedback
		voice   []*interview.VoiceFeedback
	}
	err error
}

func (f *fakeFinalizer) SaveCompleted(ctx context.Context, sessionID string, answers []interview.Answer,
	text []*interview.TextFeedback, voice []*interview.VoiceFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last.answers = answers
	f.last.text = text
	f.last.voice = voice
	return f.err
}

func (f *fakeFinalizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestMachine(t *testing.T, n int, ev evaluation.Evaluator) (*Machine, *progress.MemoryStore, *fakeFinalizer) {
	t.Helper()
	store := progress.NewMemoryStore()
	fin := &fakeFinalizer{}
	m := New("test-session", testQuestions(n), store, ev, fin)
	if err := m.Resume(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	return m, store, fin
}

func waitArchived(t *testing.T, m *Machine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("session did not archive: %v", err)
	}
}

func TestSubmit_AnswersAndIndexAdvanceInLockstep(t *testing.T) {
	ev := &fakeEvaluator{}
	m, _, _ := newTestMachine(t, 3, ev)
	// hold evaluations so only submission effects are observed
	for i := 0; i < 3; i++ {
		gate := ev.gateFor(fmt.Sprintf("question %d", i))
		t.Cleanup(func() { close(gate) })
	}

	for n := 1; n <= 3; n++ {
		if err := m.SubmitText(context.Background(), fmt.Sprintf("answer %d", n-1)); err != nil {
			t.Fatalf("submit %d: %v", n, err)
		}
		answers, _, _ := m.Progress()
		if len(answers) != n || m.CurrentIndex() != n {
			t.Fatalf("after submit %d: answers=%d index=%d", n, len(answers), m.CurrentIndex())
		}
	}

	if err := m.SubmitText(context.Background(), "one too many"); !errors.Is(err, ErrNoMoreQuestions) {
		t.Fatalf("expected ErrNoMoreQuestions, got %v", err)
	}
}

func TestFeedback_AttributedToOriginalSlotOutOfOrder(t *testing.T) {
	ev := &fakeEvaluator{}
	m, _, _ := newTestMachine(t, 3, ev)
	gates := make([]chan struct{}, 3)
	for i := range gates {
		gates[i] = ev.gateFor(fmt.Sprintf("question %d", i))
	}

	for i := 0; i < 3; i++ {
		if err := m.SubmitText(context.Background(), fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	// settle evaluations out of order: 2, 0, 1
	close(gates[2])
	close(gates[0])
	close(gates[1])
	waitArchived(t, m)

	_, text, _ := m.Progress()
	for i := 0; i < 3; i++ {
		if text[i] == nil {
			t.Fatalf("slot %d not populated", i)
		}
		want := fmt.Sprintf("feedback for question %d", i)
		if text[i].Feedback != want {
			t.Fatalf("slot %d holds %q, want %q", i, text[i].Feedback, want)
		}
	}
}

func TestFinalization_ExactlyOnceUnderDuplicateSettlement(t *testing.T) {
	ev := &fakeEvaluator{}
	m, _, fin := newTestMachine(t, 2, ev)
	gates := []chan struct{}{ev.gateFor("question 0"), ev.gateFor("question 1")}

	if err := m.SubmitText(context.Background(), "a0"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.SubmitText(context.Background(), "a1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	close(gates[0])
	close(gates[1])
	waitArchived(t, m)

	// a duplicate settlement of the last slot must not re-finalize
	fb := evaluation.NormalizeText(`{"relevance":"Low","grammar":"Correct","feedback":"dup"}`)
	m.settle(1, &fb, nil)
	m.settle(1, &fb, nil)

	if got := fin.callCount(); got != 1 {
		t.Fatalf("finalizer called %d times, want 1", got)
	}
}

func TestEndToEnd_ThreeTextAnswers(t *testing.T) {
	ctx := context.Background()
	m, store, fin := newTestMachine(t, 3, &fakeEvaluator{})

	for i := 0; i < 3; i++ {
		if err := m.SubmitText(ctx, fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	waitArchived(t, m)

	if m.State() != StateArchived {
		t.Fatalf("state: %s", m.State())
	}
	if got := fin.callCount(); got != 1 {
		t.Fatalf("finalizer called %d times, want 1", got)
	}
	if len(fin.last.answers) != 3 {
		t.Fatalf("finalized answers: %d", len(fin.last.answers))
	}
	for i := 0; i < 3; i++ {
		if fin.last.text[i] == nil {
			t.Fatalf("finalized text slot %d empty", i)
		}
		if fin.last.voice[i] != nil {
			t.Fatalf("voice slot %d populated for a text answer", i)
		}
	}
	if _, err := store.Load(ctx, "test-session"); !errors.Is(err, progress.ErrNoProgress) {
		t.Fatalf("snapshot must be cleared after finalization, got %v", err)
	}
	if err := m.SubmitText(ctx, "late"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive after archive, got %v", err)
	}
}

func TestVoiceSubmission_PlaceholderAndVoiceSlot(t *testing.T) {
	ctx := context.Background()
	m, _, fin := newTestMachine(t, 1, &fakeEvaluator{})

	audio := evaluation.Audio{Data: make([]byte, 2048), MIMEType: "audio/ogg"}
	if err := m.SubmitVoice(ctx, audio); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitArchived(t, m)

	answers, text, voice := m.Progress()
	if !strings.Contains(answers[0].Response, "Voice Response") {
		t.Fatalf("expected display placeholder, got %q", answers[0].Response)
	}
	if voice[0] == nil || text[0] != nil {
		t.Fatalf("expected voice slot only: text=%v voice=%v", text[0], voice[0])
	}
	if voice[0].Fluency != interview.FluencyGood {
		t.Fatalf("fluency: %q", voice[0].Fluency)
	}
	if fin.callCount() != 1 {
		t.Fatalf("finalizer calls: %d", fin.callCount())
	}
}

func TestEvaluatorOutage_FinalizesWithErrorFeedback(t *testing.T) {
	ctx := context.Background()
	ev := &fakeEvaluator{err: errors.New("API Error: 503")}
	m, _, fin := newTestMachine(t, 2, ev)

	if err := m.SubmitText(ctx, "a0"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.SubmitText(ctx, "a1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitArchived(t, m)

	_, text, _ := m.Progress()
	for i := 0; i < 2; i++ {
		if text[i] == nil || text[i].Relevance != interview.RelevanceError {
			t.Fatalf("slot %d: %+v", i, text[i])
		}
		if text[i].Feedback != "API Error: 503" {
			t.Fatalf("narrative: %q", text[i].Feedback)
		}
	}
	if fin.callCount() != 1 {
		t.Fatal("an evaluator outage must still finalize the session")
	}
}

func TestResume_RestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	store := progress.NewMemoryStore()
	fb := &interview.TextFeedback{Relevance: interview.RelevanceHigh, Grammar: interview.GrammarCorrect, Feedback: "ok"}
	err := store.Save(ctx, "s1", &progress.Snapshot{
		CurrentIndex:   2,
		Answers:        []interview.Answer{{Question: "question 0", Response: "a0"}, {Question: "question 1", Response: "a1"}},
		TextFeedbacks:  []*interview.TextFeedback{fb, nil, nil},
		VoiceFeedbacks: []*interview.VoiceFeedback{nil, nil, nil},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := New("s1", testQuestions(3), store, &fakeEvaluator{}, &fakeFinalizer{})
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if m.CurrentIndex() != 2 {
		t.Fatalf("index: %d", m.CurrentIndex())
	}
	answers, text, _ := m.Progress()
	if len(answers) != 2 || answers[1].Response != "a1" {
		t.Fatalf("answers not restored: %+v", answers)
	}
	if text[0] == nil || text[0].Relevance != interview.RelevanceHigh {
		t.Fatalf("feedback slot not restored: %+v", text[0])
	}
	if q, ok := m.CurrentQuestion(); !ok || q.Text != "question 2" {
		t.Fatalf("current question: %+v ok=%v", q, ok)
	}
	if err := m.Resume(ctx); !errors.Is(err, ErrAlreadyResumed) {
		t.Fatalf("expected ErrAlreadyResumed, got %v", err)
	}
}

func TestResume_DiscardsInconsistentSnapshot(t *testing.T) {
	ctx := context.Background()
	store := progress.NewMemoryStore()
	// index claims more answers than stored
	err := store.Save(ctx, "s1", &progress.Snapshot{
		CurrentIndex: 2,
		Answers:      []interview.Answer{{Question: "question 0", Response: "a0"}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := New("s1", testQuestions(3), store, &fakeEvaluator{}, &fakeFinalizer{})
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if m.CurrentIndex() != 0 {
		t.Fatalf("inconsistent snapshot must be discarded, index=%d", m.CurrentIndex())
	}
}

func TestResume_RestoredCompleteSessionFinalizes(t *testing.T) {
	ctx := context.Background()
	store := progress.NewMemoryStore()
	fb := &interview.TextFeedback{Relevance: interview.RelevanceHigh, Grammar: interview.GrammarCorrect, Feedback: "ok"}
	err := store.Save(ctx, "s1", &progress.Snapshot{
		CurrentIndex:   1,
		Answers:        []interview.Answer{{Question: "question 0", Response: "a0"}},
		TextFeedbacks:  []*interview.TextFeedback{fb},
		VoiceFeedbacks: []*interview.VoiceFeedback{nil},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	fin := &fakeFinalizer{}
	m := New("s1", testQuestions(1), store, &fakeEvaluator{}, fin)
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	waitArchived(t, m)
	if fin.callCount() != 1 {
		t.Fatalf("finalizer calls: %d", fin.callCount())
	}
}

func TestSinkFailure_StillArchives(t *testing.T) {
	ctx := context.Background()
	store := progress.NewMemoryStore()
	fin := &fakeFinalizer{err: errors.New("store unavailable")}
	m := New("s1", testQuestions(1), store, &fakeEvaluator{}, fin)
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if err := m.SubmitText(ctx, "a0"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitArchived(t, m)

	if m.State() != StateArchived {
		t.Fatalf("state: %s", m.State())
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, progress.ErrNoProgress) {
		t.Fatalf("snapshot must still be cleared, got %v", err)
	}
}

func TestSnapshotPersistedAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	ev := &fakeEvaluator{}
	store := progress.NewMemoryStore()
	m := New("s1", testQuestions(2), store, ev, &fakeFinalizer{})
	gate := ev.gateFor("question 0")
	gate1 := ev.gateFor("question 1")
	t.Cleanup(func() { close(gate1) })
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if err := m.SubmitText(ctx, "a0"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("snapshot missing after submission: %v", err)
	}
	if snap.CurrentIndex != 1 || snap.TextFeedbacks[0] != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	events := m.Subscribe()
	close(gate)
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("settlement event not received")
	}

	snap, err = store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("snapshot missing after settlement: %v", err)
	}
	if snap.TextFeedbacks[0] == nil {
		t.Fatal("settled feedback must be persisted")
	}
}
