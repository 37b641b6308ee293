package questions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlatArray(t *testing.T) {
	raw := []byte(`[
		{"question": "What is hoisting?", "answer": "Declarations move to scope top."},
		{"question": "Explain the event loop."}
	]`)

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions", len(qs))
	}
	if qs[0].Text != "What is hoisting?" || qs[0].ReferenceAnswer == "" {
		t.Errorf("first question: %+v", qs[0])
	}
	if qs[1].ReferenceAnswer != "" {
		t.Errorf("second question should have no reference answer: %+v", qs[1])
	}
}

func TestParseLegacyObject(t *testing.T) {
	raw := []byte(`{"interview_questions": [{"question": "q0"}, {"question": "q1"}, {"question": "q2"}]}`)

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 3 || qs[2].Text != "q2" {
		t.Fatalf("questions: %+v", qs)
	}
}

func TestParseWrappedLegacyObject(t *testing.T) {
	raw := []byte(`[{"interview_questions": [{"question": "q0"}]}]`)

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 1 || qs[0].Text != "q0" {
		t.Fatalf("questions: %+v", qs)
	}
}

func TestParseCategorizedObject(t *testing.T) {
	raw := []byte(`{
		"css": [{"question": "What is specificity?"}],
		"javascript": [{"question": "What is a closure?"}, {"text": "Describe promises."}]
	}`)

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("got %d questions", len(qs))
	}
	// categories contribute in sorted order
	if qs[0].Text != "What is specificity?" {
		t.Errorf("first question: %q", qs[0].Text)
	}
	if qs[2].Text != "Describe promises." {
		t.Errorf("text key not honored: %q", qs[2].Text)
	}
}

func TestParseAlternateTextKeys(t *testing.T) {
	raw := []byte(`[{"text": "from text"}, {"title": "from title"}, {"answer": "only an answer"}]`)

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("items with no question text must be skipped, got %d", len(qs))
	}
	if qs[0].Text != "from text" || qs[1].Text != "from title" {
		t.Fatalf("questions: %+v", qs)
	}
}

func TestParseUnrecognized(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":          "not json at all",
		"empty array":       "[]",
		"empty object":      "{}",
		"no question keys":  `{"topics": [{"name": "css"}]}`,
		"scalar categories": `{"count": 3}`,
	} {
		if _, err := Parse([]byte(raw)); !errors.Is(err, ErrUnrecognizedPayload) {
			t.Errorf("%s: expected ErrUnrecognizedPayload, got %v", name, err)
		}
	}
}

func TestLoadPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	content := `jobTitle: Frontend Developer
jobDescription: Builds web interfaces.
questions:
  - question: What is the virtual DOM?
    answer: An in-memory tree diffed against the real DOM.
  - question: What does CORS protect against?
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pack, err := LoadPack(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pack.JobTitle != "Frontend Developer" {
		t.Errorf("jobTitle: %q", pack.JobTitle)
	}

	qs := pack.InterviewQuestions()
	if len(qs) != 2 {
		t.Fatalf("got %d questions", len(qs))
	}
	if qs[0].ReferenceAnswer == "" || qs[1].ReferenceAnswer != "" {
		t.Errorf("reference answers: %+v", qs)
	}
}

func TestLoadPackEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	if err := os.WriteFile(path, []byte("jobTitle: x\nquestions: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPack(path); err == nil {
		t.Fatal("expected an error for an empty pack")
	}
}

func TestLoadPackMissingFile(t *testing.T) {
	if _, err := LoadPack(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
