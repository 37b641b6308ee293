package interview

import (
	"fmt"
	"time"
)

// Question is a single interview question. Questions form an ordered,
// immutable sequence; a question's index within the session is its identity.
type Question struct {
	Text            string `json:"question"`
	ReferenceAnswer string `json:"answer,omitempty"`
}

// Answer pairs the question text with what the user submitted. For a spoken
// answer Response holds a display placeholder, not a transcript; the audio
// itself is what gets evaluated.
type Answer struct {
	Question string `json:"question"`
	Response string `json:"answer"`
}

type Relevance string

const (
	RelevanceHigh    Relevance = "High"
	RelevanceMedium  Relevance = "Medium"
	RelevanceLow     Relevance = "Low"
	RelevanceUnknown Relevance = "Unknown"
	RelevanceError   Relevance = "Error"
)

type Grammar string

const (
	GrammarCorrect   Grammar = "Correct"
	GrammarIncorrect Grammar = "Incorrect"
	GrammarUnknown   Grammar = "Unknown"
	GrammarError     Grammar = "Error"
)

type Fluency string

const (
	FluencyExcellent Fluency = "Excellent"
	FluencyGood      Fluency = "Good"
	FluencyFair      Fluency = "Fair"
	FluencyPoor      Fluency = "Poor"
	FluencyUnknown   Fluency = "Unknown"
	FluencyError     Fluency = "Error"
)

type Pronunciation string

const (
	PronunciationClear   Pronunciation = "Clear"
	PronunciationUnclear Pronunciation = "Unclear"
	PronunciationUnknown Pronunciation = "Unknown"
	PronunciationError   Pronunciation = "Error"
)

// TextFeedback is the evaluation of a typed answer.
type TextFeedback struct {
	Relevance Relevance `json:"relevance"`
	Grammar   Grammar   `json:"grammar"`
	Feedback  string    `json:"feedback"`
}

// VoiceFeedback is the evaluation of a spoken answer.
type VoiceFeedback struct {
	Relevance     Relevance     `json:"relevance"`
	Grammar       Grammar       `json:"grammar"`
	Fluency       Fluency       `json:"fluency"`
	Pronunciation Pronunciation `json:"pronunciation"`
	Feedback      string        `json:"feedback"`
}

// VoicePlaceholder is the display text stored as the answer for a voice
// submission.
func VoicePlaceholder(sizeBytes int) string {
	return fmt.Sprintf("🎤 Voice Response (%dKB)", (sizeBytes+512)/1024)
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

// Record is the durable interview session document. It is created as a draft
// holding the immutable question list and, once the session finalizes, is
// patched with the collected answers, both feedback sequences and a
// completion timestamp.
type Record struct {
	ID             string           `json:"id"`
	Questions      []Question       `json:"interview_questions"`
	JobTitle       string           `json:"job_title,omitempty"`
	JobDescription string           `json:"job_description,omitempty"`
	ResumeURL      string           `json:"resume_url,omitempty"`
	SessionType    string           `json:"session_type,omitempty"`
	ChatID         int64            `json:"chat_id,omitempty"`
	Status         Status           `json:"status"`
	Answers        []Answer         `json:"answers,omitempty"`
	TextFeedbacks  []*TextFeedback  `json:"text_feedbacks,omitempty"`
	VoiceFeedbacks []*VoiceFeedback `json:"voice_feedbacks,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}
