// Package questions turns generation payloads and question packs into the
// ordered question list an interview session runs on.
package questions

import (
	"encoding/json"
	"errors"
	"sort"

	"ai-interviewer/internal/interview"
)

// The generation pipeline has produced three payload shapes over time: a
// categorized object (topic -> question list), a legacy object with an
// "interview_questions" array, and a flat question array. Parse tries each
// as a tagged variant instead of probing for arbitrary keys.

type questionItem struct {
	Question string `json:"question"`
	Text     string `json:"text"`
	Title    string `json:"title"`
	Answer   string `json:"answer"`
}

type legacyPayload struct {
	InterviewQuestions []questionItem `json:"interview_questions"`
}

var ErrUnrecognizedPayload = errors.New("unrecognized question payload shape")

// Parse extracts the question list from a raw generation payload.
func Parse(raw []byte) ([]interview.Question, error) {
	obj := json.RawMessage(raw)

	// The payload may arrive as a one-element array wrapping the object.
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		var flat []questionItem
		if err := json.Unmarshal(raw, &flat); err == nil {
			if qs := collect(flat); len(qs) > 0 {
				return qs, nil
			}
		}
		if len(arr) == 0 {
			return nil, ErrUnrecognizedPayload
		}
		obj = arr[0]
	}

	var legacy legacyPayload
	if err := json.Unmarshal(obj, &legacy); err == nil {
		if qs := collect(legacy.InterviewQuestions); len(qs) > 0 {
			return qs, nil
		}
	}

	var categories map[string]json.RawMessage
	if err := json.Unmarshal(obj, &categories); err == nil {
		// Category order is not meaningful upstream; sort for determinism.
		keys := make([]string, 0, len(categories))
		for k := range categories {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var qs []interview.Question
		for _, k := range keys {
			var items []questionItem
			if err := json.Unmarshal(categories[k], &items); err != nil {
				continue
			}
			qs = append(qs, collect(items)...)
		}
		if len(qs) > 0 {
			return qs, nil
		}
	}

	return nil, ErrUnrecognizedPayload
}

func collect(items []questionItem) []interview.Question {
	var qs []interview.Question
	for _, item := range items {
		text := item.Question
		if text == "" {
			text = item.Text
		}
		if text == "" {
			text = item.Title
		}
		if text == "" {
			continue
		}
		qs = append(qs, interview.Question{Text: text, ReferenceAnswer: item.Answer})
	}
	return qs
}
