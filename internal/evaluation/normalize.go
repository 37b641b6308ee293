package evaluation

import (
	"encoding/json"
	"regexp"
	"strings"

	"ai-interviewer/internal/interview"
)

// The evaluator promises a bare JSON object but routinely wraps it in
// markdown fences or surrounds it with prose, and sometimes omits fields.
// Normalization therefore degrades tier by tier: strict parse of the first
// balanced object, then per-field extraction. It never returns an error;
// a reply nobody can parse still yields a structurally valid record.

var (
	fenceOpenRe  = regexp.MustCompile("(?m)^```[a-zA-Z]*[ \t]*")
	fenceCloseRe = regexp.MustCompile("(?m)\\s*```$")
)

var fieldRe = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, f := range []string{"relevance", "grammar", "fluency", "pronunciation", "feedback"} {
		m[f] = regexp.MustCompile(`"` + f + `"\s*:\s*"([^"]+)"`)
	}
	return m
}()

// NormalizeText converts a raw evaluator reply into text feedback.
func NormalizeText(raw string) interview.TextFeedback {
	if strings.TrimSpace(raw) == "" {
		return TextFailure("Empty response from evaluator")
	}
	if m, ok := firstObject(stripFences(raw)); ok && complete(m, "relevance", "grammar", "feedback") {
		return interview.TextFeedback{
			Relevance: interview.Relevance(m["relevance"]),
			Grammar:   interview.Grammar(m["grammar"]),
			Feedback:  m["feedback"],
		}
	}
	m := extractFields(raw, "relevance", "grammar", "feedback")
	return interview.TextFeedback{
		Relevance: interview.Relevance(orUnknown(m["relevance"])),
		Grammar:   interview.Grammar(orUnknown(m["grammar"])),
		Feedback:  narrativeFallback(m["feedback"], raw),
	}
}

// NormalizeVoice converts a raw evaluator reply into voice feedback.
func NormalizeVoice(raw string) interview.VoiceFeedback {
	if strings.TrimSpace(raw) == "" {
		return VoiceFailure("Empty response from evaluator")
	}
	if m, ok := firstObject(stripFences(raw)); ok && complete(m, "relevance", "grammar", "fluency", "pronunciation", "feedback") {
		return interview.VoiceFeedback{
			Relevance:     interview.Relevance(m["relevance"]),
			Grammar:       interview.Grammar(m["grammar"]),
			Fluency:       interview.Fluency(m["fluency"]),
			Pronunciation: interview.Pronunciation(m["pronunciation"]),
			Feedback:      m["feedback"],
		}
	}
	m := extractFields(raw, "relevance", "grammar", "fluency", "pronunciation", "feedback")
	return interview.VoiceFeedback{
		Relevance:     interview.Relevance(orUnknown(m["relevance"])),
		Grammar:       interview.Grammar(orUnknown(m["grammar"])),
		Fluency:       interview.Fluency(orUnknown(m["fluency"])),
		Pronunciation: interview.Pronunciation(orUnknown(m["pronunciation"])),
		Feedback:      narrativeFallback(m["feedback"], raw),
	}
}

// TextFailure builds the all-error record for an upstream failure; reason
// becomes the narrative ("API key not configured", "API Error: 503", ...).
func TextFailure(reason string) interview.TextFeedback {
	return interview.TextFeedback{
		Relevance: interview.RelevanceError,
		Grammar:   interview.GrammarError,
		Feedback:  reason,
	}
}

// VoiceFailure is the voice-shaped counterpart of TextFailure.
func VoiceFailure(reason string) interview.VoiceFeedback {
	return interview.VoiceFeedback{
		Relevance:     interview.RelevanceError,
		Grammar:       interview.GrammarError,
		Fluency:       interview.FluencyError,
		Pronunciation: interview.PronunciationError,
		Feedback:      reason,
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "```", "")
}

// firstObject locates the smallest parseable {...} span starting at the
// first opening brace. Candidate closing braces are tried in order; the
// first span that decodes as a flat string object wins.
func firstObject(s string) (map[string]string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return nil, false
	}
	for i := start; i < len(s); i++ {
		if s[i] != '}' {
			continue
		}
		var m map[string]string
		if err := json.Unmarshal([]byte(s[start:i+1]), &m); err == nil {
			return m, true
		}
	}
	return nil, false
}

func complete(m map[string]string, fields ...string) bool {
	for _, f := range fields {
		if m[f] == "" {
			return false
		}
	}
	return true
}

// extractFields searches the untouched raw text for each quoted field,
// independently of the others. Fields without a match stay absent.
func extractFields(raw string, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if match := fieldRe[f].FindStringSubmatch(raw); match != nil {
			out[f] = match[1]
		}
	}
	return out
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

func narrativeFallback(extracted, raw string) string {
	if extracted != "" {
		return extracted
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return "Failed to parse response"
}
