package telegram

import (
	"fmt"
	"strings"

	"ai-interviewer/internal/interview"
)

func formatFeedback(slot int, text *interview.TextFeedback, voice *interview.VoiceFeedback) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Feedback for question %d\n", slot+1)
	switch {
	case text != nil:
		fmt.Fprintf(&sb, "Relevance: %s\n", text.Relevance)
		fmt.Fprintf(&sb, "Grammar: %s\n", text.Grammar)
		sb.WriteString("\n")
		sb.WriteString(text.Feedback)
	case voice != nil:
		fmt.Fprintf(&sb, "Relevance: %s\n", voice.Relevance)
		fmt.Fprintf(&sb, "Grammar: %s\n", voice.Grammar)
		fmt.Fprintf(&sb, "Fluency: %s\n", voice.Fluency)
		fmt.Fprintf(&sb, "Pronunciation: %s\n", voice.Pronunciation)
		sb.WriteString("\n")
		sb.WriteString(voice.Feedback)
	}
	return sb.String()
}
