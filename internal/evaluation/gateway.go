package evaluation

import "context"

// Audio is an opaque recorded answer plus the MIME type it was captured with.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Evaluator scores a single answer against its question and returns the raw
// evaluator reply. The reply is best-effort text that usually, but not
// always, contains a JSON feedback object; callers run it through the
// normalizer. An error means the call itself failed (missing key, transport,
// non-success status), never a malformed reply.
type Evaluator interface {
	EvaluateText(ctx context.Context, question, answer string) (string, error)
	EvaluateVoice(ctx context.Context, question string, audio Audio) (string, error)
}

const textEvaluationPrompt = `You are an expert interviewer evaluating candidate answers. Please evaluate the following:

Question: %s
Answer: %s

Please provide your evaluation in the following JSON format (return ONLY the JSON object, no markdown formatting):
{
  "relevance": "High/Medium/Low",
  "grammar": "Correct/Incorrect",
  "feedback": "Detailed feedback about the answer's strengths and areas for improvement"
}

Focus on:
- How well the answer addresses the question
- Grammar and language quality
- Specific, constructive feedback for improvement

IMPORTANT: Return ONLY the JSON object without any markdown code blocks or additional text.`

const voiceEvaluationPrompt = `You are an expert interviewer evaluating a candidate's voice response. Please evaluate the following:

Question: %s
Audio Response: [Voice recording provided]

Please provide your evaluation in the following JSON format (return ONLY the JSON object, no markdown formatting):
{
  "relevance": "High/Medium/Low",
  "grammar": "Correct/Incorrect",
  "fluency": "Excellent/Good/Fair/Poor",
  "pronunciation": "Clear/Unclear",
  "feedback": "Detailed feedback about the voice response including content, delivery, and areas for improvement"
}

IMPORTANT: Return ONLY the JSON object.`
