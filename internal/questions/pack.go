package questions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ai-interviewer/internal/interview"
)

// Pack is a curated question set loaded from a YAML file, used to run
// sessions without the generation pipeline.
type Pack struct {
	JobTitle       string         `yaml:"jobTitle"`
	JobDescription string         `yaml:"jobDescription"`
	Questions      []PackQuestion `yaml:"questions"`
}

type PackQuestion struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question pack: %w", err)
	}
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse question pack %s: %w", path, err)
	}
	if len(pack.Questions) == 0 {
		return nil, fmt.Errorf("question pack %s contains no questions", path)
	}
	return &pack, nil
}

// InterviewQuestions converts the pack into the session question list.
func (p *Pack) InterviewQuestions() []interview.Question {
	qs := make([]interview.Question, 0, len(p.Questions))
	for _, q := range p.Questions {
		if q.Question == "" {
			continue
		}
		qs = append(qs, interview.Question{Text: q.Question, ReferenceAnswer: q.Answer})
	}
	return qs
}
