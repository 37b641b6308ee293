package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Morwran/yagpt"
)

// Yandex evaluates typed answers through YaGPT. Voice is not supported.
type Yandex struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*Yandex, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &Yandex{ya: ya, iamToken: resp.IamToken}, nil
}

func (c *Yandex) EvaluateText(ctx context.Context, question, answer string) (string, error) {
	messages := []yagpt.Message{
		{Role: "user", Content: fmt.Sprintf(textEvaluationPrompt, question, answer)},
	}
	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, messages)
	if err != nil {
		return "", fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return "", fmt.Errorf("yagpt returned empty response")
	}
	return resp.Alternatives[0].Message.Content, nil
}

func (c *Yandex) EvaluateVoice(ctx context.Context, question string, audio Audio) (string, error) {
	return "", errors.New("voice evaluation is not supported by the yandex provider")
}
