// File: internal/validate/judge.go
// Description: Model-backed judge for free-text success checks.
package validate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/config"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

const judgeSystemPrompt = `You judge whether a success check holds against a
snapshot of web page state. Answer with exactly one word: YES or NO.`

// completionClient is the slice of the OpenAI client the judge needs.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelJudge decides free-text checks by asking a chat model. Any failure
// to obtain a clear YES/NO answer is reported as an error, which the
// validator maps to AMBIGUOUS.
type ModelJudge struct {
	client completionClient
	model  string
	logger *zap.Logger
}

var _ schemas.Judge = (*ModelJudge)(nil)

// NewModelJudge builds a judge from the agent's model configuration.
func NewModelJudge(cfg config.AgentConfig) (*ModelJudge, error) {
	if cfg.Model == "" {
		return nil, schemas.Errorf(schemas.KindInvalidConfiguration, "model judge requires agent.model")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &ModelJudge{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: observability.GetLogger().Named("judge"),
	}, nil
}

// Judge evaluates one check against the state digest.
func (j *ModelJudge) Judge(ctx context.Context, check, stateDigest string) (bool, error) {
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Check: %s\n\nPage state:\n%s\n\nDoes the check hold? Answer YES or NO.",
					check, stateDigest),
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return false, fmt.Errorf("judge inference failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("judge returned no choices")
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content))
	switch {
	case strings.HasPrefix(answer, "YES"):
		return true, nil
	case strings.HasPrefix(answer, "NO"):
		return false, nil
	}
	j.logger.Debug("non-binary judge answer", zap.String("answer", answer))
	return false, fmt.Errorf("judge gave no verdict: %q", answer)
}
