// File: internal/validate/judge_test.go
package validate

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/internal/config"
)

type fakeCompletionClient struct {
	content string
	err     error
}

func (f *fakeCompletionClient) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestJudge(client completionClient) *ModelJudge {
	return &ModelJudge{client: client, model: "judge-model", logger: zap.NewNop()}
}

func TestModelJudge(t *testing.T) {
	t.Run("yes answer", func(t *testing.T) {
		ok, err := newTestJudge(&fakeCompletionClient{content: "YES"}).
			Judge(context.Background(), "booking confirmed", "digest")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no answer with trailing prose", func(t *testing.T) {
		ok, err := newTestJudge(&fakeCompletionClient{content: "no, the banner is missing"}).
			Judge(context.Background(), "c", "d")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non-binary answer is an error", func(t *testing.T) {
		_, err := newTestJudge(&fakeCompletionClient{content: "maybe"}).
			Judge(context.Background(), "c", "d")
		assert.Error(t, err)
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		_, err := newTestJudge(&fakeCompletionClient{err: errors.New("refused")}).
			Judge(context.Background(), "c", "d")
		assert.Error(t, err)
	})
}

func TestNewModelJudge(t *testing.T) {
	_, err := NewModelJudge(config.AgentConfig{})
	assert.Error(t, err)

	j, err := NewModelJudge(config.AgentConfig{Model: "judge", BaseURL: "http://localhost:8000/v1"})
	require.NoError(t, err)
	assert.NotNil(t, j)
}
