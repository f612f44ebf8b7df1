// File: internal/agent/model.go
// Description: Model-backed agent calling an OpenAI-compatible chat
// endpoint with the current screenshot and parsing the function-call style
// action it returns.
package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/config"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

const modelSystemPrompt = `You are a web agent operating a browser through screenshots.
Each turn you receive the current screenshot and the task description.
Respond with exactly one action in this form, optionally preceded by a short thought:

Thought: <one sentence, optional>
Action: <one of>
  click(start_box='(x,y)')
  type(content='text to insert')
  scroll(start_box='(x,y)', direction='down')
  drag(start_box='(x1,y1)', end_box='(x2,y2)')
  wait()
  finished()
  fail(reason='why the task cannot be done')

Coordinates are CSS pixels in the screenshot. Use finished() only when the
task goal is visibly satisfied.`

// defaultScrollAmount is used when the model does not specify one.
const defaultScrollAmount = 300

// chatClient is the slice of the OpenAI client this agent needs; tests
// substitute it.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelAgent drives the loop with a vision-capable chat model.
type ModelAgent struct {
	baseHistory
	client   chatClient
	model    string
	temp     float32
	historyN int
	logger   *zap.Logger
}

var _ schemas.Agent = (*ModelAgent)(nil)

// NewModelAgent builds a model agent from configuration. BaseURL may point
// at any OpenAI-compatible server.
func NewModelAgent(cfg config.AgentConfig) (*ModelAgent, error) {
	if cfg.Model == "" {
		return nil, schemas.Errorf(schemas.KindInvalidConfiguration, "model agent requires agent.model")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	historyN := cfg.HistoryN
	if historyN <= 0 {
		historyN = 3
	}
	return &ModelAgent{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		temp:     cfg.Temperature,
		historyN: historyN,
		logger:   observability.GetLogger().Named("model_agent"),
	}, nil
}

// Predict sends the screenshot and task to the model and parses the
// returned action. Malformed output is a decision error; it is never
// silently retried.
func (m *ModelAgent) Predict(ctx context.Context, snap *schemas.Snapshot, taskDescription string) (schemas.Action, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: modelSystemPrompt},
	}
	messages = append(messages, m.historyMessages()...)

	userParts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("Task: %s", taskDescription),
		},
	}
	if snap != nil && len(snap.Screenshot) > 0 {
		userParts = append(userParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/png;base64," +
					base64.StdEncoding.EncodeToString(snap.Screenshot),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: userParts,
	})

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    messages,
		Temperature: m.temp,
	})
	if err != nil {
		return schemas.Action{}, schemas.Errorf(schemas.KindAgentDecision, "inference call failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return schemas.Action{}, schemas.Errorf(schemas.KindAgentDecision, "model returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	action, err := parseModelOutput(raw)
	if err != nil {
		m.logger.Debug("unparseable model output", zap.String("output", raw))
		return schemas.Action{}, schemas.NewError(schemas.KindAgentDecision, err)
	}
	return action, nil
}

// historyMessages replays the last historyN steps as compact assistant
// turns so the model keeps short-term context without unbounded growth.
func (m *ModelAgent) historyMessages() []openai.ChatCompletionMessage {
	steps := m.History()
	if len(steps) > m.historyN {
		steps = steps[len(steps)-m.historyN:]
	}
	out := make([]openai.ChatCompletionMessage, 0, len(steps))
	for _, s := range steps {
		content := fmt.Sprintf("Step %d: %s", s.Index, s.Action.String())
		if s.Error != "" {
			content += fmt.Sprintf(" (error: %s)", s.Error)
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: content,
		})
	}
	return out
}

func (m *ModelAgent) Info() schemas.AgentInfo {
	return schemas.AgentInfo{
		Name:         m.model,
		Kind:         "model",
		Capabilities: []string{"vision", "multi-turn-history"},
	}
}

// -- output parsing --

var (
	boxRe    = `'?\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)'?`
	clickRe  = regexp.MustCompile(`click\(\s*start_box=` + boxRe + `\s*\)`)
	typeRe   = regexp.MustCompile(`type\(\s*content='((?:[^'\\]|\\.)*)'\s*\)`)
	scrollRe = regexp.MustCompile(`scroll\(\s*start_box=` + boxRe + `\s*,\s*direction='(up|down|left|right)'(?:\s*,\s*amount=(\d+(?:\.\d+)?))?\s*\)`)
	dragRe   = regexp.MustCompile(`drag\(\s*start_box=` + boxRe + `\s*,\s*end_box=` + boxRe + `\s*\)`)
	waitRe   = regexp.MustCompile(`wait\(\s*(?:ms=(\d+)\s*)?\)`)
	doneRe   = regexp.MustCompile(`finished\(\s*(?:content='(?:[^'\\]|\\.)*'\s*)?\)`)
	failRe   = regexp.MustCompile(`fail\(\s*(?:reason='((?:[^'\\]|\\.)*)'\s*)?\)`)
)

// parseModelOutput extracts the single action from model text. When the
// model prefixes a thought, only the text after the last "Action:" marker
// is considered.
func parseModelOutput(raw string) (schemas.Action, error) {
	text := raw
	if idx := strings.LastIndex(raw, "Action:"); idx >= 0 {
		text = raw[idx+len("Action:"):]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return schemas.Action{}, fmt.Errorf("empty model output")
	}

	if m := clickRe.FindStringSubmatch(text); m != nil {
		x, y := mustFloat(m[1]), mustFloat(m[2])
		return schemas.Action{Kind: schemas.ActionClick, X: x, Y: y}, nil
	}
	if m := typeRe.FindStringSubmatch(text); m != nil {
		return schemas.Action{Kind: schemas.ActionTypeIn, Text: unescapeQuotes(m[1])}, nil
	}
	if m := scrollRe.FindStringSubmatch(text); m != nil {
		amount := float64(defaultScrollAmount)
		if m[4] != "" {
			amount = mustFloat(m[4])
		}
		return schemas.Action{
			Kind:      schemas.ActionScroll,
			X:         mustFloat(m[1]),
			Y:         mustFloat(m[2]),
			Direction: schemas.ScrollDirection(m[3]),
			Amount:    amount,
		}, nil
	}
	if m := dragRe.FindStringSubmatch(text); m != nil {
		return schemas.Action{
			Kind: schemas.ActionDrag,
			X:    mustFloat(m[1]), Y: mustFloat(m[2]),
			ToX: mustFloat(m[3]), ToY: mustFloat(m[4]),
		}, nil
	}
	if m := waitRe.FindStringSubmatch(text); m != nil {
		ms := int64(1000)
		if m[1] != "" {
			ms, _ = strconv.ParseInt(m[1], 10, 64)
		}
		return schemas.Action{Kind: schemas.ActionWait, WaitMS: ms}, nil
	}
	if doneRe.MatchString(text) {
		return schemas.Action{Kind: schemas.ActionDone}, nil
	}
	if m := failRe.FindStringSubmatch(text); m != nil {
		reason := unescapeQuotes(m[1])
		if reason == "" {
			reason = "model declared failure"
		}
		return schemas.Action{Kind: schemas.ActionFail, Reason: reason}, nil
	}

	return schemas.Action{}, fmt.Errorf("unrecognized action in model output: %q", truncateForError(text))
}

func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func unescapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

func truncateForError(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
