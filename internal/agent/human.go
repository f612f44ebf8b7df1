// File: internal/agent/human.go
package agent

import (
	"context"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// HumanAgent represents an operator interacting with the live browser
// window directly. Predict suspends until the operator signals an action
// (usually a terminal DONE/FAIL once they finished working in the page);
// the session timeout and cancellation are the only other ways out.
type HumanAgent struct {
	baseHistory
	signals chan schemas.Action
}

var _ schemas.Agent = (*HumanAgent)(nil)

func NewHumanAgent() *HumanAgent {
	return &HumanAgent{signals: make(chan schemas.Action)}
}

// Predict blocks until Submit, Complete or Fail is called, or ctx ends.
func (h *HumanAgent) Predict(ctx context.Context, _ *schemas.Snapshot, _ string) (schemas.Action, error) {
	select {
	case <-ctx.Done():
		return schemas.Action{}, schemas.NewError(schemas.KindCancelled, ctx.Err())
	case a := <-h.signals:
		return a, nil
	}
}

// Submit hands an arbitrary action to a pending Predict call. Blocks until
// the orchestrator is ready to receive it or ctx ends.
func (h *HumanAgent) Submit(ctx context.Context, a schemas.Action) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case h.signals <- a:
		return nil
	}
}

// Complete signals that the operator finished the task in the browser.
func (h *HumanAgent) Complete(ctx context.Context) error {
	return h.Submit(ctx, schemas.Action{Kind: schemas.ActionDone})
}

// Fail signals that the operator gave up.
func (h *HumanAgent) Fail(ctx context.Context, reason string) error {
	return h.Submit(ctx, schemas.Action{Kind: schemas.ActionFail, Reason: reason})
}

func (h *HumanAgent) Info() schemas.AgentInfo {
	return schemas.AgentInfo{
		Name:         "human",
		Kind:         "human",
		Capabilities: []string{"manual-browser-interaction", "completion-signal"},
	}
}
