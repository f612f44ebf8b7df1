// File: internal/agent/agent.go
// Description: Agent adapter factory and the shared history bookkeeping all
// variants embed.
package agent

import (
	"os"
	"sync"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/config"
)

// New builds the agent variant selected by cfg.Kind.
func New(cfg config.AgentConfig) (schemas.Agent, error) {
	switch cfg.Kind {
	case "human":
		return NewHumanAgent(), nil
	case "terminal":
		return NewTerminalAgent(os.Stdin, os.Stdout), nil
	case "model":
		return NewModelAgent(cfg)
	}
	return nil, schemas.Errorf(schemas.KindInvalidConfiguration, "unknown agent kind %q", cfg.Kind)
}

// baseHistory implements the history part of the agent contract. Safe for
// concurrent use; History returns a copy so callers cannot mutate it.
type baseHistory struct {
	mu    sync.Mutex
	steps []schemas.Step
}

func (b *baseHistory) AddToHistory(step schemas.Step) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, step)
}

func (b *baseHistory) History() []schemas.Step {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]schemas.Step, len(b.steps))
	copy(out, b.steps)
	return out
}

func (b *baseHistory) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = nil
}
