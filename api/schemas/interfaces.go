// api/schemas/interfaces.go
// Description: Cross-package contracts. Keeping these here (rather than in
// the implementing packages) lets the orchestrator depend on behavior, not
// on concrete browser or agent code.
package schemas

import (
	"context"
	"encoding/json"
)

// Agent is the uniform contract over heterogeneous decision sources
// (human operator, terminal operator, model-backed predictor). Predict may
// suspend indefinitely for interactive variants; the session's overall
// timeout is the backstop, and implementations must honor ctx cancellation
// while waiting.
type Agent interface {
	// Predict turns the current page snapshot and task description into
	// one abstract action.
	Predict(ctx context.Context, snap *Snapshot, taskDescription string) (Action, error)

	// AddToHistory is called by the orchestrator after every step for
	// variants that maintain multi-turn context.
	AddToHistory(step Step)

	// History returns the steps recorded so far. Read-only for callers.
	History() []Step

	// Reset clears per-session state so the agent can be reused.
	Reset()

	// Info identifies the agent for the outcome record.
	Info() AgentInfo
}

// Driver is the abstract browser boundary: the primitive commands this
// system issues and the raw results it consumes. Any remote-debugging
// automation backend satisfying this set is acceptable.
type Driver interface {
	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// CaptureScreenshot takes a protocol-level screenshot. It must not
	// alter focus, scroll position, or dialog state.
	CaptureScreenshot(ctx context.Context) ([]byte, error)

	// PageInfo reports the current URL, title, viewport dimensions and
	// device scale factor.
	PageInfo(ctx context.Context) (*PageInfo, error)

	// DispatchMouseEvent sends one raw mouse event at physical
	// coordinates.
	DispatchMouseEvent(ctx context.Context, data MouseEventData) error

	// InsertText inserts text into the currently focused element without
	// stealing focus.
	InsertText(ctx context.Context, text string) error

	// OuterHTML returns the serialized document for digest building.
	OuterHTML(ctx context.Context) (string, error)

	// EvaluateJSON evaluates a JavaScript expression and returns its
	// JSON-serialized result.
	EvaluateJSON(ctx context.Context, expr string) (json.RawMessage, error)

	// Close releases the underlying page context.
	Close() error
}

// StateReader exposes the page-reported selection state consumed by the
// task completion validator.
type StateReader interface {
	SelectedValues(ctx context.Context) (*Selection, error)
}

// Judge is the external collaborator deciding free-text success checks.
// Implementations may call out to a model or a human; a returned error
// means no verdict could be produced (ambiguous).
type Judge interface {
	Judge(ctx context.Context, check string, stateDigest string) (bool, error)
}
