// api/schemas/actions.go
package schemas

import "fmt"

// ActionKind tags the variants of an abstract agent action.
type ActionKind string

const (
	ActionClick  ActionKind = "click"
	ActionTypeIn ActionKind = "type"
	ActionScroll ActionKind = "scroll"
	ActionDrag   ActionKind = "drag"
	ActionWait   ActionKind = "wait"
	ActionDone   ActionKind = "done"
	ActionFail   ActionKind = "fail"
)

// ScrollDirection determines which axis a scroll affects and the sign
// applied to its amount.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// Action is the tagged variant issued by an agent. All coordinates are
// logical (CSS-pixel); physical conversion is the translator's concern.
// Only the fields relevant to Kind are populated.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Click / Scroll anchor / Drag start.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// Drag end.
	ToX float64 `json:"to_x,omitempty"`
	ToY float64 `json:"to_y,omitempty"`

	// Type.
	Text string `json:"text,omitempty"`

	// Scroll.
	Direction ScrollDirection `json:"direction,omitempty"`
	Amount    float64         `json:"amount,omitempty"`

	// Wait.
	WaitMS int64 `json:"wait_ms,omitempty"`

	// Fail.
	Reason string `json:"reason,omitempty"`
}

// Terminal reports whether the action ends the session loop.
func (a Action) Terminal() bool {
	return a.Kind == ActionDone || a.Kind == ActionFail
}

// Validate checks that the fields required by the action's kind are
// present and sane.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionClick:
		if a.X < 0 || a.Y < 0 {
			return fmt.Errorf("click: negative coordinates (%.1f, %.1f)", a.X, a.Y)
		}
	case ActionTypeIn:
		if a.Text == "" {
			return fmt.Errorf("type: empty text")
		}
	case ActionScroll:
		switch a.Direction {
		case ScrollUp, ScrollDown, ScrollLeft, ScrollRight:
		default:
			return fmt.Errorf("scroll: invalid direction %q", a.Direction)
		}
		if a.Amount <= 0 {
			return fmt.Errorf("scroll: non-positive amount %.1f", a.Amount)
		}
	case ActionDrag:
		if a.X < 0 || a.Y < 0 || a.ToX < 0 || a.ToY < 0 {
			return fmt.Errorf("drag: negative coordinates")
		}
	case ActionWait:
		if a.WaitMS <= 0 {
			return fmt.Errorf("wait: non-positive duration %dms", a.WaitMS)
		}
	case ActionDone:
	case ActionFail:
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// String renders a compact human-readable form used in logs and traces.
func (a Action) String() string {
	switch a.Kind {
	case ActionClick:
		return fmt.Sprintf("click(%.0f, %.0f)", a.X, a.Y)
	case ActionTypeIn:
		return fmt.Sprintf("type(%q)", truncate(a.Text, 40))
	case ActionScroll:
		return fmt.Sprintf("scroll(%s, %.0f @ %.0f,%.0f)", a.Direction, a.Amount, a.X, a.Y)
	case ActionDrag:
		return fmt.Sprintf("drag(%.0f,%.0f -> %.0f,%.0f)", a.X, a.Y, a.ToX, a.ToY)
	case ActionWait:
		return fmt.Sprintf("wait(%dms)", a.WaitMS)
	case ActionDone:
		return "done"
	case ActionFail:
		return fmt.Sprintf("fail(%q)", a.Reason)
	}
	return string(a.Kind)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
