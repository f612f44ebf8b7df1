// File: internal/action/commands.go
package action

import (
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// CommandKind tags the driver-level primitives a translated action expands
// into.
type CommandKind string

const (
	CmdMouseMove  CommandKind = "mouse_move"
	CmdMouseDown  CommandKind = "mouse_down"
	CmdMouseUp    CommandKind = "mouse_up"
	CmdWheel      CommandKind = "wheel"
	CmdInsertText CommandKind = "insert_text"
	CmdDelay      CommandKind = "delay"
)

// Command is one driver-level primitive. Mouse fields are populated for the
// mouse kinds, Text for insert_text, Delay for delay.
type Command struct {
	Kind  CommandKind
	Mouse schemas.MouseEventData
	Text  string
	Delay time.Duration
}

// Describe renders a command sequence as a compact one-line summary for the
// step trace.
func Describe(cmds []Command) string {
	if len(cmds) == 0 {
		return "no-op"
	}
	parts := make([]string, 0, len(cmds))
	for _, c := range cmds {
		switch c.Kind {
		case CmdMouseMove:
			parts = append(parts, fmt.Sprintf("move(%.0f,%.0f)", c.Mouse.X, c.Mouse.Y))
		case CmdMouseDown:
			parts = append(parts, fmt.Sprintf("down(%.0f,%.0f)", c.Mouse.X, c.Mouse.Y))
		case CmdMouseUp:
			parts = append(parts, fmt.Sprintf("up(%.0f,%.0f)", c.Mouse.X, c.Mouse.Y))
		case CmdWheel:
			parts = append(parts, fmt.Sprintf("wheel(%.0f,%.0f d=%.0f,%.0f)",
				c.Mouse.X, c.Mouse.Y, c.Mouse.DeltaX, c.Mouse.DeltaY))
		case CmdInsertText:
			parts = append(parts, fmt.Sprintf("text(%d chars)", len(c.Text)))
		case CmdDelay:
			parts = append(parts, fmt.Sprintf("delay(%s)", c.Delay))
		default:
			parts = append(parts, string(c.Kind))
		}
	}
	return strings.Join(parts, " ")
}
