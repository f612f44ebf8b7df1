// File: internal/agent/terminal.go
// Description: Operator-driven agent reading one command per line from a
// terminal.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

const terminalHelp = `Commands:
  click X Y            click at logical coordinates
  type TEXT            insert TEXT into the focused element
  scroll DIR AMOUNT [X Y]   DIR is up/down/left/right; anchor defaults to viewport center
  drag X1 Y1 X2 Y2     press at (X1,Y1), release at (X2,Y2)
  wait MS              pause for MS milliseconds
  done                 declare the task complete
  fail [REASON]        give up
  help                 show this text`

// TerminalAgent turns operator command lines into abstract actions.
type TerminalAgent struct {
	baseHistory
	scanner *bufio.Scanner
	out     io.Writer
}

var _ schemas.Agent = (*TerminalAgent)(nil)

func NewTerminalAgent(in io.Reader, out io.Writer) *TerminalAgent {
	return &TerminalAgent{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Predict prompts and reads lines until one parses. Input reaching EOF is
// treated as the operator abandoning the task. The read itself is a
// blocking stdin read; the session timeout is the backstop, per the agent
// contract.
func (t *TerminalAgent) Predict(ctx context.Context, snap *schemas.Snapshot, taskDescription string) (schemas.Action, error) {
	fmt.Fprintf(t.out, "\nTask: %s\n", taskDescription)
	if snap != nil {
		fmt.Fprintf(t.out, "Page: %s (viewport %.0fx%.0f)\n",
			snap.Info.URL, snap.Info.Viewport.Width, snap.Info.Viewport.Height)
		if snap.Ref != "" {
			fmt.Fprintf(t.out, "Screenshot: %s\n", snap.Ref)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return schemas.Action{}, schemas.NewError(schemas.KindCancelled, err)
		}
		fmt.Fprint(t.out, "> ")
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return schemas.Action{}, schemas.NewError(schemas.KindAgentDecision, err)
			}
			return schemas.Action{Kind: schemas.ActionFail, Reason: "operator input closed"}, nil
		}

		line := strings.TrimSpace(t.scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "help") {
			fmt.Fprintln(t.out, terminalHelp)
			continue
		}

		var vp schemas.Viewport
		if snap != nil {
			vp = snap.Info.Viewport
		}
		action, err := ParseCommand(line, vp)
		if err != nil {
			fmt.Fprintf(t.out, "error: %v (try 'help')\n", err)
			continue
		}
		return action, nil
	}
}

func (t *TerminalAgent) Info() schemas.AgentInfo {
	return schemas.AgentInfo{
		Name:         "terminal",
		Kind:         "terminal",
		Capabilities: []string{"command-line-input"},
	}
}

// ParseCommand parses one operator command line into an action. Scroll
// commands given without an anchor default to the center of vp. Exported
// so the command grammar can be exercised directly.
func ParseCommand(line string, vp schemas.Viewport) (schemas.Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return schemas.Action{}, fmt.Errorf("empty command")
	}

	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "click":
		if len(args) != 2 {
			return schemas.Action{}, fmt.Errorf("click wants X Y")
		}
		x, y, err := parseCoords(args[0], args[1])
		if err != nil {
			return schemas.Action{}, err
		}
		return schemas.Action{Kind: schemas.ActionClick, X: x, Y: y}, nil

	case "type":
		rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if rest == "" {
			return schemas.Action{}, fmt.Errorf("type wants TEXT")
		}
		return schemas.Action{Kind: schemas.ActionTypeIn, Text: rest}, nil

	case "scroll":
		if len(args) != 2 && len(args) != 4 {
			return schemas.Action{}, fmt.Errorf("scroll wants DIR AMOUNT [X Y]")
		}
		dir := schemas.ScrollDirection(strings.ToLower(args[0]))
		switch dir {
		case schemas.ScrollUp, schemas.ScrollDown, schemas.ScrollLeft, schemas.ScrollRight:
		default:
			return schemas.Action{}, fmt.Errorf("scroll direction must be up/down/left/right, got %q", args[0])
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil || amount <= 0 {
			return schemas.Action{}, fmt.Errorf("scroll amount must be a positive number, got %q", args[1])
		}
		a := schemas.Action{
			Kind:      schemas.ActionScroll,
			Direction: dir,
			Amount:    amount,
			X:         vp.Width / 2,
			Y:         vp.Height / 2,
		}
		if len(args) == 4 {
			a.X, a.Y, err = parseCoords(args[2], args[3])
			if err != nil {
				return schemas.Action{}, err
			}
		}
		return a, nil

	case "drag":
		if len(args) != 4 {
			return schemas.Action{}, fmt.Errorf("drag wants X1 Y1 X2 Y2")
		}
		x1, y1, err := parseCoords(args[0], args[1])
		if err != nil {
			return schemas.Action{}, err
		}
		x2, y2, err := parseCoords(args[2], args[3])
		if err != nil {
			return schemas.Action{}, err
		}
		return schemas.Action{Kind: schemas.ActionDrag, X: x1, Y: y1, ToX: x2, ToY: y2}, nil

	case "wait":
		if len(args) != 1 {
			return schemas.Action{}, fmt.Errorf("wait wants MS")
		}
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || ms <= 0 {
			return schemas.Action{}, fmt.Errorf("wait duration must be a positive integer, got %q", args[0])
		}
		return schemas.Action{Kind: schemas.ActionWait, WaitMS: ms}, nil

	case "done":
		return schemas.Action{Kind: schemas.ActionDone}, nil

	case "fail":
		reason := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if reason == "" {
			reason = "operator reported failure"
		}
		return schemas.Action{Kind: schemas.ActionFail, Reason: reason}, nil
	}

	return schemas.Action{}, fmt.Errorf("unknown command %q", cmd)
}

func parseCoords(xs, ys string) (float64, float64, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil || x < 0 {
		return 0, 0, fmt.Errorf("coordinate must be a non-negative number, got %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil || y < 0 {
		return 0, 0, fmt.Errorf("coordinate must be a non-negative number, got %q", ys)
	}
	return x, y, nil
}
