// File: internal/action/translator.go
// Description: Expands abstract agent actions into sequences of driver-level
// primitives, converting logical coordinates to physical device pixels on
// the way.
package action

import (
	"math"
	"time"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/geometry"
)

const (
	// dragMinMoves / dragMaxMoves bound how many intermediate pointer moves
	// a drag is broken into. Drag-sensitive widgets (sliders, range
	// pickers) ignore drags that teleport in one move.
	dragMinMoves = 3
	dragMaxMoves = 12
	// dragPixelsPerMove spaces intermediate moves roughly this far apart.
	dragPixelsPerMove = 60.0
)

// Translator converts abstract actions into driver commands. Stateless;
// safe for concurrent use.
type Translator struct{}

// NewTranslator returns a ready translator.
func NewTranslator() *Translator { return &Translator{} }

// Translate expands a into driver primitives. Coordinates in a are logical
// CSS pixels; the returned commands carry physical device pixels produced
// by m. Terminal actions (done, fail) translate to an empty sequence.
// Coordinates outside the viewport yield a KindOutOfBounds error.
func (t *Translator) Translate(a schemas.Action, m *geometry.Mapper, vp schemas.Viewport) ([]Command, error) {
	if err := a.Validate(); err != nil {
		return nil, schemas.NewError(schemas.KindAgentDecision, err)
	}

	switch a.Kind {
	case schemas.ActionClick:
		if err := checkBounds(a.X, a.Y, vp); err != nil {
			return nil, err
		}
		p := m.ToPhysical(geometry.Point{X: a.X, Y: a.Y})
		return []Command{
			mouse(CmdMouseMove, schemas.MouseMoved, p, "", 0),
			mouse(CmdMouseDown, schemas.MousePressed, p, "left", 1),
			mouse(CmdMouseUp, schemas.MouseReleased, p, "left", 1),
		}, nil

	case schemas.ActionTypeIn:
		// Text lands in whatever element currently holds focus. No mouse
		// traffic, so the focus state captured in the screenshot survives.
		return []Command{{Kind: CmdInsertText, Text: a.Text}}, nil

	case schemas.ActionScroll:
		if err := checkBounds(a.X, a.Y, vp); err != nil {
			return nil, err
		}
		anchor := m.ToPhysical(geometry.Point{X: a.X, Y: a.Y})
		dx, dy := scrollDeltas(a.Direction, m.ScaleDistance(a.Amount))
		return []Command{{
			Kind: CmdWheel,
			Mouse: schemas.MouseEventData{
				Type: schemas.MouseWheel,
				X:    anchor.X, Y: anchor.Y,
				DeltaX: dx, DeltaY: dy,
			},
		}}, nil

	case schemas.ActionDrag:
		if err := checkBounds(a.X, a.Y, vp); err != nil {
			return nil, err
		}
		if err := checkBounds(a.ToX, a.ToY, vp); err != nil {
			return nil, err
		}
		return t.translateDrag(a, m), nil

	case schemas.ActionWait:
		return []Command{{Kind: CmdDelay, Delay: time.Duration(a.WaitMS) * time.Millisecond}}, nil

	case schemas.ActionDone, schemas.ActionFail:
		return nil, nil
	}

	return nil, schemas.Errorf(schemas.KindAgentDecision, "untranslatable action kind %q", a.Kind)
}

// translateDrag produces down, interpolated moves, up. Intermediate moves
// follow a straight line from start to end.
func (t *Translator) translateDrag(a schemas.Action, m *geometry.Mapper) []Command {
	start := m.ToPhysical(geometry.Point{X: a.X, Y: a.Y})
	end := m.ToPhysical(geometry.Point{X: a.ToX, Y: a.ToY})

	dist := math.Hypot(end.X-start.X, end.Y-start.Y)
	moves := int(math.Ceil(dist / dragPixelsPerMove))
	if moves < dragMinMoves {
		moves = dragMinMoves
	}
	if moves > dragMaxMoves {
		moves = dragMaxMoves
	}

	cmds := make([]Command, 0, moves+3)
	cmds = append(cmds,
		mouse(CmdMouseMove, schemas.MouseMoved, start, "", 0),
		mouse(CmdMouseDown, schemas.MousePressed, start, "left", 1),
	)
	for i := 1; i <= moves; i++ {
		f := float64(i) / float64(moves)
		p := geometry.Point{
			X: math.Round(start.X + (end.X-start.X)*f),
			Y: math.Round(start.Y + (end.Y-start.Y)*f),
		}
		cmds = append(cmds, mouse(CmdMouseMove, schemas.MouseMoved, p, "left", 0))
	}
	cmds = append(cmds, mouse(CmdMouseUp, schemas.MouseReleased, end, "left", 1))
	return cmds
}

// scrollDeltas maps a direction and magnitude to wheel deltas. Positive
// deltaY moves content up (scrolls the view down), matching the CDP wheel
// convention.
func scrollDeltas(dir schemas.ScrollDirection, amount float64) (dx, dy float64) {
	switch dir {
	case schemas.ScrollDown:
		return 0, amount
	case schemas.ScrollUp:
		return 0, -amount
	case schemas.ScrollRight:
		return amount, 0
	case schemas.ScrollLeft:
		return -amount, 0
	}
	return 0, 0
}

func checkBounds(x, y float64, vp schemas.Viewport) error {
	if x < 0 || y < 0 || x > vp.Width || y > vp.Height {
		return schemas.Errorf(schemas.KindOutOfBounds,
			"target (%.1f, %.1f) outside viewport %.0fx%.0f", x, y, vp.Width, vp.Height)
	}
	return nil
}

func mouse(kind CommandKind, typ schemas.MouseType, p geometry.Point, button string, clicks int) Command {
	return Command{
		Kind: kind,
		Mouse: schemas.MouseEventData{
			Type: typ, X: p.X, Y: p.Y,
			Button: button, ClickCount: clicks,
		},
	}
}
