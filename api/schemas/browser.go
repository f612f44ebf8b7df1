// api/schemas/browser.go
package schemas

import "time"

// Viewport describes the page's logical (CSS-pixel) dimensions and the
// device scale factor relating them to physical device pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// PageInfo is the structural metadata captured alongside every
// screenshot.
type PageInfo struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Viewport Viewport `json:"viewport"`
}

// Snapshot is one non-intrusive capture of page state: raw screenshot
// bytes plus metadata. When persisted, Ref carries the on-disk path.
type Snapshot struct {
	Screenshot []byte    `json:"-"`
	Ref        string    `json:"ref,omitempty"`
	Info       PageInfo  `json:"info"`
	TakenAt    time.Time `json:"taken_at"`
}

// MouseType mirrors the CDP Input.dispatchMouseEvent type field.
type MouseType string

const (
	MousePressed  MouseType = "mousePressed"
	MouseReleased MouseType = "mouseReleased"
	MouseMoved    MouseType = "mouseMoved"
	MouseWheel    MouseType = "mouseWheel"
)

// MouseEventData is a driver-agnostic mouse event. Coordinates are
// physical device pixels, already mapped by the translator.
type MouseEventData struct {
	Type       MouseType
	X          float64
	Y          float64
	Button     string
	ClickCount int
	// Wheel deltas, physical pixels. Positive Y scrolls content down.
	DeltaX float64
	DeltaY float64
}
