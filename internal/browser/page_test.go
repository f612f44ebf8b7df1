// File: internal/browser/page_test.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// fakeDriver is a hand-rolled test double for the driver boundary.
type fakeDriver struct {
	navErr        error
	screenshot    []byte
	screenshotErr error
	info          schemas.PageInfo
	infoErr       error
	html          string
	evalResult    json.RawMessage
	evalErr       error
}

func (f *fakeDriver) Navigate(context.Context, string) error { return f.navErr }
func (f *fakeDriver) CaptureScreenshot(context.Context) ([]byte, error) {
	return f.screenshot, f.screenshotErr
}
func (f *fakeDriver) PageInfo(context.Context) (*schemas.PageInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	info := f.info
	return &info, nil
}
func (f *fakeDriver) DispatchMouseEvent(context.Context, schemas.MouseEventData) error { return nil }
func (f *fakeDriver) InsertText(context.Context, string) error                         { return nil }
func (f *fakeDriver) OuterHTML(context.Context) (string, error)                        { return f.html, nil }
func (f *fakeDriver) EvaluateJSON(context.Context, string) (json.RawMessage, error) {
	return f.evalResult, f.evalErr
}
func (f *fakeDriver) Close() error { return nil }

func TestCapture(t *testing.T) {
	t.Run("returns snapshot with metadata", func(t *testing.T) {
		drv := &fakeDriver{
			screenshot: []byte{0x89, 'P', 'N', 'G'},
			info: schemas.PageInfo{
				URL:      "https://example.com/booking",
				Title:    "Booking",
				Viewport: schemas.Viewport{Width: 1280, Height: 720, Scale: 2.0},
			},
		}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		snap, err := p.Capture(context.Background())
		require.NoError(t, err)
		assert.Equal(t, drv.screenshot, snap.Screenshot)
		assert.Equal(t, "https://example.com/booking", snap.Info.URL)
		assert.Equal(t, 2.0, snap.Info.Viewport.Scale)
		assert.Empty(t, snap.Ref, "no ref without a save dir")
		assert.False(t, snap.TakenAt.IsZero())
	})

	t.Run("persists screenshots with sequential refs", func(t *testing.T) {
		dir := t.TempDir()
		drv := &fakeDriver{screenshot: []byte("img")}
		p := NewPage(drv, "s-7", dir, 0, zap.NewNop())

		first, err := p.Capture(context.Background())
		require.NoError(t, err)
		second, err := p.Capture(context.Background())
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "s-7_step_0.png"), first.Ref)
		assert.Equal(t, filepath.Join(dir, "s-7_step_1.png"), second.Ref)

		content, err := os.ReadFile(first.Ref)
		require.NoError(t, err)
		assert.Equal(t, []byte("img"), content)
	})

	t.Run("maps driver failure to page unavailable", func(t *testing.T) {
		drv := &fakeDriver{screenshotErr: errors.New("target crashed")}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		_, err := p.Capture(context.Background())
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindPageUnavailable))
	})

	t.Run("maps metadata failure to page unavailable", func(t *testing.T) {
		drv := &fakeDriver{screenshot: []byte("ok"), infoErr: errors.New("detached")}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		_, err := p.Capture(context.Background())
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindPageUnavailable))
	})
}

func TestNavigatePostLoadWait(t *testing.T) {
	t.Run("holds for the quiet period", func(t *testing.T) {
		p := NewPage(&fakeDriver{}, "s-1", "", 30*time.Millisecond, zap.NewNop())

		start := time.Now()
		require.NoError(t, p.Navigate(context.Background(), "https://example.com"))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("cancellation cuts the wait short", func(t *testing.T) {
		p := NewPage(&fakeDriver{}, "s-1", "", time.Minute, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := p.Navigate(ctx, "https://example.com")
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindCancelled))
	})

	t.Run("navigation failure skips the wait", func(t *testing.T) {
		p := NewPage(&fakeDriver{navErr: errors.New("dns failure")}, "s-1", "", time.Minute, zap.NewNop())

		start := time.Now()
		err := p.Navigate(context.Background(), "https://example.com")
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindPageUnavailable))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestBuildDigest(t *testing.T) {
	html := `<html><head><title>Picker</title><style>.x{}</style></head>
		<body><h1>Choose a time</h1>
		<input name="start" value="09:00"><input name="end" value="17:00">
		<script>var ignored = 1;</script></body></html>`

	digest := buildDigest("https://example.com", "Picker", html)

	assert.Contains(t, digest, "url=https://example.com")
	assert.Contains(t, digest, `title="Picker"`)
	assert.Contains(t, digest, `start="09:00"`)
	assert.Contains(t, digest, `end="17:00"`)
	assert.Contains(t, digest, "Choose a time")
	assert.NotContains(t, digest, "ignored")
}

func TestBuildDigestTruncatesText(t *testing.T) {
	long := make([]byte, 0, 3000)
	for i := 0; i < 500; i++ {
		long = append(long, []byte("word ")...)
	}
	digest := buildDigest("u", "", "<body>"+string(long)+"</body>")
	assert.Less(t, len(digest), 600)
}

func TestSelectedValues(t *testing.T) {
	t.Run("parses the hook result", func(t *testing.T) {
		drv := &fakeDriver{evalResult: json.RawMessage(
			`{"type":"range","values":[{"time":"09:00","label":"start"},{"time":"17:00","label":"end"}]}`)}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		sel, err := p.SelectedValues(context.Background())
		require.NoError(t, err)
		assert.Equal(t, schemas.SelectionRange, sel.Type)
		require.Len(t, sel.Values, 2)
		assert.Equal(t, "09:00", sel.Values[0].Time)
		assert.Equal(t, "end", sel.Values[1].Label)
	})

	t.Run("missing hook is ambiguous", func(t *testing.T) {
		drv := &fakeDriver{evalResult: json.RawMessage(`null`)}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		_, err := p.SelectedValues(context.Background())
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindValidatorAmbiguous))
	})

	t.Run("evaluation failure is ambiguous", func(t *testing.T) {
		drv := &fakeDriver{evalErr: errors.New("exception in hook")}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		_, err := p.SelectedValues(context.Background())
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindValidatorAmbiguous))
	})

	t.Run("malformed hook payload is ambiguous", func(t *testing.T) {
		drv := &fakeDriver{evalResult: json.RawMessage(`"just a string"`)}
		p := NewPage(drv, "s-1", "", 0, zap.NewNop())

		_, err := p.SelectedValues(context.Background())
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindValidatorAmbiguous))
	})
}
