// File: internal/browser/page.go
// Description: Page-level operations built on the raw driver: snapshot
// capture with optional persistence, DOM digest extraction, and the
// selection-state hook consumed by the validator.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// selectedValuesExpr probes for the page-provided selection hook. Pages
// under evaluation expose getSelectedValues() returning their current
// selection state; anything else yields null.
const selectedValuesExpr = `(typeof getSelectedValues === 'function') ? getSelectedValues() : null`

// digestTextLimit caps how much visible text the state digest carries.
const digestTextLimit = 400

// Page is the capture surface for one tab during one session.
type Page struct {
	drv          schemas.Driver
	logger       *zap.Logger
	saveDir      string
	sessionID    string
	postLoadWait time.Duration
	seq          int
}

var _ schemas.StateReader = (*Page)(nil)

// NewPage wraps a driver. When saveDir is non-empty, captured screenshots
// are persisted there and the snapshot carries the file path as its Ref.
// postLoadWait is a quiet period applied after each successful navigation
// so late-settling pages are not captured mid-render.
func NewPage(drv schemas.Driver, sessionID, saveDir string, postLoadWait time.Duration, logger *zap.Logger) *Page {
	return &Page{
		drv:          drv,
		logger:       logger.Named("page"),
		saveDir:      saveDir,
		sessionID:    sessionID,
		postLoadWait: postLoadWait,
	}
}

// Driver exposes the underlying driver for action execution.
func (p *Page) Driver() schemas.Driver { return p.drv }

// Navigate loads the task's target URL, then holds for the configured
// quiet period before the page is considered ready.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.drv.Navigate(ctx, url); err != nil {
		return schemas.NewError(schemas.KindPageUnavailable, err)
	}
	if p.postLoadWait > 0 {
		timer := time.NewTimer(p.postLoadWait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return schemas.NewError(schemas.KindCancelled, ctx.Err())
		case <-timer.C:
		}
	}
	return nil
}

// Capture takes one non-intrusive snapshot: screenshot bytes plus page
// metadata. Driver failures surface as KindPageUnavailable so the
// orchestrator can apply its single-retry policy.
func (p *Page) Capture(ctx context.Context) (*schemas.Snapshot, error) {
	shot, err := p.drv.CaptureScreenshot(ctx)
	if err != nil {
		return nil, schemas.Errorf(schemas.KindPageUnavailable, "screenshot capture: %v", err)
	}

	info, err := p.drv.PageInfo(ctx)
	if err != nil {
		return nil, schemas.Errorf(schemas.KindPageUnavailable, "page metadata: %v", err)
	}

	snap := &schemas.Snapshot{
		Screenshot: shot,
		Info:       *info,
		TakenAt:    time.Now(),
	}

	if p.saveDir != "" {
		snap.Ref = p.persist(shot)
	}
	p.seq++
	return snap, nil
}

// persist writes the screenshot to disk. Persistence failure degrades to a
// missing ref rather than failing the step.
func (p *Page) persist(shot []byte) string {
	if err := os.MkdirAll(p.saveDir, 0o755); err != nil {
		p.logger.Warn("cannot create screenshot dir", zap.String("dir", p.saveDir), zap.Error(err))
		return ""
	}
	path := filepath.Join(p.saveDir, fmt.Sprintf("%s_step_%d.png", p.sessionID, p.seq))
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		p.logger.Warn("cannot persist screenshot", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

// StateDigest builds a lightweight fingerprint of the current page: URL,
// title, form input values and a bounded slice of visible text. The
// validator and trace both consume it.
func (p *Page) StateDigest(ctx context.Context) (string, error) {
	info, err := p.drv.PageInfo(ctx)
	if err != nil {
		return "", schemas.Errorf(schemas.KindPageUnavailable, "page metadata: %v", err)
	}
	html, err := p.drv.OuterHTML(ctx)
	if err != nil {
		return "", schemas.Errorf(schemas.KindPageUnavailable, "document serialization: %v", err)
	}
	return buildDigest(info.URL, info.Title, html), nil
}

// buildDigest is the pure part of StateDigest, separated for testing.
func buildDigest(url, title, html string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "url=%s", url)
	if title != "" {
		fmt.Fprintf(&b, " title=%q", title)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return b.String()
	}

	var inputs []string
	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("id")
		}
		value, ok := s.Attr("value")
		if !ok {
			value = strings.TrimSpace(s.Text())
		}
		if name == "" && value == "" {
			return
		}
		inputs = append(inputs, fmt.Sprintf("%s=%q", name, value))
	})
	if len(inputs) > 0 {
		fmt.Fprintf(&b, " inputs=[%s]", strings.Join(inputs, " "))
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > digestTextLimit {
		text = text[:digestTextLimit]
	}
	if text != "" {
		fmt.Fprintf(&b, " text=%q", text)
	}
	return b.String()
}

// SelectedValues reads the page's selection-state hook. A page without the
// hook (or one returning null) cannot support a structured verdict, which
// the validator treats as ambiguity.
func (p *Page) SelectedValues(ctx context.Context) (*schemas.Selection, error) {
	raw, err := p.drv.EvaluateJSON(ctx, selectedValuesExpr)
	if err != nil {
		return nil, schemas.Errorf(schemas.KindValidatorAmbiguous, "selection hook evaluation: %v", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "undefined" {
		return nil, schemas.Errorf(schemas.KindValidatorAmbiguous, "page does not expose getSelectedValues()")
	}

	var sel schemas.Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return nil, schemas.Errorf(schemas.KindValidatorAmbiguous, "malformed selection state: %v", err)
	}
	return &sel, nil
}
