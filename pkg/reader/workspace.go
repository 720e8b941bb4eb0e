package reader

import (
	"errors"
	"sync"

	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/geometry"
	"ai-reading-be/pkg/navigation"
	"ai-reading-be/pkg/selection"
	"ai-reading-be/pkg/tutor"
)

var ErrNoCapture = errors.New("no region has been captured on this page")

// Document identifies what is open in a workspace.
type Document struct {
	UserID     string
	DocumentID string
	Title      string
	PageCount  int
	Topic      tutor.Topic
}

// Workspace is one learner's open document: its navigator and its region selector.
// The two engines share no state; the workspace only remembers how the last capture was
// displayed so its anchor can be expressed in page-local units.
type Workspace struct {
	Document
	Navigator *navigation.Controller
	Selection *selection.Pipeline

	mu        sync.Mutex
	zoom      float64
	displayed geometry.Size
	native    geometry.Size
	anchor    *annotation.Anchor
}

func NewWorkspace(doc Document, nav navigation.Config, sel selection.Config, opts ...navigation.Option) *Workspace {
	return &Workspace{
		Document:  doc,
		Navigator: navigation.NewController(doc.PageCount, nav, opts...),
		Selection: selection.NewPipeline(sel),
		zoom:      1,
	}
}

// BeginSelection starts a selection on target, shown at zoom. Non-positive zoom means 1.
func (w *Workspace) BeginSelection(target selection.Target, zoom float64) error {
	if err := w.Selection.Begin(target); err != nil {
		return err
	}
	if zoom <= 0 {
		zoom = 1
	}

	b := target.Raster.Bounds()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.zoom = zoom
	w.displayed = target.Displayed
	w.native = geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	w.anchor = nil
	return nil
}

// FinishSelection ends the drag at pt. A nil capture means the region was too small.
func (w *Workspace) FinishSelection(pt geometry.Point) (*selection.Capture, error) {
	capture, err := w.Selection.PointerUp(pt)
	if err != nil || capture == nil {
		return capture, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// native -> displayed -> page-local
	sx, sy := 1.0, 1.0
	if w.native.Valid() {
		sx = w.displayed.Width / w.native.Width
		sy = w.displayed.Height / w.native.Height
	}
	w.anchor = &annotation.Anchor{
		Point: geometry.Point{
			X: capture.Region.X * sx / w.zoom,
			Y: capture.Region.Y * sy / w.zoom,
		},
	}
	return capture, nil
}

// LastCapture returns the current capture with the anchor it should be annotated at.
func (w *Workspace) LastCapture() (*selection.Capture, annotation.Anchor, error) {
	capture := w.Selection.LastCapture()
	if capture == nil {
		return nil, annotation.Anchor{}, ErrNoCapture
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.anchor == nil {
		return capture, annotation.Anchor{Synthesized: true}, nil
	}
	return capture, *w.anchor, nil
}

func (w *Workspace) Close() {
	w.Navigator.Close()
	w.Selection.Cancel()
}
