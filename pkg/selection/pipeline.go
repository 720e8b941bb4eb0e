package selection

import (
	"errors"
	"image"
	"sync"

	"ai-reading-be/pkg/geometry"
)

type State int

const (
	StateIdle State = iota
	StateSelecting
	StateCaptured
)

func (s State) String() string {
	switch s {
	case StateSelecting:
		return "SELECTING"
	case StateCaptured:
		return "CAPTURED"
	default:
		return "IDLE"
	}
}

var ErrInvalidTarget = errors.New("selection target needs a raster and a displayed size")

type Config struct {
	// MinDim is the side length a region must exceed on both axes, in displayed pixels.
	MinDim float64
	// MaxEdge caps the longest side of the encoded capture. Zero keeps native resolution.
	MaxEdge int
}

func DefaultConfig() Config {
	return Config{MinDim: 20, MaxEdge: 1568}
}

// Target is the rendered page the learner is selecting on.
type Target struct {
	PageNumber int
	Displayed  geometry.Size
	Raster     image.Image
	Intent     string
}

func (t Target) native() geometry.Size {
	b := t.Raster.Bounds()
	return geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Pipeline is the pointer-driven rectangle selection state machine for one page view.
type Pipeline struct {
	mu sync.Mutex

	cfg     Config
	state   State
	target  Target
	anchor  geometry.Point
	current geometry.Point
	pressed bool
	capture *Capture
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Begin enters Selecting for target, discarding any previous region or capture.
func (p *Pipeline) Begin(target Target) error {
	if target.Raster == nil || !target.Displayed.Valid() {
		return ErrInvalidTarget
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.target = target
	p.state = StateSelecting
	p.resetRegion()
	p.capture = nil
	return nil
}

func (p *Pipeline) PointerDown(pt geometry.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSelecting {
		return
	}
	pt = geometry.Clamp(pt, p.target.Displayed)
	p.anchor = pt
	p.current = pt
	p.pressed = true
}

func (p *Pipeline) PointerMove(pt geometry.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSelecting || !p.pressed {
		return
	}
	p.current = geometry.Clamp(pt, p.target.Displayed)
}

// PointerUp finishes the drag. It returns a capture when the region is large enough, and
// nil otherwise; a pointer-up without a pointer-down changes nothing.
func (p *Pipeline) PointerUp(pt geometry.Point) (*Capture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSelecting || !p.pressed {
		return nil, nil
	}
	p.current = geometry.Clamp(pt, p.target.Displayed)

	region := geometry.RectFromPoints(p.anchor, p.current)
	if !region.Exceeds(p.cfg.MinDim) {
		p.state = StateIdle
		p.resetRegion()
		return nil, nil
	}

	native := geometry.ToNative(p.target.Displayed, p.target.native(), region)
	capture, err := crop(p.target, native, p.cfg.MaxEdge)
	if err != nil {
		p.state = StateIdle
		p.resetRegion()
		return nil, err
	}

	p.state = StateCaptured
	p.pressed = false
	p.capture = capture
	return capture, nil
}

// Cancel abandons an in-progress selection.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSelecting {
		return
	}
	p.state = StateIdle
	p.resetRegion()
}

func (p *Pipeline) resetRegion() {
	p.anchor = geometry.Point{}
	p.current = geometry.Point{}
	p.pressed = false
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Region is the rectangle currently being dragged, in displayed coordinates.
func (p *Pipeline) Region() (geometry.Rect, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSelecting || !p.pressed {
		return geometry.Rect{}, false
	}
	return geometry.RectFromPoints(p.anchor, p.current), true
}

// LastCapture returns the capture produced by this pipeline, if any.
func (p *Pipeline) LastCapture() *Capture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capture
}
