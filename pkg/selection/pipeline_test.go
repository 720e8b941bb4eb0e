package selection

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"ai-reading-be/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns a raster whose pixel (x,y) encodes its own coordinates.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 7, A: 255})
		}
	}
	return img
}

func newTarget() Target {
	return Target{
		PageNumber: 4,
		Displayed:  geometry.Size{Width: 400, Height: 600},
		Raster:     gradient(800, 1500),
		Intent:     "define",
	}
}

func TestCaptureTransformsToNativePixels(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))

	p.PointerDown(geometry.Point{X: 100, Y: 100})
	p.PointerMove(geometry.Point{X: 130, Y: 140})
	capture, err := p.PointerUp(geometry.Point{X: 150, Y: 150})
	require.NoError(t, err)
	require.NotNil(t, capture)

	assert.Equal(t, StateCaptured, p.State())
	assert.Equal(t, geometry.Rect{X: 200, Y: 250, Width: 100, Height: 125}, capture.Region)
	assert.Equal(t, 100, capture.Width)
	assert.Equal(t, 125, capture.Height)
	assert.Equal(t, 4, capture.PageNumber)
	assert.Equal(t, "define", capture.Intent)
	assert.Equal(t, "image/png", capture.ContentType)

	decoded, err := png.Decode(bytes.NewReader(capture.Image))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 125), decoded.Bounds())

	r, g, _, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(250), g>>8)

	assert.Contains(t, capture.DataURL(), "data:image/png;base64,")
	assert.Same(t, capture, p.LastCapture())
}

func TestReverseDragIsNormalized(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))

	p.PointerDown(geometry.Point{X: 150, Y: 150})
	capture, err := p.PointerUp(geometry.Point{X: 100, Y: 100})
	require.NoError(t, err)
	require.NotNil(t, capture)
	assert.Equal(t, geometry.Rect{X: 200, Y: 250, Width: 100, Height: 125}, capture.Region)
}

func TestSubThresholdRegionProducesNothing(t *testing.T) {
	tests := []struct {
		name string
		to   geometry.Point
	}{
		{"narrow", geometry.Point{X: 120, Y: 200}},
		{"short", geometry.Point{X: 200, Y: 120}},
		{"click", geometry.Point{X: 100, Y: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(Config{MinDim: 20})
			require.NoError(t, p.Begin(newTarget()))

			p.PointerDown(geometry.Point{X: 100, Y: 100})
			capture, err := p.PointerUp(tt.to)

			assert.NoError(t, err)
			assert.Nil(t, capture)
			assert.Equal(t, StateIdle, p.State())
			assert.Nil(t, p.LastCapture())
		})
	}
}

func TestPointerUpWithoutPointerDown(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))

	capture, err := p.PointerUp(geometry.Point{X: 300, Y: 300})

	assert.NoError(t, err)
	assert.Nil(t, capture)
	assert.Equal(t, StateSelecting, p.State())
}

func TestPointerEventsIgnoredWhenIdle(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})

	p.PointerDown(geometry.Point{X: 10, Y: 10})
	capture, err := p.PointerUp(geometry.Point{X: 300, Y: 300})

	assert.NoError(t, err)
	assert.Nil(t, capture)
	assert.Equal(t, StateIdle, p.State())
}

func TestPointsAreClampedToPage(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))

	p.PointerDown(geometry.Point{X: 350, Y: 550})
	p.PointerMove(geometry.Point{X: 900, Y: 900})

	region, ok := p.Region()
	require.True(t, ok)
	assert.Equal(t, geometry.Rect{X: 350, Y: 550, Width: 50, Height: 50}, region)

	capture, err := p.PointerUp(geometry.Point{X: 1000, Y: 1000})
	require.NoError(t, err)
	require.NotNil(t, capture)
	assert.Equal(t, geometry.Rect{X: 700, Y: 1375, Width: 100, Height: 125}, capture.Region)
}

func TestCancelReturnsToIdle(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))
	p.PointerDown(geometry.Point{X: 10, Y: 10})

	p.Cancel()

	assert.Equal(t, StateIdle, p.State())
	_, ok := p.Region()
	assert.False(t, ok)
}

func TestBeginResetsState(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))
	p.PointerDown(geometry.Point{X: 10, Y: 10})
	p.PointerMove(geometry.Point{X: 200, Y: 200})

	require.NoError(t, p.Begin(newTarget()))

	_, ok := p.Region()
	assert.False(t, ok)

	capture, err := p.PointerUp(geometry.Point{X: 300, Y: 300})
	assert.NoError(t, err)
	assert.Nil(t, capture, "pointer-down from before re-entry must not count")
}

func TestCapturedIsTerminalUntilBegin(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20})
	require.NoError(t, p.Begin(newTarget()))
	p.PointerDown(geometry.Point{X: 10, Y: 10})
	_, err := p.PointerUp(geometry.Point{X: 100, Y: 100})
	require.NoError(t, err)

	p.PointerDown(geometry.Point{X: 10, Y: 10})
	again, err := p.PointerUp(geometry.Point{X: 200, Y: 200})
	assert.NoError(t, err)
	assert.Nil(t, again)
	assert.Equal(t, StateCaptured, p.State())

	require.NoError(t, p.Begin(newTarget()))
	assert.Equal(t, StateSelecting, p.State())
	assert.Nil(t, p.LastCapture())
}

func TestBeginRejectsInvalidTarget(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	assert.ErrorIs(t, p.Begin(Target{Displayed: geometry.Size{Width: 1, Height: 1}}), ErrInvalidTarget)
	assert.ErrorIs(t, p.Begin(Target{Raster: gradient(2, 2)}), ErrInvalidTarget)
}

func TestCaptureIsDownscaled(t *testing.T) {
	p := NewPipeline(Config{MinDim: 20, MaxEdge: 50})
	require.NoError(t, p.Begin(newTarget()))

	p.PointerDown(geometry.Point{X: 100, Y: 100})
	capture, err := p.PointerUp(geometry.Point{X: 150, Y: 150})
	require.NoError(t, err)
	require.NotNil(t, capture)

	assert.Equal(t, 40, capture.Width)
	assert.Equal(t, 50, capture.Height)
	assert.Equal(t, geometry.Rect{X: 200, Y: 250, Width: 100, Height: 125}, capture.Region)
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(3000, 1000, 1500)
	assert.Equal(t, 1500, w)
	assert.Equal(t, 500, h)

	w, h = fitWithin(300, 100, 0)
	assert.Equal(t, 300, w)
	assert.Equal(t, 100, h)
}
