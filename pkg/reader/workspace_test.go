package reader

import (
	"image"
	"testing"

	"ai-reading-be/pkg/geometry"
	"ai-reading-be/pkg/navigation"
	"ai-reading-be/pkg/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace() *Workspace {
	return NewWorkspace(Document{UserID: "u1", DocumentID: "d1", PageCount: 12},
		navigation.DefaultConfig(),
		selection.Config{MinDim: 20},
		navigation.WithScheduler(navigation.NewManualScheduler()),
	)
}

func TestCaptureAnchorIsPageLocal(t *testing.T) {
	w := newWorkspace()
	target := selection.Target{
		PageNumber: 3,
		Displayed:  geometry.Size{Width: 400, Height: 600},
		Raster:     image.NewRGBA(image.Rect(0, 0, 800, 1200)),
	}
	require.NoError(t, w.BeginSelection(target, 2))

	w.Selection.PointerDown(geometry.Point{X: 100, Y: 60})
	capture, err := w.FinishSelection(geometry.Point{X: 200, Y: 160})
	require.NoError(t, err)
	require.NotNil(t, capture)

	got, anchor, err := w.LastCapture()
	require.NoError(t, err)
	assert.Same(t, capture, got)
	assert.False(t, anchor.Synthesized)
	assert.InDelta(t, 50, anchor.Point.X, 1e-9)
	assert.InDelta(t, 30, anchor.Point.Y, 1e-9)
}

func TestSmallRegionLeavesNoCapture(t *testing.T) {
	w := newWorkspace()
	require.NoError(t, w.BeginSelection(selection.Target{
		PageNumber: 1,
		Displayed:  geometry.Size{Width: 100, Height: 100},
		Raster:     image.NewRGBA(image.Rect(0, 0, 100, 100)),
	}, 0))

	w.Selection.PointerDown(geometry.Point{X: 10, Y: 10})
	capture, err := w.FinishSelection(geometry.Point{X: 15, Y: 15})
	require.NoError(t, err)
	assert.Nil(t, capture)

	_, _, err = w.LastCapture()
	assert.ErrorIs(t, err, ErrNoCapture)
}

func TestCloseStopsNavigation(t *testing.T) {
	w := newWorkspace()
	w.Close()
	assert.False(t, w.Navigator.GoToPage(1))
}
