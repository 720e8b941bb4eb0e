package overlay

import (
	"testing"

	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *annotation.Store {
	t.Helper()
	s := annotation.NewStore()
	s.AddNote("doc", 1, "anchored", "", "", annotation.Anchor{Point: geometry.Point{X: 100, Y: 200}})
	for range 4 {
		s.AddAIAnnotation("doc", 1, annotation.ActionDefine, "[region]", "text", "", annotation.Anchor{Synthesized: true})
	}
	return s
}

func TestPlaceUsesAnchorScaledByZoom(t *testing.T) {
	s := seedStore(t)
	p := NewPlacer(DefaultConfig())

	markers := p.Place(s.ByPage("doc", 1), 1.5)
	require.Len(t, markers, 5)

	assert.Equal(t, geometry.Point{X: 150, Y: 300}, markers[0].Position)
	assert.Equal(t, "anchored", markers[0].Label)
	assert.Equal(t, "note", markers[0].Icon)
}

func TestPlaceGridForSynthesizedAnchors(t *testing.T) {
	s := seedStore(t)
	cfg := DefaultConfig()
	p := NewPlacer(cfg)

	markers := p.Place(s.ByPage("doc", 1), 1)

	// indexes 1..4 -> (col,row) (1,0) (2,0) (0,1) (1,1)
	want := []geometry.Point{
		{X: 40 + 160, Y: 60},
		{X: 40 + 320, Y: 60},
		{X: 40, Y: 60 + 120},
		{X: 40 + 160, Y: 60 + 120},
	}
	for i, w := range want {
		assert.Equal(t, w, markers[i+1].Position, "marker %d", i+1)
		assert.Equal(t, "Definition", markers[i+1].Label)
	}
}

func TestPlaceIsStableAcrossRenders(t *testing.T) {
	s := seedStore(t)
	p := NewPlacer(DefaultConfig())

	assert.Equal(t, p.Place(s.ByPage("doc", 1), 2), p.Place(s.ByPage("doc", 1), 2))
}

func TestPlaceEmptyPage(t *testing.T) {
	p := NewPlacer(DefaultConfig())
	markers := p.Place(annotation.NewStore().ByPage("doc", 9), 1)
	assert.NotNil(t, markers)
	assert.Empty(t, markers)
}

func TestRibbonOverflow(t *testing.T) {
	s := seedStore(t)
	p := NewPlacer(DefaultConfig())

	layout := p.Ribbon(s.ByPage("doc", 1), 600)

	require.Len(t, layout.Markers, 3)
	assert.Equal(t, 2, layout.Overflow)
	assert.Equal(t, "+2", layout.OverflowLabel())
	for i, m := range layout.Markers {
		assert.Equal(t, 572.0, m.Position.X)
		assert.Equal(t, 24+float64(i)*44, m.Position.Y)
	}
}

func TestRibbonStaysOnPage(t *testing.T) {
	s := annotation.NewStore()
	s.AddNote("doc", 1, "one", "", "", annotation.Anchor{})
	p := NewPlacer(DefaultConfig())

	layout := p.Ribbon(s.ByPage("doc", 1), 0)
	require.Len(t, layout.Markers, 1)
	assert.Equal(t, 572.0, layout.Markers[0].Position.X)

	layout = p.Ribbon(s.ByPage("doc", 1), 10)
	require.Len(t, layout.Markers, 1)
	assert.Zero(t, layout.Markers[0].Position.X)
}

func TestRibbonWithoutOverflow(t *testing.T) {
	s := annotation.NewStore()
	s.AddNote("doc", 1, "one", "", "", annotation.Anchor{})

	layout := NewPlacer(DefaultConfig()).Ribbon(s.ByPage("doc", 1), 600)

	assert.Len(t, layout.Markers, 1)
	assert.Zero(t, layout.Overflow)
	assert.Empty(t, layout.OverflowLabel())
}
