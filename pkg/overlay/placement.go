package overlay

import (
	"fmt"
	"iter"

	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/geometry"
)

// Config fixes the grid and ribbon geometry in page-local units (zoom 1).
type Config struct {
	GridColumns   int
	GridOrigin    geometry.Point
	CellWidth     float64
	CellHeight    float64
	RibbonTop     float64
	RibbonInset   float64
	RibbonSpacing float64
	RibbonMax     int
	// PageWidth is used by Ribbon when the caller does not know the displayed width.
	PageWidth float64
}

func DefaultConfig() Config {
	return Config{
		GridColumns:   3,
		GridOrigin:    geometry.Point{X: 40, Y: 60},
		CellWidth:     160,
		CellHeight:    120,
		RibbonTop:     24,
		RibbonInset:   28,
		RibbonSpacing: 44,
		RibbonMax:     3,
		PageWidth:     600,
	}
}

type Marker struct {
	AnnotationID uint64          `json:"annotation_id"`
	Kind         annotation.Kind `json:"kind"`
	Label        string          `json:"label"`
	Icon         string          `json:"icon"`
	Position     geometry.Point  `json:"position"`
}

type RibbonLayout struct {
	Markers  []Marker `json:"markers"`
	Overflow int      `json:"overflow"`
}

type Placer struct {
	cfg Config
}

func NewPlacer(cfg Config) *Placer {
	if cfg.GridColumns <= 0 {
		cfg.GridColumns = DefaultConfig().GridColumns
	}
	if cfg.PageWidth <= 0 {
		cfg.PageWidth = DefaultConfig().PageWidth
	}
	return &Placer{cfg: cfg}
}

// Place positions every annotation for the given zoom. Captured anchors are scaled from
// their stored page-local point; synthesized ones take a grid cell picked by their index.
func (p *Placer) Place(annotations iter.Seq[annotation.Annotation], zoom float64) []Marker {
	if zoom <= 0 {
		zoom = 1
	}

	markers := make([]Marker, 0)
	i := 0
	for a := range annotations {
		var pos geometry.Point
		if a.Synthesized {
			pos = p.gridCell(i)
		} else {
			pos = a.Anchor
		}
		markers = append(markers, newMarker(a, pos.Scale(zoom)))
		i++
	}
	return markers
}

func (p *Placer) gridCell(index int) geometry.Point {
	col := index % p.cfg.GridColumns
	row := index / p.cfg.GridColumns
	return geometry.Point{
		X: p.cfg.GridOrigin.X + float64(col)*p.cfg.CellWidth,
		Y: p.cfg.GridOrigin.Y + float64(row)*p.cfg.CellHeight,
	}
}

// Ribbon stacks markers along the right edge of a page displayed pageWidth wide, ignoring
// anchors. Only the first RibbonMax markers are returned; the rest are counted in Overflow.
func (p *Placer) Ribbon(annotations iter.Seq[annotation.Annotation], pageWidth float64) RibbonLayout {
	layout := RibbonLayout{Markers: make([]Marker, 0, p.cfg.RibbonMax)}
	if pageWidth <= 0 {
		pageWidth = p.cfg.PageWidth
	}
	x := max(pageWidth-p.cfg.RibbonInset, 0)

	i := 0
	for a := range annotations {
		if i < p.cfg.RibbonMax {
			pos := geometry.Point{X: x, Y: p.cfg.RibbonTop + float64(i)*p.cfg.RibbonSpacing}
			layout.Markers = append(layout.Markers, newMarker(a, pos))
		} else {
			layout.Overflow++
		}
		i++
	}
	return layout
}

// OverflowLabel renders the indicator shown after the last ribbon marker.
func (l RibbonLayout) OverflowLabel() string {
	if l.Overflow == 0 {
		return ""
	}
	return fmt.Sprintf("+%d", l.Overflow)
}

func newMarker(a annotation.Annotation, pos geometry.Point) Marker {
	m := Marker{
		AnnotationID: a.ID,
		Kind:         a.Kind,
		Position:     pos,
	}
	switch a.Kind {
	case annotation.KindNote:
		m.Icon = "note"
		if a.Note != nil {
			m.Label = a.Note.Heading
		}
	case annotation.KindAIResponse:
		m.Icon = "sparkle"
		if a.AI != nil {
			m.Label = actionLabel(a.AI.Action)
		}
	}
	return m
}

func actionLabel(a annotation.Action) string {
	switch a {
	case annotation.ActionDefine:
		return "Definition"
	case annotation.ActionElaborate:
		return "Elaboration"
	case annotation.ActionVisualize:
		return "Visual"
	case annotation.ActionSimplify:
		return "Simplified"
	case annotation.ActionMeaning:
		return "Meaning"
	case annotation.ActionExample:
		return "Example"
	case annotation.ActionStory:
		return "Story"
	case annotation.ActionSummary:
		return "Summary"
	default:
		return string(a)
	}
}
