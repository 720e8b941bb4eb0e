package geometry

import "math"

// Point is a position in some 2D coordinate space (page-local, displayed, or native pixels).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Exceeds reports whether both sides are strictly larger than min.
func (r Rect) Exceeds(min float64) bool {
	return r.Width > min && r.Height > min
}

// Clamp limits p to the box [0,bounds.Width] x [0,bounds.Height].
func Clamp(p Point, bounds Size) Point {
	return Point{
		X: math.Max(0, math.Min(p.X, bounds.Width)),
		Y: math.Max(0, math.Min(p.Y, bounds.Height)),
	}
}

// Scale multiplies a point by a uniform factor.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// ToNative maps a rectangle measured on the displayed element into the pixel space of the
// underlying raster. The x and y axes scale independently.
func ToNative(displayed, native Size, r Rect) Rect {
	if !displayed.Valid() {
		return r
	}
	sx := native.Width / displayed.Width
	sy := native.Height / displayed.Height
	return Rect{
		X:      r.X * sx,
		Y:      r.Y * sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}
