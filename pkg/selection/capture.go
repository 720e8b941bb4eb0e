package selection

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"ai-reading-be/pkg/geometry"

	"golang.org/x/image/draw"
)

var ErrEmptyCrop = errors.New("selection does not overlap the page raster")

// Capture is the cropped raster handed to an AI action request.
type Capture struct {
	PageNumber  int           `json:"page_number"`
	Intent      string        `json:"intent"`
	Region      geometry.Rect `json:"region"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	ContentType string        `json:"content_type"`
	Image       []byte        `json:"-"`
}

func (c *Capture) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Image)
}

func (c *Capture) DataURL() string {
	return "data:" + c.ContentType + ";base64," + c.Base64()
}

// crop cuts region (native pixels) out of the target raster, shrinking it when its longest
// side exceeds maxEdge, and encodes the result as PNG.
func crop(target Target, region geometry.Rect, maxEdge int) (*Capture, error) {
	bounds := target.Raster.Bounds()
	src := image.Rect(
		bounds.Min.X+int(math.Floor(region.X)),
		bounds.Min.Y+int(math.Floor(region.Y)),
		bounds.Min.X+int(math.Ceil(region.X+region.Width)),
		bounds.Min.Y+int(math.Ceil(region.Y+region.Height)),
	).Intersect(bounds)
	if src.Empty() {
		return nil, ErrEmptyCrop
	}

	w, h := fitWithin(src.Dx(), src.Dy(), maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), target.Raster, src.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), target.Raster, src, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	return &Capture{
		PageNumber:  target.PageNumber,
		Intent:      target.Intent,
		Region:      region,
		Width:       w,
		Height:      h,
		ContentType: "image/png",
		Image:       buf.Bytes(),
	}, nil
}

func fitWithin(w, h, maxEdge int) (int, int) {
	longest := max(w, h)
	if maxEdge <= 0 || longest <= maxEdge {
		return w, h
	}
	f := float64(maxEdge) / float64(longest)
	return max(1, int(math.Round(float64(w)*f))), max(1, int(math.Round(float64(h)*f)))
}
