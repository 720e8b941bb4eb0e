package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCountRejectsNonPDF(t *testing.T) {
	_, err := PageCount(strings.NewReader("hello world"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = PageCount(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestDecodeRaster(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, format, err := DecodeRaster(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	_, _, err = DecodeRaster(strings.NewReader("GIF89a"))
	assert.ErrorIs(t, err, ErrRasterFormat)
}
