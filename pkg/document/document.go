package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrEmptyDocument = errors.New("document has no pages")
	ErrNotPDF        = errors.New("not a PDF document")
	ErrRasterFormat  = errors.New("page raster must be PNG or JPEG")
)

var pdfMagic = []byte("%PDF-")

// PageCount reads and validates a PDF and returns its number of pages.
func PageCount(rs io.ReadSeeker) (int, error) {
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(rs, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return 0, ErrNotPDF
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount < 1 {
		return 0, ErrEmptyDocument
	}
	return ctx.PageCount, nil
}

// DecodeRaster decodes a rendered page. The image bounds are the native pixel size.
func DecodeRaster(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrRasterFormat
		}
		return nil, "", fmt.Errorf("decode raster: %w", err)
	}
	return img, format, nil
}
