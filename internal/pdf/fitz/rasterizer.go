package fitz

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	gofitz "github.com/gen2brain/go-fitz"

	"creditscope/internal/port"
)

// Rasterizer implements port.PageRasterizer with MuPDF via go-fitz.
type Rasterizer struct {
	maxDimension int
}

// NewRasterizer creates a Rasterizer. Pages whose longer side exceeds
// maxDimension pixels are downscaled; zero disables downscaling.
func NewRasterizer(maxDimension int) *Rasterizer {
	return &Rasterizer{maxDimension: maxDimension}
}

var _ port.PageRasterizer = (*Rasterizer)(nil)

func (r *Rasterizer) Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	doc, err := gofitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening pdf for rendering: %w", err)
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPage()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}

		out := filepath.Join(outDir, PageFileName(i+1))
		if err := imaging.Save(r.fit(img), out); err != nil {
			return nil, fmt.Errorf("saving page %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func (r *Rasterizer) fit(img image.Image) image.Image {
	if r.maxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= r.maxDimension && b.Dy() <= r.maxDimension {
		return img
	}
	return imaging.Fit(img, r.maxDimension, r.maxDimension, imaging.Lanczos)
}

// PageFileName returns the image file name for a 1-based page number.
func PageFileName(page int) string {
	return fmt.Sprintf("page-%04d.png", page)
}
