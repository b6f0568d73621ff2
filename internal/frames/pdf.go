package frames

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the rasterization resolution for PDF pages. 200 DPI is
// enough for the vision model to read receipt text.
const DefaultDPI = 200

// Rasterizer converts PDF pages into PNG frames, one per page, in page
// order. Pages of a scanned receipt behave exactly like distinct video
// frames downstream.
type Rasterizer struct {
	DPI float64 // render resolution, defaults to DefaultDPI
}

// ExtractFrames renders every page of the PDF under workDir. The
// returned slice holds whatever was written so far when an error
// occurs, so the caller can clean up.
func (r *Rasterizer) ExtractFrames(ctx context.Context, pdfPath, workDir string) ([]string, error) {
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	paths := []string{}
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		img, err := doc.ImageDPI(page, dpi)
		if err != nil {
			return paths, fmt.Errorf("rendering page %d: %w", page, err)
		}
		path := filepath.Join(workDir, fmt.Sprintf("page_%04d.png", page))
		if err := writePNG(path, img); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
