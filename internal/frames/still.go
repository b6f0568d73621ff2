package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gen2brain/heic"
)

// Still turns a single uploaded photo into a one-frame sequence. Phone
// photos are often HEIC, which the standard image package cannot
// decode, so the format is sniffed and routed to a dedicated decoder.
type Still struct{}

// ExtractFrames decodes the image and writes it as a single PNG frame
// under workDir.
func (Still) ExtractFrames(_ context.Context, imagePath, workDir string) ([]string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	var img image.Image
	if isHEIC(data) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	path := filepath.Join(workDir, "frame_0000.png")
	if err := writePNG(path, img); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// isHEIC sniffs the ftyp box brands used by HEIC/HEIF containers.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
