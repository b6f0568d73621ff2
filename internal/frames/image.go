package frames

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// thumbSize is the side length of the grayscale thumbnails used for
// similarity comparison. Small enough to keep SSIM cheap, large enough
// to keep receipt text structure visible.
const thumbSize = 300

// normalizeOrientation rotates landscape frames 90 degrees clockwise so
// the receipt is portrait-oriented (receipts are long and narrow).
func normalizeOrientation(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dy() >= bounds.Dx() {
		return img
	}
	return rotate90(img)
}

// rotate90 rotates an image 90 degrees clockwise.
func rotate90(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(h-1-y, x, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out
}

// grayThumb downscales a frame to a fixed-size grayscale thumbnail.
func grayThumb(img image.Image) *image.Gray {
	thumb := image.NewGray(image.Rect(0, 0, thumbSize, thumbSize))
	xdraw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return thumb
}

// readImage decodes an image file in any registered format.
func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return img, nil
}

// writePNG encodes an image to a PNG file.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing frame file: %w", err)
	}
	return nil
}
