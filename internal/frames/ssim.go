package frames

import (
	"fmt"
	"image"
)

const (
	ssimWindow = 7
	ssimC1     = (0.01 * 255) * (0.01 * 255)
	ssimC2     = (0.03 * 255) * (0.03 * 255)
)

// SSIM computes the mean structural similarity of two grayscale images
// with identical dimensions. The score is in [-1, 1], 1 meaning
// identical. Similarity is averaged over a 7x7 uniform sliding window;
// images smaller than the window are compared as a single window.
func SSIM(a, b *image.Gray) (float64, error) {
	aw, ah := a.Rect.Dx(), a.Rect.Dy()
	bw, bh := b.Rect.Dx(), b.Rect.Dy()
	if aw != bw || ah != bh {
		return 0, fmt.Errorf("ssim: dimension mismatch (%dx%d vs %dx%d)", aw, ah, bw, bh)
	}
	if aw == 0 || ah == 0 {
		return 0, fmt.Errorf("ssim: empty image")
	}

	if aw < ssimWindow || ah < ssimWindow {
		return windowSSIM(a, b, 0, 0, aw, ah), nil
	}

	var sum float64
	var count int
	for y := 0; y+ssimWindow <= ah; y++ {
		for x := 0; x+ssimWindow <= aw; x++ {
			sum += windowSSIM(a, b, x, y, ssimWindow, ssimWindow)
			count++
		}
	}
	return sum / float64(count), nil
}

// windowSSIM evaluates the SSIM formula over one window using sample
// statistics, standard K1=0.01/K2=0.03 constants and L=255.
func windowSSIM(a, b *image.Gray, x0, y0, w, h int) float64 {
	n := float64(w * h)

	var sumA, sumB float64
	for y := 0; y < h; y++ {
		ai := a.PixOffset(a.Rect.Min.X+x0, a.Rect.Min.Y+y0+y)
		bi := b.PixOffset(b.Rect.Min.X+x0, b.Rect.Min.Y+y0+y)
		for x := 0; x < w; x++ {
			sumA += float64(a.Pix[ai+x])
			sumB += float64(b.Pix[bi+x])
		}
	}
	muA := sumA / n
	muB := sumB / n

	var varA, varB, cov float64
	for y := 0; y < h; y++ {
		ai := a.PixOffset(a.Rect.Min.X+x0, a.Rect.Min.Y+y0+y)
		bi := b.PixOffset(b.Rect.Min.X+x0, b.Rect.Min.Y+y0+y)
		for x := 0; x < w; x++ {
			da := float64(a.Pix[ai+x]) - muA
			db := float64(b.Pix[bi+x]) - muB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	norm := n - 1
	if norm < 1 {
		norm = 1
	}
	varA /= norm
	varB /= norm
	cov /= norm

	return ((2*muA*muB + ssimC1) * (2*cov + ssimC2)) /
		((muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2))
}
