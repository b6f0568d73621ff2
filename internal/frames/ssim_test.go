package frames

import (
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SSIM", func() {
	var (
		a, b  *image.Gray
		score float64
		err   error
	)

	JustBeforeEach(func() {
		score, err = SSIM(a, b)
	})

	When("the images are identical", func() {
		BeforeEach(func() {
			a = solidGray(32, 32, 200)
			b = solidGray(32, 32, 200)
			// Add texture so the variance terms are exercised too.
			for i := range a.Pix {
				v := uint8(i % 251)
				a.Pix[i] = v
				b.Pix[i] = v
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should score 1", func() {
			Expect(score).To(BeNumerically("~", 1.0, 1e-9))
		})
	})

	When("the images are maximally different", func() {
		BeforeEach(func() {
			a = solidGray(32, 32, 255)
			b = solidGray(32, 32, 0)
		})

		It("should score near zero", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("<", 0.01))
		})
	})

	When("the images differ moderately", func() {
		BeforeEach(func() {
			a = solidGray(32, 32, 255)
			b = solidGray(32, 32, 128)
		})

		It("should score between the extremes", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically(">", 0.5))
			Expect(score).To(BeNumerically("<", 0.95))
		})
	})

	When("the images are smaller than the sliding window", func() {
		BeforeEach(func() {
			a = solidGray(3, 3, 100)
			b = solidGray(3, 3, 100)
		})

		It("should fall back to a single window", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", 1.0, 1e-9))
		})
	})

	When("dimensions do not match", func() {
		BeforeEach(func() {
			a = solidGray(32, 32, 100)
			b = solidGray(16, 32, 100)
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("dimension mismatch")))
		})
	})

	When("the images are empty", func() {
		BeforeEach(func() {
			a = image.NewGray(image.Rect(0, 0, 0, 0))
			b = image.NewGray(image.Rect(0, 0, 0, 0))
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("empty image")))
		})
	})

	Describe("symmetry", func() {
		It("scores the same in both directions", func() {
			x := solidGray(16, 16, 40)
			y := solidGray(16, 16, 0)
			for i := range y.Pix {
				y.Pix[i] = uint8((i * 7) % 256)
			}

			xy, err := SSIM(x, y)
			Expect(err).NotTo(HaveOccurred())
			yx, err := SSIM(y, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(xy).To(BeNumerically("~", yx, 1e-12))
		})
	})
})
