package frames

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("sampleStride", func() {
	It("targets roughly two samples per second", func() {
		Expect(sampleStride(30)).To(Equal(15))
		Expect(sampleStride(29.97)).To(Equal(15))
		Expect(sampleStride(60)).To(Equal(30))
		Expect(sampleStride(3)).To(Equal(2))
	})

	It("never goes below one", func() {
		Expect(sampleStride(1)).To(Equal(1))
		Expect(sampleStride(0.5)).To(Equal(1))
		Expect(sampleStride(0)).To(Equal(1))
		Expect(sampleStride(-10)).To(Equal(1))
	})
})

var _ = Describe("parseRate", func() {
	It("parses rational rates", func() {
		Expect(parseRate("30000/1001")).To(BeNumerically("~", 29.97, 0.01))
		Expect(parseRate("25/1")).To(Equal(25.0))
	})

	It("parses plain rates", func() {
		Expect(parseRate("24")).To(Equal(24.0))
		Expect(parseRate(" 30 ")).To(Equal(30.0))
	})

	It("returns zero for unusable values", func() {
		Expect(parseRate("")).To(Equal(0.0))
		Expect(parseRate("0/0")).To(Equal(0.0))
		Expect(parseRate("abc")).To(Equal(0.0))
		Expect(parseRate("-5")).To(Equal(0.0))
	})
})

var _ = Describe("probeFrameRate", func() {
	It("rejects an empty path", func() {
		_, err := probeFrameRate(context.Background(), "ffprobe", "")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("selectDistinct", func() {
	var (
		selector  *Selector
		sampleDir string
		destDir   string
		samples   []string
		kept      []string
		err       error
	)

	BeforeEach(func() {
		selector = NewSelector("", "", DefaultThreshold)
		sampleDir = GinkgoT().TempDir()
		destDir = GinkgoT().TempDir()
		samples = nil
	})

	JustBeforeEach(func() {
		kept, err = selector.selectDistinct(samples, destDir)
	})

	When("there are no samples", func() {
		It("keeps nothing", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(BeEmpty())
		})
	})

	When("there is a single sample", func() {
		BeforeEach(func() {
			samples = []string{writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255)}
		})

		It("always keeps the first frame", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(1))
			Expect(kept[0]).To(Equal(filepath.Join(destDir, "frame_0000.png")))
		})
	})

	When("consecutive samples are identical", func() {
		BeforeEach(func() {
			samples = []string{
				writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000003.png", 300, 400, 255),
			}
		})

		It("keeps only the first", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(1))
		})
	})

	When("a sample differs sharply from the last kept frame", func() {
		BeforeEach(func() {
			samples = []string{
				writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 0),
			}
		})

		It("keeps both", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(2))
		})

		It("numbers frames in encounter order", func() {
			Expect(kept[0]).To(Equal(filepath.Join(destDir, "frame_0000.png")))
			Expect(kept[1]).To(Equal(filepath.Join(destDir, "frame_0001.png")))
		})
	})

	When("samples alternate between two distinct shots", func() {
		BeforeEach(func() {
			samples = []string{
				writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 0),
				writeSolidPNG(sampleDir, "sample_000003.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000004.png", 300, 400, 0),
			}
		})

		It("keeps every change against the last kept frame", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(4))
		})
	})

	When("a moderate change falls above the threshold", func() {
		BeforeEach(func() {
			samples = []string{
				writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 128),
			}
		})

		It("suppresses the near-duplicate", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(1))
		})

		When("the threshold is raised", func() {
			BeforeEach(func() {
				selector.Threshold = 0.95
			})

			It("keeps the moderately different frame too", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(kept).To(HaveLen(2))
			})
		})
	})

	When("the same samples are selected twice", func() {
		BeforeEach(func() {
			samples = []string{
				writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 250),
				writeSolidPNG(sampleDir, "sample_000003.png", 300, 400, 0),
				writeSolidPNG(sampleDir, "sample_000004.png", 300, 400, 0),
				writeSolidPNG(sampleDir, "sample_000005.png", 300, 400, 128),
			}
		})

		It("keeps the same frames in the same order", func() {
			Expect(err).NotTo(HaveOccurred())

			again, againErr := selector.selectDistinct(samples, GinkgoT().TempDir())
			Expect(againErr).NotTo(HaveOccurred())

			Expect(again).To(HaveLen(len(kept)))
			for i := range kept {
				Expect(filepath.Base(again[i])).To(Equal(filepath.Base(kept[i])))
			}
		})
	})

	When("a sample cannot be decoded", func() {
		BeforeEach(func() {
			samples = []string{
				writeGarbage(sampleDir, "sample_000001.png"),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 255),
			}
		})

		It("skips it and continues", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(1))
		})
	})

	When("the threshold is not configured", func() {
		BeforeEach(func() {
			selector.Threshold = 0
			samples = []string{
				writeSolidPNG(sampleDir, "sample_000001.png", 300, 400, 255),
				writeSolidPNG(sampleDir, "sample_000002.png", 300, 400, 0),
			}
		})

		It("falls back to the default", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(HaveLen(2))
		})
	})

	When("kept frames are landscape", func() {
		BeforeEach(func() {
			samples = []string{writeSolidPNG(sampleDir, "sample_000001.png", 400, 300, 255)}
		})

		It("writes them rotated to portrait", func() {
			Expect(err).NotTo(HaveOccurred())
			img, readErr := readImage(kept[0])
			Expect(readErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(300))
			Expect(img.Bounds().Dy()).To(Equal(400))
		})
	})
})
