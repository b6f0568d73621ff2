package frames

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Still", func() {
	var (
		workDir string
		paths   []string
		err     error
		input   string
	)

	BeforeEach(func() {
		workDir = GinkgoT().TempDir()
	})

	JustBeforeEach(func() {
		paths, err = Still{}.ExtractFrames(context.Background(), input, workDir)
	})

	When("the input is a PNG photo", func() {
		BeforeEach(func() {
			input = writeSolidPNG(GinkgoT().TempDir(), "receipt.png", 100, 200, 180)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces a single frame", func() {
			Expect(paths).To(Equal([]string{filepath.Join(workDir, "frame_0000.png")}))
		})

		It("writes a decodable frame", func() {
			img, readErr := readImage(paths[0])
			Expect(readErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(100))
			Expect(img.Bounds().Dy()).To(Equal(200))
		})
	})

	When("the input does not exist", func() {
		BeforeEach(func() {
			input = "/nonexistent/receipt.png"
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the input is not an image", func() {
		BeforeEach(func() {
			input = writeGarbage(GinkgoT().TempDir(), "receipt.png")
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("decoding image")))
		})
	})
})

var _ = Describe("isHEIC", func() {
	heicHeader := func(brand string) []byte {
		return append([]byte{0, 0, 0, 24, 'f', 't', 'y', 'p'}, []byte(brand)...)
	}

	It("recognizes HEIC container brands", func() {
		Expect(isHEIC(heicHeader("heic"))).To(BeTrue())
		Expect(isHEIC(heicHeader("heif"))).To(BeTrue())
		Expect(isHEIC(heicHeader("mif1"))).To(BeTrue())
		Expect(isHEIC(heicHeader("msf1"))).To(BeTrue())
	})

	It("rejects other brands", func() {
		Expect(isHEIC(heicHeader("isom"))).To(BeFalse())
		Expect(isHEIC(heicHeader("avif"))).To(BeFalse())
	})

	It("rejects non-container data", func() {
		Expect(isHEIC([]byte("\x89PNG\r\n\x1a\n and some more"))).To(BeFalse())
		Expect(isHEIC([]byte("short"))).To(BeFalse())
		Expect(isHEIC(nil)).To(BeFalse())
	})
})
