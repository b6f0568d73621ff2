package pipeline

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Remove", func() {
	It("deletes the listed files", func() {
		dir := GinkgoT().TempDir()
		a := filepath.Join(dir, "a.png")
		b := filepath.Join(dir, "b.png")
		Expect(os.WriteFile(a, []byte("a"), 0644)).To(Succeed())
		Expect(os.WriteFile(b, []byte("b"), 0644)).To(Succeed())

		Remove([]string{a, b})

		Expect(a).NotTo(BeAnExistingFile())
		Expect(b).NotTo(BeAnExistingFile())
	})

	It("ignores files that are already gone", func() {
		dir := GinkgoT().TempDir()
		existing := filepath.Join(dir, "keep.png")
		Expect(os.WriteFile(existing, []byte("x"), 0644)).To(Succeed())

		Remove([]string{filepath.Join(dir, "missing.png"), existing})

		Expect(existing).NotTo(BeAnExistingFile())
	})

	It("handles an empty list", func() {
		Remove(nil)
	})
})
