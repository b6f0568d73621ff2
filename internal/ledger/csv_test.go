package ledger

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

var _ = Describe("WriteCSV", func() {
	var (
		buf  bytes.Buffer
		rows []Row
		err  error
	)

	BeforeEach(func() {
		buf.Reset()
	})

	JustBeforeEach(func() {
		err = WriteCSV(&buf, rows)
	})

	When("the ledger is empty", func() {
		BeforeEach(func() {
			rows = nil
		})

		It("still writes the header", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("Date,Quantity,Item Name,Cost Per Item ($)\n"))
		})
	})

	When("the ledger has rows", func() {
		BeforeEach(func() {
			rows = []Row{
				{Date: "03/01/25", Quantity: 2, Name: "MILK", UnitPrice: 2.99},
				{Quantity: 1, Name: "BREAD", UnitPrice: 3.50},
			}
		})

		It("renders one record per row", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal(
				"Date,Quantity,Item Name,Cost Per Item ($)\n" +
					"03/01/25,2,MILK,2.99\n" +
					",1,BREAD,3.5\n"))
		})
	})

	When("a name contains a comma", func() {
		BeforeEach(func() {
			rows = []Row{{Quantity: 1, Name: "MILK, WHOLE", UnitPrice: 2.99}}
		})

		It("quotes the field", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring(`"MILK, WHOLE"`))
		})
	})

	When("the writer fails", func() {
		It("returns the error", func() {
			Expect(WriteCSV(failingWriter{}, nil)).To(HaveOccurred())
		})
	})
})
