package trace

import (
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

var _ = Describe("Reader", func() {
	It("should read lackey records", func() {
		r := NewReader(strings.NewReader(
			"I 0400d7d4,8\n" +
				" M 0421c7f0,4\n" +
				" L 04f6b868,8\n" +
				" S 7ff0005c8,8\n"))

		records, err := r.ReadAll()

		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(Equal([]Record{
			{Kind: KindInstruction, Address: 0x0400d7d4, Size: 8, Line: 1},
			{Kind: KindModify, Address: 0x0421c7f0, Size: 4, Line: 2},
			{Kind: KindLoad, Address: 0x04f6b868, Size: 8, Line: 3},
			{Kind: KindStore, Address: 0x7ff0005c8, Size: 8, Line: 4},
		}))
	})

	It("should skip blank lines and count them", func() {
		r := NewReader(strings.NewReader("\n  \n L 10,1\n"))

		record, err := r.Next()

		Expect(err).NotTo(HaveOccurred())
		Expect(record.Line).To(Equal(3))
		Expect(r.BytesRead()).To(Equal(int64(len("\n  \n L 10,1\n"))))

		_, err = r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("should accept a 0x prefix and a 64-bit address", func() {
		r := NewReader(strings.NewReader("L 0xffffffffffffffff,1"))

		record, err := r.Next()

		Expect(err).NotTo(HaveOccurred())
		Expect(record.Address).To(Equal(uint64(0xffffffffffffffff)))
	})

	It("should accept a kind directly followed by the address", func() {
		r := NewReader(strings.NewReader("L10,1\nM 7f,8\n"))

		records, err := r.ReadAll()

		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0].Kind).To(Equal(KindLoad))
		Expect(records[0].Address).To(Equal(uint64(0x10)))
		Expect(records[0].Size).To(Equal(1))
	})

	DescribeTable("should reject malformed lines",
		func(line string) {
			r := NewReader(strings.NewReader(line))

			_, err := r.Next()

			var parseErr *ParseError
			Expect(errors.As(err, &parseErr)).To(BeTrue())
			Expect(parseErr.Line).To(Equal(1))
			Expect(err).NotTo(MatchError(ErrUnknownKind))
		},
		Entry("kind only", "L"),
		Entry("no size", " L 10"),
		Entry("bad address", " L zz,1"),
		Entry("address too wide", " L 1ffffffffffffffff,1"),
		Entry("bad size", " L 10,x"),
	)

	It("should report unknown kinds separately", func() {
		r := NewReader(strings.NewReader(" X 10,1\n"))

		_, err := r.Next()

		Expect(err).To(MatchError(ErrUnknownKind))
		Expect(err.Error()).To(ContainSubstring("trace line 1"))
	})

	It("should wrap read failures", func() {
		r := NewReader(failingReader{})

		_, err := r.Next()

		Expect(err).To(MatchError(ContainSubstring("disk on fire")))
		Expect(err).NotTo(Equal(io.EOF))
	})
})

var _ = Describe("Kind", func() {
	It("should count references per kind", func() {
		Expect(KindInstruction.References()).To(Equal(0))
		Expect(KindLoad.References()).To(Equal(1))
		Expect(KindStore.References()).To(Equal(1))
		Expect(KindModify.References()).To(Equal(2))
		Expect(Kind('X').References()).To(Equal(0))
	})

	It("should format records like the trace", func() {
		record := Record{Kind: KindModify, Address: 0x20, Size: 1}

		Expect(record.String()).To(Equal("M 20,1"))
	})
})
