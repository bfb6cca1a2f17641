package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrUnknownKind is reported for well-formed records whose operation is not
// one of I, L, S or M.
var ErrUnknownKind = errors.New("unknown operation kind")

// A ParseError reports a trace line that cannot be turned into a Record.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A Reader reads records in the valgrind lackey format, for example
// "I 0400d7d4,8" or " L 7ff0005c8,8".
type Reader struct {
	scanner   *bufio.Scanner
	line      int
	bytesRead int64
}

// NewReader creates a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// BytesRead returns the number of bytes consumed so far.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

// Next returns the next record. Blank lines are skipped. It returns io.EOF
// after the last record.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		r.bytesRead += int64(len(text)) + 1

		if strings.TrimSpace(text) == "" {
			continue
		}

		return parseRecord(text, r.line)
	}

	err := r.scanner.Err()
	if err != nil {
		return Record{}, fmt.Errorf("reading trace: %w", err)
	}

	return Record{}, io.EOF
}

// ReadAll reads all the records until the end of the trace or the first
// error.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record

	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return records, err
		}

		records = append(records, record)
	}
}

func parseRecord(text string, line int) (Record, error) {
	fail := func(err error) (Record, error) {
		return Record{}, &ParseError{Line: line, Text: text, Err: err}
	}

	fields := strings.TrimSpace(text)
	kind := Kind(fields[0])
	rest := strings.TrimLeft(fields[1:], " \t")

	addrText, sizeText, found := strings.Cut(rest, ",")
	if !found {
		return fail(errors.New("missing size"))
	}

	addrText = strings.TrimPrefix(strings.TrimPrefix(addrText, "0x"), "0X")

	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return fail(fmt.Errorf("bad address: %w", err))
	}

	size, err := strconv.Atoi(strings.TrimSpace(sizeText))
	if err != nil {
		return fail(fmt.Errorf("bad size: %w", err))
	}

	if !kind.IsKnown() {
		return fail(ErrUnknownKind)
	}

	record := Record{
		Kind:    kind,
		Address: addr,
		Size:    size,
		Line:    line,
	}

	return record, nil
}
