// Package linereader turns a byte stream into a lazy sequence of trimmed,
// non-empty text lines.
package linereader

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

// MaxLineSize is the longest line the reader yields in one piece. Longer
// lines are split into MaxLineSize chunks so the stream keeps draining.
const MaxLineSize = 1024 * 1024

// Reader yields trimmed non-empty lines. The zero value is not usable; call New.
type Reader struct {
	scanner *bufio.Scanner
	line    string
}

// New wraps r. The reader is single-use and tied to r.
func New(r io.Reader) *Reader {
	return NewWithLimit(r, MaxLineSize)
}

// NewWithLimit is New with a custom chunk size for overlong lines.
func NewWithLimit(r io.Reader, maxLine int) *Reader {
	if maxLine <= 0 {
		maxLine = MaxLineSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(maxLine, 64*1024)), maxLine)
	scanner.Split(scanLines(maxLine))

	return &Reader{scanner: scanner}
}

// scanLines is bufio.ScanLines that hands back a full buffer as a token
// instead of failing with bufio.ErrTooLong.
func scanLines(maxLine int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanLines(data, atEOF)
		if advance == 0 && token == nil && err == nil && len(data) >= maxLine {
			return maxLine, data[:maxLine], nil
		}
		return advance, token, err
	}
}

// Next advances to the next non-blank line. It returns false at end of
// stream or on a read error; Err distinguishes the two.
func (r *Reader) Next() bool {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		r.line = line
		return true
	}
	r.line = ""
	return false
}

// Line returns the line produced by the last successful Next.
func (r *Reader) Line() string {
	return r.line
}

// Err returns the first non-EOF error encountered.
func (r *Reader) Err() error {
	return r.scanner.Err()
}

// All returns the remaining lines as a sequence. Check Err once the
// sequence is exhausted.
func (r *Reader) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for r.Next() {
			if !yield(r.line) {
				return
			}
		}
	}
}
