package command

import (
	"math"
	"strconv"
	"strings"

	"github.com/HMasataka/conduit/pkg/errors"
)

// Sentinel marks a line as a command.
const Sentinel = '#'

const labelFlag = "--name"

// Request is one parsed command line.
type Request struct {
	Name  string
	Count *int
	Label *string
}

// Batch is the ordered list of instructions produced for one request.
type Batch []string

// HasSentinel reports whether line is meant as a command.
func HasSentinel(line string) bool {
	return len(line) > 0 && line[0] == Sentinel
}

// Parse parses a sentinel-prefixed line.
func Parse(line string) (Request, error) {
	if !HasSentinel(line) {
		return Request{}, errors.From(errors.ErrInvalidFormat, "commands must start with #")
	}

	tokens := strings.Fields(line[1:])
	if len(tokens) == 0 {
		return Request{}, errors.From(errors.ErrInvalidFormat, "missing command name")
	}

	req := Request{Name: strings.ToLower(tokens[0])}

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]

		if tok == labelFlag && i+1 < len(tokens) {
			label := tokens[i+1]
			req.Label = &label
			i++
			continue
		}

		n, err := parseCount(tok)
		if err != nil {
			return Request{}, err
		}
		req.Count = &n
	}

	return req, nil
}

// parseCount accepts non-negative integers. Values too large for an int
// saturate to math.MaxInt so they fail the descriptor's limit check rather
// than the format check.
func parseCount(tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange && !strings.HasPrefix(tok, "-") {
		return math.MaxInt, nil
	}
	if err != nil || n < 0 {
		return 0, errors.From(errors.ErrInvalidArgument, tok)
	}
	return n, nil
}

// String renders the request back in its wire form.
func (r Request) String() string {
	var b strings.Builder
	b.WriteByte(Sentinel)
	b.WriteString(r.Name)
	if r.Count != nil {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(*r.Count))
	}
	if r.Label != nil {
		b.WriteString(" " + labelFlag + " ")
		b.WriteString(*r.Label)
	}
	return b.String()
}
