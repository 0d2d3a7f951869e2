package interactive

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
)

const readBufferSize = 8192

// LineDelimiter splits tokens on any line ending.
var LineDelimiter = regexp.MustCompile(`\r\n|\r|\n`)

// TokenFunc handles one token. For an incomplete trailing token, returning
// false keeps it buffered so later output can complete it.
type TokenFunc func(token string) (bool, error)

type contextReader interface {
	ReadContext(ctx context.Context, b []byte) (int, error)
}

// Watch reads r until EOF, splitting its content on delim (LineDelimiter when
// nil) and passing each token to process. After every read, complete tokens
// are processed in order and the trailing partial token, if any, is offered
// too. Watch returns the first error from process or r.
//
// A reader with a ReadContext method, such as a Future's output stream, is
// abandoned as soon as ctx ends. Other readers are checked between reads.
func Watch(ctx context.Context, r io.Reader, delim *regexp.Regexp, process TokenFunc) error {
	if delim == nil {
		delim = LineDelimiter
	}

	read := r.Read
	if cr, ok := r.(contextReader); ok {
		read = func(b []byte) (int, error) { return cr.ReadContext(ctx, b) }
	}

	var (
		buf   strings.Builder
		chunk = make([]byte, readBufferSize)
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])

			rest, perr := tokenize(buf.String(), delim, process)
			if perr != nil {
				return perr
			}

			buf.Reset()
			buf.WriteString(rest)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

// tokenize processes every token in s and returns what must stay buffered.
func tokenize(s string, delim *regexp.Regexp, process TokenFunc) (string, error) {
	start := 0

	for _, loc := range delim.FindAllStringIndex(s, -1) {
		if loc[1] == loc[0] {
			continue
		}

		if _, err := process(s[start:loc[0]]); err != nil {
			return "", err
		}

		start = loc[1]
	}

	if start == len(s) {
		return "", nil
	}

	ok, err := process(s[start:])
	if err != nil {
		return "", err
	}

	if ok {
		return "", nil
	}

	return s[start:], nil
}
