package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var ErrInvalidLine = errors.New("input line is not valid UTF-8")

// maxReadErrors is how many reads in a row may fail before the input is
// considered gone.
const maxReadErrors = 5

// Line is one line of user input, or the error that replaced it.
type Line struct {
	Text string
	Err  error
}

// ReadLines streams the lines of r until EOF or ctx ends, then closes the
// channel. A line that is not valid UTF-8 is reported as ErrInvalidLine and a
// failed read as a wrapped error; reading goes on after both. The channel is
// also closed after maxReadErrors failed reads in a row.
func ReadLines(ctx context.Context, r io.Reader) <-chan Line {
	out := make(chan Line)
	go func() {
		defer close(out)
		reader := bufio.NewReader(r)
		failures := 0
		for {
			raw, err := reader.ReadString('\n')
			if raw != "" {
				failures = 0
				line := Line{Text: strings.TrimRight(raw, "\r\n")}
				if !utf8.ValidString(line.Text) {
					line = Line{Err: ErrInvalidLine}
				}
				if !send(ctx, out, line) {
					return
				}
			}
			if err == nil {
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			// bufio.Reader drops the error once returned, so the next
			// read goes back to r.
			failures++
			if !send(ctx, out, Line{Err: fmt.Errorf("failed to read input: %w", err)}) || failures >= maxReadErrors {
				return
			}
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- Line, line Line) bool {
	select {
	case out <- line:
		return true
	case <-ctx.Done():
		return false
	}
}
