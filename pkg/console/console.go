// Package console is the line-oriented text surface commands talk to.
//
// Commands print whole lines and occasionally prompt for input that must
// not be echoed (passwords). Terminal drives a real terminal; Capture
// records output and replays scripted input for tests.
package console

import (
	"context"
	"errors"
	"strings"
)

// ErrNoInput is returned by ReadLineSecure when no more input is available.
var ErrNoInput = errors.New("no input available")

// Console is the output and prompt surface used by commands.
type Console interface {
	// Print writes one line of text. A trailing newline is added.
	Print(text string) error

	// ReadLineSecure shows prompt and reads one line without echoing it.
	// The returned line has no trailing newline.
	ReadLineSecure(ctx context.Context, prompt string) (string, error)
}

// Sized is implemented by consoles that know their width in columns.
type Sized interface {
	Width() int
}

// WidthOf returns the width of c, or 0 if unknown.
func WidthOf(c Console) int {
	if s, ok := c.(Sized); ok {
		return s.Width()
	}
	return 0
}

// Refill word-wraps text to width columns. Runs of whitespace collapse to
// a single space. Words longer than width are kept whole on their own
// line. width <= 0 disables wrapping.
func Refill(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	return append(lines, line.String())
}
