package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Terminal is a Console over a pair of file descriptors, normally stdin
// and stdout.
//
// When the input is a terminal, secure reads switch it to no-echo mode.
// Otherwise input is read line by line, which keeps piped sessions working.
type Terminal struct {
	in  *os.File
	out io.Writer

	mu     sync.Mutex
	reader *bufio.Reader
}

var _ Console = (*Terminal)(nil)

// NewTerminal creates a console reading from in and writing to out.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, reader: bufio.NewReader(in)}
}

// Stdio returns a Terminal over the process' standard streams.
func Stdio() *Terminal {
	return NewTerminal(os.Stdin, os.Stdout)
}

func (t *Terminal) Print(text string) error {
	_, err := fmt.Fprintln(t.out, text)
	return err
}

// IsInteractive reports whether input comes from a terminal.
func (t *Terminal) IsInteractive() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// Width returns the terminal's column count, or 0 when the output is not
// a terminal.
func (t *Terminal) Width() int {
	f, ok := t.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// ReadLine shows prompt and reads one echoed line.
func (t *Terminal) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", err
	}
	return t.readLine()
}

func (t *Terminal) ReadLineSecure(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", err
	}

	if !t.IsInteractive() {
		return t.readLine()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	secret, err := term.ReadPassword(int(t.in.Fd()))
	// The user's Enter is swallowed along with the echo.
	_, _ = fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func (t *Terminal) readLine() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line, err := t.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
