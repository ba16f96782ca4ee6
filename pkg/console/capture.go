package console

import (
	"context"
	"sync"
)

// Capture is a Console that records printed lines and replays scripted
// answers to secure prompts.
type Capture struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
	inputs  []string
	width   int
}

var _ Console = (*Capture)(nil)

// NewCapture creates a console with no scripted input and no width.
func NewCapture() *Capture {
	return &Capture{}
}

// SetWidth sets the width reported to commands that wrap text.
func (c *Capture) SetWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
}

// Width implements Sized.
func (c *Capture) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// AddInput queues answers for ReadLineSecure, consumed in order.
func (c *Capture) AddInput(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, lines...)
}

func (c *Capture) Print(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, text)
	return nil
}

func (c *Capture) ReadLineSecure(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.inputs) == 0 {
		return "", ErrNoInput
	}
	line := c.inputs[0]
	c.inputs = c.inputs[1:]
	return line, nil
}

// Lines returns and clears the printed lines.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.lines
	c.lines = nil
	return lines
}

// Prompts returns the secure prompts shown so far.
func (c *Capture) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// PendingInput returns how many scripted answers remain unread.
func (c *Capture) PendingInput() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inputs)
}
