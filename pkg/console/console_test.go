package console

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefill(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"empty", "", 10, []string{""}},
		{"no wrap", "hello   world", 0, []string{"hello world"}},
		{"fits", "hello world", 11, []string{"hello world"}},
		{"wraps", "hello world again", 11, []string{"hello world", "again"}},
		{"long word", "a supercalifragilistic b", 5, []string{"a", "supercalifragilistic", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Refill(tt.text, tt.width))
		})
	}
}

func TestCapture(t *testing.T) {
	ctx := context.Background()
	c := NewCapture()
	c.AddInput("first", "second")

	require.NoError(t, c.Print("line"))
	got, err := c.ReadLineSecure(ctx, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, 1, c.PendingInput())
	assert.Equal(t, []string{"Password: "}, c.Prompts())

	assert.Equal(t, []string{"line"}, c.Lines())
	assert.Empty(t, c.Lines())

	_, _ = c.ReadLineSecure(ctx, "")
	_, err = c.ReadLineSecure(ctx, "")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestWidthOf(t *testing.T) {
	c := NewCapture()
	assert.Equal(t, 0, WidthOf(c))
	c.SetWidth(40)
	assert.Equal(t, 40, WidthOf(c))
}

func TestTerminal_PipedInput(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = w.WriteString("hunter2\r\nnext")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var out bytes.Buffer
	term := NewTerminal(r, &out)
	assert.False(t, term.IsInteractive())
	assert.Equal(t, 0, term.Width())

	secret, err := term.ReadLineSecure(context.Background(), "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)

	line, err := term.ReadLine(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "next", line)

	_, err = term.ReadLine(context.Background(), "> ")
	assert.ErrorIs(t, err, ErrNoInput)

	require.NoError(t, term.Print("done"))
	assert.Equal(t, "Password: > > done\n", out.String())
}
