// Package shell is the line-oriented session loop: it reads command lines,
// dispatches them to the command registry and reports failures.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/commands"
	"github.com/marmos91/dittostore/pkg/console"
)

// ErrExit is returned when the user asks to end the session with EXIT.
var ErrExit = errors.New("session exit requested")

// LineReader reads echoed input lines.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// Shell runs commands from a registry.
type Shell struct {
	registry *commands.Registry
	input    LineReader
	console  console.Console
	prompt   string
}

// New creates a shell. input may be nil when only Execute is used.
func New(registry *commands.Registry, input LineReader, c console.Console) *Shell {
	return &Shell{registry: registry, input: input, console: c, prompt: "Ready\n"}
}

// SetPrompt changes the text shown before each line is read.
func (s *Shell) SetPrompt(prompt string) {
	s.prompt = prompt
}

// Execute runs one command line.
//
// EXIT returns ErrExit. HELP is handled here so it can see every
// registered command.
func (s *Shell) Execute(ctx context.Context, line string) error {
	name, args, err := commands.ParseLine(line)
	if err != nil {
		return err
	}

	switch name {
	case "":
		return nil
	case "EXIT":
		if len(args) != 0 {
			return commands.ArgumentError("EXIT takes no arguments")
		}
		return ErrExit
	case "HELP":
		return s.help(args)
	}

	logger.Debug("Executing %s with %d argument(s)", name, len(args))
	return s.registry.Exec(ctx, name, args)
}

// Run reads and executes lines until input ends, ctx is cancelled or the
// user runs EXIT.
//
// Command failures are printed and the loop continues. Returns nil at end
// of input, ErrExit after EXIT, or the error that stopped reading.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.input.ReadLine(ctx, s.prompt)
		if err != nil {
			if errors.Is(err, console.ErrNoInput) {
				return nil
			}
			return err
		}

		err = s.Execute(ctx, line)
		switch {
		case err == nil:
		case errors.Is(err, ErrExit):
			return ErrExit
		case errors.Is(err, context.Canceled):
			return err
		default:
			if perr := s.console.Print("ERROR: " + err.Error()); perr != nil {
				return perr
			}
		}
	}
}

func (s *Shell) help(args []commands.Arg) error {
	if len(args) == 0 {
		lines := []string{""}
		for _, name := range s.registry.Names() {
			cmd, _ := s.registry.Lookup(name)
			lines = append(lines, strings.TrimRight(fmt.Sprintf("    %-8s %s", name, cmd.Syntax()), " "))
		}
		lines = append(lines, "", "    Type HELP \"name\" for details. EXIT ends the session.", "")
		return s.printLines(lines)
	}

	if len(args) != 1 || args[0].Sep != commands.ArgSepEnd {
		return commands.ArgumentError("HELP takes zero or one arguments")
	}
	topic, ok := args[0].Value.(string)
	if !ok {
		return commands.ArgumentError("HELP requires a string as the topic")
	}
	cmd, ok := s.registry.Lookup(topic)
	if !ok {
		return commands.ArgumentError(fmt.Sprintf("Unknown help topic %s", topic))
	}

	lines := []string{"", "    " + strings.TrimRight(cmd.Name()+" "+cmd.Syntax(), " "), ""}
	width := console.WidthOf(s.console)
	if width > 4 {
		width -= 4
	}
	for _, paragraph := range strings.Split(cmd.Description(), "\n") {
		for _, l := range console.Refill(paragraph, width) {
			lines = append(lines, "    "+l)
		}
		lines = append(lines, "")
	}
	return s.printLines(lines)
}

func (s *Shell) printLines(lines []string) error {
	for _, line := range lines {
		if err := s.console.Print(line); err != nil {
			return err
		}
	}
	return nil
}
