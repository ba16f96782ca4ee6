package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/marmos91/dittostore/pkg/drive"
)

// ArgSep is the separator that follows an argument.
type ArgSep int

const (
	// ArgSepEnd marks the last argument
	ArgSepEnd ArgSep = iota

	// ArgSepShort is ';'
	ArgSepShort

	// ArgSepLong is ','
	ArgSepLong

	// ArgSepAs is the AS keyword
	ArgSepAs
)

func (s ArgSep) String() string {
	switch s {
	case ArgSepEnd:
		return "<END>"
	case ArgSepShort:
		return ";"
	case ArgSepLong:
		return ","
	case ArgSepAs:
		return "AS"
	default:
		return fmt.Sprintf("ArgSep(%d)", int(s))
	}
}

// Arg is one evaluated command argument.
//
// Value is nil for an empty slot (e.g. the middle of "A, , B"); otherwise it
// holds a string, int64, float64 or bool.
type Arg struct {
	Value any
	Sep   ArgSep
}

// ArgumentError builds the error returned for malformed command arguments.
func ArgumentError(message string) error {
	return drive.NewInvalidArgumentError(message)
}

func argumentError(format string, v ...any) error {
	return ArgumentError(fmt.Sprintf(format, v...))
}

// ParseLine splits a command line into an upper-cased command name and its
// evaluated arguments.
//
// Arguments are literals: double-quoted strings, integers, floats and
// TRUE/FALSE, separated by ',', ';' or AS. An empty slot between two
// separators yields an Arg with a nil Value.
func ParseLine(line string) (string, []Arg, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, nil
	}

	nameEnd := strings.IndexFunc(line, unicode.IsSpace)
	if nameEnd < 0 {
		return strings.ToUpper(line), nil, nil
	}
	name := strings.ToUpper(line[:nameEnd])
	rest := strings.TrimSpace(line[nameEnd:])
	if rest == "" {
		return name, nil, nil
	}

	p := &lineParser{input: rest}
	args, err := p.parse()
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

type lineParser struct {
	input string
	pos   int
}

func (p *lineParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *lineParser) parse() ([]Arg, error) {
	var args []Arg
	for {
		p.skipSpaces()

		var value any
		if p.pos < len(p.input) && !p.atSeparator() {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			value = v
			p.skipSpaces()
		}

		if p.pos >= len(p.input) {
			return append(args, Arg{Value: value, Sep: ArgSepEnd}), nil
		}

		sep, ok := p.separator()
		if !ok {
			return nil, argumentError("Expected separator at column %d", p.pos+1)
		}
		args = append(args, Arg{Value: value, Sep: sep})
	}
}

// atSeparator reports whether the next token is a separator.
func (p *lineParser) atSeparator() bool {
	c := p.input[p.pos]
	return c == ',' || c == ';' || p.atAs()
}

func (p *lineParser) atAs() bool {
	rest := p.input[p.pos:]
	if len(rest) < 2 || !strings.EqualFold(rest[:2], "AS") {
		return false
	}
	return len(rest) == 2 || rest[2] == ' ' || rest[2] == '\t'
}

func (p *lineParser) separator() (ArgSep, bool) {
	switch {
	case p.input[p.pos] == ',':
		p.pos++
		return ArgSepLong, true
	case p.input[p.pos] == ';':
		p.pos++
		return ArgSepShort, true
	case p.atAs():
		p.pos += 2
		return ArgSepAs, true
	}
	return ArgSepEnd, false
}

func (p *lineParser) value() (any, error) {
	if p.input[p.pos] == '"' {
		end := strings.IndexByte(p.input[p.pos+1:], '"')
		if end < 0 {
			return nil, argumentError("Unterminated string")
		}
		s := p.input[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return s, nil
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ' ' || c == '\t' || c == ',' || c == ';' || c == '"' {
			break
		}
		p.pos++
	}
	word := p.input[start:p.pos]

	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return f, nil
	}
	switch strings.ToUpper(word) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	}
	return nil, argumentError("Unknown value '%s'", word)
}
