// Package script runs command text: "#command {args}" directives separated
// by ';', with everything that is not a directive handed to a sender.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Hanaasagi/tinmacro/internal/highlight"
	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/internal/trigger"
	"github.com/Hanaasagi/tinmacro/pkg/braces"
)

const (
	DefaultCommandChar = '#'
	Separator          = ';'
)

// ErrUnknownCommand is returned for a directive no command answers to.
var ErrUnknownCommand = errors.New("unknown command")

// Sender receives the text of non-directive commands.
type Sender func(s *session.Session, text string) error

// Driver executes scripts against a session. It implements
// session.Driver.
type Driver struct {
	CommandChar byte
	Actions     *trigger.Table
	Highlights  *highlight.Table
	// Color enables <XYZ> colour tags in #showme.
	Color bool
	// Send defaults to showing the text on the session output.
	Send Sender
}

// New returns a driver with empty action and highlight tables sharing one
// pattern cache.
func New() *Driver {
	cache := trigger.NewPatternCache()
	return &Driver{
		CommandChar: DefaultCommandChar,
		Actions:     trigger.NewTable(cache),
		Highlights:  highlight.NewTable(cache),
		Color:       true,
	}
}

// Split breaks text into commands at separators outside braces. A
// backslash keeps the following byte from being treated as a separator.
func Split(text string) []string {
	var (
		cmds  []string
		nest  int
		start int
	)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case braces.Open:
			nest++
		case braces.Close:
			if nest > 0 {
				nest--
			}
		case Separator:
			if nest == 0 {
				cmds = appendCommand(cmds, text[start:i])
				start = i + 1
			}
		}
	}
	if start < len(text) {
		cmds = appendCommand(cmds, text[start:])
	}
	return cmds
}

func appendCommand(cmds []string, cmd string) []string {
	if cmd = strings.TrimSpace(cmd); cmd != "" {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// IsAbbrev reports whether s is a non-empty, case-insensitive prefix of
// word.
func IsAbbrev(s, word string) bool {
	return s != "" && len(s) <= len(word) && strings.EqualFold(word[:len(s)], s)
}

// Run executes every command in text and returns the session to continue
// with.
func (d *Driver) Run(s *session.Session, text string) (*session.Session, error) {
	for _, cmd := range Split(text) {
		var err error
		if s, err = d.exec(s, cmd); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (d *Driver) commandChar() byte {
	if d.CommandChar == 0 {
		return DefaultCommandChar
	}
	return d.CommandChar
}

func (d *Driver) exec(s *session.Session, cmd string) (*session.Session, error) {
	if cmd[0] != d.commandChar() {
		text, err := s.Substitute(cmd, substitute.Var|substitute.Esc)
		if err != nil {
			return s, err
		}
		return s, d.send(s, text)
	}

	name, args := braces.Arg(cmd[1:], false)
	c, ok := lookup(name)
	if !ok {
		s.Printf("#ERROR: #UNKNOWN COMMAND '%s'.", name)
		return s, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
	slog.Debug("command", "name", c.name, "args", args)
	return c.fn(d, s, strings.TrimSpace(args))
}

func (d *Driver) send(s *session.Session, text string) error {
	if d.Send != nil {
		return d.Send(s, text)
	}
	s.Show(text)
	return nil
}

// LoadScript runs a script file's text. Each line holds one command, the
// command character being optional; /* */ comments outside braces are
// skipped. A line with unbalanced braces is reported and skipped, the
// other lines still run.
func (d *Driver) LoadScript(s *session.Session, text string) (*session.Session, error) {
	var errs []error
	for n, line := range strings.Split(stripComments(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !braces.Balanced(line) {
			errs = append(errs, fmt.Errorf("line %d: missing closing brace", n+1))
			continue
		}
		if line[0] != d.commandChar() {
			line = string(d.commandChar()) + line
		}
		var err error
		if s, err = d.exec(s, line); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", n+1, err))
		}
	}
	return s, errors.Join(errs...)
}

// stripComments removes /* */ comments outside braces, keeping line breaks
// so that line numbers survive.
func stripComments(text string) string {
	var (
		b       strings.Builder
		nest    int
		comment bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if comment {
			switch {
			case c == '*' && i+1 < len(text) && text[i+1] == '/':
				comment = false
				i++
			case c == '\n':
				b.WriteByte(c)
			}
			continue
		}
		switch {
		case c == '\r':
		case c == braces.Open:
			nest++
			b.WriteByte(c)
		case c == braces.Close:
			nest--
			b.WriteByte(c)
		case c == '\n':
			nest = 0
			b.WriteByte(c)
		case c == '/' && nest == 0 && i+1 < len(text) && text[i+1] == '*':
			comment = true
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
