// Package session holds the per-session substitution context and the
// pattern matching entry points built on it.
package session

import (
	"fmt"
	"io"

	"github.com/Hanaasagi/tinmacro/internal/capture"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
)

// Session owns the slot tables and variables that substitutions and matches
// read and write. It is not safe for concurrent use.
type Session struct {
	Name  string
	Slots capture.Slots
	Vars  *Variables

	engine *substitute.Engine
	out    io.Writer
}

// Option configures a Session.
type Option func(*Session)

// WithMaxDepth sets the nesting limit of substitutions.
func WithMaxDepth(n int) Option {
	return func(s *Session) {
		s.engine.MaxDepth = n
	}
}

// New creates a session writing its display output to out.
func New(name string, out io.Writer, opts ...Option) *Session {
	if out == nil {
		out = io.Discard
	}
	s := &Session{
		Name: name,
		Vars: NewVariables(),
		out:  out,
	}
	s.engine = substitute.New(&s.Slots, s.Vars)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Substitute expands str against this session.
func (s *Session) Substitute(str string, flags substitute.Flag) (string, error) {
	return s.engine.Substitute(str, flags)
}

// Output returns the display writer.
func (s *Session) Output() io.Writer {
	return s.out
}

// Show writes one line of display output.
func (s *Session) Show(line string) {
	fmt.Fprintln(s.out, line)
}

// Printf formats one line of display output.
func (s *Session) Printf(format string, args ...any) {
	s.Show(fmt.Sprintf(format, args...))
}
