package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Hanaasagi/tinmacro/internal/capture"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/pkg/braces"
)

// ErrUsage is returned when a command is invoked with missing arguments.
var ErrUsage = errors.New("invalid usage")

const regexpSyntax = "SYNTAX: #REGEXP {string} {expression} {true} {false}."

// Driver runs command text. It may hand back a different session, which
// the caller must use from then on.
type Driver interface {
	Run(s *Session, text string) (*Session, error)
}

// Regexp implements "#regexp {string} {expression} {true} {false}".
// On a match the captures go to the command slots and the true branch,
// after &N expansion, is run; otherwise the false branch is run if given.
func (s *Session) Regexp(args string, d Driver) (*Session, error) {
	str, rest := braces.Arg(args, false)
	exp, rest := braces.Arg(rest, false)
	onTrue, rest := braces.Arg(rest, true)
	onFalse, _ := braces.Arg(rest, true)

	if onTrue == "" {
		s.Show(regexpSyntax)
		slog.Debug("regexp usage error", "args", args)
		return s, ErrUsage
	}

	str, err := s.Substitute(str, substitute.Var)
	if err != nil {
		return s, fmt.Errorf("regexp: %w", err)
	}
	exp, err = s.Substitute(exp, substitute.Var)
	if err != nil {
		return s, fmt.Errorf("regexp: %w", err)
	}

	ok, err := s.FindRaw(str, exp, capture.Commands)
	if err != nil {
		return s, fmt.Errorf("regexp: %w", err)
	}

	switch {
	case ok:
		body, err := s.Substitute(onTrue, substitute.Cmd)
		if err != nil {
			return s, fmt.Errorf("regexp: %w", err)
		}
		return d.Run(s, body)
	case onFalse != "":
		return d.Run(s, onFalse)
	}
	return s, nil
}
