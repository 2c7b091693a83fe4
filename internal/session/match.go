package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Hanaasagi/tinmacro/internal/capture"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/Hanaasagi/tinmacro/pkg/wildcard"
)

// compile compiles a dialect pattern. A pattern the engine rejects is
// logged and reported as nil without error so that callers treat it as no
// match; capacity errors are returned.
func compile(exp string, opts engine.Option) (*wildcard.Pattern, error) {
	p, err := wildcard.Compile(exp, opts)
	if err == nil {
		return p, nil
	}
	var cerr *wildcard.CompileError
	if errors.As(err, &cerr) {
		slog.Debug("pattern rejected", "pattern", exp, "expr", cerr.Expr, "error", cerr.Err)
		return nil, nil
	}
	return nil, err
}

// Match reports whether the whole of str matches exp. exp is expanded for
// variables and escapes first. No slots are written.
func (s *Session) Match(str, exp string) (bool, error) {
	expanded, err := s.Substitute("^"+exp+"$", substitute.Var|substitute.Esc)
	if err != nil {
		return false, fmt.Errorf("match %q: %w", exp, err)
	}
	p, err := compile(expanded, 0)
	if p == nil {
		return false, err
	}
	return p.Matcher.MatchString(str), nil
}

// Find searches str for exp after expanding variables in both, and binds
// the captures into target.
func (s *Session) Find(str, exp string, target capture.Target) (bool, error) {
	str, err := s.Substitute(str, substitute.Var)
	if err != nil {
		return false, fmt.Errorf("find: %w", err)
	}
	exp, err = s.Substitute(exp, substitute.Var)
	if err != nil {
		return false, fmt.Errorf("find: %w", err)
	}
	return s.FindRaw(str, exp, target)
}

// FindRaw is Find without expansion of its operands.
func (s *Session) FindRaw(str, exp string, target capture.Target) (bool, error) {
	p, err := compile(exp, 0)
	if p == nil {
		return false, err
	}
	return s.Slots.BindPattern(p, str, target), nil
}

// CheckPattern matches a rule's definition against a line and binds the
// captures into the variable slots. Meta definitions see the raw line,
// others the processed one. opts only applies to literal sources.
func (s *Session) CheckPattern(def Definition, processed, raw string, opts engine.Option) (bool, error) {
	str := processed
	if def.Meta {
		str = raw
	}

	var p *wildcard.Pattern
	switch src := def.Source.(type) {
	case Compiled:
		p = src.Pattern
	case Literal:
		exp, err := s.Substitute(string(src), substitute.Var)
		if err != nil {
			return false, fmt.Errorf("check %q: %w", string(src), err)
		}
		if p, err = compile(exp, opts); p == nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("check pattern: unknown source %T", def.Source)
	}

	return s.Slots.BindPattern(p, str, capture.Variables), nil
}
