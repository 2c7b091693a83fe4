// Package substitute expands variables, slot arguments, escapes and colour
// tags in command and pattern text.
package substitute

import (
	"errors"

	"github.com/Hanaasagi/tinmacro/pkg/braces"
)

// DefaultMaxDepth bounds the nesting of ${...} expressions and resolved
// variable values.
const DefaultMaxDepth = 64

// ErrTooDeep is returned when expansions nest deeper than the engine allows.
var ErrTooDeep = errors.New("substitution nested too deeply")

const (
	escape    = 0x1b
	separator = ';'
)

// Slots gives read access to the %N and &N tables.
type Slots interface {
	Var(i int) string
	Cmd(i int) string
}

// Resolver looks up variables. index is the already expanded text between
// the brackets of $name[index], or "" when there was none.
type Resolver interface {
	Resolve(name, index string) (string, bool)
}

// Engine performs substitutions against one set of slots and variables.
// Nil Slots and Resolver behave as empty tables.
type Engine struct {
	Slots    Slots
	Resolver Resolver
	MaxDepth int
}

// New returns an engine with the default depth limit.
func New(slots Slots, resolver Resolver) *Engine {
	return &Engine{Slots: slots, Resolver: resolver, MaxDepth: DefaultMaxDepth}
}

// Substitute returns input with the expansions selected by flags applied.
func (e *Engine) Substitute(input string, flags Flag) (string, error) {
	out, err := e.Append(make([]byte, 0, len(input)+8), input, flags)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Append is like Substitute but appends the result to dst.
func (e *Engine) Append(dst []byte, input string, flags Flag) ([]byte, error) {
	return e.run(dst, input, flags, 0)
}

func (e *Engine) maxDepth() int {
	if e.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return e.MaxDepth
}

func (e *Engine) run(dst []byte, input string, flags Flag, depth int) ([]byte, error) {
	if depth > e.maxDepth() {
		return dst, ErrTooDeep
	}
	s := &scanner{e: e, in: input, out: dst, flags: flags, depth: depth}
	if err := s.scan(); err != nil {
		return dst, err
	}
	return s.out, nil
}

// scanner holds the state of one substitution call.
type scanner struct {
	e     *Engine
	in    string
	out   []byte
	flags Flag
	depth int
	// last colour tag emitted by this call
	last string
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func (s *scanner) peek(i int) byte {
	if i < len(s.in) {
		return s.in[i]
	}
	return 0
}

// nested flags: the terminators belong to the outermost call only.
func (s *scanner) nested() Flag {
	return s.flags &^ (EOL | LNF)
}

func (s *scanner) scan() error {
	i := 0
	for i < len(s.in) {
		var (
			n   int
			err error
		)
		switch c := s.in[i]; c {
		case '$':
			n, err = s.dollar(i)
		case '%':
			n = s.percent(i)
		case '&':
			n, err = s.ampersand(i)
		case '\\':
			n = s.backslash(i)
		case '<':
			n = s.tag(i)
		case escape:
			s.out = append(s.out, c)
			n = 1
		default:
			s.literal(c)
			n = 1
		}
		if err != nil {
			return err
		}
		i += n
	}

	if s.flags.Has(EOL) {
		s.out = append(s.out, '\r')
	}
	if s.flags.Has(LNF) {
		s.out = append(s.out, '\n')
	}
	return nil
}

// literal copies an ordinary byte, escaping it in safe-only mode.
func (s *scanner) literal(c byte) {
	if s.flags.Has(Sec) && !s.flags.Has(Arg) {
		s.out = appendSafe(s.out, c)
		return
	}
	s.out = append(s.out, c)
}

// appendSafe escapes the bytes that would change meaning inside command
// text.
func appendSafe(dst []byte, c byte) []byte {
	switch c {
	case '\\':
		return append(dst, '\\', '\\')
	case braces.Open:
		return append(dst, `\x7B`...)
	case braces.Close:
		return append(dst, `\x7D`...)
	case separator:
		return append(dst, '\\', separator)
	}
	return append(dst, c)
}

// Escape returns str with backslashes, braces and separators escaped.
func Escape(str string) string {
	out := make([]byte, 0, len(str))
	for i := 0; i < len(str); i++ {
		out = appendSafe(out, str[i])
	}
	return string(out)
}

// run collapses a run of two or more identical sigils starting at i into one
// sigil less. The last sigil is kept when swallow reports that the byte
// after the run cannot start an expansion. Scanning resumes at that byte.
func (s *scanner) run(i int, swallow func(byte) bool) int {
	sigil := s.in[i]
	j := i
	for j < len(s.in) && s.in[j] == sigil {
		j++
	}
	n := j - i - 1
	if !swallow(s.peek(j)) {
		n++
	}
	for range n {
		s.out = append(s.out, sigil)
	}
	return j - i
}

func always(byte) bool { return true }

// nameStart reports whether c may follow a variable sigil.
func nameStart(c byte) bool {
	return c == braces.Open || isAlpha(c) || isDigit(c)
}

// slot reads the one or two digit slot number after the sigil at i.
func (s *scanner) slot(i int) (slot, n int) {
	slot = int(s.in[i+1] - '0')
	if isDigit(s.peek(i + 2)) {
		return slot*10 + int(s.in[i+2]-'0'), 3
	}
	return slot, 2
}

func (s *scanner) varRef(i int) bool {
	next := s.peek(i + 1)
	return s.flags.Has(Var) && (next == braces.Open || isAlpha(next) || next == s.in[i])
}

func (s *scanner) dollar(i int) (int, error) {
	if !s.varRef(i) {
		s.out = append(s.out, '$')
		return 1, nil
	}
	return s.variable(i)
}

func (s *scanner) percent(i int) int {
	next := s.peek(i + 1)
	if !s.flags.Has(Arg) || !(isDigit(next) || next == '%') {
		s.out = append(s.out, '%')
		return 1
	}
	if next == '%' {
		return s.run(i, always)
	}

	slot, n := s.slot(i)
	var val string
	if s.e.Slots != nil {
		val = s.e.Slots.Var(slot)
	}
	if s.flags.Has(Sec) {
		for j := 0; j < len(val); j++ {
			s.out = appendSafe(s.out, val[j])
		}
	} else {
		s.out = append(s.out, val...)
	}
	return n
}

func (s *scanner) ampersand(i int) (int, error) {
	next := s.peek(i + 1)
	if s.flags.Has(Cmd) && (isDigit(next) || next == '&') {
		if next == '&' {
			return s.run(i, isDigit), nil
		}
		slot, n := s.slot(i)
		if s.e.Slots != nil {
			s.out = append(s.out, s.e.Slots.Cmd(slot)...)
		}
		return n, nil
	}
	if s.varRef(i) {
		return s.variable(i)
	}
	s.out = append(s.out, '&')
	return 1, nil
}

// variable expands $name, $name[idx] or ${expr}[idx] starting at i.
func (s *scanner) variable(i int) (int, error) {
	if s.peek(i+1) == s.in[i] {
		return s.run(i, nameStart), nil
	}

	var (
		name string
		rest string
		err  error
	)
	if s.in[i+1] == braces.Open {
		var body string
		body, rest = braces.Arg(s.in[i+1:], true)
		if name, err = s.expand(body); err != nil {
			return 0, err
		}
	} else {
		j := i + 1
		for j < len(s.in) && isNameChar(s.in[j]) {
			j++
		}
		name, rest = s.in[i+1:j], s.in[j:]
	}

	idx, rest := braces.Index(rest)
	if idx != "" {
		if idx, err = s.expand(braces.Unwrap(idx)); err != nil {
			return 0, err
		}
	}
	n := len(s.in) - len(rest) - i

	var (
		val string
		ok  bool
	)
	if s.e.Resolver != nil {
		val, ok = s.e.Resolver.Resolve(name, idx)
	}
	if !ok {
		s.out = append(s.out, s.in[i:i+n]...)
		return n, nil
	}

	if s.out, err = s.e.run(s.out, val, s.nested()&^Var, s.depth+1); err != nil {
		return 0, err
	}
	return n, nil
}

// expand substitutes a nested expression with this call's flags.
func (s *scanner) expand(str string) (string, error) {
	out, err := s.e.run(nil, str, s.nested(), s.depth+1)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *scanner) backslash(i int) int {
	if !s.flags.Has(Esc) {
		s.literal('\\')
		return 1
	}
	if i+1 >= len(s.in) {
		// A trailing backslash joins this text with whatever follows.
		s.flags &^= EOL | LNF
		return 1
	}

	switch c := s.in[i+1]; c {
	case 'a':
		s.out = append(s.out, '\a')
	case 'b':
		s.out = append(s.out, '\b')
	case 'e':
		s.out = append(s.out, escape)
	case 'n':
		s.out = append(s.out, '\n')
	case 'r':
		s.out = append(s.out, '\r')
	case 't':
		s.out = append(s.out, '\t')
	case 'c':
		if i+2 < len(s.in) {
			s.out = append(s.out, s.in[i+2]%32)
			return 3
		}
	case 'x':
		if isHex(s.peek(i+2)) && isHex(s.peek(i+3)) {
			s.out = append(s.out, hexValue(s.in[i+2])<<4|hexValue(s.in[i+3]))
			return 4
		}
		s.out = append(s.out, 'x')
	case '0':
		v, n := 0, 2
		for n < 5 && i+n < len(s.in) {
			d := s.in[i+n]
			if d < '0' || d > '7' || v*8+int(d-'0') > 0xff {
				break
			}
			v = v*8 + int(d-'0')
			n++
		}
		s.out = append(s.out, byte(v))
		return n
	default:
		s.out = append(s.out, c)
	}
	return 2
}

func (s *scanner) tag(i int) int {
	if !s.flags.Has(Col) {
		s.out = append(s.out, '<')
		return 1
	}
	if i+TagLen > len(s.in) {
		s.out = append(s.out, '<')
		return 1
	}
	window := s.in[i : i+TagLen]
	if s.flags.Has(Cmp) && s.last != "" && window == s.last {
		return TagLen
	}
	t, ok := ParseTag(window)
	if !ok {
		s.out = append(s.out, '<')
		return 1
	}
	s.out = append(s.out, t.SGR...)
	s.last = window
	return TagLen
}
