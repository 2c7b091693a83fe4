// Package wildcard translates the client's wildcard pattern dialect into
// engine regular expressions.
//
// The dialect is a regular expression where the metacharacters
// [ ] ( ) | . ? + * ^ are literal and '%' introduces wildcards:
//
//	%1 .. %99  any text, bound to the given slot
//	%d %D      digits / non-digits
//	%s %S      whitespace / non-whitespace
//	%w %W      letters / non-letters
//	%.         exactly one character
//	%*         any text
//	%+         one or more characters
//	%?         zero or one character
//	%i %I      case-insensitive / case-sensitive from here on
//	%%         a literal percent sign
//
// A braced body {...} is copied as raw engine syntax inside a capturing
// group. Wildcards are lazy unless they end the pattern, so interior
// wildcards stop at the first place the following text can match while a
// trailing wildcard takes the rest of the line.
package wildcard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Hanaasagi/tinmacro/pkg/braces"
	"github.com/Hanaasagi/tinmacro/pkg/engine"
)

// MaxSlots is the number of positional slots a pattern may bind,
// the whole match (slot 0) included.
const MaxSlots = 100

// ErrTooManyCaptures is returned when a pattern needs more slots than
// MaxSlots provides.
var ErrTooManyCaptures = errors.New("too many captures")

// CompileError reports a translated pattern that the engine rejected.
type CompileError struct {
	Pattern string // dialect source
	Expr    string // translated expression
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %q (as %q): %v", e.Pattern, e.Expr, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Translation is the engine form of a dialect pattern.
type Translation struct {
	// Expr is the engine expression.
	Expr string
	// Remap maps a capture ordinal to the slot it binds. Remap[0] is 0.
	Remap []int
	// Fixup is set when the pattern named explicit slots (%1 .. %99).
	Fixup bool
}

// Pattern is a compiled dialect pattern.
type Pattern struct {
	Translation

	Source  string
	Matcher engine.Matcher
}

// Groups returns the number of capture groups, the whole match included.
func (p *Pattern) Groups() int {
	return p.Matcher.NumSubexp() + 1
}

// wildcard bodies: greedy and lazy forms.
var wildcards = map[byte][2]string{
	'd': {"([0-9]*)", "([0-9]*?)"},
	'D': {"([^0-9]*)", "([^0-9]*?)"},
	's': {`(\s*)`, `(\s*?)`},
	'S': {`(\S*)`, `(\S*?)`},
	'w': {"([a-zA-Z]*)", "([a-zA-Z]*?)"},
	'W': {"([^a-zA-Z]*)", "([^a-zA-Z]*?)"},
	'?': {"(.?)", "(.??)"},
	'*': {"(.*)", "(.*?)"},
	'+': {"(.+)", "(.+?)"},
	'.': {"(.)", "(.)"},
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// translator carries the slot counters while a pattern is rewritten.
type translator struct {
	out   strings.Builder
	remap []int
	slot  int
	fixup bool
}

// bind records that the next capture group binds the current slot.
func (t *translator) bind() error {
	if t.slot >= MaxSlots || len(t.remap) >= MaxSlots {
		return ErrTooManyCaptures
	}
	t.remap = append(t.remap, t.slot)
	t.slot++
	return nil
}

// lazy picks the greedy form when nothing follows the wildcard.
func lazy(forms [2]string, rest string) string {
	if rest == "" {
		return forms[0]
	}
	return forms[1]
}

// Translate rewrites a dialect pattern into an engine expression.
func Translate(exp string) (Translation, error) {
	t := &translator{remap: []int{0}, slot: 1}
	t.out.Grow(len(exp) * 2)

	i := 0
	for i < len(exp) && exp[i] == '^' {
		t.out.WriteByte('^')
		i++
	}

	for i < len(exp) {
		c := exp[i]
		switch c {
		case '\\':
			t.out.WriteByte(c)
			if i+1 < len(exp) {
				t.out.WriteByte(exp[i+1])
				i++
			}
			i++

		case braces.Open:
			body, rest := braces.Arg(exp[i:], true)
			if err := t.bind(); err != nil {
				return Translation{}, err
			}
			for range countGroups(body) {
				if err := t.bind(); err != nil {
					return Translation{}, err
				}
			}
			t.out.WriteByte('(')
			t.out.WriteString(body)
			t.out.WriteByte(')')
			i = len(exp) - len(rest)

		case '[', ']', '(', ')', '|', '.', '?', '+', '*', '^':
			t.out.WriteByte('\\')
			t.out.WriteByte(c)
			i++

		case '$':
			if i+1 >= len(exp) || (exp[i+1] != braces.Open && !isAlnum(exp[i+1])) {
				j := i + 1
				for j < len(exp) && exp[j] == '$' {
					j++
				}
				if j < len(exp) {
					t.out.WriteByte('\\')
				}
			}
			t.out.WriteByte(c)
			i++

		case '%':
			n, err := t.percent(exp, i)
			if err != nil {
				return Translation{}, err
			}
			i += n

		default:
			t.out.WriteByte(c)
			i++
		}
	}

	return Translation{Expr: t.out.String(), Remap: t.remap, Fixup: t.fixup}, nil
}

// percent translates the token starting at exp[i] == '%' and returns how
// many bytes it consumed.
func (t *translator) percent(exp string, i int) (int, error) {
	if i+1 >= len(exp) {
		t.out.WriteByte('%')
		return 1, nil
	}

	next := exp[i+1]
	switch {
	case isDigit(next):
		n := 2
		slot := int(next - '0')
		if i+2 < len(exp) && isDigit(exp[i+2]) {
			slot = slot*10 + int(exp[i+2]-'0')
			n = 3
		}
		t.fixup = true
		t.slot = slot
		if err := t.bind(); err != nil {
			return 0, err
		}
		t.out.WriteString(lazy(wildcards['*'], exp[i+n:]))
		return n, nil

	case next == 'i':
		t.out.WriteString("(?i)")
		return 2, nil

	case next == 'I':
		t.out.WriteString("(?-i)")
		return 2, nil

	case next == '%':
		t.out.WriteByte('%')
		return 2, nil
	}

	forms, ok := wildcards[next]
	if !ok {
		t.out.WriteByte('%')
		return 1, nil
	}
	if err := t.bind(); err != nil {
		return 0, err
	}
	t.out.WriteString(lazy(forms, exp[i+2:]))
	return 2, nil
}

// countGroups counts the capturing groups opened in raw engine syntax.
func countGroups(expr string) int {
	n := 0
	class := false
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '\\':
			i++
		case class:
			if c == ']' {
				class = false
			}
		case c == '[':
			class = true
			// A leading ']' (or '^]') is a literal member of the class.
			if i+1 < len(expr) && expr[i+1] == '^' {
				i++
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				i++
			}
		case c == '(':
			rest := expr[i+1:]
			if !strings.HasPrefix(rest, "?") ||
				strings.HasPrefix(rest, "?P<") ||
				(strings.HasPrefix(rest, "?<") && !strings.HasPrefix(rest, "?<=") && !strings.HasPrefix(rest, "?<!")) {
				n++
			}
		}
	}
	return n
}

// Compile translates exp and compiles it with the engine.
func Compile(exp string, opts engine.Option) (*Pattern, error) {
	tr, err := Translate(exp)
	if err != nil {
		return nil, fmt.Errorf("translate %q: %w", exp, err)
	}

	m, err := engine.Compile(tr.Expr, opts)
	if err != nil {
		return nil, &CompileError{Pattern: exp, Expr: tr.Expr, Err: err}
	}
	if m.NumSubexp()+1 > MaxSlots {
		return nil, fmt.Errorf("compile %q: %d groups: %w", exp, m.NumSubexp()+1, ErrTooManyCaptures)
	}

	return &Pattern{Translation: tr, Source: exp, Matcher: m}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(exp string) *Pattern {
	p, err := Compile(exp, 0)
	if err != nil {
		panic(fmt.Sprintf("wildcard: %v", err))
	}
	return p
}

// Slot returns the slot bound by capture ordinal i.
func (tr Translation) Slot(i int) int {
	if i < len(tr.Remap) {
		return tr.Remap[i]
	}
	return i
}
