// Package highlight colours the parts of a line that match highlight rules.
package highlight

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/internal/trigger"
	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/Hanaasagi/tinmacro/pkg/wildcard"
)

// Rule colours every match of Pattern with Color.
type Rule struct {
	Pattern  string
	Color    string
	Priority int

	def   session.Definition
	color Color
}

// Table holds highlight rules ordered by priority, lower first.
type Table struct {
	rules []*Rule
	cache *trigger.PatternCache
	mutex sync.RWMutex
}

// NewTable returns an empty table sharing cache for compiled patterns.
func NewTable(cache *trigger.PatternCache) *Table {
	if cache == nil {
		cache = trigger.NewPatternCache()
	}
	return &Table{cache: cache}
}

// Add defines or replaces the rule for pattern.
func (t *Table) Add(pattern, colorName string, priority int) error {
	c, err := ParseColor(colorName)
	if err != nil {
		return fmt.Errorf("highlight %q: %w", pattern, err)
	}
	def, err := t.cache.Definition(pattern)
	if err != nil {
		return fmt.Errorf("highlight %q: %w", pattern, err)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.rules = slices.DeleteFunc(t.rules, func(r *Rule) bool {
		return r.Pattern == pattern
	})
	t.rules = append(t.rules, &Rule{
		Pattern:  pattern,
		Color:    colorName,
		Priority: priority,
		def:      def,
		color:    c,
	})
	slices.SortStableFunc(t.rules, func(a, b *Rule) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		return strings.Compare(a.Pattern, b.Pattern)
	})
	return nil
}

// Remove deletes the rules whose pattern matches the wildcard mask.
func (t *Table) Remove(s *session.Session, mask string) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var matchErr error
	before := len(t.rules)
	t.rules = slices.DeleteFunc(t.rules, func(r *Rule) bool {
		if r.Pattern == mask {
			return true
		}
		ok, err := s.Match(r.Pattern, mask)
		if err != nil {
			matchErr = errors.Join(matchErr, err)
		}
		return ok
	})
	return before - len(t.rules), matchErr
}

// List returns a copy of the rules in the order they are applied.
func (t *Table) List() []Rule {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = *r
	}
	return out
}

func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rules)
}

// matcher returns the compiled form of a rule, compiling literal patterns
// after variable expansion. A nil matcher means the rule cannot apply.
func matcher(s *session.Session, def session.Definition) (engine.Matcher, error) {
	switch src := def.Source.(type) {
	case session.Compiled:
		return src.Pattern.Matcher, nil
	case session.Literal:
		exp, err := s.Substitute(string(src), substitute.Var)
		if err != nil {
			return nil, err
		}
		p, err := wildcard.Compile(exp, 0)
		if err != nil {
			var cerr *wildcard.CompileError
			if errors.As(err, &cerr) {
				slog.Debug("highlight pattern rejected", "pattern", exp, "error", cerr.Err)
				return nil, nil
			}
			return nil, err
		}
		return p.Matcher, nil
	}
	return nil, nil
}

// painted is a span of the unpainted line and the colour it gets.
type painted struct {
	engine.Span
	color Color
}

// Apply returns line with the matches of every rule coloured. All rules
// match against the line as given, so no rule sees the escape sequences
// another one inserts. Where matches overlap, the rule applied first wins.
func (t *Table) Apply(s *session.Session, line string) (string, error) {
	t.mutex.RLock()
	rules := slices.Clone(t.rules)
	t.mutex.RUnlock()

	var spans []painted
	for _, r := range rules {
		m, err := matcher(s, r.def)
		if err != nil {
			return line, fmt.Errorf("highlight %q: %w", r.Pattern, err)
		}
		for _, span := range engine.AllSpans(m, line) {
			if !overlaps(spans, span) {
				spans = append(spans, painted{Span: span, color: r.color})
			}
		}
	}
	return paint(line, spans), nil
}

func overlaps(spans []painted, span engine.Span) bool {
	for _, p := range spans {
		if span.Start < p.End && p.Start < span.End {
			return true
		}
	}
	return false
}

// paint wraps each span of line with its colour.
func paint(line string, spans []painted) string {
	if len(spans) == 0 {
		return line
	}
	slices.SortFunc(spans, func(a, b painted) int {
		return a.Start - b.Start
	})

	var b strings.Builder
	pos := 0
	for _, p := range spans {
		b.WriteString(line[pos:p.Start])
		b.WriteString(p.color.Wrap(p.Text(line)))
		pos = p.End
	}
	b.WriteString(line[pos:])
	return b.String()
}
