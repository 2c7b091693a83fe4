// Package trigger implements the action table: patterns checked against
// every incoming line, each running its commands when it matches.
package trigger

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
)

// DefaultPriority is used when an action is added without one.
const DefaultPriority = 5

// Action is one pattern and the commands it runs.
type Action struct {
	Pattern  string
	Commands string
	Priority int

	def session.Definition
}

// Table holds actions ordered by priority, lower first, then by pattern.
type Table struct {
	actions []*Action
	cache   *PatternCache
	mutex   sync.RWMutex
}

// NewTable returns an empty table using cache for compiled patterns. A nil
// cache gets a private one.
func NewTable(cache *PatternCache) *Table {
	if cache == nil {
		cache = NewPatternCache()
	}
	return &Table{cache: cache}
}

// Add defines or replaces the action for pattern.
func (t *Table) Add(pattern, commands string, priority int) error {
	def, err := t.cache.Definition(pattern)
	if err != nil {
		return fmt.Errorf("action %q: %w", pattern, err)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.actions = slices.DeleteFunc(t.actions, func(a *Action) bool {
		return a.Pattern == pattern
	})
	t.actions = append(t.actions, &Action{
		Pattern:  pattern,
		Commands: commands,
		Priority: priority,
		def:      def,
	})
	slices.SortStableFunc(t.actions, func(a, b *Action) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		return strings.Compare(a.Pattern, b.Pattern)
	})
	return nil
}

// Remove deletes the actions whose pattern matches the wildcard mask and
// returns how many were removed. An exact pattern always matches itself.
func (t *Table) Remove(s *session.Session, mask string) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var matchErr error
	before := len(t.actions)
	t.actions = slices.DeleteFunc(t.actions, func(a *Action) bool {
		if a.Pattern == mask {
			return true
		}
		ok, err := s.Match(a.Pattern, mask)
		if err != nil {
			matchErr = errors.Join(matchErr, err)
		}
		return ok
	})
	return before - len(t.actions), matchErr
}

// List returns a copy of the actions in firing order.
func (t *Table) List() []Action {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]Action, len(t.actions))
	for i, a := range t.actions {
		out[i] = *a
	}
	return out
}

func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.actions)
}

// Check runs every action whose pattern matches the line. The commands of a
// matching action see the captures as %0..%99, escaped for command text,
// and are run through d. The returned session replaces s.
func (t *Table) Check(s *session.Session, d session.Driver, processed, raw string) (*session.Session, error) {
	t.mutex.RLock()
	actions := slices.Clone(t.actions)
	t.mutex.RUnlock()

	for _, a := range actions {
		ok, err := s.CheckPattern(a.def, processed, raw, 0)
		if err != nil {
			return s, fmt.Errorf("action %q: %w", a.Pattern, err)
		}
		if !ok {
			continue
		}

		// Captured text comes from the remote side: its braces, separators
		// and backslashes are escaped so it cannot end an argument or start
		// a command of its own.
		cmds, err := s.Substitute(a.Commands, substitute.Arg|substitute.Var|substitute.Sec)
		if err != nil {
			return s, fmt.Errorf("action %q: %w", a.Pattern, err)
		}
		slog.Debug("action fired", "pattern", a.Pattern, "commands", cmds)

		if s, err = d.Run(s, cmds); err != nil {
			return s, fmt.Errorf("action %q: %w", a.Pattern, err)
		}
	}
	return s, nil
}
