// Package capture holds the positional slot tables that matches write into.
package capture

import (
	"fmt"
	"strings"

	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/Hanaasagi/tinmacro/pkg/wildcard"
)

// Capacity is the number of slots in each table.
const Capacity = wildcard.MaxSlots

// Target selects which slot table a match writes to.
type Target int

const (
	// Nowhere discards the captured text.
	Nowhere Target = iota
	// Commands is the &N table.
	Commands
	// Variables is the %N table.
	Variables
)

func (t Target) String() string {
	switch t {
	case Commands:
		return "commands"
	case Variables:
		return "variables"
	default:
		return "none"
	}
}

// Mode is a bind destination: a table plus the way capture ordinals are
// turned into slot numbers.
type Mode int

const (
	None Mode = iota
	CommandsByOrdinal
	CommandsByRemap
	VariablesByOrdinal
	VariablesByRemap
)

// ModeFor returns the bind mode writing into target, using the remap table
// when fixup is set.
func ModeFor(target Target, fixup bool) Mode {
	switch target {
	case Commands:
		if fixup {
			return CommandsByRemap
		}
		return CommandsByOrdinal
	case Variables:
		if fixup {
			return VariablesByRemap
		}
		return VariablesByOrdinal
	}
	return None
}

func (m Mode) remapped() bool {
	return m == CommandsByRemap || m == VariablesByRemap
}

// Slots holds the variable (%N) and command (&N) tables of one session.
// The zero value is ready to use.
type Slots struct {
	vars [Capacity]string
	cmds [Capacity]string
}

func inRange(i int) bool {
	return i >= 0 && i < Capacity
}

// Var returns variable slot i, or "" when i is out of range.
func (s *Slots) Var(i int) string {
	if !inRange(i) {
		return ""
	}
	return s.vars[i]
}

// Cmd returns command slot i, or "" when i is out of range.
func (s *Slots) Cmd(i int) string {
	if !inRange(i) {
		return ""
	}
	return s.cmds[i]
}

// SetVar replaces variable slot i.
func (s *Slots) SetVar(i int, v string) error {
	if !inRange(i) {
		return fmt.Errorf("variable slot %d out of range [0,%d)", i, Capacity)
	}
	s.vars[i] = strings.Clone(v)
	return nil
}

// SetCmd replaces command slot i.
func (s *Slots) SetCmd(i int, v string) error {
	if !inRange(i) {
		return fmt.Errorf("command slot %d out of range [0,%d)", i, Capacity)
	}
	s.cmds[i] = strings.Clone(v)
	return nil
}

// Vars returns a copy of the variable table.
func (s *Slots) Vars() [Capacity]string {
	return s.vars
}

// Cmds returns a copy of the command table.
func (s *Slots) Cmds() [Capacity]string {
	return s.cmds
}

// Reset empties both tables.
func (s *Slots) Reset() {
	*s = Slots{}
}

// Bind runs m once over str. Without a match it returns false and leaves the
// tables untouched. On a match every capture group, the whole match being
// group 0, is copied into the table mode selects. The writes happen only
// after all group texts are known.
//
// remap maps capture ordinals to slots for the remap modes; ordinals past
// its end bind to themselves.
func (s *Slots) Bind(m engine.Matcher, remap []int, str string, mode Mode) bool {
	loc := m.FindStringSubmatchIndex(str)
	if loc == nil {
		return false
	}
	if mode == None {
		return true
	}

	// Groups after the last one that took part in the match are left alone.
	n := len(loc) / 2
	for n > 1 && loc[2*(n-1)] < 0 {
		n--
	}
	if n > Capacity {
		n = Capacity
	}

	type write struct {
		slot int
		text string
	}
	writes := make([]write, 0, n)
	for i := range n {
		slot := i
		if mode.remapped() && i < len(remap) {
			slot = remap[i]
		}
		if !inRange(slot) {
			continue
		}
		var text string
		if start, end := loc[2*i], loc[2*i+1]; start >= 0 && end >= start {
			text = strings.Clone(str[start:end])
		}
		writes = append(writes, write{slot: slot, text: text})
	}

	table := &s.vars
	if mode == CommandsByOrdinal || mode == CommandsByRemap {
		table = &s.cmds
	}
	for _, w := range writes {
		table[w.slot] = w.text
	}
	return true
}

// BindPattern binds a compiled wildcard pattern, choosing ordinal or remap
// mode from the pattern itself.
func (s *Slots) BindPattern(p *wildcard.Pattern, str string, target Target) bool {
	return s.Bind(p.Matcher, p.Remap, str, ModeFor(target, p.Fixup))
}
