package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/internal/trigger"
	"github.com/Hanaasagi/tinmacro/pkg/braces"
)

type handler func(d *Driver, s *session.Session, args string) (*session.Session, error)

type command struct {
	name string
	fn   handler
}

// Alphabetical, so an abbreviation picks the first command it prefixes.
var commands = []command{
	{"action", doAction},
	{"highlight", doHighlight},
	{"nop", doNop},
	{"regexp", doRegexp},
	{"showme", doShowme},
	{"unaction", doUnaction},
	{"unhighlight", doUnhighlight},
	{"unvariable", doUnvariable},
	{"variable", doVariable},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if IsAbbrev(name, c.name) {
			return c, true
		}
	}
	return command{}, false
}

// Commands returns the names of the built-in commands.
func Commands() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

func parsePriority(arg string) (int, error) {
	if arg == "" {
		return trigger.DefaultPriority, nil
	}
	// Priorities may be written as decimals, "5.000".
	f, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid priority %q", arg)
	}
	return int(f), nil
}

func doAction(d *Driver, s *session.Session, args string) (*session.Session, error) {
	pattern, rest := braces.Arg(args, false)
	cmds, rest := braces.Arg(rest, false)
	prio, _ := braces.Arg(rest, false)

	if pattern == "" {
		for _, a := range d.Actions.List() {
			s.Printf("#ACTION {%s} {%s} {%d}", a.Pattern, a.Commands, a.Priority)
		}
		return s, nil
	}
	if cmds == "" {
		s.Show("SYNTAX: #ACTION {conditional} {commands} {priority}.")
		return s, session.ErrUsage
	}
	priority, err := parsePriority(prio)
	if err != nil {
		return s, err
	}
	if err := d.Actions.Add(pattern, cmds, priority); err != nil {
		return s, err
	}
	s.Printf("#OK. {%s} NOW TRIGGERS {%s} @ {%d}.", pattern, cmds, priority)
	return s, nil
}

func doUnaction(d *Driver, s *session.Session, args string) (*session.Session, error) {
	mask, _ := braces.Arg(args, true)
	if mask == "" {
		s.Show("SYNTAX: #UNACTION {conditional}.")
		return s, session.ErrUsage
	}
	n, err := d.Actions.Remove(s, mask)
	if n == 0 {
		s.Printf("#UNACTION: NO MATCH(ES) FOUND FOR {%s}.", mask)
	}
	return s, err
}

func doHighlight(d *Driver, s *session.Session, args string) (*session.Session, error) {
	pattern, rest := braces.Arg(args, false)
	colorName, rest := braces.Arg(rest, false)
	prio, _ := braces.Arg(rest, false)

	if pattern == "" {
		for _, r := range d.Highlights.List() {
			s.Printf("#HIGHLIGHT {%s} {%s} {%d}", r.Pattern, r.Color, r.Priority)
		}
		return s, nil
	}
	if colorName == "" {
		s.Show("SYNTAX: #HIGHLIGHT {string} {color names} {priority}.")
		return s, session.ErrUsage
	}
	priority, err := parsePriority(prio)
	if err != nil {
		return s, err
	}
	if err := d.Highlights.Add(pattern, colorName, priority); err != nil {
		return s, err
	}
	return s, nil
}

func doUnhighlight(d *Driver, s *session.Session, args string) (*session.Session, error) {
	mask, _ := braces.Arg(args, true)
	if mask == "" {
		s.Show("SYNTAX: #UNHIGHLIGHT {string}.")
		return s, session.ErrUsage
	}
	n, err := d.Highlights.Remove(s, mask)
	if n == 0 {
		s.Printf("#UNHIGHLIGHT: NO MATCH(ES) FOUND FOR {%s}.", mask)
	}
	return s, err
}

func doNop(_ *Driver, s *session.Session, _ string) (*session.Session, error) {
	return s, nil
}

func doRegexp(d *Driver, s *session.Session, args string) (*session.Session, error) {
	return s.Regexp(args, d)
}

func doShowme(d *Driver, s *session.Session, args string) (*session.Session, error) {
	text, _ := braces.Arg(args, true)

	flags := substitute.Var | substitute.Esc
	if d.Color {
		flags |= substitute.Col | substitute.Cmp
	}
	text, err := s.Substitute(text, flags)
	if err != nil {
		return s, err
	}
	if d.Color {
		if text, err = d.Highlights.Apply(s, text); err != nil {
			return s, err
		}
	}
	s.Show(text)
	return s, nil
}

func doVariable(_ *Driver, s *session.Session, args string) (*session.Session, error) {
	name, rest := braces.Arg(args, false)
	value, _ := braces.Arg(rest, true)

	switch {
	case name == "":
		for _, n := range s.Vars.Names() {
			v, _ := s.Vars.Get(n)
			s.Printf("#VARIABLE {%s}={%s}", n, v)
		}
	case strings.TrimSpace(rest) == "":
		v, ok := s.Vars.Get(name)
		if !ok {
			s.Printf("#VARIABLE: NO MATCH(ES) FOUND FOR {%s}.", name)
			return s, nil
		}
		s.Printf("#VARIABLE {%s}={%s}", name, v)
	default:
		value, err := s.Substitute(value, substitute.Var|substitute.Esc)
		if err != nil {
			return s, err
		}
		s.Vars.Set(name, value)
	}
	return s, nil
}

func doUnvariable(_ *Driver, s *session.Session, args string) (*session.Session, error) {
	mask, _ := braces.Arg(args, true)
	if mask == "" {
		s.Show("SYNTAX: #UNVARIABLE {name}.")
		return s, session.ErrUsage
	}

	removed := 0
	for _, name := range s.Vars.Names() {
		ok := name == mask
		if !ok {
			var err error
			if ok, err = s.Match(name, mask); err != nil {
				return s, err
			}
		}
		if ok && s.Vars.Delete(name) {
			removed++
		}
	}
	if removed == 0 {
		s.Printf("#UNVARIABLE: NO MATCH(ES) FOUND FOR {%s}.", mask)
	}
	return s, nil
}
