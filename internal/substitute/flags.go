package substitute

import (
	"fmt"
	"strings"
)

// Flag selects which expansions a substitution performs.
type Flag uint16

const (
	Var Flag = 1 << iota // $name, ${expr}, &name
	Arg                  // %N from the variable slots
	Cmd                  // &N from the command slots
	Esc                  // backslash escapes
	EOL                  // append \r
	LNF                  // append \n
	Col                  // <XYZ> colour tags
	Cmp                  // drop a colour tag equal to the previous one
	Sec                  // escape text for re-embedding into commands
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Var, "var"},
	{Arg, "arg"},
	{Cmd, "cmd"},
	{Esc, "esc"},
	{EOL, "eol"},
	{LNF, "lnf"},
	{Col, "col"},
	{Cmp, "cmp"},
	{Sec, "sec"},
}

// Has reports whether all bits of x are set in f.
func (f Flag) Has(x Flag) bool {
	return f&x == x
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseFlags parses a comma or pipe separated list of flag names,
// e.g. "var,esc" or "arg|sec".
func ParseFlags(s string) (Flag, error) {
	var f Flag
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	})
	for _, field := range fields {
		found := false
		for _, fn := range flagNames {
			if strings.EqualFold(field, fn.name) {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown substitution flag %q", field)
		}
	}
	return f, nil
}
