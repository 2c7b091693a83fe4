package session

import (
	"strings"

	"github.com/Hanaasagi/tinmacro/pkg/wildcard"
)

// MetaMarker at the start of a pattern makes it match the raw line.
const MetaMarker = '~'

// Source is the pattern of a Definition: either Literal text compiled on
// every check or a Compiled pattern reused as is.
type Source interface {
	Text() string
}

// Literal is pattern text that is substituted and compiled per check.
type Literal string

func (l Literal) Text() string { return string(l) }

// Compiled is a pattern compiled once when it was defined.
type Compiled struct {
	Pattern *wildcard.Pattern
}

func (c Compiled) Text() string { return c.Pattern.Source }

// Definition is a pattern owned by an action, highlight or other rule.
type Definition struct {
	Source Source
	// Meta matches against the raw, unprocessed line.
	Meta bool
}

// ParseDefinition builds a definition from user text. A leading '~' sets
// Meta. Patterns that reference no variables are compiled up front.
func ParseDefinition(text string) (Definition, error) {
	def := Definition{}
	if strings.HasPrefix(text, string(MetaMarker)) {
		def.Meta = true
		text = text[1:]
	}

	if hasVariables(text) {
		def.Source = Literal(text)
		return def, nil
	}

	p, err := wildcard.Compile(text, 0)
	if err != nil {
		return Definition{}, err
	}
	def.Source = Compiled{Pattern: p}
	return def, nil
}

// String returns the definition as it was written.
func (d Definition) String() string {
	if d.Source == nil {
		return ""
	}
	if d.Meta {
		return string(MetaMarker) + d.Source.Text()
	}
	return d.Source.Text()
}

// hasVariables reports whether text would change under variable
// substitution.
func hasVariables(text string) bool {
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '$' && text[i] != '&' {
			continue
		}
		next := text[i+1]
		if next == '{' || next == text[i] || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
			return true
		}
	}
	return false
}
