package session

import (
	"maps"
	"slices"
	"strings"

	"github.com/Hanaasagi/tinmacro/pkg/braces"
)

// Variables is a name to value store. A value written as a brace list,
// "{a}{b}{c}", can be indexed as $name[2] or $name[-1].
type Variables struct {
	values map[string]string
}

func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

func (v *Variables) Set(name, value string) {
	v.values[name] = strings.Clone(value)
}

func (v *Variables) Get(name string) (string, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Delete removes name and reports whether it existed.
func (v *Variables) Delete(name string) bool {
	_, ok := v.values[name]
	delete(v.values, name)
	return ok
}

// Names returns the variable names in sorted order.
func (v *Variables) Names() []string {
	return slices.Sorted(maps.Keys(v.values))
}

func (v *Variables) Len() int {
	return len(v.values)
}

// Resolve implements substitute.Resolver.
func (v *Variables) Resolve(name, index string) (string, bool) {
	val, ok := v.values[name]
	if !ok {
		return "", false
	}
	if index == "" {
		return val, true
	}
	return braces.Item(val, index)
}
