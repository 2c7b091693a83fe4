// Package engine wraps the regular expression engine used to execute
// translated wildcard patterns.
package engine

import (
	"github.com/coregx/coregex"
)

// Matcher is the subset of the engine API the matching code relies on.
type Matcher interface {
	MatchString(s string) bool
	FindStringIndex(s string) []int
	FindStringSubmatchIndex(s string) []int
	FindAllStringIndex(s string, n int) [][]int
	NumSubexp() int
	String() string
}

// Option alters how a pattern is compiled.
type Option uint8

const (
	// CaseInsensitive makes the whole pattern ignore case.
	CaseInsensitive Option = 1 << iota
)

// Has reports whether all bits of o are set.
func (o Option) Has(flag Option) bool {
	return o&flag == flag
}

// Compile compiles expr with the engine.
func Compile(expr string, opts Option) (Matcher, error) {
	if opts.Has(CaseInsensitive) {
		expr = "(?i)" + expr
	}
	re, err := coregex.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, opts Option) Matcher {
	m, err := Compile(expr, opts)
	if err != nil {
		panic("engine: Compile(`" + expr + "`): " + err.Error())
	}
	return m
}

// QuoteMeta escapes every engine metacharacter in s.
func QuoteMeta(s string) string {
	return coregex.QuoteMeta(s)
}
