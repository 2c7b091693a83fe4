// Package braces extracts brace-delimited arguments and bracketed indexes
// from command and pattern text.
package braces

import (
	"strconv"
	"strings"
)

const (
	Open       = '{'
	Close      = '}'
	IndexOpen  = '['
	IndexClose = ']'
)

const spaces = " \t\n\r\v\f"

func isSpace(c byte) bool {
	return strings.IndexByte(spaces, c) >= 0
}

// skipSpace returns s without its leading whitespace.
func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

// closing returns the index of the delimiter closing the one at s[0],
// or -1 when the input ends first. A backslash hides the byte after it
// from the nesting count.
func closing(s string, open, close byte) int {
	nest := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case open:
			nest++
		case close:
			nest--
			if nest == 0 {
				return i
			}
		}
	}
	return -1
}

// Arg reads one argument from s.
//
// Leading whitespace is skipped. A braced argument yields the text between
// the outermost braces, which are stripped. An unbraced argument ends at the
// next whitespace, or, when all is set, runs to the end of s with trailing
// whitespace removed. The returned rest starts right after the argument.
func Arg(s string, all bool) (arg, rest string) {
	s = skipSpace(s)
	if s == "" {
		return "", ""
	}

	if s[0] != Open {
		if all {
			return strings.TrimRight(s, spaces), ""
		}
		i := 0
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		return s[:i], s[i:]
	}

	end := closing(s, Open, Close)
	if end < 0 {
		// Unbalanced: everything after the brace is the argument.
		return s[1:], ""
	}
	return s[1:end], s[end+1:]
}

// Balanced reports whether every brace in s is closed.
func Balanced(s string) bool {
	nest := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case Open:
			nest++
		case Close:
			if nest == 0 {
				return false
			}
			nest--
		}
	}
	return nest == 0
}

// Index reads an optional "[index]" suffix at the very start of s.
// The brackets are kept in idx. When s does not start with '[', idx is
// empty and rest is s.
func Index(s string) (idx, rest string) {
	if s == "" || s[0] != IndexOpen {
		return "", s
	}
	end := closing(s, IndexOpen, IndexClose)
	if end < 0 {
		return "", s
	}
	return s[:end+1], s[end+1:]
}

// Unwrap strips the brackets from an index returned by Index.
func Unwrap(idx string) string {
	if len(idx) >= 2 && idx[0] == IndexOpen && idx[len(idx)-1] == IndexClose {
		return idx[1 : len(idx)-1]
	}
	return idx
}

// List splits a brace list such as "{a}{b c}{d}" into its elements.
// Unbraced words are taken as single elements.
func List(s string) []string {
	var items []string
	for {
		s = skipSpace(s)
		if s == "" {
			return items
		}
		var item string
		item, s = Arg(s, false)
		items = append(items, item)
	}
}

// Item returns the element of a brace list selected by a 1-based index.
// Negative indexes count from the end.
func Item(list, index string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || n == 0 {
		return "", false
	}
	items := List(list)
	if n < 0 {
		n += len(items) + 1
	}
	if n < 1 || n > len(items) {
		return "", false
	}
	return items[n-1], true
}

// Wrap puts s between braces.
func Wrap(s string) string {
	return string(Open) + s + string(Close)
}
