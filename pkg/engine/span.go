package engine

// Span is a half-open byte range [Start, End) within a string.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the part of str covered by the span.
func (s Span) Text(str string) string {
	return str[s.Start:s.End]
}

// FirstSpan runs m once, unanchored, over str and returns the byte range of
// the first match. It reports false when nothing matches or the engine
// returns an inverted or empty range.
func FirstSpan(m Matcher, str string) (Span, bool) {
	if m == nil {
		return Span{}, false
	}
	loc := m.FindStringIndex(str)
	if len(loc) < 2 {
		return Span{}, false
	}
	if loc[0] < 0 || loc[0] >= loc[1] || loc[1] > len(str) {
		return Span{}, false
	}
	return Span{Start: loc[0], End: loc[1]}, true
}

// AllSpans returns the byte ranges of every successive non-empty match of m
// in str. Each search sees the whole of str, so anchors and word boundaries
// keep their left context.
func AllSpans(m Matcher, str string) []Span {
	if m == nil {
		return nil
	}
	var spans []Span
	for _, loc := range m.FindAllStringIndex(str, -1) {
		if len(loc) < 2 || loc[0] < 0 || loc[0] >= loc[1] || loc[1] > len(str) {
			continue
		}
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}
