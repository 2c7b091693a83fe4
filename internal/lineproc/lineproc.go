// Package lineproc splits incoming text into lines and derives, for each
// line, the processed form that rules match against by default.
package lineproc

import (
	"bufio"
	"io"
	"strings"

	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/leaanthony/go-ansi-parser"
)

// MaxLineSize is the longest line Scan accepts.
const MaxLineSize = 1 << 20

// Line is one line of session output.
type Line struct {
	// Raw is the line as received, escape sequences included.
	Raw string
	// Processed is the visible text with escape sequences removed.
	Processed string
	// Spans are the styled runs of the visible text.
	Spans []StyleSpan
}

// Styled reports whether any part of the line carries styling.
func (l Line) Styled() bool {
	for i := range l.Spans {
		if l.Spans[i].HasStyling() {
			return true
		}
	}
	return false
}

// escapes matches the control sequences go-ansi-parser does not model,
// such as cursor movement.
var escapes = engine.MustCompile(`\x1b\[[0-9;?]*[@-~]|\x1b[@-Z\\-_]`, 0)

// Process derives the processed form of one raw line. A trailing carriage
// return is not part of the line.
func Process(raw string) Line {
	raw = strings.TrimSuffix(raw, "\r")
	line := Line{Raw: raw, Processed: raw}
	if !strings.Contains(raw, "\x1b") {
		return line
	}

	elements, err := ansi.Parse(raw)
	if err != nil {
		line.Processed = strip(raw)
		return line
	}

	var b strings.Builder
	col := 0
	for _, element := range elements {
		if element.Label == "" {
			continue
		}
		end := col + len(element.Label)
		if hasStyle(element) {
			line.Spans = append(line.Spans, StyleSpan{
				Text:     element.Label,
				StartCol: col,
				EndCol:   end,
				Style:    extractStyle(element),
			})
		}
		b.WriteString(element.Label)
		col = end
	}
	line.Processed = b.String()
	return line
}

// strip removes escape sequences with a pattern when the parser gives up.
func strip(raw string) string {
	var b strings.Builder
	rest := raw
	for {
		span, ok := engine.FirstSpan(escapes, rest)
		if !ok {
			break
		}
		b.WriteString(rest[:span.Start])
		rest = rest[span.End:]
	}
	b.WriteString(rest)
	return b.String()
}

// Split processes every line of text.
func Split(text string) []Line {
	if text == "" {
		return nil
	}
	raws := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	lines := make([]Line, len(raws))
	for i, raw := range raws {
		lines[i] = Process(raw)
	}
	return lines
}

// Scan reads r line by line and calls fn with each processed line. It stops
// at the first error fn returns.
func Scan(r io.Reader, fn func(Line) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), MaxLineSize)
	for sc.Scan() {
		if err := fn(Process(sc.Text())); err != nil {
			return err
		}
	}
	return sc.Err()
}
