package lineproc

import (
	"fmt"
	"strings"

	"github.com/leaanthony/go-ansi-parser"
)

// Style contains visual styling information
type Style struct {
	ForegroundColor *Color
	BackgroundColor *Color
	Bold            bool
	Underline       bool
	Italic          bool
}

// Color represents RGB color values
type Color struct {
	R int
	G int
	B int
}

// String lists the set attributes, e.g. "fg=#ff0000 bold".
func (s Style) String() string {
	var attrs []string
	if s.ForegroundColor != nil {
		attrs = append(attrs, "fg="+s.ForegroundColor.Hex())
	}
	if s.BackgroundColor != nil {
		attrs = append(attrs, "bg="+s.BackgroundColor.Hex())
	}
	if s.Bold {
		attrs = append(attrs, "bold")
	}
	if s.Underline {
		attrs = append(attrs, "underline")
	}
	if s.Italic {
		attrs = append(attrs, "italic")
	}
	return strings.Join(attrs, " ")
}

// Hex formats the colour as #rrggbb.
func (c *Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// StyleSpan is a styled run of a line's visible text. Columns are byte
// offsets into Line.Processed.
type StyleSpan struct {
	Text     string
	StartCol int
	EndCol   int
	Style    Style
}

// HasStyling returns true if the span has any styling applied
func (s *StyleSpan) HasStyling() bool {
	return s.Style.ForegroundColor != nil || s.Style.BackgroundColor != nil ||
		s.Style.Bold || s.Style.Underline || s.Style.Italic
}

// hasStyle checks if an element has any styling applied
func hasStyle(element *ansi.StyledText) bool {
	return element.FgCol != nil || element.BgCol != nil ||
		element.Bold() || element.Underlined() || element.Italic()
}

func toColor(c *ansi.Col) *Color {
	if c == nil {
		return nil
	}
	return &Color{R: int(c.Rgb.R), G: int(c.Rgb.G), B: int(c.Rgb.B)}
}

func extractStyle(element *ansi.StyledText) Style {
	return Style{
		ForegroundColor: toColor(element.FgCol),
		BackgroundColor: toColor(element.BgCol),
		Bold:            element.Bold(),
		Underline:       element.Underlined(),
		Italic:          element.Italic(),
	}
}
