package substitute

import (
	"fmt"
	"strings"
)

// TagLen is the length of a colour tag, brackets included.
const TagLen = 5

// TagKind tells what a colour tag produces.
type TagKind int

const (
	// TagAttr is a <XYZ> digit tag: attribute, foreground and background.
	TagAttr TagKind = iota
	// TagForeground is a 256-colour foreground (<abc>, <gNN>).
	TagForeground
	// TagBackground is a 256-colour background (<ABC>, <GNN>).
	TagBackground
)

func (k TagKind) String() string {
	switch k {
	case TagForeground:
		return "fg256"
	case TagBackground:
		return "bg256"
	default:
		return "attr"
	}
}

// Tag is a recognised colour tag.
type Tag struct {
	Text string
	Kind TagKind
	// Index is the 256-colour palette index, -1 for attribute tags.
	Index int
	// SGR is the escape sequence the tag expands to. Empty for <888>.
	SGR string
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func inRange(s string, lo, hi byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < lo || s[i] > hi {
			return false
		}
	}
	return true
}

// ParseTag recognises a colour tag at the start of s.
func ParseTag(s string) (Tag, bool) {
	if len(s) < TagLen || s[0] != '<' || s[4] != '>' {
		return Tag{}, false
	}
	text := s[:TagLen]
	body := s[1:4]

	switch {
	case inRange(body, '0', '9'):
		return Tag{Text: text, Kind: TagAttr, Index: -1, SGR: attrSGR(body)}, true

	case inRange(body, 'a', 'f'):
		n := cube(body, 'a')
		return Tag{Text: text, Kind: TagForeground, Index: n, SGR: paletteSGR(38, n)}, true

	case inRange(body, 'A', 'F'):
		n := cube(body, 'A')
		return Tag{Text: text, Kind: TagBackground, Index: n, SGR: paletteSGR(48, n)}, true

	case (body[0] == 'g' || body[0] == 'G') && isDigit(body[1]) && isDigit(body[2]):
		// Grey ramp 232..255; g24 and up stay on the last step.
		n := min(232+int(body[1]-'0')*10+int(body[2]-'0'), 255)
		if body[0] == 'g' {
			return Tag{Text: text, Kind: TagForeground, Index: n, SGR: paletteSGR(38, n)}, true
		}
		return Tag{Text: text, Kind: TagBackground, Index: n, SGR: paletteSGR(48, n)}, true
	}
	return Tag{}, false
}

func cube(body string, base byte) int {
	return 16 + int(body[0]-base)*36 + int(body[1]-base)*6 + int(body[2]-base)
}

func paletteSGR(selector, n int) string {
	return fmt.Sprintf("\x1b[%d;5;%03dm", selector, n)
}

// attrSGR builds the escape for a digit tag. Position one is an attribute
// ('2' resets bold), two a foreground and three a background colour; '8'
// leaves a position out.
func attrSGR(body string) string {
	if body == "888" {
		return ""
	}
	var b strings.Builder
	b.WriteString("\x1b[")
	switch body[0] {
	case '2':
		// SGR 2 is dim; the tag means normal intensity.
		b.WriteString("22;")
	case '8':
	default:
		b.WriteByte(body[0])
		b.WriteByte(';')
	}
	if body[1] != '8' {
		b.WriteByte('3')
		b.WriteByte(body[1])
		b.WriteByte(';')
	}
	if body[2] != '8' {
		b.WriteByte('4')
		b.WriteByte(body[2])
		b.WriteByte(';')
	}
	out := b.String()
	return out[:len(out)-1] + "m"
}
