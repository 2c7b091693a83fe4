package highlight

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/fatih/color"
)

const reset = "\x1b[0m"

var errEmptyColor = errors.New("empty colour")

// Color decorates highlighted text.
type Color struct {
	Name string
	wrap func(string) string
}

// Wrap returns text with the colour applied and reset after it.
func (c Color) Wrap(text string) string {
	if c.wrap == nil {
		return text
	}
	return c.wrap(text)
}

var rgbRegex = engine.MustCompile(`^#([a-fA-F0-9]{2})([a-fA-F0-9]{2})([a-fA-F0-9]{2})$`, 0)

var (
	colorCache = make(map[string]Color, 32)
	colorMutex sync.RWMutex
)

var attributes = map[string]color.Attribute{
	"reset":      color.Reset,
	"bold":       color.Bold,
	"light":      color.Bold,
	"faint":      color.Faint,
	"dim":        color.Faint,
	"italic":     color.Italic,
	"underscore": color.Underline,
	"underline":  color.Underline,
	"blink":      color.BlinkSlow,
	"reverse":    color.ReverseVideo,
}

var foregrounds = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

// Offsets from a foreground attribute to its variants.
const (
	hiOffset = color.FgHiBlack - color.FgBlack
	bgOffset = color.BgBlack - color.FgBlack
)

// ParseColor resolves a highlight colour. It accepts space separated
// words: attribute names (bold, underscore, reverse, ...), colour names
// optionally prefixed with "light" for the bright variant or "b" for a
// background, #rrggbb values and <XYZ> colour tags.
func ParseColor(name string) (Color, error) {
	colorMutex.RLock()
	if cached, exists := colorCache[name]; exists {
		colorMutex.RUnlock()
		return cached, nil
	}
	colorMutex.RUnlock()

	result, err := parseColor(name)
	if err != nil {
		return Color{}, err
	}

	colorMutex.Lock()
	colorCache[name] = result
	colorMutex.Unlock()

	return result, nil
}

func parseColor(name string) (Color, error) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return Color{}, errEmptyColor
	}

	var (
		attrs  []color.Attribute
		prefix strings.Builder
	)
	for i := 0; i < len(fields); i++ {
		if tag, ok := substitute.ParseTag(fields[i]); ok && len(fields[i]) == substitute.TagLen {
			prefix.WriteString(tag.SGR)
			continue
		}

		word := strings.ToLower(fields[i])
		if m := rgbRegex.FindStringSubmatchIndex(word); m != nil {
			r, _ := strconv.ParseUint(word[m[2]:m[3]], 16, 8)
			g, _ := strconv.ParseUint(word[m[4]:m[5]], 16, 8)
			b, _ := strconv.ParseUint(word[m[6]:m[7]], 16, 8)
			fmt.Fprintf(&prefix, "\x1b[38;2;%d;%d;%dm", r, g, b)
			continue
		}

		offset := color.Attribute(0)
		if (word == "light" || word == "b" || word == "bg") && i+1 < len(fields) {
			next := strings.ToLower(fields[i+1])
			if _, ok := foregrounds[next]; ok {
				offset = hiOffset
				if word != "light" {
					offset = bgOffset
				}
				i++
				word = next
			}
		}
		if fg, ok := foregrounds[word]; ok {
			attrs = append(attrs, fg+offset)
			continue
		}
		if attr, ok := attributes[word]; ok {
			attrs = append(attrs, attr)
			continue
		}
		return Color{}, fmt.Errorf("unknown colour %q in %q", fields[i], name)
	}

	pre := prefix.String()
	if len(attrs) == 0 {
		return Color{Name: name, wrap: func(text string) string {
			return pre + text + reset
		}}, nil
	}

	c := color.New(attrs...)
	c.EnableColor()
	if pre == "" {
		return Color{Name: name, wrap: func(text string) string {
			return c.Sprint(text)
		}}, nil
	}
	return Color{Name: name, wrap: func(text string) string {
		return pre + c.Sprint(text) + reset
	}}, nil
}
