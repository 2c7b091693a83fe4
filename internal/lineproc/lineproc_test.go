package lineproc

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProcessPlain(t *testing.T) {
	line := Process("You see a sword.\r")
	if line.Raw != "You see a sword." || line.Processed != "You see a sword." {
		t.Errorf("Process = %+v", line)
	}
	if line.Styled() {
		t.Error("plain line reported as styled")
	}
}

func TestProcessStyled(t *testing.T) {
	raw := "The \x1b[1mbold\x1b[0m orc"
	line := Process(raw)
	if line.Raw != raw {
		t.Errorf("Raw = %q", line.Raw)
	}
	if line.Processed != "The bold orc" {
		t.Errorf("Processed = %q", line.Processed)
	}
	if !line.Styled() {
		t.Fatal("expected styling")
	}
	span := line.Spans[0]
	if span.Text != "bold" || span.StartCol != 4 || span.EndCol != 8 || !span.Style.Bold {
		t.Errorf("span = %+v", span)
	}
}

func TestProcessTrueColor(t *testing.T) {
	line := Process("\x1b[38;2;255;0;0mred\x1b[39m")
	if line.Processed != "red" {
		t.Errorf("Processed = %q", line.Processed)
	}
	if len(line.Spans) != 1 || line.Spans[0].Style.ForegroundColor == nil {
		t.Fatalf("spans = %+v", line.Spans)
	}
	if c := line.Spans[0].Style.ForegroundColor; c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("colour = %+v", c)
	}
}

func TestStyleString(t *testing.T) {
	tests := []struct {
		style Style
		want  string
	}{
		{Style{}, ""},
		{Style{Bold: true, Italic: true}, "bold italic"},
		{Style{
			ForegroundColor: &Color{R: 255, G: 135},
			BackgroundColor: &Color{B: 10},
			Underline:       true,
		}, "fg=#ff8700 bg=#00000a underline"},
	}
	for _, tt := range tests {
		if got := tt.style.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStrip(t *testing.T) {
	if got := strip("\x1b[2Jclear\x1b[Hhome\x1b[1;31m!"); got != "clearhome!" {
		t.Errorf("strip = %q", got)
	}
}

func TestSplit(t *testing.T) {
	lines := Split("one\ntwo\r\n\x1b[31mthree\x1b[0m\n")
	var got []string
	for _, l := range lines {
		got = append(got, l.Processed)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
	if Split("") != nil {
		t.Error("Split of empty text should be nil")
	}
}

func TestScan(t *testing.T) {
	var got []string
	err := Scan(strings.NewReader("a\nb\nc"), func(l Line) error {
		got = append(got, l.Processed)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	n := 0
	err = Scan(strings.NewReader("a\nb\nc"), func(Line) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("Scan did not stop: %v after %d lines", err, n)
	}
}
