package session

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Hanaasagi/tinmacro/internal/capture"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/Hanaasagi/tinmacro/pkg/wildcard"
	"github.com/google/go-cmp/cmp"
)

type recordingDriver struct {
	runs []string
}

func (d *recordingDriver) Run(s *Session, text string) (*Session, error) {
	d.runs = append(d.runs, text)
	return s, nil
}

func newTestSession() (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	return New("test", &out), &out
}

func TestVariables(t *testing.T) {
	v := NewVariables()
	v.Set("b", "{x}{y}{z}")
	v.Set("a", "1")

	if diff := cmp.Diff([]string{"a", "b"}, v.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if got, ok := v.Resolve("b", "2"); !ok || got != "y" {
		t.Errorf("Resolve(b, 2) = %q, %v", got, ok)
	}
	if _, ok := v.Resolve("b", "9"); ok {
		t.Error("out of range index should not resolve")
	}
	if _, ok := v.Resolve("nope", ""); ok {
		t.Error("unknown variable resolved")
	}
	if !v.Delete("a") || v.Delete("a") {
		t.Error("Delete should report existence")
	}
	if v.Len() != 1 {
		t.Errorf("Len = %d", v.Len())
	}
}

func TestSubstituteUsesSession(t *testing.T) {
	s, _ := newTestSession()
	s.Vars.Set("target", "orc")
	_ = s.Slots.SetVar(1, "sword")

	got, err := s.Substitute("wield %1 and kill $target", substitute.Var|substitute.Arg)
	if err != nil {
		t.Fatal(err)
	}
	if got != "wield sword and kill orc" {
		t.Errorf("got %q", got)
	}
}

func TestMatch(t *testing.T) {
	s, _ := newTestSession()
	s.Vars.Set("name", "gandalf")

	tests := []struct {
		str  string
		exp  string
		want bool
	}{
		{"gandalf", "$name", true},
		{"gandalf the grey", "$name", false},
		{"gandalf the grey", "$name %*", true},
		{"hp 100", "hp %d", true},
		{"a.b", "a.b", true},
		{"axb", "a.b", false},
		{"tab\there", `tab\there`, true},
	}
	for _, tt := range tests {
		got, err := s.Match(tt.str, tt.exp)
		if err != nil {
			t.Fatalf("Match(%q, %q): %v", tt.str, tt.exp, err)
		}
		if got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.str, tt.exp, got, tt.want)
		}
	}

	// Match never binds.
	if s.Slots.Var(0) != "" || s.Slots.Cmd(0) != "" {
		t.Error("Match wrote slots")
	}
}

func TestFind(t *testing.T) {
	s, _ := newTestSession()
	s.Vars.Set("who", "gandalf")

	ok, err := s.Find("$who said hello world", "{[a-z]+} said %*", capture.Variables)
	if err != nil || !ok {
		t.Fatalf("Find = %v, %v", ok, err)
	}
	if s.Slots.Var(1) != "gandalf" || s.Slots.Var(2) != "hello world" {
		t.Errorf("slots = %q, %q", s.Slots.Var(1), s.Slots.Var(2))
	}

	ok, err = s.Find("a b said hi and said hi", "%* said hi", capture.Commands)
	if err != nil || !ok {
		t.Fatalf("Find = %v, %v", ok, err)
	}
	if got := s.Slots.Cmd(1); got != "a b" {
		t.Errorf("lazy interior wildcard bound %q", got)
	}
}

func TestFindNoMatchKeepsSlots(t *testing.T) {
	s, _ := newTestSession()
	_ = s.Slots.SetVar(1, "before")

	ok, err := s.Find("nothing here", "zebra %*", capture.Variables)
	if err != nil || ok {
		t.Fatalf("Find = %v, %v", ok, err)
	}
	if got := s.Slots.Var(1); got != "before" {
		t.Errorf("slot changed to %q", got)
	}
}

func TestFindRawLiteralOperands(t *testing.T) {
	s, _ := newTestSession()
	s.Vars.Set("x", "y")

	ok, err := s.FindRaw("cost $x", `cost \$x`, capture.Nowhere)
	if err != nil || !ok {
		t.Errorf("FindRaw did not match the literal text: %v, %v", ok, err)
	}
	if ok, _ := s.FindRaw("cost $x", "cost y", capture.Nowhere); ok {
		t.Error("FindRaw expanded its subject")
	}
	if ok, _ := s.Find("cost $x", "cost y", capture.Nowhere); !ok {
		t.Error("Find did not expand its subject")
	}
}

func TestFixupBinding(t *testing.T) {
	s, _ := newTestSession()
	ok, err := s.Find("AhelloBworld", "%5hello%3world", capture.Variables)
	if err != nil || !ok {
		t.Fatalf("Find = %v, %v", ok, err)
	}
	if s.Slots.Var(5) != "A" || s.Slots.Var(3) != "B" || s.Slots.Var(1) != "" {
		t.Errorf("slots 5/3/1 = %q/%q/%q", s.Slots.Var(5), s.Slots.Var(3), s.Slots.Var(1))
	}
}

func TestCompileFailureIsNoMatch(t *testing.T) {
	s, _ := newTestSession()
	ok, err := s.Find("abc", "{(unclosed}", capture.Variables)
	if err != nil || ok {
		t.Errorf("Find with a bad pattern = %v, %v", ok, err)
	}
}

func TestTooManyCapturesIsAnError(t *testing.T) {
	s, _ := newTestSession()
	_, err := s.Find("abc", strings.Repeat("%.", wildcard.MaxSlots), capture.Variables)
	if !errors.Is(err, wildcard.ErrTooManyCaptures) {
		t.Errorf("err = %v, want ErrTooManyCaptures", err)
	}
}

func TestParseDefinition(t *testing.T) {
	tests := []struct {
		text     string
		meta     bool
		compiled bool
	}{
		{"%* tells you %*", false, true},
		{"~\x1b[31m%*", true, true},
		{"$name arrives", false, false},
		{"cost 5$", false, true},
		{"&&", false, false},
	}
	for _, tt := range tests {
		def, err := ParseDefinition(tt.text)
		if err != nil {
			t.Fatalf("ParseDefinition(%q): %v", tt.text, err)
		}
		if def.Meta != tt.meta {
			t.Errorf("%q: Meta = %v", tt.text, def.Meta)
		}
		if _, ok := def.Source.(Compiled); ok != tt.compiled {
			t.Errorf("%q: compiled = %v, want %v", tt.text, ok, tt.compiled)
		}
		if def.String() != tt.text {
			t.Errorf("String() = %q, want %q", def.String(), tt.text)
		}
	}

	if _, err := ParseDefinition("{(bad}"); err == nil {
		t.Error("expected compile error")
	}
}

func TestCheckPattern(t *testing.T) {
	s, _ := newTestSession()
	s.Vars.Set("enemy", "orc")

	raw := "\x1b[31mThe orc attacks\x1b[0m"
	processed := "The orc attacks"

	lit, err := ParseDefinition("The $enemy %*")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := s.CheckPattern(lit, processed, raw, 0)
	if err != nil || !ok {
		t.Fatalf("literal CheckPattern = %v, %v", ok, err)
	}
	if got := s.Slots.Var(1); got != "attacks" {
		t.Errorf("Var(1) = %q", got)
	}

	meta, err := ParseDefinition("~\x1b[31m%* attacks")
	if err != nil {
		t.Fatal(err)
	}
	ok, err = s.CheckPattern(meta, processed, raw, 0)
	if err != nil || !ok {
		t.Fatalf("meta CheckPattern = %v, %v", ok, err)
	}
	if got := s.Slots.Var(1); got != "The orc" {
		t.Errorf("meta Var(1) = %q", got)
	}

	// The same meta pattern does not see the escape in the processed line.
	plain := Definition{Source: meta.Source}
	if ok, _ := s.CheckPattern(plain, processed, raw, 0); ok {
		t.Error("non-meta definition matched the raw line")
	}

	upper := Definition{Source: Literal("THE ORC %*")}
	if ok, _ := s.CheckPattern(upper, processed, raw, engine.CaseInsensitive); !ok {
		t.Error("case-insensitive option ignored")
	}
}

func TestRegexp(t *testing.T) {
	s, out := newTestSession()
	d := &recordingDriver{}

	next, err := s.Regexp("{hp 120/300} {hp %d/%d} {#showme &1 of &2} {#showme none}", d)
	if err != nil {
		t.Fatal(err)
	}
	if next != s {
		t.Error("Regexp returned a different session")
	}
	if diff := cmp.Diff([]string{"#showme 120 of 300"}, d.runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
	if s.Slots.Cmd(0) != "hp 120/300" {
		t.Errorf("Cmd(0) = %q", s.Slots.Cmd(0))
	}

	d.runs = nil
	if _, err := s.Regexp("{abc} {xyz} {#showme yes} {#showme no &1}", d); err != nil {
		t.Fatal(err)
	}
	// The false branch is run without command expansion.
	if diff := cmp.Diff([]string{"#showme no &1"}, d.runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	d.runs = nil
	if _, err := s.Regexp("{abc} {xyz} {#showme yes}", d); err != nil {
		t.Fatal(err)
	}
	if len(d.runs) != 0 {
		t.Errorf("unexpected runs %q", d.runs)
	}

	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRegexpUsage(t *testing.T) {
	s, out := newTestSession()
	d := &recordingDriver{}
	_ = s.Slots.SetCmd(0, "untouched")

	_, err := s.Regexp("{abc} {abc}", d)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
	if !strings.Contains(out.String(), "SYNTAX: #REGEXP") {
		t.Errorf("output = %q", out.String())
	}
	if len(d.runs) != 0 || s.Slots.Cmd(0) != "untouched" {
		t.Error("usage error must not match or run anything")
	}
}

func TestRegexpVariables(t *testing.T) {
	s, _ := newTestSession()
	s.Vars.Set("line", "You have 5 coins")
	d := &recordingDriver{}

	if _, err := s.Regexp("{$line} {%d coins} {got &1}", d); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"got 5"}, d.runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}
