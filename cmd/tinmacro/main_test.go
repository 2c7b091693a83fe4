package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// execute runs the root command with a throwaway log file and no config
// unless args name one.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prevLogger, prevNoColor := slog.Default(), color.NoColor
	t.Cleanup(func() {
		slog.SetDefault(prevLogger)
		color.NoColor = prevNoColor
	})

	dir := t.TempDir()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "none.toml"),
		"--log-file", filepath.Join(dir, "test.log"),
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	got, err := execute(t, "", "--version")
	if err != nil {
		t.Fatal(err)
	}
	if got != "tinmacro version: "+FullVersion+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSubCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "variables and slots",
			args: []string{"--color", "never", "sub", "--var", "hp=100", "--arg", "1=Bob", "$hp for %1"},
			want: "100 for Bob\n",
		},
		{
			name: "command slots",
			args: []string{"sub", "--cmd", "2=north", "go &2"},
			want: "go north\n",
		},
		{
			name: "colour tags",
			args: []string{"--color", "always", "sub", "--flags", "col", "<118>x<088>"},
			want: "\x1b[1;31mx\x1b[0m\n",
		},
		{
			name: "escaped for commands",
			args: []string{"sub", "--flags", "var", "--escape", "{x};y"},
			want: `\x7Bx\x7D\;y` + "\n",
		},
		{
			name: "arguments joined",
			args: []string{"sub", "a", "b"},
			want: "a b\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, "", tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubCommandErrors(t *testing.T) {
	for _, args := range [][]string{
		{"sub", "--flags", "bogus", "x"},
		{"sub", "--arg", "one=x", "x"},
		{"sub", "--arg", "999=x", "x"},
		{"--color", "sometimes", "sub", "x"},
		{"--max-depth", "1", "sub", "${${${x}}}"},
	} {
		if _, err := execute(t, "", args...); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestMatchCommand(t *testing.T) {
	got, err := execute(t, "", "match", "%1 arrives", "Bob arrives", "nothing")
	if err != nil {
		t.Fatal(err)
	}
	want := "Bob arrives\n  %0   Bob arrives\n  %1   Bob\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMatchCommandModes(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name:  "raw into commands from stdin",
			stdin: "mana 7\nhp 42\n",
			args:  []string{"match", "--raw", "--commands", "hp {[0-9]+}"},
			want:  "hp 42\n  &0   hp 42\n  &1   42\n",
		},
		{
			name: "whole line",
			args: []string{"match", "--whole", "Bob%*", "Bob arrives", "Alice arrives"},
			want: "Bob arrives\n",
		},
		{
			name: "find expands variables",
			args: []string{"--var", "who=Bob", "match", "--find", "$who %1", "Bob waves"},
			want: "Bob waves\n  %0   Bob waves\n  %1   waves\n",
		},
		{
			name: "ignore case",
			args: []string{"match", "-i", "BOB", "bob"},
			want: "bob\n  %0   bob\n",
		},
		{
			name:  "escape sequences stripped",
			stdin: "\x1b[31mgoblin\x1b[0m arrives\n",
			args:  []string{"match", "%1 arrives"},
			want:  "goblin arrives\n  %0   goblin arrives\n  %1   goblin\n",
		},
		{
			name:  "styled runs",
			stdin: "\x1b[38;2;255;0;0mgoblin\x1b[0m \x1b[1marrives\x1b[0m\n",
			args:  []string{"match", "--styles", "%1 arrives"},
			want: "goblin arrives\n  %0   goblin arrives\n  %1   goblin\n" +
				"  @0-6     \"goblin\" fg=#ff0000\n" +
				"  @7-14    \"arrives\" bold\n",
		},
		{
			name: "plain line has no runs",
			args: []string{"match", "--styles", "%1 arrives", "Bob arrives"},
			want: "Bob arrives\n  %0   Bob arrives\n  %1   Bob\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchCommandNoMatch(t *testing.T) {
	_, err := execute(t, "", "match", "orc", "goblin")
	if !errors.Is(err, errNoMatch) {
		t.Errorf("err = %v, want errNoMatch", err)
	}
}

func TestRunCommand(t *testing.T) {
	got, err := execute(t, "", "--color", "never", "run", "#var x 5", "#showme {x=$x}", "look")
	if err != nil {
		t.Fatal(err)
	}
	if got != "x=5\n> look\n" {
		t.Errorf("output = %q", got)
	}

	got, err = execute(t, "/* setup */\n#var x 5\nshowme {x=$x}\n", "run")
	if err != nil {
		t.Fatal(err)
	}
	if got != "x=5\n" {
		t.Errorf("script output = %q", got)
	}

	path := writeFile(t, "script.tin", "variable {y} {2}\nshowme {y=$y}\n")
	got, err = execute(t, "", "run", "--file", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "y=2\n" {
		t.Errorf("file output = %q", got)
	}
}

func TestFilterCommand(t *testing.T) {
	config := writeFile(t, "config.toml", sampleConfig)
	stdin := "\x1b[32mBob\x1b[0m arrives\nan orc\n"

	got, err := execute(t, stdin, "--config", config, "filter")
	if err != nil {
		t.Fatal(err)
	}
	if want := "hi Bob\nBob arrives\nan orc\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	got, err = execute(t, "an orc\n", "--config", config, "--color", "always", "filter")
	if err != nil {
		t.Fatal(err)
	}
	if want := "an \x1b[1;31morc\x1b[0m\n"; got != want {
		t.Errorf("highlighted output = %q, want %q", got, want)
	}
}

func TestFilterCommandFiles(t *testing.T) {
	input := writeFile(t, "game.log", "Alice arrives\n")
	got, err := execute(t, "", "--config", writeFile(t, "config.toml", sampleConfig), "filter", input)
	if err != nil {
		t.Fatal(err)
	}
	if want := "hi Alice\nAlice arrives\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if _, err := execute(t, "", "filter", filepath.Join(t.TempDir(), "gone.log")); err == nil {
		t.Error("expected an error for a missing input file")
	}
}

func TestTagCommand(t *testing.T) {
	got, err := execute(t, "", "--color", "never", "tag", "<118>", "<g12>", "<AAA>")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("output = %q", got)
	}
	for i, want := range [][]string{
		{"<118>", "attr", `"\x1b[1;31m"`},
		{"<g12>", "fg256", "244", `"\x1b[38;5;244m"`},
		{"<AAA>", "bg256", "16", "#000000", `"\x1b[48;5;016m"`},
	} {
		for _, field := range want {
			if !strings.Contains(lines[i], field) {
				t.Errorf("line %q lacks %s", lines[i], field)
			}
		}
	}

	_, err = execute(t, "", "tag", "<xyz>", "<1234>")
	if !errors.Is(err, errBadTag) {
		t.Errorf("err = %v, want errBadTag", err)
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	if !colorEnabled("always", &buf) || colorEnabled("never", &buf) || colorEnabled("auto", &buf) {
		t.Error("colorEnabled does not follow the mode")
	}
}
