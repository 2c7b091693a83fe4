package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Hanaasagi/tinmacro/internal/script"
	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(NewDefaultConfig(), config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

const sampleConfig = `
[core]
max_depth = 16
color = "never"
command_char = "#"

[variables]
hp = "100"

[[actions]]
pattern = "%1 arrives"
commands = "#showme hi %1"
priority = 2

[[highlights]]
pattern = "orc"
color = "<118>"

[script]
startup = "#var {greeting} {hello $hp}"
`

func TestLoadConfigFromFile(t *testing.T) {
	config, err := LoadConfigFromFile(writeFile(t, "config.toml", sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	two := 2
	want := &Config{
		Core:      CoreConfig{MaxDepth: 16, Color: "never", CommandChar: "#"},
		Variables: map[string]string{"hp": "100"},
		Actions: []ActionConfig{
			{Pattern: "%1 arrives", Commands: "#showme hi %1", Priority: &two},
		},
		Highlights: []HighlightConfig{
			{Pattern: "orc", Color: "<118>"},
		},
		Script: ScriptConfig{Startup: "#var {greeting} {hello $hp}"},
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeFile(t, "config.toml", `
[core]
max_depth = 0
color = "sometimes"

[[highlights]]
pattern = "orc"
`)
	_, err := LoadConfigFromFile(path)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, want := range []string{"max_depth", "core.color", "highlights[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	if _, err := LoadConfigFromFile(writeFile(t, "broken.toml", "[core\n")); err == nil {
		t.Error("expected a decode error")
	}
}

func TestConfigApply(t *testing.T) {
	config, err := LoadConfigFromFile(writeFile(t, "config.toml", sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	config.Script.Files = []string{writeFile(t, "extra.tin", "#variable {x} {1}\n")}

	var out bytes.Buffer
	d := script.New()
	s, err := config.Apply(d, session.New("test", &out))
	if err != nil {
		t.Fatal(err)
	}

	if v, _ := s.Vars.Get("greeting"); v != "hello 100" {
		t.Errorf("greeting = %q", v)
	}
	if v, _ := s.Vars.Get("x"); v != "1" {
		t.Errorf("x = %q", v)
	}
	if actions := d.Actions.List(); len(actions) != 1 || actions[0].Priority != 2 {
		t.Errorf("actions = %+v", actions)
	}
	if rules := d.Highlights.List(); len(rules) != 1 || rules[0].Priority != 5 {
		t.Errorf("highlights = %+v", rules)
	}
}

func TestConfigApplyMissingScript(t *testing.T) {
	config := NewDefaultConfig()
	config.Script.Files = []string{filepath.Join(t.TempDir(), "gone.tin")}
	if _, err := config.Apply(script.New(), session.New("test", nil)); err == nil {
		t.Error("expected an error for a missing script file")
	}
}
