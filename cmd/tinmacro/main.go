package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"github.com/Hanaasagi/tinmacro/cmd"
	"github.com/Hanaasagi/tinmacro/internal/capture"
	"github.com/Hanaasagi/tinmacro/internal/lineproc"
	"github.com/Hanaasagi/tinmacro/internal/logger"
	"github.com/Hanaasagi/tinmacro/internal/script"
	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "tinmacro"
	// slotWidth bounds the value column of the slot table.
	slotWidth = 60
)

var (
	Version     = "0.1.0"
	CommitSha   = "unknown"
	FullVersion = Version + "-" + CommitSha
)

var appDir = filepath.Join(xdg.StateHome, appName)

var (
	errNoMatch   = errors.New("no match")
	errBadTag    = errors.New("not a colour tag")
	errColorMode = errors.New("color must be auto, always or never")
)

// app holds the global options and the session built from them.
type app struct {
	configPath  string
	logFile     string
	logLevel    string
	color       string
	maxDepth    int
	vars        map[string]string
	showVersion bool

	colorOn bool
	session *session.Session
	driver  *script.Driver
	logFd   io.Closer
}

// colorEnabled resolves a colour mode against the output writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) setup(c *cobra.Command) error {
	fd, err := logger.InitLogger(a.logFile, logger.Level(a.logLevel))
	if err != nil {
		return err
	}
	a.logFd = fd

	config, err := LoadConfigFromFile(a.configPath)
	if err != nil {
		return err
	}
	if c.Flags().Changed("color") {
		if !slices.Contains(colorModes, a.color) {
			return fmt.Errorf("%w, got %q", errColorMode, a.color)
		}
		config.Core.Color = a.color
	}
	if a.maxDepth > 0 {
		config.Core.MaxDepth = a.maxDepth
	}

	out := c.OutOrStdout()
	a.colorOn = colorEnabled(config.Core.Color, out)
	color.NoColor = !a.colorOn

	a.driver = script.New()
	a.driver.Color = a.colorOn
	a.driver.Send = func(s *session.Session, text string) error {
		s.Printf("> %s", text)
		return nil
	}
	a.session = session.New(appName, out, session.WithMaxDepth(config.Core.MaxDepth))

	if a.session, err = config.Apply(a.driver, a.session); err != nil {
		return err
	}
	for name, value := range a.vars {
		a.session.Vars.Set(name, value)
	}
	slog.Debug("session ready", "config", a.configPath, "color", a.colorOn,
		"actions", a.driver.Actions.Len(), "highlights", a.driver.Highlights.Len())
	return nil
}

func (a *app) teardown() error {
	if a.logFd == nil {
		return nil
	}
	err := a.logFd.Close()
	a.logFd = nil
	return err
}

// parseSlots turns N=value pairs into slot assignments.
func parseSlots(pairs map[string]string, set func(int, string) error) error {
	for key, value := range pairs {
		n, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("slot %q: %w", key, err)
		}
		if err := set(n, value); err != nil {
			return err
		}
	}
	return nil
}

func newSubCmd(a *app) *cobra.Command {
	var (
		flagText string
		args     map[string]string
		cmds     map[string]string
		escape   bool
	)
	c := &cobra.Command{
		Use:   "sub TEXT...",
		Short: "Expand text with variables, slots, escapes and colour tags",
		Example: `  tinmacro sub --var hp=100 'hp: $hp'
  tinmacro sub --arg 1=Bob --flags arg,col '<118>%1<088> arrives'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, argv []string) error {
			flags, err := substitute.ParseFlags(flagText)
			if err != nil {
				return err
			}
			s := a.session
			if err := parseSlots(args, s.Slots.SetVar); err != nil {
				return err
			}
			if err := parseSlots(cmds, s.Slots.SetCmd); err != nil {
				return err
			}
			out, err := s.Substitute(strings.Join(argv, " "), flags)
			if err != nil {
				return err
			}
			if escape {
				out = substitute.Escape(out)
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), out)
			return err
		},
	}
	c.Flags().StringVarP(&flagText, "flags", "f", "var,arg,cmd,esc,col", "Substitution flags")
	c.Flags().StringToStringVar(&args, "arg", nil, "Set variable slot N (%N) to a value")
	c.Flags().StringToStringVar(&cmds, "cmd", nil, "Set command slot N (&N) to a value")
	c.Flags().BoolVarP(&escape, "escape", "e", false, "Escape the result for embedding in a command")
	return c
}

// writeSlots prints the non-empty slots as an aligned table.
func writeSlots(w io.Writer, sigil string, slots [capture.Capacity]string) {
	for i, v := range slots {
		if v == "" {
			continue
		}
		label := runewidth.FillRight(sigil+strconv.Itoa(i), 4)
		fmt.Fprintf(w, "  %s %s\n", label, runewidth.Truncate(v, slotWidth, "…"))
	}
}

// writeSpans prints the styled runs of a line with their byte columns.
func writeSpans(w io.Writer, spans []lineproc.StyleSpan) {
	for _, span := range spans {
		cols := fmt.Sprintf("@%d-%d", span.StartCol, span.EndCol)
		fmt.Fprintf(w, "  %s %q %s\n", runewidth.FillRight(cols, 8), span.Text, span.Style)
	}
}

func newMatchCmd(a *app) *cobra.Command {
	var whole, find, raw, commands, ignoreCase, styles bool
	c := &cobra.Command{
		Use:   "match PATTERN [TEXT...]",
		Short: "Match lines against a pattern and show the captured slots",
		Long: `Match each TEXT argument, or each line of standard input, against PATTERN
and print the lines that match followed by their captures.`,
		Example: `  tinmacro match '%1 arrives' 'Bob arrives'
  tail -f game.log | tinmacro match --raw --commands 'hp {[0-9]+}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, argv []string) error {
			s, w := a.session, c.OutOrStdout()
			pattern := argv[0]

			target, sigil := capture.Variables, "%"
			if commands {
				target, sigil = capture.Commands, "&"
			}

			var (
				def  session.Definition
				opts engine.Option
				err  error
			)
			if !whole && !find && !raw {
				if def, err = session.ParseDefinition(pattern); err != nil {
					return err
				}
				if ignoreCase {
					opts = engine.CaseInsensitive
					def.Source = session.Literal(def.Source.Text())
				}
				// Rule patterns always bind the variable slots.
				target, sigil = capture.Variables, "%"
			}

			matched := 0
			check := func(line lineproc.Line) error {
				var ok bool
				var err error
				switch {
				case whole:
					ok, err = s.Match(line.Processed, pattern)
				case find:
					ok, err = s.Find(line.Processed, pattern, target)
				case raw:
					ok, err = s.FindRaw(line.Processed, pattern, target)
				default:
					ok, err = s.CheckPattern(def, line.Processed, line.Raw, opts)
				}
				if err != nil || !ok {
					return err
				}
				matched++
				fmt.Fprintln(w, line.Processed)
				switch {
				case whole:
				case target == capture.Commands:
					writeSlots(w, sigil, s.Slots.Cmds())
				default:
					writeSlots(w, sigil, s.Slots.Vars())
				}
				if styles && line.Styled() {
					writeSpans(w, line.Spans)
				}
				return nil
			}

			if len(argv) > 1 {
				for _, text := range argv[1:] {
					if err := check(lineproc.Process(text)); err != nil {
						return err
					}
				}
			} else if err := lineproc.Scan(c.InOrStdin(), check); err != nil {
				return err
			}

			if matched == 0 {
				return errNoMatch
			}
			return nil
		},
	}
	c.Flags().BoolVarP(&whole, "whole", "w", false, "Match the whole line, without binding captures")
	c.Flags().BoolVar(&find, "find", false, "Search after expanding variables in the line and pattern")
	c.Flags().BoolVar(&raw, "raw", false, "Search without expanding the line or pattern")
	c.Flags().BoolVarP(&commands, "commands", "c", false, "With --find or --raw, bind captures into the command slots (&N)")
	c.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Match case-insensitively")
	c.Flags().BoolVarP(&styles, "styles", "s", false, "Show the styled runs of each matching line")
	c.MarkFlagsMutuallyExclusive("whole", "find", "raw")
	return c
}

func newRunCmd(a *app) *cobra.Command {
	var files []string
	c := &cobra.Command{
		Use:   "run [SCRIPT...]",
		Short: "Run script commands",
		Long: `Run each SCRIPT argument as a ';' separated command list. Script files given
with --file hold one command per line. Without either, a script is read from
standard input.`,
		Example: `  tinmacro run '#var hp 100' '#showme {hp: $hp}'
  tinmacro run --file startup.tin`,
		RunE: func(c *cobra.Command, argv []string) error {
			var err error
			for _, path := range files {
				data, rerr := os.ReadFile(path)
				if rerr != nil {
					return fmt.Errorf("reading script: %w", rerr)
				}
				if a.session, err = a.driver.LoadScript(a.session, string(data)); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			for _, text := range argv {
				if a.session, err = a.driver.Run(a.session, text); err != nil {
					return err
				}
			}
			if len(files) == 0 && len(argv) == 0 {
				data, rerr := io.ReadAll(c.InOrStdin())
				if rerr != nil {
					return fmt.Errorf("reading script: %w", rerr)
				}
				a.session, err = a.driver.LoadScript(a.session, string(data))
			}
			return err
		},
	}
	c.Flags().StringArrayVarP(&files, "file", "f", nil, "Load a script file")
	return c
}

func newFilterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [FILE...]",
		Short: "Pass lines through the configured actions and highlights",
		Long: `Fire the configured actions whose patterns match each line of the given
files, or of standard input, then print the line with the highlights applied.`,
		Example: `  tail -f game.log | tinmacro filter --config mud.toml`,
		RunE: func(c *cobra.Command, argv []string) error {
			each := func(line lineproc.Line) error {
				var err error
				if a.session, err = a.driver.Actions.Check(a.session, a.driver, line.Processed, line.Raw); err != nil {
					return err
				}
				text := line.Processed
				if a.colorOn {
					if text, err = a.driver.Highlights.Apply(a.session, line.Raw); err != nil {
						return err
					}
				}
				a.session.Show(text)
				return nil
			}

			if len(argv) == 0 {
				return lineproc.Scan(c.InOrStdin(), each)
			}
			for _, path := range argv {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening input file: %w", err)
				}
				err = lineproc.Scan(f, each)
				f.Close() // nolint: errcheck
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}
}

func paletteHex(index int) string {
	if index < 0 {
		return "-"
	}
	return fmt.Sprintf("#%06x", tcell.PaletteColor(index).Hex())
}

func newTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "tag TAG...",
		Short:   "Describe <XYZ> colour tags",
		Example: `  tinmacro tag '<118>' '<aaf>' '<G05>'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, argv []string) error {
			w := c.OutOrStdout()
			var errs []error
			for _, text := range argv {
				tag, ok := substitute.ParseTag(text)
				if !ok || len(text) != substitute.TagLen {
					errs = append(errs, fmt.Errorf("%q: %w", text, errBadTag))
					continue
				}
				index := "-"
				if tag.Index >= 0 {
					index = strconv.Itoa(tag.Index)
				}
				fmt.Fprintf(w, "%s %s %s %s %q",
					runewidth.FillRight(tag.Text, 6),
					runewidth.FillRight(tag.Kind.String(), 6),
					runewidth.FillRight(index, 4),
					runewidth.FillRight(paletteHex(tag.Index), 8),
					tag.SGR)
				if a.colorOn && tag.SGR != "" {
					fmt.Fprintf(w, " %ssample\x1b[0m", tag.SGR)
				}
				fmt.Fprintln(w)
			}
			return errors.Join(errs...)
		},
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Text substitution and pattern matching for MUD style scripting",
		Long: color.New(color.FgHiMagenta).Sprintf(
			"Variables, colour tags and wildcard triggers for terminal text. %s",
			color.New(color.FgBlue).Sprintf("(%s)", FullVersion),
		),
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if a.showVersion {
				return nil
			}
			return a.setup(c)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
		RunE: func(c *cobra.Command, _ []string) error {
			if a.showVersion {
				fmt.Fprintf(c.OutOrStdout(), "%s version: %s\n", appName, FullVersion)
				return nil
			}
			return c.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigPath(), "Path to the TOML config file")
	flags.StringVar(&a.logFile, "log-file", filepath.Join(appDir, appName+".log"), "Path to the log file")
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error), overridden by $"+logger.EnvLevel)
	flags.StringVar(&a.color, "color", "auto", "Colour output: auto, always or never")
	flags.IntVar(&a.maxDepth, "max-depth", 0, "Nesting limit of substitutions (0 uses the config)")
	flags.StringToStringVar(&a.vars, "var", nil, "Set a session variable, name=value")
	rootCmd.Flags().BoolVarP(&a.showVersion, "version", "v", false, "Print version and exit")

	rootCmd.AddCommand(
		newSubCmd(a),
		newMatchCmd(a),
		newRunCmd(a),
		newFilterCmd(a),
		newTagCmd(a),
	)

	rootCmd.SetHelpTemplate(cmd.HelpTemplate)
	rootCmd.SetUsageFunc(func(c *cobra.Command) error {
		return cmd.ColorUsageFunc(c.OutOrStderr(), c)
	})
	return rootCmd
}

func main() {
	if err := os.MkdirAll(appDir, 0o755); err == nil {
		if f, err := os.Create(filepath.Join(appDir, "crash")); err == nil {
			_ = debug.SetCrashOutput(f, debug.CrashOptions{})
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Error executing command", "error", err)
		os.Exit(1)
	}
}
