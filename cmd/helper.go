// nolint:errcheck
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Hanaasagi/tinmacro/pkg/engine"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	titleStyle       = color.New(color.Bold, color.FgHiWhite)
	commandStyle     = color.New(color.FgHiGreen)
	descriptionStyle = color.New(color.FgHiCyan)
	aliasStyle       = color.New(color.FgHiGreen)
	exampleStyle     = color.New(color.FgHiCyan)
	flagStyle        = color.New(color.Bold, color.FgHiCyan)
	tipStyle         = color.New(color.FgHiYellow)
	groupTitleStyle  = color.New(color.Bold, color.FgHiMagenta)
)

// HelpTemplate prints the long description followed by the coloured usage.
var HelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`

func rpad(s string, padding int) string {
	return fmt.Sprintf("%-*s", padding, s)
}

func trimRightSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func listed(c *cobra.Command) bool {
	return c.IsAvailableCommand() || c.Name() == "help"
}

var (
	reWithShort = engine.MustCompile(`^( {2,})(-[a-zA-Z]), (--[a-zA-Z0-9-]+)(.*)$`, 0)
	reLongOnly  = engine.MustCompile(`^( {2,})(--[a-zA-Z0-9-]+)(.*)$`, 0)
)

// groups returns the submatches of m on s, or nil.
func groups(m engine.Matcher, s string) []string {
	loc := m.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil
	}
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

func colorFlags(raw string) []byte {
	var out bytes.Buffer

	for _, line := range strings.Split(raw, "\n") {
		if m := groups(reWithShort, line); m != nil {
			out.WriteString(m[1])
			flagStyle.Fprint(&out, m[2])
			out.WriteString(", ")
			out.WriteString(m[3])
			out.WriteString(m[4])
		} else if m := groups(reLongOnly, line); m != nil {
			out.WriteString(m[1])
			flagStyle.Fprint(&out, m[2])
			out.WriteString(m[3])
		} else {
			out.WriteString(line)
		}
		out.WriteByte('\n')
	}

	return out.Bytes()
}

// writeCommands lists the subcommands for which keep returns true.
func writeCommands(buf *bytes.Buffer, title *color.Color, heading string, cmds []*cobra.Command, keep func(*cobra.Command) bool) {
	fmt.Fprint(buf, "\n\n")
	title.Fprint(buf, heading)
	for _, sub := range cmds {
		if !keep(sub) {
			continue
		}
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprint(buf, rpad(sub.Name(), sub.NamePadding()))
		fmt.Fprint(buf, " ")
		descriptionStyle.Fprint(buf, sub.Short)
	}
}

func ColorUsageFunc(w io.Writer, cmd *cobra.Command) error {
	buf := &bytes.Buffer{}

	titleStyle.Fprint(buf, "Usage:")
	if cmd.Runnable() {
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprint(buf, cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprintf(buf, "%s [command]", cmd.CommandPath())
	}

	if len(cmd.Aliases) > 0 {
		fmt.Fprint(buf, "\n\n")
		titleStyle.Fprint(buf, "Aliases:")
		fmt.Fprint(buf, "\n  ")
		aliasStyle.Fprint(buf, strings.Join(cmd.Aliases, ", "))
	}

	if cmd.HasExample() {
		fmt.Fprint(buf, "\n\n")
		titleStyle.Fprint(buf, "Examples:")
		fmt.Fprint(buf, "\n")
		exampleStyle.Fprint(buf, cmd.Example)
	}

	if cmd.HasAvailableSubCommands() {
		cmds := cmd.Commands()
		if len(cmd.Groups()) == 0 {
			writeCommands(buf, titleStyle, "Available Commands:", cmds, listed)
		} else {
			ungrouped := false
			for _, group := range cmd.Groups() {
				writeCommands(buf, groupTitleStyle, group.Title, cmds, func(c *cobra.Command) bool {
					return c.GroupID == group.ID && listed(c)
				})
			}
			for _, c := range cmds {
				if c.GroupID == "" && c.IsAvailableCommand() {
					ungrouped = true
				}
			}
			if ungrouped {
				writeCommands(buf, titleStyle, "Additional Commands:", cmds, func(c *cobra.Command) bool {
					return c.GroupID == "" && listed(c)
				})
			}
		}
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprint(buf, "\n\n")
		titleStyle.Fprint(buf, "Flags:")
		fmt.Fprint(buf, "\n")
		buf.Write(colorFlags(trimRightSpace(cmd.LocalFlags().FlagUsages())))
	}

	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprint(buf, "\n")
		titleStyle.Fprint(buf, "Global Flags:")
		fmt.Fprint(buf, "\n")
		buf.Write(colorFlags(trimRightSpace(cmd.InheritedFlags().FlagUsages())))
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprint(buf, "\n")
		tipStyle.Fprintf(buf, "Use \"%s [command] --help\" for more information about a command.", cmd.CommandPath())
		fmt.Fprintln(buf)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func ColorHelpFunc(c *cobra.Command, _ []string) {
	ColorUsageFunc(c.OutOrStdout(), c)
}
