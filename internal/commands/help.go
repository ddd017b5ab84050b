package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todopro help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	writeHelp(out, DefaultRegistry)
	return exitcode.Success
}

func writeHelp(out io.Writer, r *Registry) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  todopro                      List all tasks")
	for _, cmd := range r.All() {
		fmt.Fprintf(out, "  %s\n", cmd.Usage())
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "      %s\n", line)
	}
	fmt.Fprint(out, commonFlagsText)
}

const commonFlagsText = `
Task references:
  <n>    number shown by "todopro list" with no flags
  <id>   task ID

Common flags:
  --config <dir>    Override config directory
  --api-url <url>   Override the API base URL
  --quiet, -q       Suppress informational output
  --debug           Print debug logs to stderr
`
