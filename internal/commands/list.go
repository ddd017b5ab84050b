package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/output"
	"todopro/internal/projection"
	"todopro/internal/service"
	"todopro/internal/viewmodel"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todopro` (no args) and `todopro list [flags] [search...]`.
type ListCmd struct {
	filter string
	sortBy string
	search string

	now func() time.Time
}

// SetNow fixes the reference time for due dates (for testing).
func (c *ListCmd) SetNow(now func() time.Time) {
	c.now = now
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks with stats" }
func (c *ListCmd) Usage() string {
	return "todopro list [--filter all|pending|done] [--sort created|due|priority] [--search <text>]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
	fs.StringVar(&c.sortBy, "sort", "", "")
	fs.StringVar(&c.sortBy, "s", "", "")
	fs.StringVar(&c.search, "search", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	filter, err := projection.ParseFilter(c.filter)
	if err != nil {
		return reportError(errOut, err)
	}
	sortBy, err := projection.ParseSortBy(c.sortBy)
	if err != nil {
		return reportError(errOut, err)
	}

	// Positional words search when --search is absent.
	query := c.search
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	vm := newModel(ctx, cfg, svc, viewmodel.WithClock(now))
	defer vm.Close()
	if err := vm.Load(ctx); err != nil {
		return reportError(errOut, err)
	}

	numbers := taskNumbers(vm.Tasks())
	vm.SetFilter(filter)
	vm.SetQuery(query)
	vm.SetSortBy(sortBy)

	if !cfg.Quiet {
		output.FormatStats(out, vm.Stats())
	}

	visible := vm.Visible()
	if len(visible) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	at := now()
	for _, task := range visible {
		output.FormatTask(out, numbers[task.ID], task, at)
	}
	return exitcode.Success
}
