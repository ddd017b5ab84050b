package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/service"
	"todopro/internal/ui"
)

func init() {
	Register(&DashCmd{})
}

// DashCmd implements the dash command: the interactive dashboard.
type DashCmd struct{}

func (c *DashCmd) Name() string      { return "dash" }
func (c *DashCmd) Aliases() []string { return []string{"tui"} }
func (c *DashCmd) Synopsis() string  { return "Open the interactive dashboard" }
func (c *DashCmd) Usage() string     { return "todopro dash" }
func (c *DashCmd) NeedsAuth() bool   { return true }

func (c *DashCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DashCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	vm := newModel(ctx, cfg, svc)
	defer vm.Close()

	if err := ui.Run(ctx, vm); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if ctx.Err() != nil {
		// Interrupted: Close retracts what is still undoable.
		return exitcode.Success
	}

	// Quitting keeps deletions the user did not undo.
	if err := vm.Flush(context.WithoutCancel(ctx)); err != nil {
		return reportError(errOut, err)
	}
	return exitcode.Success
}
