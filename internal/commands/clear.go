package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/service"
	"todopro/internal/viewmodel"
)

func init() {
	Register(&ClearCmd{})
}

// ClearCmd implements the clear command.
type ClearCmd struct {
	yes bool
	in  io.Reader
}

// SetInput sets where the confirmation is read from (for testing).
func (c *ClearCmd) SetInput(r io.Reader) {
	c.in = r
}

// SetYes sets the --yes flag (for testing).
func (c *ClearCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *ClearCmd) Name() string      { return "clear" }
func (c *ClearCmd) Aliases() []string { return []string{"clear-completed"} }
func (c *ClearCmd) Synopsis() string  { return "Delete all completed tasks" }
func (c *ClearCmd) Usage() string     { return "todopro clear [--yes]" }
func (c *ClearCmd) NeedsAuth() bool   { return true }

func (c *ClearCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *ClearCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	vm := newModel(ctx, cfg, svc)
	defer vm.Close()
	if err := vm.Load(ctx); err != nil {
		return reportError(errOut, err)
	}

	confirm := func(n int) bool {
		if c.yes {
			return true
		}
		return newPrompter(c.in, errOut).confirm(fmt.Sprintf("Clear %d completed task(s)?", n))
	}

	n, err := vm.ClearCompleted(ctx, confirm)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", viewmodel.MsgClearFailed)
		return exitcode.FromError(err)
	}
	printNotifications(vm, cfg, out)
	if n == 0 && !c.yes && !cfg.Quiet && vm.Stats().Done > 0 {
		fmt.Fprintln(out, "cancelled")
	}
	return exitcode.Success
}
