package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles, so running it on a
// completed task reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task between pending and done" }
func (c *DoneCmd) Usage() string     { return "todopro done <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	vm := newModel(ctx, cfg, svc)
	defer vm.Close()

	task, code := lookupTask(ctx, vm, args, errOut)
	if code != exitcode.Success {
		return code
	}

	updated, err := vm.Toggle(ctx, task.ID)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		state := "pending"
		if updated.Completed {
			state = "done"
		}
		fmt.Fprintf(out, "%s: %s\n", state, updated.Text)
	}
	return exitcode.Success
}
