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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
//
// The delete is sent when the undo window ends. Interrupting the command
// (Ctrl-C) inside the window undoes it; --now skips the window.
type RmCmd struct {
	now bool
}

// SetNow sets the --now flag (for testing).
func (c *RmCmd) SetNow(now bool) {
	c.now = now
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task (Ctrl-C within the undo window to undo)" }
func (c *RmCmd) Usage() string     { return "todopro rm [--now] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.now, "now", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	vm := newModel(ctx, cfg, svc)
	defer vm.Close()

	task, code := lookupTask(ctx, vm, args, errOut)
	if code != exitcode.Success {
		return code
	}
	vm.Delete(task.ID)

	if c.now {
		if err := vm.Flush(ctx); err != nil {
			fmt.Fprintf(errOut, "error: %s: %s\n", viewmodel.MsgDeleteFailed, errorMessage(err))
			return exitcode.FromError(err)
		}
	} else {
		if !cfg.Quiet {
			fmt.Fprintf(errOut, "%s: %s (Ctrl-C within %s to undo)\n", viewmodel.MsgTaskDeleted, task.Text, vm.UndoWindow())
		}
		if err := vm.Wait(ctx); err != nil {
			if vm.Undo(task.ID) {
				if !cfg.Quiet {
					fmt.Fprintln(out, viewmodel.MsgUndone)
				}
				return exitcode.Success
			}
			// Too late, the delete is already on its way.
			_ = vm.Wait(context.Background())
		}
	}

	if err := vm.CommitError(task.ID); err != nil {
		fmt.Fprintf(errOut, "error: %s: %s\n", viewmodel.MsgDeleteFailed, errorMessage(err))
		return exitcode.FromError(err)
	}
	if _, restored := vm.Find(task.ID); restored {
		fmt.Fprintf(errOut, "error: %s\n", viewmodel.MsgDeleteFailed)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
