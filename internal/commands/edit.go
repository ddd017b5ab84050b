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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Fields without a flag keep their
// current value.
type EditCmd struct {
	text     string
	priority string
	due      string
	noDue    bool
}

// SetFields sets the edit flags (for testing).
func (c *EditCmd) SetFields(text, priority, due string, noDue bool) {
	c.text, c.priority, c.due, c.noDue = text, priority, due, noDue
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's text, priority or due date" }
func (c *EditCmd) Usage() string {
	return "todopro edit [--text <text>] [--priority low|medium|high] [--due YYYY-MM-DD | --no-due] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.text, "text", "", "")
	fs.StringVar(&c.text, "t", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.due, "d", "", "")
	fs.BoolVar(&c.noDue, "no-due", false, "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.due != "" && c.noDue {
		fmt.Fprintln(errOut, "error: cannot use both --due and --no-due")
		return exitcode.UserError
	}
	if c.text == "" && c.priority == "" && c.due == "" && !c.noDue {
		fmt.Fprintln(errOut, "error: nothing to change (use --text, --priority, --due or --no-due)")
		return exitcode.UserError
	}

	vm := newModel(ctx, cfg, svc)
	defer vm.Close()

	task, code := lookupTask(ctx, vm, args, errOut)
	if code != exitcode.Success {
		return code
	}

	vm.StartEdit(task.ID)
	edit, _ := vm.Editing()
	in := edit.EditInput
	if c.text != "" {
		in.Text = c.text
	}
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			vm.CancelEdit()
			return reportError(errOut, err)
		}
		in.Priority = p
	}
	switch {
	case c.noDue:
		in.DueDate = ""
	case c.due != "":
		in.DueDate = c.due
	}
	vm.UpdateEdit(in)

	if _, err := vm.SaveEdit(ctx); err != nil {
		return reportError(errOut, err)
	}
	printNotifications(vm, cfg, out)
	return exitcode.Success
}
