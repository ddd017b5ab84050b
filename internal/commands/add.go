package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/projection"
	"todopro/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	priority string
	due      string
}

// SetPriority sets the priority flag (for testing).
func (c *AddCmd) SetPriority(p string) {
	c.priority = p
}

// SetDue sets the due date flag (for testing).
func (c *AddCmd) SetDue(due string) {
	c.due = due
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todopro add [--priority low|medium|high] [--due YYYY-MM-DD] <text...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.due, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}
	text := strings.Join(args, " ")

	var priority service.Priority
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return reportError(errOut, err)
		}
		priority = p
	}
	due, err := projection.ParseDateInput(c.due)
	if err != nil {
		return reportError(errOut, err)
	}

	vm := newModel(ctx, cfg, svc)
	defer vm.Close()
	if _, err := vm.Add(ctx, text, priority, due); err != nil {
		return reportError(errOut, err)
	}
	printNotifications(vm, cfg, out)
	return exitcode.Success
}
