// Package commands provides the command interface and implementations.
package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/metrics"
	"todopro/internal/service"
	"todopro/internal/viewmodel"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a stored session.
	// Commands like help, version, login, register and logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, API URL, undo window).
	// svc talks to the remote store; the dispatcher only builds it after
	// the session check passes for commands that need auth.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// newModel builds the view-model a single command run works on.
func newModel(ctx context.Context, cfg *config.Config, svc service.Service, opts ...viewmodel.Option) *viewmodel.Model {
	base := []viewmodel.Option{
		viewmodel.WithUndoWindow(cfg.UndoWindow),
		viewmodel.WithMetrics(metrics.FromContext(ctx)),
	}
	return viewmodel.New(ctx, svc, append(base, opts...)...)
}

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %s\n", errorMessage(err))
	return exitcode.FromError(err)
}

func errorMessage(err error) string {
	msg := service.UserMessage(err, "")
	if msg == "" {
		msg = err.Error()
	}
	if service.KindOf(err) == service.KindAuth && !strings.Contains(msg, "todopro login") {
		msg += " (run: todopro login)"
	}
	return msg
}

// printNotifications writes the queued informational notifications, one
// per line. Errors are reported by the command through reportError.
func printNotifications(vm *viewmodel.Model, cfg *config.Config, out io.Writer) {
	for {
		select {
		case n := <-vm.Notifications():
			if n.Dismiss || n.Level == viewmodel.LevelError || cfg.Quiet {
				continue
			}
			fmt.Fprintln(out, n.Message)
		default:
			return
		}
	}
}

// prompter reads answers from an interactive input.
type prompter struct {
	r      *bufio.Reader
	errOut io.Writer
}

func newPrompter(in io.Reader, errOut io.Writer) *prompter {
	if in == nil {
		in = os.Stdin
	}
	return &prompter{r: bufio.NewReader(in), errOut: errOut}
}

// ask prints label and returns the trimmed answer line.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.errOut, label)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) confirm(question string) bool {
	answer, err := p.ask(question + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}
