package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/service"
	"todopro/internal/session"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command. A new account is logged in
// straight away.
type RegisterCmd struct {
	name     string
	email    string
	password string
	in       io.Reader
}

// SetInput sets where prompts are answered from (for testing).
func (c *RegisterCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "todopro register [--name <name>] [--email <email>] [--password <password>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	creds, err := gatherCredentials(c.in, errOut, service.Credentials{Name: c.name, Email: c.email, Password: c.password}, true)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	s, err := svc.Register(ctx, creds)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", credentialError(err, "Registration failed"))
		return credentialExitCode(err)
	}
	return saveSession(ctx, session.NewStore(cfg.TokenPath()), s, cfg, out, errOut, "Registered and logged in")
}
