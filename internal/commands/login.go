package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/logging"
	"todopro/internal/service"
	"todopro/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
	in       io.Reader
}

// SetInput sets where prompts are answered from (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session token" }
func (c *LoginCmd) Usage() string     { return "todopro login [--email <email>] [--password <password>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	store := session.NewStore(cfg.TokenPath())
	if store.Valid() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	creds, err := gatherCredentials(c.in, errOut, service.Credentials{Email: c.email, Password: c.password}, false)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	s, err := svc.Login(ctx, creds)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", credentialError(err, "Login failed"))
		return credentialExitCode(err)
	}
	return saveSession(ctx, store, s, cfg, out, errOut, "Logged in")
}

// gatherCredentials fills in missing fields, trying TODOPRO_PASSWORD for
// the password before prompting.
func gatherCredentials(in io.Reader, errOut io.Writer, creds service.Credentials, needName bool) (service.Credentials, error) {
	if creds.Password == "" {
		creds.Password = os.Getenv(config.EnvPassword)
	}

	var p *prompter
	ask := func(label string, dst *string) error {
		if strings.TrimSpace(*dst) != "" {
			return nil
		}
		if p == nil {
			p = newPrompter(in, errOut)
		}
		answer, err := p.ask(label)
		if err != nil {
			return err
		}
		*dst = answer
		return nil
	}

	if needName {
		if err := ask("Name: ", &creds.Name); err != nil {
			return creds, err
		}
	}
	if err := ask("Email: ", &creds.Email); err != nil {
		return creds, err
	}
	if err := ask("Password: ", &creds.Password); err != nil {
		return creds, err
	}
	creds.Email = strings.TrimSpace(creds.Email)
	creds.Name = strings.TrimSpace(creds.Name)
	return creds, nil
}

// credentialError is the message for a failed login or registration: all
// field messages joined, else the server message, else fallback.
func credentialError(err error, fallback string) string {
	var se *service.Error
	if errors.As(err, &se) {
		if msg := service.JoinFieldMessages(se.Fields); msg != "" {
			return msg
		}
	}
	if service.KindOf(err) == service.KindNetwork {
		return errorMessage(err)
	}
	return service.UserMessage(err, fallback)
}

func credentialExitCode(err error) int {
	if service.KindOf(err) == service.KindNetwork {
		return exitcode.BackendError
	}
	return exitcode.AuthError
}

// saveSession stores the token of a fresh session.
func saveSession(ctx context.Context, store *session.Store, s service.Session, cfg *config.Config, out, errOut io.Writer, verb string) int {
	tok, err := store.Save(s.Token)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	logging.FromContext(ctx).Debug("session saved", "path", store.Path(), "expiry", tok.Expiry)

	if !cfg.Quiet {
		if s.User.Name != "" {
			fmt.Fprintf(out, "%s as %s\n", verb, s.User.Name)
		} else {
			fmt.Fprintln(out, "ok")
		}
	}
	return exitcode.Success
}
