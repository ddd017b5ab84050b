package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"todopro/internal/commands"
	"todopro/internal/config"
	"todopro/internal/exitcode"
	"todopro/internal/service"
	"todopro/internal/session"
	"todopro/internal/testutil"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestLoginCommand_WithFlags(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	svc := testutil.NewFakeService()
	cfg := newConfig(t, false)

	stdout, stderr, code := runWithFlags(t, &commands.LoginCmd{}, svc, cfg, "--email", "ada@example.com", "--password", "secret123")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "Logged in as Ada\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !session.NewStore(cfg.TokenPath()).Valid() {
		t.Error("expected a stored session")
	}
	if got := svc.Calls(); len(got) != 1 || got[0] != "Login ada@example.com" {
		t.Errorf("unexpected calls %v", got)
	}
}

func TestLoginCommand_Prompts(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	svc := testutil.NewFakeService()
	cfg := newConfig(t, true)

	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader("ada@example.com\nsecret123\n"))
	stdout, stderr, code := runCommandWith(t, t.Context(), cmd, svc, cfg, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
	if stderr != "Email: Password: " {
		t.Errorf("unexpected prompts %q", stderr)
	}
}

func TestLoginCommand_PasswordFromEnv(t *testing.T) {
	t.Setenv(config.EnvPassword, "secret123")
	svc := testutil.NewFakeService()

	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader(""))
	_, stderr, code := runWithFlags(t, cmd, svc, newConfig(t, false), "--email", "ada@example.com")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no prompt, got %q", stderr)
	}
}

func TestLoginCommand_MissingInput(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	svc := testutil.NewFakeService()

	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader(""))
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "error: reading Email") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(svc.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", svc.Calls())
	}
}

func TestLoginCommand_AlreadyLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	cfg := newConfig(t, false)
	if _, err := session.NewStore(cfg.TokenPath()).Save(signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	stdout, _, code := runCommandWith(t, t.Context(), &commands.LoginCmd{}, svc, cfg, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "already logged in\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if len(svc.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", svc.Calls())
	}
}

// TestLoginCommand_ExpiredToken verifies login proceeds when the stored token has expired
func TestLoginCommand_ExpiredToken(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	svc := testutil.NewFakeService()
	cfg := newConfig(t, false)
	if _, err := session.NewStore(cfg.TokenPath()).Save(signedToken(t, time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	stdout, _, code := runWithFlags(t, &commands.LoginCmd{}, svc, cfg, "--email", "ada@example.com", "--password", "secret123")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "Logged in as Ada\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	tok, err := session.NewStore(cfg.TokenPath()).Token()
	if err != nil || tok.AccessToken != testutil.FakeToken {
		t.Errorf("expected the new token to be stored, got %v, %v", tok, err)
	}
}

func TestLoginCommand_Rejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
		code int
	}{
		{"bad credentials", &service.Error{Kind: service.KindServer, Message: "Invalid credentials"}, "error: Invalid credentials\n", exitcode.AuthError},
		{"no message", &service.Error{Kind: service.KindServer}, "error: Login failed\n", exitcode.AuthError},
		{"network", &service.Error{Kind: service.KindNetwork, Message: "request timed out"}, "error: request timed out\n", exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvPassword, "")
			svc := testutil.NewFakeService()
			svc.LoginErr = tt.err
			cfg := newConfig(t, false)

			_, stderr, code := runWithFlags(t, &commands.LoginCmd{}, svc, cfg, "--email", "ada@example.com", "--password", "wrong")

			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
			if session.NewStore(cfg.TokenPath()).Exists() {
				t.Error("expected no token to be stored")
			}
		})
	}
}

func TestRegisterCommand_Success(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	svc := testutil.NewFakeService()
	cfg := newConfig(t, false)

	stdout, _, code := runWithFlags(t, &commands.RegisterCmd{}, svc, cfg,
		"--name", "Bob", "--email", "bob@example.com", "--password", "hunter22")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "Registered and logged in as Bob\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !session.NewStore(cfg.TokenPath()).Valid() {
		t.Error("expected a stored session")
	}
}

func TestRegisterCommand_PromptsForName(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	svc := testutil.NewFakeService()

	cmd := &commands.RegisterCmd{}
	cmd.SetInput(strings.NewReader("  Bob  \n"))
	_, stderr, code := runWithFlags(t, cmd, svc, newConfig(t, true), "--email", "bob@example.com", "--password", "hunter22")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "Name: " {
		t.Errorf("unexpected prompts %q", stderr)
	}
}

func TestRegisterCommand_FieldErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"fields joined",
			&service.Error{Kind: service.KindServer, Message: "Validation failed", Fields: []service.FieldError{
				{Field: "name", Message: "Name is required"},
				{Field: "password", Message: "Password must be at least 6 characters"},
			}},
			"error: Name is required, Password must be at least 6 characters\n",
		},
		{"message", &service.Error{Kind: service.KindServer, Message: "User already exists"}, "error: User already exists\n"},
		{"fallback", &service.Error{Kind: service.KindServer}, "error: Registration failed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.RegisterErr = tt.err

			_, stderr, code := runWithFlags(t, &commands.RegisterCmd{}, svc, newConfig(t, false),
				"--name", "x", "--email", "bob@example.com", "--password", "123")

			if code != exitcode.AuthError {
				t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

// TestLogoutCommand_OnlyRemovesToken verifies logout removes token.json but keeps config.toml
func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cfg := newConfig(t, false)
	if _, err := session.NewStore(cfg.TokenPath()).Save(signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
	configPath := filepath.Join(cfg.Dir, config.ConfigFile)
	if err := os.WriteFile(configPath, []byte(`api_url = "http://localhost:5000"`), 0600); err != nil {
		t.Fatalf("failed to write config.toml: %v", err)
	}

	stdout, stderr, code := runCommandWith(t, t.Context(), &commands.LogoutCmd{}, nil, cfg, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Logged out\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if _, err := os.Stat(cfg.TokenPath()); !os.IsNotExist(err) {
		t.Error("token.json should be removed")
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Error("config.toml should not be removed")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout when not logged in
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "not logged in\n" {
		t.Errorf("expected 'not logged in', got %q", stdout)
	}
}

// TestLogoutCommand_NotLoggedInQuiet verifies logout in quiet mode when not logged in
func TestLogoutCommand_NotLoggedInQuiet(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.LogoutCmd{}, nil, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}
