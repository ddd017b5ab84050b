// Package session stores the bearer token issued at login and hands it
// to the API client as an oauth2.TokenSource.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"todopro/internal/service"
)

// ErrNotLoggedIn is returned when no token is stored.
var ErrNotLoggedIn = &service.Error{Kind: service.KindAuth, Message: "not logged in (run: todopro login)"}

// ErrExpired is returned when the stored token has expired.
var ErrExpired = &service.Error{Kind: service.KindAuth, Message: "session expired (run: todopro login)"}

// Store persists the session token in a file.
// It implements oauth2.TokenSource so every API request reads the
// current credential instead of a copy captured at startup.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.path
}

// Save stores token with mode 0600. If the token is a JWT its "exp"
// claim becomes the expiry; the signature is not verified here.
func (s *Store) Save(token string) (*oauth2.Token, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	tok := &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      expiryOf(token),
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return tok, nil
}

// Load reads the stored token without checking expiry.
func (s *Store) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, &service.Error{Kind: service.KindAuth, Message: "invalid token file (run: todopro login)", Err: err}
	}
	if tok.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}
	return &tok, nil
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	tok, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !tok.Expiry.IsZero() && !s.now().Before(tok.Expiry) {
		return nil, ErrExpired
	}
	return tok, nil
}

// Valid reports whether a usable token is stored.
func (s *Store) Valid() bool {
	_, err := s.Token()
	return err == nil
}

// Exists reports whether a token file exists, valid or not.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear deletes the token file.
func (s *Store) Clear() error {
	return os.Remove(s.path)
}

// Subject returns the "sub" claim of a stored JWT, or "" if unavailable.
func (s *Store) Subject() string {
	tok, err := s.Load()
	if err != nil {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

func expiryOf(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque token: the server decides when it expires.
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
