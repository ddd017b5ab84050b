// Package restapi implements the service.Service interface over the todo HTTP API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"todopro/internal/config"
	"todopro/internal/metrics"
	"todopro/internal/service"
)

// API paths, relative to the configured base URL.
const (
	pathTodos    = "api/todos"
	pathTodo     = "api/todos/{id}"
	pathToggle   = "api/todos/{id}/toggle"
	pathMe       = "api/auth/me"
	pathLogin    = "api/auth/login"
	pathRegister = "api/auth/register"
)

// Client implements service.Service against the todo REST API.
type Client struct {
	basePath string
	timeout  time.Duration

	// authed adds the bearer token from the token source to every request.
	authed *http.Client
	// anon is used for login and register, which have no token yet.
	anon *http.Client
}

var _ service.Service = (*Client)(nil)

// New creates a client for cfg.APIURL. tokens supplies the bearer credential
// for every authenticated request; m may be nil.
func New(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, m *metrics.Metrics) *Client {
	return NewWithHTTPClient(ctx, cfg, tokens, &http.Client{
		Transport: m.InstrumentRoundTripper(http.DefaultTransport),
	})
}

// NewWithHTTPClient creates a client that sends requests through base.
func NewWithHTTPClient(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, base *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return &Client{
		basePath: cfg.APIURL,
		timeout:  timeout,
		authed:   oauth2.NewClient(ctx, tokens),
		anon:     base,
	}
}

// CurrentUser implements service.Service.
func (c *Client) CurrentUser(ctx context.Context) (service.User, error) {
	var u userJSON
	if err := c.do(ctx, c.authed, "get user", http.MethodGet, pathMe, nil, nil, &u); err != nil {
		return service.User{}, err
	}
	return u.toUser(), nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var list []taskJSON
	if err := c.do(ctx, c.authed, "list tasks", http.MethodGet, pathTodos, nil, nil, &list); err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(list))
	for _, t := range list {
		result = append(result, t.toTask())
	}
	return result, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	var t taskJSON
	if err := c.do(ctx, c.authed, "create task", http.MethodPost, pathTodos, nil, newTaskInputJSON(in), &t); err != nil {
		return service.Task{}, err
	}
	return t.toTask(), nil
}

// ToggleTask implements service.Service.
func (c *Client) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	var t taskJSON
	if err := c.do(ctx, c.authed, "toggle task", http.MethodPatch, pathToggle, idParam(id), nil, &t); err != nil {
		return service.Task{}, err
	}
	return t.toTask(), nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	var t taskJSON
	if err := c.do(ctx, c.authed, "update task", http.MethodPut, pathTodo, idParam(id), newTaskInputJSON(in), &t); err != nil {
		return service.Task{}, err
	}
	return t.toTask(), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, c.authed, "delete task", http.MethodDelete, pathTodo, idParam(id), nil, nil)
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, creds service.Credentials) (service.Session, error) {
	body := credentialsJSON{Name: creds.Name, Email: creds.Email, Password: creds.Password}
	return c.authenticate(ctx, "register", pathRegister, body)
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.Session, error) {
	body := credentialsJSON{Email: creds.Email, Password: creds.Password}
	return c.authenticate(ctx, "log in", pathLogin, body)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body credentialsJSON) (service.Session, error) {
	var resp authResponseJSON
	if err := c.do(ctx, c.anon, op, http.MethodPost, path, nil, body, &resp); err != nil {
		return service.Session{}, err
	}
	if resp.Token == "" {
		return service.Session{}, &service.Error{Kind: service.KindServer, Op: op, Message: "no token in response"}
	}
	s := service.Session{Token: resp.Token}
	if resp.User != nil {
		s.User = resp.User.toUser()
	}
	return s, nil
}

func idParam(id string) map[string]string {
	return map[string]string{"id": id}
}

// do sends one JSON request and decodes the response into out.
// path may contain {name} placeholders filled from params.
func (c *Client) do(ctx context.Context, hc *http.Client, op, method, path string, params map[string]string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	urls := googleapi.ResolveRelative(c.basePath, path)
	req, err := http.NewRequestWithContext(ctx, method, urls, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if params != nil {
		googleapi.Expand(req.URL, params)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := hc.Do(req)
	if err != nil {
		return wrapError(op, err)
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		return wrapError(op, err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &service.Error{Kind: service.KindServer, Op: op, Message: "invalid response from server", Err: err}
	}
	return nil
}

// wrapError maps transport and HTTP errors into the service error taxonomy.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	// The token source already speaks the taxonomy.
	var se *service.Error
	if errors.As(err, &se) {
		if se.Op != "" {
			return se
		}
		cp := *se
		cp.Op = op
		return &cp
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg, fields := parseErrorBody(gerr.Body)
		kind := service.KindServer
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = service.KindAuth
		case http.StatusNotFound:
			kind = service.KindNotFound
		}
		return &service.Error{
			Kind:    kind,
			Op:      op,
			Message: msg,
			Fields:  fields,
			Err:     fmt.Errorf("HTTP %d %s", gerr.Code, http.StatusText(gerr.Code)),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &service.Error{Kind: service.KindNetwork, Op: op, Message: "request timed out", Err: err}
	}
	return &service.Error{Kind: service.KindNetwork, Op: op, Err: err}
}
