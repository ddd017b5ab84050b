package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// FakeToken is the bearer token accepted by FakeServer.
const FakeToken = "fake-token"

// ServerTask is a task as stored by FakeServer, in wire form.
type ServerTask struct {
	ID        string     `json:"_id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"dueDate"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type serverUser struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	password string
}

type failure struct {
	status int
	body   string
}

// FakeServer is an in-memory todo API served over httptest.
type FakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]*serverUser // email -> user
	current  *serverUser
	tasks    []ServerTask
	failures map[string]failure // "METHOD /path" -> response
	requests []string
	clock    time.Time
}

// NewFakeServer starts a server with one account (ada@example.com / secret123)
// that FakeToken belongs to. It is closed when the test ends.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()
	s := &FakeServer{
		users:    make(map[string]*serverUser),
		failures: make(map[string]failure),
		clock:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	s.current = s.addUser("Ada", "ada@example.com", "secret123")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("GET /api/todos", s.authed(s.handleList))
	mux.HandleFunc("POST /api/todos", s.authed(s.handleCreate))
	mux.HandleFunc("PATCH /api/todos/{id}/toggle", s.authed(s.handleToggle))
	mux.HandleFunc("PUT /api/todos/{id}", s.authed(s.handleUpdate))
	mux.HandleFunc("DELETE /api/todos/{id}", s.authed(s.handleDelete))

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

func (s *FakeServer) addUser(name, email, password string) *serverUser {
	u := &serverUser{ID: uuid.NewString(), Name: name, Email: email, password: password}
	s.users[strings.ToLower(email)] = u
	return u
}

// AddTask stores a task and returns its id. Each call is one second newer
// than the previous one.
func (s *FakeServer) AddTask(text string, completed bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ServerTask{Text: text, Completed: completed, Priority: "medium"}).ID
}

func (s *FakeServer) insert(t ServerTask) ServerTask {
	s.clock = s.clock.Add(time.Second)
	t.ID = uuid.NewString()
	t.CreatedAt = s.clock
	t.UpdatedAt = s.clock
	s.tasks = append(s.tasks, t)
	return t
}

// Tasks returns a copy of the stored tasks.
func (s *FakeServer) Tasks() []ServerTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ServerTask(nil), s.tasks...)
}

// Fail makes every request matching method and path answer with status
// and body until ClearFailures is called.
func (s *FakeServer) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// ClearFailures removes all injected failures.
func (s *FakeServer) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Requests returns "METHOD /path" for every request received.
func (s *FakeServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *FakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, key)
		f, failing := s.failures[key]
		s.mu.Unlock()
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			fmt.Fprint(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, token failed"})
			return
		}
		h(w, r)
	}
}

func (s *FakeServer) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.current)
}

func (s *FakeServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(body.Email)]
	if !ok || u.password != body.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid credentials"})
		return
	}
	s.current = u
	writeJSON(w, http.StatusOK, map[string]any{"token": FakeToken, "user": u})
}

func (s *FakeServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct{ Name, Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	var errs []map[string]string
	if strings.TrimSpace(body.Name) == "" {
		errs = append(errs, map[string]string{"msg": "Name is required", "path": "name"})
	}
	if len(body.Password) < 6 {
		errs = append(errs, map[string]string{"msg": "Password must be at least 6 characters", "path": "password"})
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[strings.ToLower(body.Email)]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
		return
	}
	s.current = s.addUser(body.Name, body.Email, body.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"token": FakeToken, "user": s.current})
}

func (s *FakeServer) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tasks())
}

type taskBody struct {
	Text     string     `json:"text"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"dueDate"`
}

func (b taskBody) validate(w http.ResponseWriter) bool {
	if strings.TrimSpace(b.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  []map[string]string{{"message": "Text is required", "field": "text"}},
		})
		return false
	}
	return true
}

func (s *FakeServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	if !body.validate(w) {
		return
	}
	s.mu.Lock()
	t := s.insert(ServerTask{Text: body.Text, Priority: body.Priority, DueDate: body.DueDate})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (s *FakeServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Todo not found"})
		return
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	writeJSON(w, http.StatusOK, s.tasks[i])
}

func (s *FakeServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	if !body.validate(w) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Todo not found"})
		return
	}
	s.tasks[i].Text = body.Text
	s.tasks[i].Priority = body.Priority
	s.tasks[i].DueDate = body.DueDate
	writeJSON(w, http.StatusOK, s.tasks[i])
}

func (s *FakeServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Todo not found"})
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
}

func (s *FakeServer) find(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
