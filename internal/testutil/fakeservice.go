// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"todopro/internal/service"
)

// FakeUser is the account FakeService reports as logged in.
var FakeUser = service.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	user   service.User
	tasks  []service.Task
	nextID int
	clock  time.Time
	calls  []string

	// Error injection for testing
	CurrentUserErr error
	ListTasksErr   error
	CreateTaskErr  error
	ToggleTaskErr  error
	UpdateTaskErr  error
	DeleteTaskErr  error
	DeleteErrs     map[string]error // taskID -> error
	RegisterErr    error
	LoginErr       error

	// BeforeDelete, if set, runs at the start of every DeleteTask call
	// without the lock held. Tests use it to block or observe commits.
	BeforeDelete func(ctx context.Context, id string)
}

// NewFakeService creates a new FakeService with no tasks.
func NewFakeService() *FakeService {
	return &FakeService{
		user:       FakeUser,
		DeleteErrs: make(map[string]error),
		clock:      time.Date(2026, 1, 1, 9, 0, 0, 0, time.Local),
	}
}

// AddTask adds a task and returns it. Each task is created one minute
// after the previous one, so newest-first order is the reverse of insertion.
func (f *FakeService) AddTask(text string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(service.Task{Text: text, Completed: completed, Priority: service.DefaultPriority})
}

// Put adds t as is, keeping its ID and timestamps.
func (f *FakeService) Put(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
}

func (f *FakeService) insert(t service.Task) service.Task {
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	t.ID = fmt.Sprintf("t%d", f.nextID)
	t.CreatedAt = f.clock
	t.UpdatedAt = f.clock
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Has reports whether a task with id is stored.
func (f *FakeService) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(id) >= 0
}

// Calls returns the recorded calls, e.g. "DeleteTask t1".
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CountCalls returns how many recorded calls start with prefix.
func (f *FakeService) CountCalls(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeService) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *FakeService) find(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound(op string) error {
	return &service.Error{Kind: service.KindNotFound, Op: op, Message: "Todo not found"}
}

// CurrentUser implements service.Service.
func (f *FakeService) CurrentUser(ctx context.Context) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CurrentUser")
	if f.CurrentUserErr != nil {
		return service.User{}, f.CurrentUserErr
	}
	return f.user, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return append([]service.Task(nil), f.tasks...), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask " + in.Text)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	return f.insert(service.Task{Text: in.Text, Priority: in.Priority, DueDate: in.DueDate}), nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ToggleTask " + id)
	if f.ToggleTaskErr != nil {
		return service.Task{}, f.ToggleTaskErr
	}
	i := f.find(id)
	if i < 0 {
		return service.Task{}, notFound("toggle task")
	}
	f.tasks[i].Completed = !f.tasks[i].Completed
	return f.tasks[i], nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask " + id)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	i := f.find(id)
	if i < 0 {
		return service.Task{}, notFound("update task")
	}
	f.tasks[i].Text = in.Text
	f.tasks[i].Priority = in.Priority
	f.tasks[i].DueDate = in.DueDate
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	if f.BeforeDelete != nil {
		f.BeforeDelete(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask " + id)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	if err := f.DeleteErrs[id]; err != nil {
		return err
	}
	i := f.find(id)
	if i < 0 {
		return notFound("delete task")
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, creds service.Credentials) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Register " + creds.Email)
	if f.RegisterErr != nil {
		return service.Session{}, f.RegisterErr
	}
	f.user = service.User{ID: "u2", Name: creds.Name, Email: creds.Email}
	return service.Session{Token: FakeToken, User: f.user}, nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login " + creds.Email)
	if f.LoginErr != nil {
		return service.Session{}, f.LoginErr
	}
	return service.Session{Token: FakeToken, User: f.user}, nil
}
