// Package viewmodel holds the dashboard state: the authoritative task list,
// the projection inputs and the optimistic mutations on top of a
// service.Service.
//
// All methods are safe for concurrent use. Remote calls are made without
// the lock held; when two operations on the same task race, the last
// response to arrive wins.
package viewmodel

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"todopro/internal/config"
	"todopro/internal/logging"
	"todopro/internal/metrics"
	"todopro/internal/projection"
	"todopro/internal/service"
)

// User-facing messages.
const (
	MsgLoadFailed     = "Failed to load dashboard"
	MsgAddFailed      = "Failed to add todo"
	MsgToggleFailed   = "Failed to toggle todo"
	MsgUpdateFailed   = "Failed to update todo"
	MsgTaskAdded      = "Task added"
	MsgTaskUpdated    = "Task updated"
	MsgTaskDeleted    = "Task deleted"
	MsgUndone         = "Undo successful"
	MsgDeleteFailed   = "Delete failed, restored task"
	MsgNothingToClear = "No completed tasks to clear"
	MsgCleared        = "Completed tasks cleared"
	MsgClearFailed    = "Failed to clear tasks, reloading..."
	MsgTextTooShort   = "Todo text must be at least 2 characters"
	MsgTextRequired   = "Todo text is required"
)

// MinEditLength is the minimum length of edited task text, in characters.
const MinEditLength = 2

// maxParallelDeletes bounds ClearCompleted's concurrent requests.
const maxParallelDeletes = 8

// EditInput holds the fields of an edit. DueDate is "YYYY-MM-DD" or empty.
type EditInput struct {
	Text     string
	Priority service.Priority
	DueDate  string
}

// EditState is the edit in progress.
type EditState struct {
	ID string
	EditInput
}

// Snapshot is a consistent copy of everything the presentation layer renders.
type Snapshot struct {
	User     *service.User
	Visible  []service.Task
	Stats    projection.Stats
	Filter   projection.Filter
	Query    string
	SortBy   projection.SortBy
	Error    string
	Loading  bool
	Editing  *EditState
	Pending  int
	Overdue  map[string]bool
	Now      time.Time
}

// Model is the task view-model.
type Model struct {
	svc        service.Service
	ctx        context.Context
	undoWindow time.Duration
	schedule   Scheduler
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *log.Logger

	changes chan struct{}
	notes   chan Notification

	mu       sync.Mutex
	user     *service.User
	tasks    []service.Task
	filter   projection.Filter
	query    string
	sortBy   projection.SortBy
	errMsg   string
	loading  bool
	editing  *EditState
	pending  map[string]*pendingDelete
	failed   map[string]error
	seq      int
	resolved chan struct{}
	closed   bool
}

// New creates a Model over svc. ctx carries the logger and bounds the
// lifetime of delete commits fired by undo timers.
func New(ctx context.Context, svc service.Service, opts ...Option) *Model {
	m := &Model{
		svc:        svc,
		ctx:        ctx,
		undoWindow: config.DefaultUndoWindow,
		schedule:   afterFunc,
		now:        time.Now,
		logger:     logging.FromContext(ctx),
		changes:    make(chan struct{}, 1),
		notes:      make(chan Notification, notificationBuffer),
		filter:     projection.FilterAll,
		sortBy:     projection.SortCreated,
		pending:    make(map[string]*pendingDelete),
		failed:     make(map[string]error),
		resolved:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the current user and the task list concurrently. Both must
// succeed; otherwise a *service.LoadError is returned and the state is kept.
func (m *Model) Load(ctx context.Context) error {
	m.mu.Lock()
	m.errMsg = ""
	m.loading = true
	m.mu.Unlock()
	m.changed()

	var (
		user              service.User
		tasks             []service.Task
		userErr, tasksErr error
		g                 errgroup.Group
	)
	g.Go(func() error {
		user, userErr = m.svc.CurrentUser(ctx)
		return userErr
	})
	g.Go(func() error {
		tasks, tasksErr = m.svc.ListTasks(ctx)
		return tasksErr
	})

	if g.Wait() != nil {
		err := &service.LoadError{User: userErr, Tasks: tasksErr}
		m.logger.Warn("load failed", "err", err)
		m.mu.Lock()
		m.loading = false
		m.errMsg = service.UserMessage(err, MsgLoadFailed)
		m.mu.Unlock()
		m.changed()
		m.notify(LevelError, MsgLoadFailed)
		return err
	}

	m.mu.Lock()
	m.user = &user
	m.tasks = make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		// A deletion still inside its undo window stays hidden.
		if _, ok := m.pending[t.ID]; ok {
			continue
		}
		m.tasks = append(m.tasks, t)
	}
	m.loading = false
	n := len(m.tasks)
	m.mu.Unlock()

	m.logger.Debug("loaded", "tasks", n, "user", user.Email)
	m.changed()
	return nil
}

// Add creates a task and puts the server's copy at the front of the list.
// Blank text is rejected without a request.
func (m *Model) Add(ctx context.Context, text string, priority service.Priority, due *time.Time) (service.Task, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		m.notify(LevelError, MsgTextRequired)
		return service.Task{}, service.Validationf(MsgTextRequired)
	}
	if priority == "" {
		priority = service.DefaultPriority
	}
	if !priority.Valid() {
		return service.Task{}, service.Validationf("invalid priority: %s", priority)
	}

	m.clearError()
	t, err := m.svc.CreateTask(ctx, service.TaskInput{Text: value, Priority: priority, DueDate: due})
	if err != nil {
		m.fail("add failed", err, MsgAddFailed)
		return service.Task{}, err
	}

	m.mu.Lock()
	m.removeLocked(t.ID)
	m.tasks = prepend(m.tasks, t)
	m.mu.Unlock()

	m.changed()
	m.notify(LevelSuccess, MsgTaskAdded)
	return t, nil
}

// Toggle flips a task's completed flag on the server and replaces the
// local copy with the response. There is no optimistic flip.
func (m *Model) Toggle(ctx context.Context, id string) (service.Task, error) {
	m.clearError()
	t, err := m.svc.ToggleTask(ctx, id)
	if err != nil {
		m.fail("toggle failed", err, MsgToggleFailed)
		return service.Task{}, err
	}
	m.mu.Lock()
	m.replaceLocked(t)
	m.mu.Unlock()
	m.changed()
	return t, nil
}

// Edit replaces text, priority and due date of a task. The trimmed text
// must be at least MinEditLength characters.
func (m *Model) Edit(ctx context.Context, id string, in EditInput) (service.Task, error) {
	value := strings.TrimSpace(in.Text)
	if len([]rune(value)) < MinEditLength {
		m.notify(LevelError, MsgTextTooShort)
		return service.Task{}, service.Validationf(MsgTextTooShort)
	}
	priority := in.Priority
	if priority == "" {
		priority = service.DefaultPriority
	}
	if !priority.Valid() {
		return service.Task{}, service.Validationf("invalid priority: %s", priority)
	}
	due, err := projection.ParseDateInput(in.DueDate)
	if err != nil {
		m.notify(LevelError, service.UserMessage(err, MsgUpdateFailed))
		return service.Task{}, err
	}

	t, err := m.svc.UpdateTask(ctx, id, service.TaskInput{Text: value, Priority: priority, DueDate: due})
	if err != nil {
		m.fail("update failed", err, MsgUpdateFailed)
		return service.Task{}, err
	}

	m.mu.Lock()
	m.replaceLocked(t)
	if m.editing != nil && m.editing.ID == id {
		m.editing = nil
	}
	m.mu.Unlock()

	m.changed()
	m.notify(LevelSuccess, MsgTaskUpdated)
	return t, nil
}

// StartEdit begins editing the task with id, prefilled from its current
// values. It reports false if the task is not in the list.
func (m *Model) StartEdit(id string) bool {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	t := m.tasks[i]
	p := t.Priority
	if p == "" {
		p = service.DefaultPriority
	}
	m.editing = &EditState{ID: id, EditInput: EditInput{
		Text:     t.Text,
		Priority: p,
		DueDate:  projection.FormatDateInput(t.DueDate),
	}}
	m.mu.Unlock()
	m.changed()
	return true
}

// UpdateEdit replaces the fields of the edit in progress.
func (m *Model) UpdateEdit(in EditInput) {
	m.mu.Lock()
	if m.editing != nil {
		m.editing.EditInput = in
	}
	m.mu.Unlock()
}

// SaveEdit submits the edit in progress. Without one it does nothing.
func (m *Model) SaveEdit(ctx context.Context) (service.Task, error) {
	e, ok := m.Editing()
	if !ok {
		return service.Task{}, nil
	}
	return m.Edit(ctx, e.ID, e.EditInput)
}

// CancelEdit discards the edit in progress.
func (m *Model) CancelEdit() {
	m.mu.Lock()
	m.editing = nil
	m.mu.Unlock()
	m.changed()
}

// Editing returns a copy of the edit in progress.
func (m *Model) Editing() (EditState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing == nil {
		return EditState{}, false
	}
	return *m.editing, true
}

// ClearCompleted deletes every completed task. confirm is asked with the
// count first; a nil confirm means yes. The tasks leave the list at once and
// the deletes run in parallel. If any fails the list is reloaded from the
// server. It returns the number of tasks it tried to delete.
func (m *Model) ClearCompleted(ctx context.Context, confirm func(n int) bool) (int, error) {
	m.mu.Lock()
	var completed []service.Task
	for _, t := range m.tasks {
		if t.Completed {
			completed = append(completed, t)
		}
	}
	m.mu.Unlock()

	if len(completed) == 0 {
		m.notify(LevelInfo, MsgNothingToClear)
		return 0, nil
	}
	if confirm != nil && !confirm(len(completed)) {
		return 0, nil
	}

	m.mu.Lock()
	for _, t := range completed {
		m.removeLocked(t.ID)
	}
	m.mu.Unlock()
	m.changed()

	var g errgroup.Group
	g.SetLimit(maxParallelDeletes)
	for _, t := range completed {
		g.Go(func() error {
			return m.svc.DeleteTask(ctx, t.ID)
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("clear completed failed, reloading", "err", err)
		m.notify(LevelError, MsgClearFailed)
		m.metrics.ObserveReload()
		if lerr := m.Load(ctx); lerr != nil {
			m.logger.Warn("reload after clear failed", "err", lerr)
		}
		return len(completed), err
	}

	m.logger.Debug("cleared completed", "count", len(completed))
	m.notify(LevelSuccess, MsgCleared)
	return len(completed), nil
}

// SetFilter sets the tab filter.
func (m *Model) SetFilter(f projection.Filter) {
	m.mu.Lock()
	m.filter = f
	m.mu.Unlock()
	m.changed()
}

// SetQuery sets the search text.
func (m *Model) SetQuery(q string) {
	m.mu.Lock()
	m.query = q
	m.mu.Unlock()
	m.changed()
}

// SetSortBy sets the sort key.
func (m *Model) SetSortBy(s projection.SortBy) {
	m.mu.Lock()
	m.sortBy = s
	m.mu.Unlock()
	m.changed()
}

// Visible returns the projected task list.
func (m *Model) Visible() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projectLocked()
}

// Tasks returns a copy of the authoritative list in stored order.
func (m *Model) Tasks() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Task(nil), m.tasks...)
}

// Find returns the task with id from the authoritative list.
func (m *Model) Find(id string) (service.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return service.Task{}, false
	}
	return m.tasks[i], true
}

// Stats counts the authoritative list, ignoring filter and search.
func (m *Model) Stats() projection.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return projection.ComputeStats(m.tasks)
}

// User returns the loaded user, if any.
func (m *Model) User() (service.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return service.User{}, false
	}
	return *m.user, true
}

// Snapshot returns a consistent copy of the rendered state.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	s := Snapshot{
		Visible:  m.projectLocked(),
		Stats:    projection.ComputeStats(m.tasks),
		Filter:   m.filter,
		Query:    m.query,
		SortBy:   m.sortBy,
		Error:    m.errMsg,
		Loading:  m.loading,
		Pending:  len(m.pending),
		Overdue:  make(map[string]bool),
		Now:      now,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	if m.editing != nil {
		e := *m.editing
		s.Editing = &e
	}
	for _, t := range s.Visible {
		if projection.IsOverdue(t, now) {
			s.Overdue[t.ID] = true
		}
	}
	return s
}

func (m *Model) projectLocked() []service.Task {
	return projection.Project(m.tasks, projection.Options{
		Filter: m.filter,
		Query:  m.query,
		SortBy: m.sortBy,
		Now:    m.now(),
	})
}

func (m *Model) clearError() {
	m.mu.Lock()
	m.errMsg = ""
	m.mu.Unlock()
}

// fail records a remote failure in the error banner and as a notification.
func (m *Model) fail(what string, err error, fallback string) {
	msg := service.UserMessage(err, fallback)
	m.logger.Warn(what, "err", err)
	m.mu.Lock()
	m.errMsg = msg
	m.mu.Unlock()
	m.changed()
	m.notify(LevelError, msg)
}

func (m *Model) indexLocked(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) replaceLocked(t service.Task) {
	if i := m.indexLocked(t.ID); i >= 0 {
		m.tasks[i] = t
	}
}

func (m *Model) removeLocked(id string) (service.Task, bool) {
	i := m.indexLocked(id)
	if i < 0 {
		return service.Task{}, false
	}
	t := m.tasks[i]
	m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	return t, true
}

func prepend(tasks []service.Task, t service.Task) []service.Task {
	out := make([]service.Task, 0, len(tasks)+1)
	out = append(out, t)
	return append(out, tasks...)
}
