// Package ui provides the interactive terminal dashboard.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todopro/internal/output"
	"todopro/internal/projection"
	"todopro/internal/service"
	"todopro/internal/viewmodel"
)

const (
	toastTick = 250 * time.Millisecond
	maxToasts = 3
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
	modeConfirmClear
)

type changedMsg struct{}

type noteMsg viewmodel.Notification

type tickMsg time.Time

// opDoneMsg reports the end of a remote call started from a key press.
// Failures are already on the notification stream.
type opDoneMsg struct {
	err error
}

type toast struct {
	note    viewmodel.Notification
	expires time.Time
}

// form is the add and edit form: text, due date and a cycled priority.
type form struct {
	text     textinput.Model
	due      textinput.Model
	priority service.Priority
	focus    int // 0 text, 1 due
}

func newForm() form {
	text := textinput.New()
	text.Placeholder = "What needs doing?"
	text.CharLimit = 200
	text.Width = 48
	text.Prompt = "Text: "

	due := textinput.New()
	due.Placeholder = projection.DateLayout
	due.CharLimit = len(projection.DateLayout)
	due.Width = 12
	due.Prompt = "Due:  "

	return form{text: text, due: due, priority: service.DefaultPriority}
}

func (f *form) reset(in viewmodel.EditInput) tea.Cmd {
	f.text.SetValue(in.Text)
	f.text.CursorEnd()
	f.due.SetValue(in.DueDate)
	f.priority = in.Priority
	if f.priority == "" {
		f.priority = service.DefaultPriority
	}
	f.focus = 0
	f.due.Blur()
	return f.text.Focus()
}

func (f *form) input() viewmodel.EditInput {
	return viewmodel.EditInput{
		Text:     f.text.Value(),
		Priority: f.priority,
		DueDate:  strings.TrimSpace(f.due.Value()),
	}
}

func (f *form) switchFocus() tea.Cmd {
	f.focus = 1 - f.focus
	if f.focus == 0 {
		f.due.Blur()
		return f.text.Focus()
	}
	f.text.Blur()
	return f.due.Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.text, cmd = f.text.Update(msg)
	} else {
		f.due, cmd = f.due.Update(msg)
	}
	return cmd
}

func nextPriority(p service.Priority) service.Priority {
	switch p {
	case service.PriorityLow:
		return service.PriorityMedium
	case service.PriorityMedium:
		return service.PriorityHigh
	default:
		return service.PriorityLow
	}
}

// Model is the bubbletea model of the dashboard. All task state lives in
// the view-model; Model keeps only the cursor, the open form and toasts.
type Model struct {
	ctx context.Context
	vm  *viewmodel.Model
	now func() time.Time

	snap   viewmodel.Snapshot
	cursor int
	mode   mode
	form   form
	search textinput.Model
	toasts []toast
	width  int
}

// New creates the dashboard model over vm. Remote calls use ctx.
func New(ctx context.Context, vm *viewmodel.Model) *Model {
	search := textinput.New()
	search.Placeholder = "Search tasks"
	search.Prompt = "/ "
	search.CharLimit = 100

	return &Model{
		ctx:    ctx,
		vm:     vm,
		now:    time.Now,
		snap:   vm.Snapshot(),
		form:   newForm(),
		search: search,
	}
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, vm *viewmodel.Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, vm), opts...).Run()
	if err != nil && ctx.Err() != nil {
		// Cancelled from outside, not a failure of the dashboard.
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(m.vm.Load),
		waitForChange(m.vm.Changes()),
		waitForNote(m.vm.Notifications()),
		tickCmd(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case changedMsg:
		m.refresh()
		return m, waitForChange(m.vm.Changes())
	case noteMsg:
		m.addToast(viewmodel.Notification(msg))
		return m, waitForNote(m.vm.Notifications())
	case tickMsg:
		m.expireToasts()
		return m, tickCmd()
	case opDoneMsg:
		m.refresh()
		if msg.err == nil && m.mode == modeEdit {
			if _, editing := m.vm.Editing(); !editing {
				m.mode = modeList
			}
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd, modeEdit:
			return m, m.updateForm(msg)
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeConfirmClear:
			return m, m.updateConfirm(msg)
		default:
			return m, m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "j", "down":
		if m.cursor < len(m.snap.Visible)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		m.mode = modeAdd
		return m.form.reset(viewmodel.EditInput{})
	case " ", "x":
		if t, ok := m.selected(); ok {
			return m.run(func(ctx context.Context) error {
				_, err := m.vm.Toggle(ctx, t.ID)
				return err
			})
		}
	case "e", "enter":
		if t, ok := m.selected(); ok && m.vm.StartEdit(t.ID) {
			edit, _ := m.vm.Editing()
			m.mode = modeEdit
			return m.form.reset(edit.EditInput)
		}
	case "d", "delete":
		if t, ok := m.selected(); ok {
			m.vm.Delete(t.ID)
			m.refresh()
		}
	case "u":
		m.vm.UndoLast()
		m.refresh()
	case "c":
		if m.snap.Stats.Done == 0 {
			return m.run(func(ctx context.Context) error {
				_, err := m.vm.ClearCompleted(ctx, nil)
				return err
			})
		}
		m.mode = modeConfirmClear
	case "1":
		m.setFilter(projection.FilterAll)
	case "2":
		m.setFilter(projection.FilterPending)
	case "3":
		m.setFilter(projection.FilterDone)
	case "s":
		m.vm.SetSortBy(m.snap.SortBy.Next())
		m.refresh()
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.snap.Query)
		m.search.CursorEnd()
		return m.search.Focus()
	case "r":
		return m.run(m.vm.Load)
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if m.mode == modeEdit {
			m.vm.CancelEdit()
		}
		m.mode = modeList
		m.form.text.Blur()
		m.form.due.Blur()
		return nil
	case "tab", "shift+tab":
		return m.form.switchFocus()
	case "ctrl+p":
		m.form.priority = nextPriority(m.form.priority)
		return nil
	case "enter":
		in := m.form.input()
		if m.mode == modeEdit {
			m.vm.UpdateEdit(in)
			return m.run(func(ctx context.Context) error {
				_, err := m.vm.SaveEdit(ctx)
				return err
			})
		}
		if strings.TrimSpace(in.Text) == "" {
			return nil
		}
		due, err := projection.ParseDateInput(in.DueDate)
		if err != nil {
			m.addToast(viewmodel.Notification{Level: viewmodel.LevelError, Message: service.UserMessage(err, err.Error())})
			return nil
		}
		m.mode = modeList
		return m.run(func(ctx context.Context) error {
			_, err := m.vm.Add(ctx, in.Text, in.Priority, due)
			return err
		})
	}
	return m.form.update(msg)
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.vm.SetQuery("")
		fallthrough
	case "enter":
		m.mode = modeList
		m.search.Blur()
		m.refresh()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.vm.SetQuery(m.search.Value())
	m.refresh()
	return cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	m.mode = modeList
	switch msg.String() {
	case "y", "Y":
		return m.run(func(ctx context.Context) error {
			_, err := m.vm.ClearCompleted(ctx, nil)
			return err
		})
	}
	return nil
}

func (m *Model) setFilter(f projection.Filter) {
	m.vm.SetFilter(f)
	m.refresh()
}

func (m *Model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Visible) {
		return service.Task{}, false
	}
	return m.snap.Visible[m.cursor], true
}

func (m *Model) refresh() {
	m.snap = m.vm.Snapshot()
	if m.cursor >= len(m.snap.Visible) {
		m.cursor = len(m.snap.Visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// run performs a remote call off the update loop.
func (m *Model) run(f func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: f(ctx)}
	}
}

func (m *Model) addToast(n viewmodel.Notification) {
	if n.Dismiss {
		for i, t := range m.toasts {
			if t.note.ID == n.ID {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return
	}
	d := n.Duration
	if d <= 0 {
		d = viewmodel.DefaultNotificationDuration
	}
	m.toasts = append(m.toasts, toast{note: n, expires: m.now().Add(d)})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

func (m *Model) expireToasts() {
	now := m.now()
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Before(t.expires) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func waitForNote(ch <-chan viewmodel.Notification) tea.Cmd {
	return func() tea.Msg {
		return noteMsg(<-ch)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(toastTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) View() string {
	var b strings.Builder
	s := m.snap

	name := "there"
	if s.User != nil && s.User.Name != "" {
		name = s.User.Name
	}
	b.WriteString(titleStyle.Render("Hello, " + name))
	b.WriteString("\n")
	b.WriteString(s.Stats.String())
	b.WriteString("\n")
	b.WriteString(m.filterLine())
	b.WriteString("\n\n")

	if s.Error != "" {
		b.WriteString(errorStyle.Render(s.Error))
		b.WriteString("\n\n")
	}
	if s.Loading {
		b.WriteString(faintStyle.Render("Loading..."))
		b.WriteString("\n")
	}

	if len(s.Visible) == 0 && !s.Loading {
		b.WriteString(faintStyle.Render("No tasks"))
		b.WriteString("\n")
	}
	for i, t := range s.Visible {
		b.WriteString(m.taskLine(i, t))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeAdd, modeEdit:
		b.WriteString("\n")
		b.WriteString(m.formView())
		b.WriteString("\n")
	case modeSearch:
		b.WriteString("\n")
		b.WriteString(m.search.View())
		b.WriteString("\n")
	case modeConfirmClear:
		b.WriteString("\n")
		fmt.Fprintf(&b, "Clear %d completed task(s)? [y/N]\n", s.Stats.Done)
	}

	if len(m.toasts) > 0 {
		b.WriteString("\n")
		for _, t := range m.toasts {
			b.WriteString(toastLine(t.note))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render(m.helpLine()))
	return b.String()
}

func (m *Model) filterLine() string {
	filters := []struct {
		f     projection.Filter
		label string
	}{
		{projection.FilterAll, "1 All"},
		{projection.FilterPending, "2 Pending"},
		{projection.FilterDone, "3 Done"},
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.f == m.snap.Filter {
			parts = append(parts, activeStyle.Render(f.label))
		} else {
			parts = append(parts, f.label)
		}
	}
	line := strings.Join(parts, "  ") + "   Sort: " + m.snap.SortBy.Label()
	if m.snap.Query != "" {
		line += "   Search: " + m.snap.Query
	}
	return line
}

func (m *Model) taskLine(i int, t service.Task) string {
	check := "[ ]"
	text := t.Text
	if t.Completed {
		check = "[x]"
		text = doneStyle.Render(text)
	}
	prio := output.PriorityLabel(t.Priority)
	if st, ok := priorityStyles[prio]; ok {
		prio = st.Render(prio)
	}
	line := fmt.Sprintf("%s %s  %s  Due: %s", check, text, prio, output.FormatDue(t.DueDate, m.snap.Now))
	if m.snap.Overdue[t.ID] {
		line += "  " + overdueStyle.Render(output.OverdueMarker)
	}
	if i == m.cursor {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func (m *Model) formView() string {
	title := "New task"
	if m.mode == modeEdit {
		title = "Edit task"
	}
	body := strings.Join([]string{
		titleStyle.Render(title),
		m.form.text.View(),
		m.form.due.View(),
		"Priority: " + output.PriorityLabel(m.form.priority),
		faintStyle.Render("enter: save  tab: next field  ctrl+p: priority  esc: cancel"),
	}, "\n")
	return formStyle.Render(body)
}

func toastLine(n viewmodel.Notification) string {
	line := n.Message
	if n.Action != nil {
		line += "  [u] " + n.Action.Label
	}
	if st, ok := toastStyles[n.Level.String()]; ok {
		return st.Render(line)
	}
	return line
}

func (m *Model) helpLine() string {
	if m.mode != modeList {
		return ""
	}
	return "a add  space toggle  e edit  d delete  u undo  c clear done  1/2/3 filter  s sort  / search  r reload  q quit"
}
