package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todopro/internal/config"
	"todopro/internal/projection"
	"todopro/internal/service"
	"todopro/internal/testutil"
	"todopro/internal/viewmodel"
)

var start = time.Date(2026, 3, 15, 14, 30, 0, 0, time.Local)

type dash struct {
	svc   *testutil.FakeService
	sched *testutil.ManualScheduler
	vm    *viewmodel.Model
	m     *Model
}

// newDash loads "Buy milk" and then "Walk dog", so "Walk dog" is on top.
func newDash(t *testing.T) *dash {
	t.Helper()
	d := &dash{
		svc:   testutil.NewFakeService(),
		sched: testutil.NewManualScheduler(start),
	}
	d.svc.AddTask("Buy milk", false)
	d.svc.AddTask("Walk dog", false)
	d.vm = viewmodel.New(context.Background(), d.svc,
		viewmodel.WithScheduler(func(dur time.Duration, f func()) viewmodel.Timer { return d.sched.AfterFunc(dur, f) }),
		viewmodel.WithClock(d.sched.Now),
	)
	d.m = New(context.Background(), d.vm)
	d.m.now = d.sched.Now
	d.finish(t, d.m.run(d.vm.Load))
	return d
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (d *dash) press(s string) tea.Cmd {
	_, cmd := d.m.Update(key(s))
	return cmd
}

// finish runs a remote call command and feeds its result back.
func (d *dash) finish(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, opDoneMsg{}, msg)
	d.m.Update(msg)
}

func texts(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func TestDashboard_Render(t *testing.T) {
	d := newDash(t)
	view := d.m.View()

	assert.Contains(t, view, "Hello, Ada")
	assert.Contains(t, view, "Total: 2  Done: 0  Pending: 2")
	assert.Contains(t, view, "Sort: Newest")
	assert.Less(t, strings.Index(view, "Walk dog"), strings.Index(view, "Buy milk"))
}

func TestDashboard_Toggle(t *testing.T) {
	d := newDash(t)
	d.finish(t, d.press(" "))

	assert.Equal(t, 1, d.m.snap.Stats.Done)
	for _, task := range d.svc.Tasks() {
		assert.Equal(t, task.Text == "Walk dog", task.Completed)
	}
}

func TestDashboard_Cursor(t *testing.T) {
	d := newDash(t)
	d.press("j")
	d.press("j")
	assert.Equal(t, 1, d.m.cursor)
	d.press("k")
	d.press("k")
	assert.Equal(t, 0, d.m.cursor)
}

func TestDashboard_Add(t *testing.T) {
	d := newDash(t)
	d.press("a")
	require.Equal(t, modeAdd, d.m.mode)

	d.press("Call mom")
	d.press("ctrl+p")
	d.finish(t, d.press("enter"))

	assert.Equal(t, modeList, d.m.mode)
	assert.Equal(t, []string{"Call mom", "Walk dog", "Buy milk"}, texts(d.m.snap.Visible))
	assert.Equal(t, service.PriorityHigh, d.m.snap.Visible[0].Priority)
}

func TestDashboard_AddWithDueDate(t *testing.T) {
	d := newDash(t)
	d.press("a")
	d.press("Pay rent")
	d.press("tab")
	d.press("2026-04-01")
	d.finish(t, d.press("enter"))

	require.NotNil(t, d.m.snap.Visible[0].DueDate)
	assert.Equal(t, "2026-04-01", projection.FormatDateInput(d.m.snap.Visible[0].DueDate))
}

func TestDashboard_AddBlankIgnored(t *testing.T) {
	d := newDash(t)
	d.press("a")
	assert.Nil(t, d.press("enter"))
	assert.Equal(t, modeAdd, d.m.mode)
	assert.Equal(t, 0, d.svc.CountCalls("CreateTask"))

	d.press("esc")
	assert.Equal(t, modeList, d.m.mode)
}

func TestDashboard_DeleteAndUndo(t *testing.T) {
	d := newDash(t)
	d.press("d")
	assert.Equal(t, []string{"Buy milk"}, texts(d.m.snap.Visible))
	assert.Equal(t, 1, d.m.snap.Pending)

	d.press("u")
	assert.Equal(t, []string{"Walk dog", "Buy milk"}, texts(d.m.snap.Visible))

	d.sched.Advance(config.DefaultUndoWindow)
	assert.Equal(t, 0, d.svc.CountCalls("DeleteTask"))
}

func TestDashboard_DeleteCommitsAfterWindow(t *testing.T) {
	d := newDash(t)
	top := d.m.snap.Visible[0]
	d.press("d")

	d.sched.Advance(config.DefaultUndoWindow)
	assert.False(t, d.svc.Has(top.ID))
	d.m.Update(changedMsg{})
	assert.Equal(t, 0, d.m.snap.Pending)
}

func TestDashboard_Edit(t *testing.T) {
	d := newDash(t)
	d.press("e")
	require.Equal(t, modeEdit, d.m.mode)
	assert.Equal(t, "Walk dog", d.m.form.text.Value())

	d.m.form.text.SetValue("Walk the dog")
	d.finish(t, d.press("enter"))

	assert.Equal(t, modeList, d.m.mode)
	assert.Equal(t, "Walk the dog", d.m.snap.Visible[0].Text)
}

func TestDashboard_EditTooShortStaysOpen(t *testing.T) {
	d := newDash(t)
	d.press("e")
	d.m.form.text.SetValue("x")
	d.finish(t, d.press("enter"))

	assert.Equal(t, modeEdit, d.m.mode)
	assert.Equal(t, 0, d.svc.CountCalls("UpdateTask"))

	for {
		select {
		case n := <-d.vm.Notifications():
			d.m.Update(noteMsg(n))
			continue
		default:
		}
		break
	}
	assert.Contains(t, d.m.View(), viewmodel.MsgTextTooShort)

	d.press("esc")
	assert.Equal(t, modeList, d.m.mode)
	_, editing := d.vm.Editing()
	assert.False(t, editing)
}

func TestDashboard_FilterSortSearch(t *testing.T) {
	d := newDash(t)
	d.press("3")
	assert.Empty(t, d.m.snap.Visible)
	assert.Contains(t, d.m.View(), "No tasks")

	d.press("1")
	d.press("s")
	assert.Equal(t, projection.SortDueDate, d.m.snap.SortBy)

	d.press("/")
	require.Equal(t, modeSearch, d.m.mode)
	d.press("MILK")
	assert.Equal(t, []string{"Buy milk"}, texts(d.m.snap.Visible))

	d.press("esc")
	assert.Equal(t, modeList, d.m.mode)
	assert.Len(t, d.m.snap.Visible, 2)
}

func TestDashboard_ClearCompleted(t *testing.T) {
	d := newDash(t)
	d.finish(t, d.press(" "))

	d.press("c")
	require.Equal(t, modeConfirmClear, d.m.mode)
	assert.Contains(t, d.m.View(), "Clear 1 completed task(s)?")

	d.finish(t, d.press("y"))
	assert.Equal(t, []string{"Buy milk"}, texts(d.m.snap.Visible))
	assert.Len(t, d.svc.Tasks(), 1)
}

func TestDashboard_ClearDeclined(t *testing.T) {
	d := newDash(t)
	d.finish(t, d.press(" "))
	d.press("c")
	assert.Nil(t, d.press("n"))
	assert.Equal(t, modeList, d.m.mode)
	assert.Len(t, d.svc.Tasks(), 2)
}

func TestDashboard_Toasts(t *testing.T) {
	d := newDash(t)
	keep := uuid.New()
	d.m.addToast(viewmodel.Notification{ID: keep, Message: "Task deleted", Duration: 10 * time.Second, Action: &viewmodel.Action{Label: "Undo"}})
	gone := uuid.New()
	d.m.addToast(viewmodel.Notification{ID: gone, Message: "Task added"})
	assert.Contains(t, d.m.View(), "[u] Undo")

	d.sched.Advance(viewmodel.DefaultNotificationDuration)
	d.m.Update(tickMsg(d.sched.Now()))
	view := d.m.View()
	assert.NotContains(t, view, "Task added")
	assert.Contains(t, view, "Task deleted")

	d.m.Update(noteMsg(viewmodel.Notification{ID: keep, Dismiss: true}))
	assert.Empty(t, d.m.toasts)
}

func TestDashboard_LoadErrorBanner(t *testing.T) {
	d := newDash(t)
	d.svc.ListTasksErr = &service.Error{Kind: service.KindServer, Message: "Server error"}
	d.finish(t, d.press("r"))

	assert.Contains(t, d.m.View(), "Server error")
	assert.Len(t, d.m.snap.Visible, 2)
}

func TestDashboard_Quit(t *testing.T) {
	d := newDash(t)
	cmd := d.press("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
