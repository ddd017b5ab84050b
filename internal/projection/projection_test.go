package projection

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todopro/internal/service"
)

var now = time.Date(2026, 3, 15, 14, 30, 0, 0, time.Local)

func day(offset int) *time.Time {
	d := Midnight(now).AddDate(0, 0, offset)
	return &d
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sample() []service.Task {
	base := now.Add(-48 * time.Hour)
	return []service.Task{
		{ID: "1", Text: "Buy milk", Priority: service.PriorityLow, CreatedAt: base.Add(1 * time.Hour)},
		{ID: "2", Text: "Write report", Completed: true, Priority: service.PriorityHigh, DueDate: day(-3), CreatedAt: base.Add(2 * time.Hour)},
		{ID: "3", Text: "Call MOM", Priority: service.PriorityHigh, DueDate: day(-1), CreatedAt: base.Add(3 * time.Hour)},
		{ID: "4", Text: "milk the cow", Priority: service.PriorityMedium, DueDate: day(2), CreatedAt: base.Add(4 * time.Hour)},
		{ID: "5", Text: "Plan trip", Priority: "", DueDate: day(0), CreatedAt: base.Add(5 * time.Hour)},
	}
}

func TestProject_DefaultSortNewestFirst(t *testing.T) {
	got := Project(sample(), Options{Now: now})
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, ids(got))
}

func TestProject_Filter(t *testing.T) {
	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"5", "4", "3", "2", "1"}},
		{FilterPending, []string{"5", "4", "3", "1"}},
		{FilterDone, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := Project(sample(), Options{Filter: tt.filter, Now: now})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestProject_SearchCaseInsensitive(t *testing.T) {
	got := Project(sample(), Options{Query: "MILK", Now: now})
	assert.Equal(t, []string{"4", "1"}, ids(got))

	got = Project(sample(), Options{Query: "mom", Now: now})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestProject_BlankQueryIsNoop(t *testing.T) {
	got := Project(sample(), Options{Query: "   ", Now: now})
	assert.Len(t, got, 5)
}

func TestProject_SortByDueDate(t *testing.T) {
	got := Project(sample(), Options{SortBy: SortDueDate, Now: now})
	// 3 is overdue and incomplete; 2 is past due but completed so it is not
	// overdue and sorts by date among the rest; 1 has no due date.
	assert.Equal(t, []string{"3", "2", "5", "4", "1"}, ids(got))
}

func TestProject_SortByPriority(t *testing.T) {
	got := Project(sample(), Options{SortBy: SortPriority, Now: now})
	// Stable: equal ranks keep the input order.
	assert.Equal(t, []string{"2", "3", "4", "1", "5"}, ids(got))
}

func TestProject_FilterAndSearchBeforeSort(t *testing.T) {
	got := Project(sample(), Options{Filter: FilterPending, Query: "i", SortBy: SortPriority, Now: now})
	assert.Equal(t, []string{"4", "1", "5"}, ids(got))
}

// An incomplete task due yesterday sorts ahead of one due tomorrow.
func TestProject_OverdueFirst(t *testing.T) {
	tasks := []service.Task{
		{ID: "tomorrow", Text: "b", DueDate: day(1), CreatedAt: now},
		{ID: "yesterday", Text: "a", DueDate: day(-1), CreatedAt: now.Add(-time.Hour)},
	}
	got := Project(tasks, Options{SortBy: SortDueDate, Now: now})
	assert.Equal(t, []string{"yesterday", "tomorrow"}, ids(got))
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	in := sample()
	snapshot := append([]service.Task(nil), in...)

	for _, s := range []SortBy{SortCreated, SortDueDate, SortPriority} {
		_ = Project(in, Options{Filter: FilterPending, Query: "a", SortBy: s, Now: now})
	}
	assert.Equal(t, snapshot, in)
}

func TestIsOverdue(t *testing.T) {
	assert.True(t, IsOverdue(service.Task{DueDate: day(-1)}, now))
	assert.False(t, IsOverdue(service.Task{DueDate: day(-1), Completed: true}, now))
	assert.False(t, IsOverdue(service.Task{DueDate: day(0)}, now))
	assert.False(t, IsOverdue(service.Task{}, now))

	// Earlier today is not overdue: comparison is by calendar day.
	earlier := now.Add(-10 * time.Hour)
	assert.False(t, IsOverdue(service.Task{DueDate: &earlier}, now))
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sample())
	assert.Equal(t, Stats{Total: 5, Done: 1, Pending: 4}, s)
	assert.Equal(t, "Total: 5  Done: 1  Pending: 4", s.String())
}

func TestParseFilterAndSort(t *testing.T) {
	f, err := ParseFilter("Done")
	require.NoError(t, err)
	assert.Equal(t, FilterDone, f)

	_, err = ParseFilter("later")
	assert.Error(t, err)

	s, err := ParseSortBy("due")
	require.NoError(t, err)
	assert.Equal(t, SortDueDate, s)

	s, err = ParseSortBy("dueDate")
	require.NoError(t, err)
	assert.Equal(t, SortDueDate, s)

	_, err = ParseSortBy("alpha")
	assert.Error(t, err)

	assert.Equal(t, SortDueDate, SortCreated.Next())
	assert.Equal(t, SortCreated, SortPriority.Next())
}

func randomTasks(r *rand.Rand, n int) []service.Task {
	words := []string{"alpha", "Beta", "gamma", "DELTA", "milk", "Report"}
	prios := []service.Priority{service.PriorityLow, service.PriorityMedium, service.PriorityHigh, ""}
	tasks := make([]service.Task, n)
	for i := range tasks {
		t := service.Task{
			ID:        string(rune('a' + i)),
			Text:      words[r.Intn(len(words))] + " " + words[r.Intn(len(words))],
			Completed: r.Intn(2) == 0,
			Priority:  prios[r.Intn(len(prios))],
			CreatedAt: now.Add(-time.Duration(r.Intn(1000)) * time.Minute),
		}
		if r.Intn(3) > 0 {
			t.DueDate = day(r.Intn(11) - 5)
		}
		tasks[i] = t
	}
	return tasks
}

func TestProject_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		tasks := randomTasks(r, r.Intn(20))
		query := []string{"", "al", "MILK", "ta"}[r.Intn(4)]
		filter := []Filter{FilterAll, FilterPending, FilterDone}[r.Intn(3)]
		sortBy := []SortBy{SortCreated, SortDueDate, SortPriority}[r.Intn(3)]
		opts := Options{Filter: filter, Query: query, SortBy: sortBy, Now: now}

		got := Project(tasks, opts)

		// Restartable: the same inputs give the same sequence.
		require.Equal(t, got, Project(tasks, opts))
		// Idempotent when re-projected.
		require.Equal(t, ids(got), ids(Project(got, opts)))

		// Filter and search: exactly the matching tasks appear.
		want := 0
		for _, task := range tasks {
			if filter == FilterPending && task.Completed || filter == FilterDone && !task.Completed {
				continue
			}
			if query != "" && !strings.Contains(strings.ToLower(task.Text), strings.ToLower(query)) {
				continue
			}
			want++
		}
		require.Len(t, got, want)
		for _, task := range got {
			if query != "" {
				require.Contains(t, strings.ToLower(task.Text), strings.ToLower(query))
			}
		}

		if sortBy == SortDueDate {
			seenNotOverdue := false
			for i, task := range got {
				over := IsOverdue(task, now)
				if over {
					require.False(t, seenNotOverdue, "overdue task after non-overdue one")
				} else {
					seenNotOverdue = true
				}
				if i > 0 && IsOverdue(got[i-1], now) == over {
					require.LessOrEqual(t, dueKey(got[i-1].DueDate), dueKey(task.DueDate))
				}
			}
		}
	}
}
