// Package projection derives the displayed task list from the
// authoritative collection. Everything here is pure.
package projection

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"todopro/internal/service"
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPending Filter = "pending"
	FilterDone    Filter = "done"
)

// SortBy selects the ordering of the projection.
type SortBy string

const (
	SortCreated  SortBy = "created"
	SortDueDate  SortBy = "dueDate"
	SortPriority SortBy = "priority"
)

// Options are the inputs of Project besides the tasks themselves.
type Options struct {
	Filter Filter
	Query  string
	SortBy SortBy

	// Now is the reference time for overdue checks. Zero means time.Now().
	Now time.Time
}

// Stats summarizes the authoritative collection.
type Stats struct {
	Total   int
	Done    int
	Pending int
}

// Project filters, searches and sorts tasks. The input slice is never
// modified; the result is a fresh slice.
func Project(tasks []service.Task, opts Options) []service.Task {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	list := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		switch opts.Filter {
		case FilterDone:
			if !t.Completed {
				continue
			}
		case FilterPending:
			if t.Completed {
				continue
			}
		}
		list = append(list, t)
	}

	if q := strings.TrimSpace(opts.Query); q != "" {
		// The untrimmed query is matched, only blank input is ignored.
		needle := strings.ToLower(opts.Query)
		matched := list[:0]
		for _, t := range list {
			if strings.Contains(strings.ToLower(t.Text), needle) {
				matched = append(matched, t)
			}
		}
		list = matched
	}

	switch opts.SortBy {
	case SortDueDate:
		today := Midnight(now)
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			aOver := !a.Completed && overdueAt(a.DueDate, today)
			bOver := !b.Completed && overdueAt(b.DueDate, today)
			if aOver != bOver {
				return aOver
			}
			return dueKey(a.DueDate) < dueKey(b.DueDate)
		})
	case SortPriority:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority.Rank() < list[j].Priority.Rank()
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	}

	return list
}

// IsOverdue reports whether an incomplete task's due date is before today.
func IsOverdue(t service.Task, now time.Time) bool {
	return !t.Completed && overdueAt(t.DueDate, Midnight(now))
}

// ComputeStats counts total, done and pending tasks.
func ComputeStats(tasks []service.Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Done++
		}
	}
	s.Pending = s.Total - s.Done
	return s
}

// ParseFilter parses a filter name.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterPending, FilterDone:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", service.Validationf("invalid filter: %s (want all, pending or done)", s)
}

// ParseSortBy parses a sort key. "due" is accepted for dueDate.
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "created", "newest":
		return SortCreated, nil
	case "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	}
	return "", service.Validationf("invalid sort: %s (want created, dueDate or priority)", s)
}

// Next returns the sort key after s, wrapping around.
func (s SortBy) Next() SortBy {
	switch s {
	case SortCreated:
		return SortDueDate
	case SortDueDate:
		return SortPriority
	default:
		return SortCreated
	}
}

// Label is the human-readable sort name.
func (s SortBy) Label() string {
	switch s {
	case SortDueDate:
		return "Due date"
	case SortPriority:
		return "Priority"
	default:
		return "Newest"
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("Total: %d  Done: %d  Pending: %d", s.Total, s.Done, s.Pending)
}

func overdueAt(due *time.Time, today time.Time) bool {
	if due == nil {
		return false
	}
	return Midnight(*due).Before(today)
}

// dueKey orders due dates by instant; a missing due date sorts last.
func dueKey(due *time.Time) int64 {
	if due == nil {
		return math.MaxInt64
	}
	return due.UnixMilli()
}
