package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todopro/internal/projection"
	"todopro/internal/service"
)

// TaskRef is a parsed task reference: either a 1-based number into the
// default listing (`todopro list` with no flags) or a task ID.
type TaskRef struct {
	Num int    // 1-based number, 0 when ID is set
	ID  string // server ID, empty when Num is set
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// All ASCII digits is a number into the default listing; anything else is
// taken as a task ID. Exactly one argument is accepted.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}
	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DefaultView is the ordering task numbers refer to: all tasks, newest first.
func DefaultView(tasks []service.Task) []service.Task {
	return projection.Project(tasks, projection.Options{})
}

// ResolveTaskRef finds the task ref points at in tasks.
func ResolveTaskRef(tasks []service.Task, ref TaskRef) (service.Task, error) {
	if ref.ID == "" {
		view := DefaultView(tasks)
		if ref.Num < 1 || ref.Num > len(view) {
			return service.Task{}, service.Validationf("task number out of range: %d", ref.Num)
		}
		return view[ref.Num-1], nil
	}
	for _, t := range tasks {
		if t.ID == ref.ID {
			return t, nil
		}
	}
	return service.Task{}, &service.Error{Kind: service.KindNotFound, Message: "task not found: " + ref.ID}
}

// taskNumbers maps task IDs to their number in the default listing.
func taskNumbers(tasks []service.Task) map[string]int {
	nums := make(map[string]int, len(tasks))
	for i, t := range DefaultView(tasks) {
		nums[t.ID] = i + 1
	}
	return nums
}
