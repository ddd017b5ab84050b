// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"strings"
	"time"
)

// Priority is a task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is used when a task is created without one.
const DefaultPriority = PriorityMedium

// Rank orders priorities for sorting: high=1, medium=2, low=3.
// Unknown or missing priorities rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 99
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() != 99
}

// ParsePriority parses a priority name (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", Validationf("invalid priority: %s (want low, medium or high)", s)
	}
	return p, nil
}

// Task represents a single todo item.
type Task struct {
	ID        string
	Text      string
	Completed bool
	Priority  Priority
	DueDate   *time.Time // nil when the task has no due date
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskInput is the body of create and update requests.
type TaskInput struct {
	Text     string
	Priority Priority
	DueDate  *time.Time
}

// User is the identity of the logged-in account.
type User struct {
	ID    string
	Name  string
	Email string
}

// Credentials are submitted to register or log in.
// Name is only used when registering.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  User
}
