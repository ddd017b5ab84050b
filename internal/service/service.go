// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for the remote task store.
// All HTTP calls go through this interface.
// The view-model and commands never import the transport directly.
type Service interface {
	// CurrentUser returns the account the session belongs to.
	// Fails with ErrAuth when the session is missing or expired.
	CurrentUser(ctx context.Context) (User, error)

	// ListTasks returns every task of the current user in API order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. The returned task carries the
	// server-assigned ID and CreatedAt.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// ToggleTask flips the completed flag and returns the updated task.
	ToggleTask(ctx context.Context, id string) (Task, error)

	// UpdateTask replaces text, priority and due date of a task.
	UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error)

	// DeleteTask deletes a task. Fails with ErrNotFound if the server
	// no longer has it.
	DeleteTask(ctx context.Context, id string) error

	// Register creates an account and returns a new session.
	Register(ctx context.Context, creds Credentials) (Session, error)

	// Login exchanges credentials for a session.
	Login(ctx context.Context, creds Credentials) (Session, error)
}
