// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"todopro/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, unknown task).
	UserError = 1

	// AuthError indicates a missing, expired or rejected session.
	AuthError = 2

	// BackendError indicates an API, server or network error.
	BackendError = 3
)

// FromError maps an error returned by the service or view-model to an exit code.
func FromError(err error) int {
	switch service.KindOf(err) {
	case 0:
		if err == nil {
			return Success
		}
		return BackendError
	case service.KindValidation, service.KindNotFound:
		return UserError
	case service.KindAuth:
		return AuthError
	default:
		return BackendError
	}
}
