package service

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// KindValidation is a local precondition failure; it never reaches the network.
	KindValidation Kind = iota + 1
	// KindAuth means the credential is missing, expired or rejected.
	KindAuth
	// KindNotFound means the server no longer has the resource.
	KindNotFound
	// KindNetwork is a transport failure or timeout.
	KindNetwork
	// KindServer is any other non-2xx response.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindAuth:
		return "auth error"
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "network error"
	case KindServer:
		return "server error"
	default:
		return "error"
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrServer     = &Error{Kind: KindServer}
)

// FieldError is a field-level validation message returned by the server.
type FieldError struct {
	Field   string
	Message string
}

// Error is the error type returned by Service implementations and the view-model.
type Error struct {
	Kind    Kind
	Op      string // operation, e.g. "create task"
	Message string // human-readable message, may be empty
	Fields  []FieldError
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case len(e.Fields) > 0:
		b.WriteString(JoinFieldMessages(e.Fields))
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// LoadError is returned when either half of a dashboard load fails.
// Both sub-fetches are required, so nothing is applied.
type LoadError struct {
	User  error
	Tasks error
}

func (e *LoadError) Error() string {
	switch {
	case e.User != nil && e.Tasks != nil:
		return fmt.Sprintf("load failed: user: %v; tasks: %v", e.User, e.Tasks)
	case e.User != nil:
		return fmt.Sprintf("load failed: user: %v", e.User)
	default:
		return fmt.Sprintf("load failed: tasks: %v", e.Tasks)
	}
}

// Unwrap exposes both causes to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	var errs []error
	if e.User != nil {
		errs = append(errs, e.User)
	}
	if e.Tasks != nil {
		errs = append(errs, e.Tasks)
	}
	return errs
}

// UserMessage picks the single message to show for err: the first
// field-level message, else the general message, else fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var le *LoadError
	if errors.As(err, &le) {
		// The user fetch usually carries the auth failure, prefer it.
		for _, sub := range le.Unwrap() {
			if msg := UserMessage(sub, ""); msg != "" {
				return msg
			}
		}
		return fallback
	}
	var e *Error
	if !errors.As(err, &e) {
		return fallback
	}
	if len(e.Fields) > 0 && e.Fields[0].Message != "" {
		return e.Fields[0].Message
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// JoinFieldMessages joins all field messages with ", ".
func JoinFieldMessages(fields []FieldError) string {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Message != "" {
			msgs = append(msgs, f.Message)
		}
	}
	return strings.Join(msgs, ", ")
}
