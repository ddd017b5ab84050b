package viewmodel

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a Notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Action is a button attached to a notification, e.g. "Undo".
type Action struct {
	Label   string
	Handler func()
}

// Notification is a transient message for the user.
// A notification with Dismiss set withdraws the earlier one with the same ID.
type Notification struct {
	ID       uuid.UUID
	Level    Level
	Message  string
	Action   *Action
	Duration time.Duration
	Dismiss  bool
}

// DefaultNotificationDuration is used for notifications without an action.
const DefaultNotificationDuration = 3 * time.Second

const notificationBuffer = 64

func (m *Model) notify(level Level, msg string) {
	m.send(Notification{ID: uuid.New(), Level: level, Message: msg, Duration: DefaultNotificationDuration})
}

func (m *Model) dismiss(id uuid.UUID) {
	m.send(Notification{ID: id, Dismiss: true})
}

// send never blocks; notifications nobody reads are dropped.
func (m *Model) send(n Notification) {
	select {
	case m.notes <- n:
	default:
		m.logger.Debug("notification dropped", "message", n.Message)
	}
}

// changed signals Changes without blocking. Signals coalesce.
func (m *Model) changed() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// Changes returns a channel that receives a value after state changes.
// Several changes may be reported by a single value.
func (m *Model) Changes() <-chan struct{} {
	return m.changes
}

// Notifications returns the stream of user-facing messages.
func (m *Model) Notifications() <-chan Notification {
	return m.notes
}
