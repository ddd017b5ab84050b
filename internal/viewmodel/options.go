package viewmodel

import (
	"time"

	"github.com/charmbracelet/log"

	"todopro/internal/metrics"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The default is time.AfterFunc.
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Model.
type Option func(*Model)

// WithUndoWindow sets how long a deletion stays undoable before it is sent.
func WithUndoWindow(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.undoWindow = d
		}
	}
}

// WithScheduler replaces time.AfterFunc for undo timers.
func WithScheduler(s Scheduler) Option {
	return func(m *Model) {
		if s != nil {
			m.schedule = s
		}
	}
}

// WithClock sets the clock used to decide what is overdue.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMetrics records delete outcomes and reloads in m.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) {
		m.metrics = mt
	}
}

// WithLogger overrides the logger taken from the context.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}
