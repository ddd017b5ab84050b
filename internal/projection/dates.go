package projection

import (
	"time"

	"todopro/internal/service"
)

// DateLayout is the calendar-date format used for input and display.
const DateLayout = "2006-01-02"

// Midnight returns local midnight of t's local calendar day.
func Midnight(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// ParseDateInput converts "YYYY-MM-DD" into local midnight of that day.
// An empty string means no due date.
func ParseDateInput(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return nil, service.Validationf("invalid date: %s (want YYYY-MM-DD)", s)
	}
	return &d, nil
}

// FormatDateInput converts a due date back into "YYYY-MM-DD" in local time.
func FormatDateInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(DateLayout)
}

// DaysUntil returns the number of calendar days from now's day to t's day.
func DaysUntil(t, now time.Time) int {
	d := Midnight(t).Sub(Midnight(now)).Hours() / 24
	if d < 0 {
		return int(d - 0.5)
	}
	return int(d + 0.5)
}
