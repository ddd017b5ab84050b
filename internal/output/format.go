// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todopro/internal/projection"
	"todopro/internal/service"
)

const (
	// NoDue is shown for tasks without a due date.
	NoDue = "None"

	// OverdueMarker follows the due date of an overdue task.
	OverdueMarker = "OVERDUE"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TEXT}  {PRIORITY}  Due: {DUE}[  OVERDUE]\n"
func FormatTask(w io.Writer, num int, task service.Task, now time.Time) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("%4d  [%s] %s  %s  Due: %s", num, mark, normalizeText(task.Text),
		PriorityLabel(task.Priority), FormatDue(task.DueDate, now))
	if projection.IsOverdue(task, now) {
		line += "  " + OverdueMarker
	}
	fmt.Fprintln(w, line)
}

// FormatStats formats the stats line.
func FormatStats(w io.Writer, stats projection.Stats) {
	fmt.Fprintln(w, stats.String())
}

// FormatUser formats the logged-in account.
func FormatUser(w io.Writer, user service.User) {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = "User"
	}
	if user.Email != "" {
		fmt.Fprintf(w, "%s <%s>\n", name, user.Email)
		return
	}
	fmt.Fprintln(w, name)
}

// FormatDue renders a due date relative to now: "None", "Today",
// "Tomorrow", otherwise dd/mm/yyyy.
func FormatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return NoDue
	}
	switch projection.DaysUntil(*due, now) {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return projection.Midnight(*due).Format("02/01/2006")
}

// PriorityLabel returns the display name of p, or "-" if unknown.
func PriorityLabel(p service.Priority) string {
	switch p {
	case service.PriorityLow:
		return "Low"
	case service.PriorityMedium:
		return "Medium"
	case service.PriorityHigh:
		return "High"
	default:
		return "-"
	}
}

// normalizeText normalizes task text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
