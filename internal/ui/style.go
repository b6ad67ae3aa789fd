package ui

import (
	"strings"

	"github.com/fatih/color"

	"github.com/nibzard/taskspec/internal/tasks"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Cyan       = color.New(color.FgCyan).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Red        = color.New(color.FgRed).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen  = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldWhite  = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// SetColor forces colored output on or off. The default follows the terminal
// and NO_COLOR.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// StatusIcon returns a colored status icon for a task.
func StatusIcon(t *tasks.Task) string {
	switch {
	case t.Completed:
		return Green("✓")
	case t.IsBlocked():
		return Yellow("⊘")
	default:
		return Dim("◌")
	}
}

// TaskLine formats a task as an indented one-line summary.
func TaskLine(t *tasks.Task) string {
	indent := strings.Repeat("  ", t.Level)
	line := indent + StatusIcon(t) + " " + Cyan(t.ID) + " " + t.Description
	if !t.Completed && t.IsBlocked() {
		line += " " + Dim("(waiting on "+strings.Join(t.BlockedBy, ", ")+")")
	}
	if t.CanRunParallel {
		line += " " + Dim("∥")
	}
	return line
}

// Check levels for doctor-style status lines.
const (
	CheckOK   = "ok"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// CheckLine returns a doctor-style status line.
func CheckLine(level, msg string) string {
	switch level {
	case CheckOK:
		return "✅ " + msg
	case CheckWarn:
		return "⚠️  " + Yellow(msg)
	default:
		return "❌ " + Red(msg)
	}
}
