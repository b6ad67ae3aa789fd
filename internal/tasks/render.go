package tasks

import (
	"strings"
)

// Render writes tasks back out in checklist form. Parsing the output yields
// the same records, since details are written verbatim under two spaces of
// indentation.
func Render(list []Task) string {
	var b strings.Builder
	for i := range list {
		writeTask(&b, &list[i])
	}
	return b.String()
}

func writeTask(b *strings.Builder, t *Task) {
	box := " "
	if t.Completed {
		box = "x"
	}
	b.WriteString("- [" + box + "] " + t.ID + ". " + t.Description + "\n")

	if t.Requirements != "" {
		b.WriteString("  - _Requirements: " + t.Requirements + "_\n")
	}
	if t.Leverage != "" {
		b.WriteString("  - _Leverage: " + t.Leverage + "_\n")
	}
	if len(t.DependsOn) > 0 {
		b.WriteString("  - _Depends: " + strings.Join(t.DependsOn, ", ") + "_\n")
	}
	if t.CanRunParallel {
		b.WriteString("  - _Parallel: yes_\n")
	}
	for _, d := range t.Details {
		b.WriteString("  " + d + "\n")
	}
}
