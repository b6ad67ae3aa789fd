package verify

import (
	"strconv"
	"strings"
)

// Format renders r as the human-readable verification report.
func Format(r *Result) string {
	lines := []string{"## Task Verification Result\n"}

	if r.AutoVerified {
		lines = append(lines, "✓ Auto-verification: PASSED\n")
	} else {
		lines = append(lines, "✗ Auto-verification: FAILED\n")
	}

	lines = append(lines,
		"Files checked: "+strconv.Itoa(len(r.FilesChecked)),
		"Files modified recently: "+strconv.Itoa(len(r.FilesModified)),
		"Files missing: "+strconv.Itoa(len(r.FilesMissing))+"\n",
	)

	lines = appendSection(lines, "### Issues:", r.Issues)
	lines = appendSection(lines, "### Warnings:", r.Warnings)
	lines = appendSection(lines, "### Recently Modified Files:", r.FilesModified)
	lines = appendSection(lines, "### Missing Files:", r.FilesMissing)

	if r.NeedsManualConfirm {
		lines = append(lines,
			"⚠️  Manual confirmation required",
			"Please review the task implementation and confirm completion.",
		)
	}

	return strings.Join(lines, "\n")
}

func appendSection(lines []string, heading string, items []string) []string {
	if len(items) == 0 {
		return lines
	}
	lines = append(lines, heading)
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return append(lines, "")
}
