package cmd

import (
	"flag"
	"fmt"

	"github.com/nibzard/taskspec/internal/logging"
	"github.com/nibzard/taskspec/internal/ui"
)

// auditCommand prints recent completions from the project's audit log.
func (a *app) auditCommand(args []string) error {
	fs := flag.NewFlagSet("taskspec audit", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	n := fs.Int("n", 20, "Number of entries to show (0 = all)")
	format := fs.String("format", "text", "Output format (text, json, yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	outFormat, err := checkFormat(*format, "text", "json", "yaml")
	if err != nil {
		return err
	}

	audit, err := logging.NewAuditLog(a.cfg.LogDir, a.cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding audit log: %w", err)
	}
	entries, err := logging.ReadAudit(audit.Path, *n)
	if err != nil {
		return err
	}

	if outFormat != "text" {
		return encode(a.out, outFormat, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(a.out, "No completions recorded in %s\n", audit.Path)
		if !a.cfg.Audit {
			fmt.Fprintln(a.out, ui.Dim("Audit logging is off; enable it with -audit or audit = true."))
		}
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %s %s %s\n",
			ui.Dim(e.Time.Local().Format("2006-01-02 15:04:05")), ui.Green("✓"), ui.Bold(e.Spec), ui.Cyan(e.TaskID))
	}
	return nil
}
