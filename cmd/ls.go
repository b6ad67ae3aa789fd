package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/taskspec/internal/tasks"
	"github.com/nibzard/taskspec/internal/ui"
)

// lsCommand lists specs, or one spec's tasks grouped by status.
func (a *app) lsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskspec ls", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	statusFilter := fs.String("status", "", "Filter by status (pending|completed|blocked)")
	verbose := fs.Bool("v", false, "Show more details")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}

	svc, err := a.service()
	if err != nil {
		return err
	}

	if len(positional) == 0 {
		return a.listSpecs(ctx, svc.Load)
	}

	doc, err := svc.Load(ctx, positional[0])
	if err != nil {
		return err
	}

	filter := strings.ToLower(strings.TrimSpace(*statusFilter))
	switch filter {
	case "":
		a.printGroup("pending", doc.Tasks, func(t *tasks.Task) bool { return !t.Completed }, *verbose)
		a.printGroup("completed", doc.Tasks, func(t *tasks.Task) bool { return t.Completed }, *verbose)
	case "pending", "todo":
		a.printList(doc.Tasks, func(t *tasks.Task) bool { return !t.Completed }, *verbose)
	case "completed", "done":
		a.printList(doc.Tasks, func(t *tasks.Task) bool { return t.Completed }, *verbose)
	case "blocked":
		a.printList(doc.Tasks, func(t *tasks.Task) bool { return !t.Completed && t.IsBlocked() }, *verbose)
	default:
		return fmt.Errorf("unknown status %q (expected pending|completed|blocked)", *statusFilter)
	}
	return nil
}

func (a *app) listSpecs(ctx context.Context, load func(context.Context, string) (*tasks.Document, error)) error {
	loc := a.cfg.Locator()
	specs, err := loc.Specs()
	if err != nil {
		return fmt.Errorf("listing specs: %w", err)
	}
	if len(specs) == 0 {
		fmt.Fprintf(a.out, "No specs found in %s\n", loc.SpecsPath())
		return nil
	}

	fmt.Fprintf(a.out, "specs (%d):\n", len(specs))
	for _, spec := range specs {
		doc, err := load(ctx, spec)
		if err != nil {
			fmt.Fprintf(a.out, "  %s %s %s\n", ui.Red("✗"), ui.Bold(spec), ui.Dim(err.Error()))
			continue
		}
		c := doc.Counts()
		icon := ui.Dim("◌")
		if c.Total > 0 && c.Pending == 0 {
			icon = ui.Green("✓")
		}
		fmt.Fprintf(a.out, "  %s %s %d/%d done", icon, ui.Bold(spec), c.Completed, c.Total)
		if c.Blocked > 0 {
			fmt.Fprintf(a.out, ", %s", ui.Yellow(fmt.Sprintf("%d blocked", c.Blocked)))
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// printGroup prints tasks matching keep under a "label (n):" heading.
func (a *app) printGroup(label string, list []tasks.Task, keep func(*tasks.Task) bool, verbose bool) {
	matching := selectTasks(list, keep)
	if len(matching) == 0 {
		return
	}
	fmt.Fprintf(a.out, "%s (%d):\n", label, len(matching))
	for i := range matching {
		a.printTask(&matching[i], verbose)
	}
	fmt.Fprintln(a.out)
}

// printList prints tasks matching keep without a heading.
func (a *app) printList(list []tasks.Task, keep func(*tasks.Task) bool, verbose bool) {
	matching := selectTasks(list, keep)
	if len(matching) == 0 {
		fmt.Fprintln(a.out, "No tasks found.")
		return
	}
	for i := range matching {
		a.printTask(&matching[i], verbose)
	}
}

func (a *app) printTask(t *tasks.Task, verbose bool) {
	fmt.Fprintf(a.out, "  %s\n", ui.TaskLine(t))
	if !verbose {
		return
	}
	pad := "      " + strings.Repeat("  ", t.Level)
	if len(t.DependsOn) > 0 {
		fmt.Fprintf(a.out, "%sDepends: %s\n", pad, strings.Join(t.DependsOn, ", "))
	}
	if t.Requirements != "" {
		fmt.Fprintf(a.out, "%sRequirements: %s\n", pad, t.Requirements)
	}
	if t.Leverage != "" {
		fmt.Fprintf(a.out, "%sLeverage: %s\n", pad, t.Leverage)
	}
	for _, d := range t.Details {
		fmt.Fprintf(a.out, "%s%s\n", pad, d)
	}
}

// selectTasks returns the tasks matching keep in dot-path id order.
func selectTasks(list []tasks.Task, keep func(*tasks.Task) bool) []tasks.Task {
	var out []tasks.Task
	for i := range list {
		if keep(&list[i]) {
			out = append(out, list[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return tasks.CompareIDs(out[i].ID, out[j].ID)
	})
	return out
}
