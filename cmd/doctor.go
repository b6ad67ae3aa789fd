package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/taskspec/internal/config"
	"github.com/nibzard/taskspec/internal/docstore"
	"github.com/nibzard/taskspec/internal/query"
	"github.com/nibzard/taskspec/internal/tasks"
	"github.com/nibzard/taskspec/internal/ui"
	"github.com/nibzard/taskspec/internal/verify"
)

// doctorCommand checks the configuration and validates task documents.
func (a *app) doctorCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskspec doctor", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	verbose := fs.Bool("v", false, "Verbose output")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}

	d := &doctor{app: a, verbose: *verbose, ok: true}

	fmt.Fprintln(a.out, ui.Bold("taskspec doctor"))
	fmt.Fprintln(a.out, "===============")
	fmt.Fprintln(a.out)

	d.checkProjectRoot()
	d.checkConfig()
	d.checkSchema()
	d.checkLogDir()

	svc, err := a.service()
	if err != nil {
		d.fail("Service setup: %v", err)
	} else {
		specs := positional
		if len(specs) == 0 {
			specs = d.discoverSpecs()
		}
		for _, spec := range specs {
			d.checkSpec(ctx, svc, spec)
		}
	}

	if d.ok {
		fmt.Fprintln(a.out, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(a.out, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

type doctor struct {
	*app
	verbose bool
	ok      bool
}

func (d *doctor) pass(format string, args ...any) {
	fmt.Fprintln(d.out, "  "+ui.CheckLine(ui.CheckOK, fmt.Sprintf(format, args...)))
}

func (d *doctor) warn(format string, args ...any) {
	fmt.Fprintln(d.out, "  "+ui.CheckLine(ui.CheckWarn, fmt.Sprintf(format, args...)))
}

func (d *doctor) fail(format string, args ...any) {
	fmt.Fprintln(d.out, "  "+ui.CheckLine(ui.CheckFail, fmt.Sprintf(format, args...)))
	d.ok = false
}

func (d *doctor) checkProjectRoot() {
	fmt.Fprintf(d.out, "Project root: %s\n", d.cfg.ProjectRoot)
	if info, err := os.Stat(d.cfg.ProjectRoot); err != nil {
		d.fail("Error: %v", err)
	} else if !info.IsDir() {
		d.fail("Error: path is not a directory")
	} else {
		d.pass("OK")
	}
	fmt.Fprintln(d.out)
}

func (d *doctor) checkConfig() {
	fmt.Fprintln(d.out, "Config:")
	if file := d.sources.GetConfigFile(); file != "" {
		d.pass("File: %s", file)
	} else {
		d.pass("File: none (using defaults)")
	}
	d.pass("Specs dir: %s", d.cfg.Locator().SpecsPath())
	d.pass("Tasks file: %s", d.cfg.TasksFile)
	d.pass("Verify window: %s", d.cfg.MaxAge())
	if _, err := verify.NewExtractor(d.cfg.Verify); err != nil {
		d.fail("Verify patterns: %v", err)
	} else {
		d.pass("Verify patterns: %d keywords, %d dir hints, %d extensions",
			len(d.cfg.Verify.Keywords), len(d.cfg.Verify.DirHints), len(d.cfg.Verify.Extensions))
	}
	if d.verbose {
		for _, field := range d.sources.Fields() {
			if src := d.sources.SourceOf(field); src != config.SourceDefault {
				fmt.Fprintf(d.out, "     %s from %s\n", field, src)
			}
		}
	}
	fmt.Fprintln(d.out)
}

func (d *doctor) checkSchema() {
	if d.cfg.SchemaFile == "" {
		if d.verbose {
			fmt.Fprintln(d.out, "Schema file: built-in")
			fmt.Fprintln(d.out)
		}
		return
	}
	fmt.Fprintf(d.out, "Schema file: %s\n", d.cfg.SchemaFile)
	if info, err := os.Stat(d.cfg.SchemaFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.warn("Not found (schema checks will be skipped)")
		} else {
			d.fail("Error: %v", err)
		}
	} else if info.IsDir() {
		d.fail("Error: path is a directory")
	} else {
		d.pass("OK")
	}
	fmt.Fprintln(d.out)
}

func (d *doctor) checkLogDir() {
	if !d.cfg.Audit && !d.verbose {
		return
	}
	fmt.Fprintf(d.out, "Log directory: %s\n", d.cfg.LogDir)
	if _, err := os.Stat(d.cfg.LogDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.warn("Not found (will be created on first completion)")
		} else {
			d.fail("Error: %v", err)
		}
	} else {
		d.pass("OK")
	}
	fmt.Fprintln(d.out)
}

func (d *doctor) discoverSpecs() []string {
	loc := d.cfg.Locator()
	fmt.Fprintf(d.out, "Specs: %s\n", loc.SpecsPath())
	specs, err := loc.Specs()
	if err != nil {
		d.fail("Error: %v", err)
		fmt.Fprintln(d.out)
		return nil
	}
	if len(specs) == 0 {
		d.warn("No specs with a %s found", d.cfg.TasksFile)
	} else {
		d.pass("%d spec(s) found", len(specs))
	}
	fmt.Fprintln(d.out)
	return specs
}

func (d *doctor) checkSpec(ctx context.Context, svc *query.Service, spec string) {
	fmt.Fprintf(d.out, "Spec %s:\n", ui.Bold(spec))
	defer fmt.Fprintln(d.out)

	doc, err := svc.Load(ctx, spec)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			d.fail("%v", err)
		} else {
			d.fail("Load error: %v", err)
		}
		return
	}

	c := doc.Counts()
	d.pass("Parsed %d task(s): %d completed, %d pending, %d blocked", c.Total, c.Completed, c.Pending, c.Blocked)

	result := tasks.Validate(doc.Tasks, tasks.ValidationOptions{SchemaPath: d.cfg.SchemaFile})
	for _, w := range result.Warnings {
		d.warn("%s", w)
	}
	if result.Valid {
		d.pass("Valid")
	} else {
		d.fail("Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(d.out, "     - %v\n", e)
		}
	}

	if d.verbose {
		if next := doc.NextPending(); next != nil {
			check := tasks.CheckDependencies(next, doc.Tasks)
			fmt.Fprintf(d.out, "  Next: %s. %s\n", next.ID, next.Description)
			fmt.Fprintf(d.out, "        %s\n", check.Message)
		}
	}
}
