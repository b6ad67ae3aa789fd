package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/nibzard/taskspec/internal/tasks"
	"github.com/nibzard/taskspec/internal/ui"
)

// tuiCommand launches the live viewer for one spec.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskspec tui", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	noWatch := fs.Bool("no-watch", false, "Poll instead of watching the file")
	poll := fs.Duration("poll", 0, "Poll interval when not watching (default 2s)")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("tui requires exactly one spec name")
	}
	spec := positional[0]

	svc, err := a.service()
	if err != nil {
		return err
	}
	path, err := svc.Locator().Path(spec)
	if err != nil {
		return err
	}
	if *noWatch {
		path = ""
	}

	return ui.RunTUI(ctx, ui.TUIOptions{
		Spec: spec,
		Path: path,
		Load: func(ctx context.Context) (*tasks.Document, error) {
			return svc.Load(ctx, spec)
		},
		PollInterval: *poll,
		Logger:       a.logger,
	})
}
