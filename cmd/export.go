package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nibzard/taskspec/internal/docstore"
	"github.com/nibzard/taskspec/internal/tasks"
)

// exportCommand renders a spec's parsed tasks as checklist markdown, JSON or YAML.
func (a *app) exportCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskspec export", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	format := fs.String("format", "markdown", "Output format (markdown, json, yaml)")
	output := fs.String("o", "", "Write to this file instead of stdout")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("export requires exactly one spec name")
	}
	outFormat, err := checkFormat(*format, "markdown", "md", "json", "yaml")
	if err != nil {
		return err
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	doc, err := svc.Load(ctx, positional[0])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch outFormat {
	case "markdown", "md":
		buf.WriteString(tasks.Render(doc.Tasks))
	default:
		if err := encode(&buf, outFormat, doc.Tasks); err != nil {
			return err
		}
	}

	if *output == "" {
		_, err := a.out.Write(buf.Bytes())
		return err
	}

	path := *output
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.ProjectRoot, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := docstore.NewStore(docstore.WithStoreLogger(a.logger)).Write(ctx, path, buf.String()); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	a.logger.Info("exported tasks", "spec", positional[0], "path", path, "tasks", len(doc.Tasks))
	return nil
}
