package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/taskspec/internal/config"
	"github.com/nibzard/taskspec/internal/query"
	"github.com/nibzard/taskspec/internal/ui"
)

// tasksCommand runs one query mode against a spec's task document.
func (a *app) tasksCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskspec tasks", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	modeName := fs.String("mode", "", "Query mode ("+modeList()+")")
	project := fs.String("project", "", "Project root for this query")
	maxAge := fs.Duration("max-age", 0, "Recency window for verify mode (default from config)")
	format := fs.String("format", a.cfg.OutputFormat, "Output format (json, yaml)")
	raw := fs.Bool("raw", false, "Print the structured verification result instead of the report")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return &query.UsageError{Msg: "Please provide a spec name"}
	}
	if len(positional) > 2 {
		return fmt.Errorf("unexpected arguments: %v", positional[2:])
	}

	spec := positional[0]
	var taskID string
	if len(positional) == 2 {
		taskID = positional[1]
	}

	// A task id without an explicit mode asks for that task.
	mode := query.ModeAll
	if *modeName != "" {
		if mode, err = query.ParseMode(*modeName); err != nil {
			return err
		}
	} else if taskID != "" {
		mode = query.ModeSingle
	}

	outFormat, err := checkFormat(*format, config.OutputFormats...)
	if err != nil {
		return err
	}
	if err := a.setProjectRoot(*project); err != nil {
		return err
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	resp, err := svc.Execute(ctx, query.Request{
		Spec:   spec,
		TaskID: taskID,
		Mode:   mode,
		MaxAge: *maxAge,
	})
	if err != nil {
		return err
	}
	return a.printResponse(resp, outFormat, *raw)
}

func (a *app) printResponse(resp *query.Response, format string, raw bool) error {
	switch {
	case resp.Mode == query.ModeVerify && resp.Verification != nil && !raw:
		fmt.Fprintln(a.out, resp.Report)
	case resp.Mode == query.ModeComplete && resp.Message != "":
		if resp.Changed {
			fmt.Fprintln(a.out, ui.Green("✓ "+resp.Message))
		} else {
			fmt.Fprintln(a.out, ui.Yellow(resp.Message))
		}
	default:
		if payload := resp.Payload(); payload != nil {
			if err := encode(a.out, format, payload); err != nil {
				return err
			}
		} else if resp.Message != "" {
			fmt.Fprintln(a.out, resp.Message)
		}
	}

	if resp.Failed() {
		return ErrReported
	}
	return nil
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
}

func modeList() string {
	names := make([]string, len(query.Modes))
	for i, m := range query.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, "|")
}
