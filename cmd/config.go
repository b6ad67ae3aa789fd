package cmd

import (
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/taskspec/internal/config"
	"github.com/nibzard/taskspec/internal/ui"
)

// configCommand prints the effective configuration or an example file.
func (a *app) configCommand(args []string) error {
	fs := flag.NewFlagSet("taskspec config", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	verbose := fs.Bool("v", false, "Show where each value came from")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	action := "show"
	if len(positional) > 0 {
		action = positional[0]
	}
	if len(positional) > 1 {
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}

	switch action {
	case "show":
		return a.showConfig(*verbose)
	case "example":
		fmt.Fprint(a.out, config.ExampleConfig())
		return nil
	case "path":
		if file := a.sources.GetConfigFile(); file != "" {
			fmt.Fprintln(a.out, file)
			return nil
		}
		fmt.Fprintln(a.out, "No config file found.")
		return nil
	default:
		return fmt.Errorf("unknown config action %q (expected show|example|path)", action)
	}
}

func (a *app) showConfig(verbose bool) error {
	fmt.Fprintf(a.out, "# project root: %s\n", a.cfg.ProjectRoot)
	if a.sources.UserFile != "" {
		fmt.Fprintf(a.out, "# user file: %s\n", a.sources.UserFile)
	}
	if a.sources.ProjectFile != "" {
		fmt.Fprintf(a.out, "# project file: %s\n", a.sources.ProjectFile)
	}
	fmt.Fprintln(a.out)

	if err := toml.NewEncoder(a.out).Encode(a.cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if verbose {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "# sources")
		for _, field := range a.sources.Fields() {
			fmt.Fprintf(a.out, "# %-18s %s\n", field, sourceLabel(a.sources.SourceOf(field)))
		}
	}
	return nil
}

func sourceLabel(src config.ConfigSource) string {
	if src == config.SourceDefault {
		return ui.Dim(string(src))
	}
	return ui.Cyan(string(src))
}
