// Package cmd implements the CLI command structure for taskspec.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskspec/internal/config"
	"github.com/nibzard/taskspec/internal/docstore"
	"github.com/nibzard/taskspec/internal/logging"
	"github.com/nibzard/taskspec/internal/query"
	"github.com/nibzard/taskspec/internal/verify"
)

// Version is set via ldflags at build time.
var Version = "dev"

// ErrReported signals a failure whose details were already printed, such as
// a blocked dependency check. Callers should exit non-zero without printing
// it again.
var ErrReported = errors.New("command failed")

// app carries the loaded configuration and output streams for one invocation.
type app struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	out     io.Writer
	errOut  io.Writer
	logger  *log.Logger
}

// Run executes the taskspec CLI against the process's standard streams.
func Run(ctx context.Context, args []string) error {
	return Execute(ctx, args, os.Stdout, os.Stderr)
}

// Execute runs the CLI with explicit output streams.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskspec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config

	a := &app{
		cfg:     cfg,
		sources: cws,
		out:     stdout,
		errOut:  stderr,
		logger:  logging.NewFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller),
	}

	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return a.versionCommand()
	}

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		printUsage(fs, stderr)
		return fmt.Errorf("no command given")
	}
	subcommand := remainingArgs[0]
	remainingArgs = remainingArgs[1:]

	// Execute the subcommand
	switch subcommand {
	case "tasks", "get":
		return a.tasksCommand(ctx, remainingArgs)
	case "ls", "list":
		return a.lsCommand(ctx, remainingArgs)
	case "doctor":
		return a.doctorCommand(ctx, remainingArgs)
	case "export":
		return a.exportCommand(ctx, remainingArgs)
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "audit":
		return a.auditCommand(remainingArgs)
	case "config":
		return a.configCommand(remainingArgs)
	case "version":
		return a.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		// A bare spec name queries that spec, like "taskspec user-auth 1.2".
		if a.specExists(subcommand) {
			return a.tasksCommand(ctx, append([]string{subcommand}, remainingArgs...))
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// service wires the document store, cache, verifier patterns and audit log
// into a query service.
func (a *app) service() (*query.Service, error) {
	extractor, err := verify.NewExtractor(a.cfg.Verify)
	if err != nil {
		return nil, fmt.Errorf("verify patterns: %w", err)
	}

	store := docstore.NewStore(
		docstore.WithBackup(a.cfg.Backup),
		docstore.WithStoreLogger(a.logger),
	)
	cache := docstore.NewCache(store, a.cfg.CacheSize, a.cfg.CacheTTLDuration())

	opts := []query.Option{
		query.WithLogger(a.logger),
		query.WithExtractor(extractor),
		query.WithMaxAge(a.cfg.MaxAge()),
	}
	if a.cfg.Audit {
		audit, err := logging.NewAuditLog(a.cfg.LogDir, a.cfg.ProjectRoot)
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
		opts = append(opts, query.WithRecorder(audit))
	}

	return query.NewService(a.cfg.Locator(), cache, opts...), nil
}

func (a *app) specExists(name string) bool {
	path, err := a.cfg.Locator().Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// setProjectRoot overrides the project root for a single command.
func (a *app) setProjectRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving project root %s: %w", root, err)
	}
	a.cfg.ProjectRoot = abs
	return nil
}

func checkFormat(format string, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if !slices.Contains(allowed, f) {
		return "", &query.UsageError{Msg: fmt.Sprintf("unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))}
	}
	return f, nil
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments, e.g. "user-auth 1.2 -mode complete".
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		// Everything after "--" is positional.
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// versionCommand prints version information.
func (a *app) versionCommand() error {
	fmt.Fprintf(a.out, "taskspec version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskspec - Query and update spec task checklists")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskspec [global options] <command> [options]")
	fmt.Fprintln(w, "  taskspec [global options] <spec> [task-id] [-mode mode]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tasks <spec> [id]   Query or update tasks (modes: all, single, next-pending,")
	fmt.Fprintln(w, "                      complete, check-dependencies, verify)")
	fmt.Fprintln(w, "  ls [spec]           List specs, or a spec's tasks grouped by status")
	fmt.Fprintln(w, "  doctor [spec]       Check config and validate task documents")
	fmt.Fprintln(w, "  export <spec>       Render parsed tasks as markdown, json or yaml")
	fmt.Fprintln(w, "  tui <spec>          Live terminal viewer")
	fmt.Fprintln(w, "  audit               Show recent task completions")
	fmt.Fprintln(w, "  config [show|example]  Print effective or example configuration")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tasks Options (use with 'tasks' command):")
	fmt.Fprintln(w, "  -mode string")
	fmt.Fprintln(w, "        Query mode (default all, or single when a task id is given)")
	fmt.Fprintln(w, "  -project string")
	fmt.Fprintln(w, "        Project root for this query")
	fmt.Fprintln(w, "  -max-age duration")
	fmt.Fprintln(w, "        Recency window for verify mode")
	fmt.Fprintln(w, "  -format string")
	fmt.Fprintln(w, "        Output format (json, yaml)")
	fmt.Fprintln(w, "  -raw")
	fmt.Fprintln(w, "        Print the structured verification result instead of the report")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  taskspec tasks user-auth                         # Get all tasks")
	fmt.Fprintln(w, "  taskspec tasks user-auth 1.2                     # Get specific task")
	fmt.Fprintln(w, "  taskspec tasks user-auth -mode next-pending      # Get next pending task")
	fmt.Fprintln(w, "  taskspec tasks user-auth 1.2 -mode complete      # Mark task 1.2 as complete")
	fmt.Fprintln(w, "  taskspec tasks user-auth 1.2 -mode check-dependencies")
	fmt.Fprintln(w, "  taskspec tasks user-auth 1.2 -mode verify        # Verify task completion")
}
