package config

import (
	"flag"
	"time"
)

// flagValues holds parsed global flag values until they are applied.
// Only flags the user set explicitly override lower layers.
type flagValues struct {
	project       string
	specsDir      string
	tasksFile     string
	schemaFile    string
	maxAge        time.Duration
	format        string
	backup        bool
	audit         bool
	cacheSize     int
	cacheTTL      time.Duration
	logDir        string
	logLevel      string
	logFormat     string
	logTimestamps bool
	logCaller     bool
}

// flagToSource maps flag names to source field names.
var flagToSource = map[string]string{
	"specs-dir":      "specs_dir",
	"tasks-file":     "tasks_file",
	"schema":         "schema_file",
	"max-age":        "verify_max_age",
	"format":         "output_format",
	"backup":         "backup",
	"audit":          "audit",
	"cache-size":     "cache_size",
	"cache-ttl":      "cache_ttl",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// registerFlags defines the global flags on fs with defaults taken from cfg.
func registerFlags(fs *flag.FlagSet, cfg *Config) *flagValues {
	fv := &flagValues{}

	fs.StringVar(&fv.project, "project", "", "Project root (default: current directory)")

	// Document layout
	fs.StringVar(&fv.specsDir, "specs-dir", cfg.SpecsDir, "Specs directory, relative to the project root")
	fs.StringVar(&fv.tasksFile, "tasks-file", cfg.TasksFile, "Task document file name inside each spec")
	fs.StringVar(&fv.schemaFile, "schema", cfg.SchemaFile, "JSON Schema for the parsed task list (default: built-in)")

	// Verification and output
	fs.DurationVar(&fv.maxAge, "max-age", cfg.VerifyMaxAge.Duration, "Recency window for verification")
	fs.StringVar(&fv.format, "format", cfg.OutputFormat, "Output format (json, yaml)")

	// Writes
	fs.BoolVar(&fv.backup, "backup", cfg.Backup, "Write <tasks file>.bak before marking a task complete")
	fs.BoolVar(&fv.audit, "audit", cfg.Audit, "Append completions to the audit log")

	// Cache
	fs.IntVar(&fv.cacheSize, "cache-size", cfg.CacheSize, "Parsed document cache entries (0 disables)")
	fs.DurationVar(&fv.cacheTTL, "cache-ttl", cfg.CacheTTL.Duration, "Parsed document cache TTL (0 never expires)")

	// Logging
	fs.StringVar(&fv.logDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&fv.logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&fv.logFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&fv.logTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&fv.logCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	return fv
}

// apply copies explicitly set flags into cfg and marks their source.
func (fv *flagValues) apply(fs *flag.FlagSet, cfg *Config, sources map[string]ConfigSource) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "specs-dir":
			cfg.SpecsDir = fv.specsDir
		case "tasks-file":
			cfg.TasksFile = fv.tasksFile
		case "schema":
			cfg.SchemaFile = fv.schemaFile
		case "max-age":
			cfg.VerifyMaxAge.Duration = fv.maxAge
		case "format":
			cfg.OutputFormat = fv.format
		case "backup":
			cfg.Backup = fv.backup
		case "audit":
			cfg.Audit = fv.audit
		case "cache-size":
			cfg.CacheSize = fv.cacheSize
		case "cache-ttl":
			cfg.CacheTTL.Duration = fv.cacheTTL
		case "log-dir":
			cfg.LogDir = fv.logDir
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "log-format":
			cfg.LogFormat = fv.logFormat
		case "log-timestamps":
			cfg.LogTimestamps = fv.logTimestamps
		case "log-caller":
			cfg.LogCaller = fv.logCaller
		}
		if field, ok := flagToSource[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
}
