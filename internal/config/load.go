package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.taskspec/taskspec.toml or OS-specific config dir)
// 3. Project config file (taskspec.toml or .taskspec.toml in the project root)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// Flags are parsed up front so -project can pick the project config file.
	// Their values are applied last.
	if fs == nil {
		fs = flag.NewFlagSet("taskspec", flag.ContinueOnError)
	}
	fv := registerFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	root, err := resolveProjectRoot(fv.project)
	if err != nil {
		return nil, err
	}
	cfg.ProjectRoot = root

	// 2. Try to load from user config file
	userConfigFile := findUserConfigFile()
	if userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
	}

	// 3. Try to load from project config file (overrides user config)
	projectConfigFile := findProjectConfigFile(root)
	if projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
	}

	// 4. Override from environment
	if err := loadFromEnv(cfg, sources); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	// 5. Apply explicitly set CLI flags (they override everything)
	fv.apply(fs, cfg, sources)

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:      cfg,
		Sources:     sources,
		UserFile:    userConfigFile,
		ProjectFile: projectConfigFile,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"specs_dir",
		"tasks_file",
		"schema_file",
		"verify_max_age",
		"verify.keywords",
		"verify.dir_hints",
		"verify.extensions",
		"output_format",
		"backup",
		"audit",
		"cache_size",
		"cache_ttl",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// resolveProjectRoot picks the project root from the flag, TASKSPEC_PROJECT
// or the working directory, in that order.
func resolveProjectRoot(flagValue string) (string, error) {
	root := strings.TrimSpace(flagValue)
	if root == "" {
		root = strings.TrimSpace(os.Getenv("TASKSPEC_PROJECT"))
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(expandPath(root))
	if err != nil {
		return "", fmt.Errorf("resolving project root %s: %w", root, err)
	}
	return abs, nil
}

// loadConfigFile decodes TOML over cfg and records the keys the file defines.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, field := range configFields() {
		if md.IsDefined(strings.Split(field, ".")...) {
			sources[field] = source
		}
	}
	return nil
}

// finalizeConfig computes derived values and validates settings.
func finalizeConfig(cfg *Config) error {
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.SpecsDir = expandPath(strings.TrimSpace(cfg.SpecsDir))
	cfg.TasksFile = strings.TrimSpace(cfg.TasksFile)
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))

	if cfg.SpecsDir == "" {
		return fmt.Errorf("specs_dir must not be empty")
	}
	if cfg.TasksFile == "" || filepath.Base(cfg.TasksFile) != cfg.TasksFile {
		return fmt.Errorf("tasks_file must be a plain file name, got %q", cfg.TasksFile)
	}
	if !slices.Contains(OutputFormats, cfg.OutputFormat) {
		return fmt.Errorf("unsupported output_format %q (want one of %s)", cfg.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if cfg.VerifyMaxAge.Duration <= 0 {
		return fmt.Errorf("verify_max_age must be positive, got %s", cfg.VerifyMaxAge.Duration)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", cfg.CacheSize)
	}

	if cfg.SchemaFile != "" {
		cfg.SchemaFile = expandPath(cfg.SchemaFile)
		if !filepath.IsAbs(cfg.SchemaFile) {
			cfg.SchemaFile = filepath.Join(cfg.ProjectRoot, cfg.SchemaFile)
		}
	}

	return nil
}
