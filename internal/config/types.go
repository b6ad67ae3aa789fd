package config

import (
	"fmt"
	"time"

	"github.com/nibzard/taskspec/internal/verify"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// Default values.
const (
	DefaultSpecsDir     = ".claude/specs"
	DefaultTasksFile    = "tasks.md"
	DefaultLogDir       = "~/.taskspec"
	DefaultOutputFormat = "json"
	DefaultVerifyMaxAge = time.Hour
	DefaultCacheSize    = 16
	DefaultCacheTTL     = 5 * time.Minute
)

// OutputFormats lists the supported serialization formats.
var OutputFormats = []string{"json", "yaml"}

// Duration is a time.Duration that reads and writes as a string like "90m".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the full configuration for taskspec.
type Config struct {
	// Document layout
	SpecsDir   string `toml:"specs_dir"`
	TasksFile  string `toml:"tasks_file"`
	SchemaFile string `toml:"schema_file"` // Optional JSON Schema used by doctor

	// Verification
	VerifyMaxAge Duration        `toml:"verify_max_age"`
	Verify       verify.Patterns `toml:"verify"`

	// Output
	OutputFormat string `toml:"output_format"`

	// Writes
	Backup bool `toml:"backup"`
	Audit  bool `toml:"audit"`

	// Document cache
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// UserFile and ProjectFile are the config files that were read, if any.
	UserFile    string
	ProjectFile string
}

// GetConfigFile returns the active config file path (project or user).
func (cws *ConfigWithSources) GetConfigFile() string {
	if cws.ProjectFile != "" {
		return cws.ProjectFile
	}
	return cws.UserFile
}
