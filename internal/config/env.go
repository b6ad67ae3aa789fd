package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nibzard/taskspec/internal/utils"
)

// loadFromEnv overrides config from TASKSPEC_* environment variables and
// updates source tracking.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	set := func(field string) {
		sources[field] = SourceEnv
	}

	if v := os.Getenv("TASKSPEC_SPECS_DIR"); v != "" {
		cfg.SpecsDir = v
		set("specs_dir")
	}
	if v := os.Getenv("TASKSPEC_TASKS_FILE"); v != "" {
		cfg.TasksFile = v
		set("tasks_file")
	}
	if v := os.Getenv("TASKSPEC_SCHEMA"); v != "" {
		cfg.SchemaFile = v
		set("schema_file")
	}
	if v := os.Getenv("TASKSPEC_VERIFY_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKSPEC_VERIFY_MAX_AGE: %w", err)
		}
		cfg.VerifyMaxAge.Duration = d
		set("verify_max_age")
	}
	if v := os.Getenv("TASKSPEC_VERIFY_KEYWORDS"); v != "" {
		cfg.Verify.Keywords = utils.SplitAndTrim(v, ",")
		set("verify.keywords")
	}
	if v := os.Getenv("TASKSPEC_VERIFY_DIR_HINTS"); v != "" {
		cfg.Verify.DirHints = utils.SplitAndTrim(v, ",")
		set("verify.dir_hints")
	}
	if v := os.Getenv("TASKSPEC_VERIFY_EXTENSIONS"); v != "" {
		cfg.Verify.Extensions = utils.SplitAndTrim(v, ",")
		set("verify.extensions")
	}
	if v := os.Getenv("TASKSPEC_FORMAT"); v != "" {
		cfg.OutputFormat = v
		set("output_format")
	}
	if v := os.Getenv("TASKSPEC_BACKUP"); v != "" {
		cfg.Backup = boolFromString(v)
		set("backup")
	}
	if v := os.Getenv("TASKSPEC_AUDIT"); v != "" {
		cfg.Audit = boolFromString(v)
		set("audit")
	}
	if v := os.Getenv("TASKSPEC_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TASKSPEC_CACHE_SIZE: %w", err)
		}
		cfg.CacheSize = n
		set("cache_size")
	}
	if v := os.Getenv("TASKSPEC_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKSPEC_CACHE_TTL: %w", err)
		}
		cfg.CacheTTL.Duration = d
		set("cache_ttl")
	}
	if v := os.Getenv("TASKSPEC_LOG_DIR"); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}

	// Logging configuration
	if v := os.Getenv("TASKSPEC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv("TASKSPEC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv("TASKSPEC_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv("TASKSPEC_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller")
	}
	return nil
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
