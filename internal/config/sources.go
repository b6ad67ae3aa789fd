package config

import (
	"github.com/nibzard/taskspec/internal/verify"
)

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.SpecsDir = DefaultSpecsDir
	cfg.TasksFile = DefaultTasksFile
	cfg.VerifyMaxAge = Duration{DefaultVerifyMaxAge}
	cfg.Verify = verify.DefaultPatterns()
	cfg.OutputFormat = DefaultOutputFormat
	cfg.CacheSize = DefaultCacheSize
	cfg.CacheTTL = Duration{DefaultCacheTTL}
	cfg.LogDir = DefaultLogDir

	// Logging defaults
	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
}

// SourceOf returns where the named field got its value.
// Unknown fields report SourceDefault.
func (cws *ConfigWithSources) SourceOf(field string) ConfigSource {
	if src, ok := cws.Sources[field]; ok {
		return src
	}
	return SourceDefault
}

// Fields returns the tracked field names in display order.
func (cws *ConfigWithSources) Fields() []string {
	return configFields()
}
