package config

import (
	"time"

	"github.com/nibzard/taskspec/internal/docstore"
)

// Locator returns the document locator for the configured layout.
func (c *Config) Locator() docstore.Locator {
	return docstore.Locator{
		Root:      c.ProjectRoot,
		SpecsDir:  c.SpecsDir,
		TasksFile: c.TasksFile,
	}
}

// MaxAge returns the verification recency window.
func (c *Config) MaxAge() time.Duration {
	return c.VerifyMaxAge.Duration
}

// CacheTTLDuration returns the parsed document cache TTL.
func (c *Config) CacheTTLDuration() time.Duration {
	return c.CacheTTL.Duration
}
