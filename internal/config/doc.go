// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.taskspec/taskspec.toml or OS-specific config directory)
// 3. Project config file (taskspec.toml or .taskspec.toml in the project root)
// 4. Environment variables (TASKSPEC_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.taskspec/taskspec.toml (preferred)
// - Windows: %APPDATA%\taskspec\taskspec.toml
// - macOS: ~/Library/Application Support/taskspec/taskspec.toml
// - Linux/BSD: $XDG_CONFIG_HOME/taskspec/taskspec.toml or ~/.config/taskspec/taskspec.toml
//
// Project-level config locations (overrides user config):
// - <project>/taskspec.toml (preferred)
// - <project>/.taskspec.toml
//
// The project root is the -project flag, then TASKSPEC_PROJECT, then the
// working directory. It is resolved before any file is read so the project
// config file can be found.
package config
