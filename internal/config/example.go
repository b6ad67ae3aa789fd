package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskspec configuration file
# Values can be overridden by TASKSPEC_* environment variables or CLI flags

# Specs directory, relative to the project root (or absolute)
specs_dir = ".claude/specs"

# Task document inside each spec directory
tasks_file = "tasks.md"

# JSON Schema for the parsed task list, used by doctor (built-in if unset)
# schema_file = "tasks.schema.json"

# Recency window for verify mode
verify_max_age = "1h"

# Output format for task queries (json or yaml)
output_format = "json"

# Write <tasks file>.bak before marking a task complete
backup = false

# Append completions to <log_dir>/<project>/audit.jsonl
audit = false

# Parsed document cache (entries, TTL; 0 disables / never expires)
cache_size = 16
cache_ttl = "5m"

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.taskspec"

# Logging
log_level = "info"     # debug, info, warn, error
log_format = "text"    # text, json, logfmt
log_timestamps = false
log_caller = false

# Path extraction for verify mode
[verify]
keywords = ["File", "Files", "Modify", "Create", "Update"]
dir_hints = [
  "src", "test", "tests", "lib", "dist",
  "component", "components", "util", "utils",
  "service", "services", "model", "models",
  "api", "route", "routes",
]
extensions = ["ts", "js", "tsx", "jsx", "py", "java", "go", "rs", "cpp", "c", "h"]
`
}
