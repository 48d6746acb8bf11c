package config

// Default configuration values.
const (
	// DefaultWorkers is the walker stat pool size.
	DefaultWorkers = 4

	// DefaultRetentionDays is how long history records are kept.
	DefaultRetentionDays = 90

	// DefaultFormat is the default output format.
	DefaultFormat = "pretty"
)

// DefaultPresets are the rule presets enabled out of the box.
var DefaultPresets = []string{"common", "python"}

// DefaultExclusions are paths never descended into.
var DefaultExclusions = []string{
	".git",
	".hg",
	".svn",
}

const defaultConfigYAML = `# rclean configuration

# Rule presets to enable. Available: common, python, node, rust,
# java, c, go, all.
presets:
  - common
  - python

# User-defined rules, matched before presets. Kinds: exact, suffix,
# dirname, glob. Policies: delete, if-empty, older-than (older-than
# requires max_age, e.g. "30d").
rules: []
#  - pattern: ".cache"
#    kind: dirname
#    category: cache
#    policy: delete
#  - pattern: "*.tmp"
#    kind: glob
#    category: temp
#    max_age: 7d

# Paths and glob patterns skipped during traversal.
exclude:
  - .git
  - .hg
  - .svn

# Stat worker pool size; 0 selects sequential traversal.
workers: 4

# Move deletions to the system trash instead of removing permanently.
trash: false

# Delete symlinks whose target no longer exists, even when no rule
# matches them.
broken_symlinks: false

# Default output format: pretty, plain, json, jsonl, yaml.
format: pretty

# Run history journal.
history:
  enabled: true
  # Empty means $XDG_DATA_HOME/rclean/history.db
  path: ""
  retention_days: 90

# Logging configuration.
logging:
  # Log level: debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/rclean/rclean.log
  path: ""
  rotation:
    max_size: 10485760
    max_age: 30
    max_backups: 5
  # Per-component log levels.
  components:
    walker: info
    exec: info
    output: warn
`
