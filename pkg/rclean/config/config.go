// Package config loads rclean configuration from YAML files and
// environment variables using viper.
//
// Config sources, in order of precedence:
//   - an explicit --config path
//   - a .rclean.yaml found in the working directory or any ancestor
//   - $XDG_CONFIG_HOME/rclean/config.yaml
//   - $HOME/.config/rclean/config.yaml
//
// Environment variables are prefixed with RCLEAN_ (e.g. RCLEAN_TRASH).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/rclean/pkg/rclean/rules"
)

// ProjectConfigName is the per-project config file searched for
// upward from the working directory.
const ProjectConfigName = ".rclean.yaml"

// RuleConfig is one user-defined rule in the config file.
type RuleConfig struct {
	Pattern  string `mapstructure:"pattern"`
	Kind     string `mapstructure:"kind"`
	Category string `mapstructure:"category"`
	Policy   string `mapstructure:"policy"`
	MaxAge   string `mapstructure:"max_age"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    int64 `mapstructure:"max_size"`
	MaxAge     int   `mapstructure:"max_age"`
	MaxBackups int   `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// HistoryConfig configures the run journal.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	// Presets lists rule preset names to enable.
	Presets []string `mapstructure:"presets"`

	// Rules are user-defined rules, matched before presets.
	Rules []RuleConfig `mapstructure:"rules"`

	// Exclude lists paths and glob patterns skipped during walks.
	Exclude []string `mapstructure:"exclude"`

	// Workers sets the walker's stat worker pool size.
	// Zero selects sequential traversal.
	Workers int `mapstructure:"workers"`

	// Trash routes deletions to the system trash.
	Trash bool `mapstructure:"trash"`

	// BrokenSymlinks schedules symlinks with missing targets for
	// deletion even when no rule matches them.
	BrokenSymlinks bool `mapstructure:"broken_symlinks"`

	// Format is the default output format.
	Format string `mapstructure:"format"`

	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load reads configuration. When explicitPath is non-empty that file
// is required; otherwise the search order in the package doc applies
// and a missing file falls back to defaults.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else if projectCfg := discoverProjectConfig(); projectCfg != "" {
		v.SetConfigFile(projectCfg)
	} else {
		v.SetConfigName("config")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "rclean"))
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "rclean"))
	}

	v.SetEnvPrefix("RCLEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		isNotFound := errors.As(err, &notFound) || os.IsNotExist(err)
		// An explicitly named file must exist.
		if explicitPath != "" || !isNotFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.History.Path, "~") {
		expanded, err := ExpandPath(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		cfg.History.Path = expanded
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("presets", DefaultPresets)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("trash", false)
	v.SetDefault("broken_symlinks", false)
	v.SetDefault("format", DefaultFormat)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", int64(10*1024*1024))
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", map[string]string{
		"walker": "info",
		"exec":   "info",
		"output": "warn",
	})
}

// discoverProjectConfig searches for a .rclean.yaml from the working
// directory up to the filesystem root, returning the first hit.
func discoverProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// BuildRules compiles the configured rules into a RuleSet. Explicit
// rules keep their declared order and precede preset rules, so a user
// rule can override a preset for the same pattern.
func (c *Config) BuildRules() (*rules.RuleSet, error) {
	var list []rules.Rule

	for i, rc := range c.Rules {
		rule, err := buildRule(rc)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, rc.Pattern, err)
		}
		list = append(list, rule)
	}

	for _, name := range c.Presets {
		preset, err := rules.Preset(name)
		if err != nil {
			return nil, err
		}
		list = appendPreset(list, preset)
	}

	return rules.Compile(list)
}

func buildRule(rc RuleConfig) (rules.Rule, error) {
	kind, err := rules.ParseKind(rc.Kind)
	if err != nil {
		return rules.Rule{}, err
	}

	policy := rules.PolicyDelete
	if rc.Policy != "" {
		policy, err = rules.ParsePolicy(rc.Policy)
		if err != nil {
			return rules.Rule{}, err
		}
	}

	rule := rules.Rule{
		Pattern:  rc.Pattern,
		Kind:     kind,
		Category: rules.Category(rc.Category),
		Policy:   policy,
	}
	if rule.Category == "" {
		rule.Category = rules.CategoryTemp
	}

	if rc.MaxAge != "" {
		age, err := rules.ParseDuration(rc.MaxAge)
		if err != nil {
			return rules.Rule{}, err
		}
		rule.MaxAge = age
		rule.Policy = rules.PolicyDeleteIfOlder
	}

	return rule, nil
}

// appendPreset adds preset rules, dropping any whose kind and pattern
// already appear in the list so user rules win.
func appendPreset(list []rules.Rule, preset []rules.Rule) []rules.Rule {
	seen := make(map[string]bool, len(list))
	for _, r := range list {
		seen[r.Kind.String()+"\x00"+r.Pattern] = true
	}
	for _, r := range preset {
		key := r.Kind.String() + "\x00" + r.Pattern
		if seen[key] {
			continue
		}
		seen[key] = true
		list = append(list, r)
	}
	return list
}

// ConfigDir returns the user configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "rclean"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "rclean"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists. Returns
// the path written, or the existing path with no error.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/rclean/ for the history database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "rclean")
}

// StateDir returns $XDG_STATE_HOME/rclean/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "rclean")
}

// DefaultHistoryPath returns the default history database path.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history.db")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "rclean.log")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
