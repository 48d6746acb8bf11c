package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/rules"
)

// isolate points HOME and the working directory at empty temp dirs so
// no real or project config leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Chdir(tempDir)
	return tempDir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Presets) != len(DefaultPresets) {
		t.Errorf("Presets = %v, want %v", cfg.Presets, DefaultPresets)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.Trash {
		t.Error("Trash = true, want false")
	}
	if cfg.BrokenSymlinks {
		t.Error("BrokenSymlinks = true, want false")
	}
	if cfg.Format != DefaultFormat {
		t.Errorf("Format = %q, want %q", cfg.Format, DefaultFormat)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.History.RetentionDays != DefaultRetentionDays {
		t.Errorf("History.RetentionDays = %d, want %d", cfg.History.RetentionDays, DefaultRetentionDays)
	}
	if len(cfg.Exclude) != len(DefaultExclusions) {
		t.Errorf("len(Exclude) = %d, want %d", len(cfg.Exclude), len(DefaultExclusions))
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_FromXDGFile(t *testing.T) {
	tempDir := isolate(t)
	configDir := filepath.Join(tempDir, ".config", "rclean")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}

	configContent := `
presets:
  - node
workers: 8
trash: true
format: json
exclude:
  - vendor
history:
  enabled: false
  retention_days: 7
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Presets) != 1 || cfg.Presets[0] != "node" {
		t.Errorf("Presets = %v, want [node]", cfg.Presets)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if !cfg.Trash {
		t.Error("Trash = false, want true")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if cfg.History.RetentionDays != 7 {
		t.Errorf("History.RetentionDays = %d, want 7", cfg.History.RetentionDays)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() succeeded on missing explicit config")
	}
}

func TestLoad_ProjectConfigDiscovery(t *testing.T) {
	tempDir := isolate(t)

	// Project config at the root, cwd two levels down.
	if err := os.WriteFile(filepath.Join(tempDir, ProjectConfigName), []byte("workers: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(tempDir, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from project config", cfg.Workers)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("RCLEAN_TRASH", "true")
	t.Setenv("RCLEAN_FORMAT", "plain")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Trash {
		t.Error("Trash = false, want true from environment")
	}
	if cfg.Format != "plain" {
		t.Errorf("Format = %q, want %q from environment", cfg.Format, "plain")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	tempDir := isolate(t)
	if err := os.WriteFile(filepath.Join(tempDir, ProjectConfigName), []byte("workers: [not a number\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(""); err == nil {
		t.Fatal("Load() succeeded on malformed config")
	}
}

func TestBuildRules(t *testing.T) {
	cfg := &Config{
		Presets: []string{"python"},
		Rules: []RuleConfig{
			{Pattern: ".bak", Kind: "suffix", Category: "temp", Policy: "delete"},
		},
	}

	rs, err := cfg.BuildRules()
	if err != nil {
		t.Fatalf("BuildRules() error = %v", err)
	}

	compiled := rs.Rules()
	if compiled[0].Pattern != ".bak" {
		t.Errorf("first rule = %q, want user rule first", compiled[0].Pattern)
	}
	if rs.Len() <= 1 {
		t.Errorf("Len() = %d, want user rule plus preset rules", rs.Len())
	}
}

func TestBuildRules_UserRuleOverridesPreset(t *testing.T) {
	// __pycache__ is also a python preset rule; the user copy with a
	// different policy must win and not count as a duplicate.
	cfg := &Config{
		Presets: []string{"python"},
		Rules: []RuleConfig{
			{Pattern: "__pycache__", Kind: "dirname", Category: "cache", Policy: "if-empty"},
		},
	}

	rs, err := cfg.BuildRules()
	if err != nil {
		t.Fatalf("BuildRules() error = %v", err)
	}

	for _, r := range rs.Rules() {
		if r.Pattern == "__pycache__" && r.Kind == rules.KindDirName {
			if r.Policy != rules.PolicyDeleteIfEmpty {
				t.Errorf("policy = %v, want user override %v", r.Policy, rules.PolicyDeleteIfEmpty)
			}
			return
		}
	}
	t.Error("__pycache__ rule missing")
}

func TestBuildRules_MaxAgeImpliesOlderThan(t *testing.T) {
	cfg := &Config{
		Presets: []string{"common"},
		Rules: []RuleConfig{
			{Pattern: ".tmp", Kind: "suffix", MaxAge: "7d"},
		},
	}

	rs, err := cfg.BuildRules()
	if err != nil {
		t.Fatalf("BuildRules() error = %v", err)
	}

	r := rs.Rules()[0]
	if r.Policy != rules.PolicyDeleteIfOlder {
		t.Errorf("policy = %v, want %v", r.Policy, rules.PolicyDeleteIfOlder)
	}
	if r.MaxAge != 7*24*time.Hour {
		t.Errorf("MaxAge = %v, want %v", r.MaxAge, 7*24*time.Hour)
	}
}

func TestBuildRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "bad kind",
			cfg: Config{Rules: []RuleConfig{
				{Pattern: "x", Kind: "regex"},
			}},
		},
		{
			name: "bad policy",
			cfg: Config{Rules: []RuleConfig{
				{Pattern: "x", Kind: "exact", Policy: "maybe"},
			}},
		},
		{
			name: "bad max_age",
			cfg: Config{Rules: []RuleConfig{
				{Pattern: "x", Kind: "exact", MaxAge: "soon"},
			}},
		},
		{
			name: "unknown preset",
			cfg:  Config{Presets: []string{"cobol"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.BuildRules(); err == nil {
				t.Error("BuildRules() succeeded, want error")
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// The written default must load cleanly.
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() of written default error = %v", err)
	}
	if _, err := cfg.BuildRules(); err != nil {
		t.Errorf("BuildRules() on default config error = %v", err)
	}

	// A second call leaves the existing file alone.
	again, err := WriteDefault()
	if err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	if again != path {
		t.Errorf("second WriteDefault() = %q, want %q", again, path)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/data", filepath.Join(home, "data")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.input)
		if err != nil {
			t.Errorf("ExpandPath(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
