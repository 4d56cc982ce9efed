package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/edgebreaker/pkg/edgebreaker"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Encoder.Method != "auto" {
		t.Errorf("expected method auto, got %s", cfg.Encoder.Method)
	}
	if cfg.Encoder.Speed != 5 {
		t.Errorf("expected speed 5, got %d", cfg.Encoder.Speed)
	}
	if !cfg.Encoder.Deduplicate {
		t.Error("expected deduplication on by default")
	}
	if cfg.Output.XZ {
		t.Error("expected xz off by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "meshtool.yaml")
	yamlContent := `
encoder:
  method: valence
  speed: 2
  single_connectivity: true

output:
  xz: true

store:
  path: "/var/lib/meshes"

logging:
  level: "debug"
  log_file: "meshtool.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Encoder.Method != "valence" || cfg.Encoder.Speed != 2 || !cfg.Encoder.SingleConnectivity {
		t.Errorf("unexpected encoder section %+v", cfg.Encoder)
	}
	if !cfg.Encoder.Deduplicate {
		t.Error("unset keys should keep their defaults")
	}
	if !cfg.Output.XZ {
		t.Error("expected xz to be true")
	}
	if cfg.Store.Path != "/var/lib/meshes" {
		t.Errorf("expected store path /var/lib/meshes, got %s", cfg.Store.Path)
	}
	if cfg.Logging.LogFile != "meshtool.log" {
		t.Errorf("expected log file 'meshtool.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":      "encoder:\n  speed: not a number\n  invalid syntax here\n",
		"unknown key": "encoder:\n  sped: 3\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Encoder.Speed != 5 {
		t.Errorf("expected defaults to survive, got speed %d", cfg.Encoder.Speed)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/meshtool.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"predictive", func(c *Config) { c.Encoder.Method = "Predictive" }, true},
		{"empty method", func(c *Config) { c.Encoder.Method = "" }, true},
		{"unknown method", func(c *Config) { c.Encoder.Method = "spiral" }, false},
		{"negative speed", func(c *Config) { c.Encoder.Speed = -1 }, false},
		{"speed too high", func(c *Config) { c.Encoder.Speed = 11 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEncoderOptions(t *testing.T) {
	cfg := Default()
	cfg.Encoder.Method = "predictive"
	cfg.Encoder.Speed = 3
	cfg.Encoder.SingleConnectivity = true

	opts, err := cfg.EncoderOptions(nil)
	if err != nil {
		t.Fatalf("EncoderOptions failed: %v", err)
	}
	if opts.Traversal != edgebreaker.TraversalPredictive {
		t.Errorf("expected predictive traversal, got %v", opts.Traversal)
	}
	if opts.Speed != 3 || !opts.SingleConnectivity {
		t.Errorf("unexpected options %+v", opts)
	}

	cfg.Encoder.Method = "auto"
	opts, _ = cfg.EncoderOptions(nil)
	if opts.Traversal != edgebreaker.TraversalAuto {
		t.Errorf("expected auto traversal, got %v", opts.Traversal)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "method and speed",
			args: []string{"-method", "valence", "-speed", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Encoder.Method != "valence" {
					t.Errorf("expected method valence, got %s", cfg.Encoder.Method)
				}
				if cfg.Encoder.Speed != 0 {
					t.Errorf("expected speed 0, got %d", cfg.Encoder.Speed)
				}
			},
		},
		{
			name: "speed untouched without flag",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Encoder.Speed != 5 {
					t.Errorf("expected default speed, got %d", cfg.Encoder.Speed)
				}
			},
		},
		{
			name: "output and store",
			args: []string{"-xz", "-single", "-store", "/tmp/archive"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Output.XZ || !cfg.Encoder.SingleConnectivity {
					t.Error("expected xz and single connectivity")
				}
				if cfg.Store.Path != "/tmp/archive" {
					t.Errorf("expected store /tmp/archive, got %s", cfg.Store.Path)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			cfg := Default()
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "meshtool.yaml")
	yamlContent := "encoder:\n  method: predictive\n  speed: 8\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-speed", "1"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Encoder.Speed != 1 {
		t.Errorf("expected speed 1 from flag, got %d", cfg.Encoder.Speed)
	}
	if cfg.Encoder.Method != "predictive" {
		t.Errorf("expected method from file, got %s", cfg.Encoder.Method)
	}
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	if err := fs.Parse([]string{"-config", "/dev/null", "-speed", "42"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := Load(f); err == nil {
		t.Error("expected speed 42 to be rejected")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meshtool.yaml")
	cfg := Default()
	cfg.Encoder.Method = "valence"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	back := Default()
	if err := loadFromFile(back, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if back.Encoder.Method != "valence" {
		t.Errorf("expected saved method valence, got %s", back.Encoder.Method)
	}
}
