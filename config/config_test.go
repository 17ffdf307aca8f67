package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Workers != 25 {
		t.Errorf("Workers: got %d, want 25", cfg.Workers)
	}
	if cfg.OutputPath() != "ZooplaScrape.xlsx" {
		t.Errorf("OutputPath: got %q", cfg.OutputPath())
	}
}

func TestLoadLayersYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crawl.yaml")
	yml := "max_pages: 7\nworkers: 4\nmode: sequential\nrequest_timeout: 5s\noutput_base: yaml-out\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WORKERS", "9")
	t.Setenv("INCLUDE_LAST_PAGE", "true")
	t.Setenv("CHROME_BIN", "/opt/chromium/chrome")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MaxPages != 7 {
		t.Errorf("MaxPages: got %d, want 7 (from yaml)", cfg.MaxPages)
	}
	if cfg.Workers != 9 {
		t.Errorf("Workers: got %d, want 9 (env wins over yaml)", cfg.Workers)
	}
	if cfg.Mode != ModeSequential {
		t.Errorf("Mode: got %q, want %q", cfg.Mode, ModeSequential)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout: got %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.ChromeBin != "/opt/chromium/chrome" {
		t.Errorf("ChromeBin: got %q, want it from env", cfg.ChromeBin)
	}
	if !cfg.IncludeLastPage {
		t.Error("IncludeLastPage should be set from env")
	}
	if cfg.OutputPath() != "yaml-out.xlsx" {
		t.Errorf("OutputPath: got %q", cfg.OutputPath())
	}
}

func TestLoadMissingYAML(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero pages", func(c *Config) { c.MaxPages = 0 }, "max pages"},
		{"bad mode", func(c *Config) { c.Mode = "parallel" }, "crawl mode"},
		{"bad fetch", func(c *Config) { c.FetchMode = "curl" }, "fetch mode"},
		{"no placeholder", func(c *Config) { c.PropertyURLTemplate = "http://x/details/" }, "placeholder"},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: got %v, want error containing %q", tt.name, err, tt.want)
		}
	}
}

func TestSeedPath(t *testing.T) {
	cfg := Default()
	if cfg.SeedPath() != "ZooplaScrape.xlsx" {
		t.Errorf("SeedPath with LoadExisting: got %q", cfg.SeedPath())
	}

	cfg.SeedFile = "previous.xlsx"
	if cfg.SeedPath() != "previous.xlsx" {
		t.Errorf("SeedPath with SeedFile: got %q", cfg.SeedPath())
	}

	cfg.SeedFile = ""
	cfg.LoadExisting = false
	if cfg.SeedPath() != "" {
		t.Errorf("SeedPath without seeding: got %q", cfg.SeedPath())
	}
}
