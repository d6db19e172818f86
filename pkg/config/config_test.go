package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"optrace/pkg/config"
)

func TestDefaults(t *testing.T) {
	opts := config.Default()
	if !opts.IndexAccess {
		t.Error("index access should be on by default")
	}
	if opts.Arithmetic || opts.Assignment || opts.Comparison {
		t.Error("other categories should be opt-in")
	}
	if !opts.SkipSystemOrigin {
		t.Error("system origin should be skipped by default")
	}
	if opts.RuntimeImportPath == "" {
		t.Error("runtime import path must have a default")
	}
	if !opts.AnyEnabled() {
		t.Error("defaults must enable at least one category")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optrace.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
index_access = false
arithmetic = true
comparison = true
runtime_import_path = "example.com/rt"
concurrency = 4
`)
	opts, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if opts.IndexAccess {
		t.Error("index_access = false not applied")
	}
	if !opts.Arithmetic || !opts.Comparison {
		t.Error("enabled categories not applied")
	}
	if opts.Assignment {
		t.Error("unset keys must keep their defaults")
	}
	if opts.RuntimeImportPath != "example.com/rt" {
		t.Errorf("unexpected runtime import path %q", opts.RuntimeImportPath)
	}
	if opts.Concurrency != 4 {
		t.Errorf("unexpected concurrency %d", opts.Concurrency)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, `arithmetics = true`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
