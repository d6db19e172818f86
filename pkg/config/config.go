// Package config holds the flat option set for a transformation run. The
// options are an explicit value handed to each stage at construction; there
// is no ambient mutable configuration.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Options selects operator categories and run behavior.
type Options struct {
	IndexAccess bool `toml:"index_access"`
	Arithmetic  bool `toml:"arithmetic"`
	Assignment  bool `toml:"assignment"`
	Comparison  bool `toml:"comparison"`

	SkipSystemOrigin bool `toml:"skip_system_origin"`
	DryRun           bool `toml:"dry_run"`

	// RuntimeImportPath is the package the rewritten code calls into.
	RuntimeImportPath string `toml:"runtime_import_path"`

	// RuntimeAlias overrides the mangled import alias. Leave empty for the
	// deterministic mangle.
	RuntimeAlias string `toml:"runtime_alias"`

	// Concurrency bounds the cross-file fan-out. Zero means one file at a
	// time; traversal within a file is always sequential.
	Concurrency int `toml:"concurrency"`
}

// Default mirrors the historical defaults: index accesses on, the other
// categories opt-in, system origin skipped.
func Default() *Options {
	return &Options{
		IndexAccess:       true,
		Arithmetic:        false,
		Assignment:        false,
		Comparison:        false,
		SkipSystemOrigin:  true,
		RuntimeImportPath: "optrace/pkg/runtime",
		Concurrency:       1,
	}
}

// Load reads a TOML options file over the defaults.
func Load(path string) (*Options, error) {
	opts := Default()
	meta, err := toml.DecodeFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return opts, nil
}

// AnyEnabled reports whether at least one category is selected.
func (o *Options) AnyEnabled() bool {
	return o.IndexAccess || o.Arithmetic || o.Assignment || o.Comparison
}
