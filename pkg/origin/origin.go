// Package origin classifies source files as user code or system/library
// origin. System origin covers the Go distribution, the module cache, files
// outside the enclosing module, and generated files.
package origin

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/modfile"
)

// Classifier decides whether a file path belongs to system origin relative to
// one enclosing module.
type Classifier struct {
	goroot     string
	gomodcache string
	moduleDir  string
	modulePath string
}

// NewClassifier locates the module enclosing dir (walking up to the nearest
// go.mod) and records the toolchain roots. A missing go.mod is not an error:
// every file outside GOROOT and the module cache then counts as user code.
func NewClassifier(dir string) *Classifier {
	c := &Classifier{
		goroot:     os.Getenv("GOROOT"),
		gomodcache: os.Getenv("GOMODCACHE"),
	}
	if c.gomodcache == "" {
		if gopath := os.Getenv("GOPATH"); gopath != "" {
			c.gomodcache = filepath.Join(gopath, "pkg", "mod")
		}
	}
	if modDir, data, ok := findGoMod(dir); ok {
		c.moduleDir = modDir
		if f, err := modfile.ParseLax(filepath.Join(modDir, "go.mod"), data, nil); err == nil && f.Module != nil {
			c.modulePath = f.Module.Mod.Path
		}
	}
	return c
}

// ModulePath returns the enclosing module path, if one was found.
func (c *Classifier) ModulePath() string {
	return c.modulePath
}

// SystemOrigin reports whether path is attributed to system/library origin.
func (c *Classifier) SystemOrigin(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if c.goroot != "" && underDir(abs, c.goroot) {
		return true
	}
	if c.gomodcache != "" && underDir(abs, c.gomodcache) {
		return true
	}
	if c.moduleDir != "" && !underDir(abs, c.moduleDir) {
		return true
	}
	return false
}

var generatedRe = regexp.MustCompile(`(?m)^// Code generated .* DO NOT EDIT\.$`)

// Generated reports whether src carries the conventional generated-file
// marker. Generated files are treated like system origin: rewriting them is
// pointless at best.
func Generated(src []byte) bool {
	// The marker must appear before the package clause.
	head := src
	if bytes.HasPrefix(src, []byte("package ")) {
		head = nil
	} else if idx := bytes.Index(src, []byte("\npackage ")); idx >= 0 {
		head = src[:idx]
	}
	return generatedRe.Match(head)
}

func findGoMod(dir string) (string, []byte, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, false
	}
	for {
		candidate := filepath.Join(abs, "go.mod")
		if data, err := os.ReadFile(candidate); err == nil {
			return abs, data, true
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil, false
		}
		abs = parent
	}
}

func underDir(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
