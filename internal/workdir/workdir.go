// Package workdir resolves the directory holding .roster/, so commands work
// from any subdirectory of it and from directories redirected to a shared
// store via a .roster-root file.
package workdir

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/roster/internal/db"
)

const rootFile = ".roster-root"

// ResolveBaseDir walks from start towards the filesystem root and returns the
// first directory that either contains .roster/ or holds a .roster-root file
// (in which case the path inside the file is returned). When neither is
// found, start is returned unchanged.
func ResolveBaseDir(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	for {
		if target, ok := readRootFile(dir); ok {
			return target
		}
		if fi, err := os.Stat(filepath.Join(dir, db.DataDir)); err == nil && fi.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// readRootFile returns the redirect target in dir/.roster-root. Relative
// targets are resolved against dir.
func readRootFile(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Clean(target), true
}
