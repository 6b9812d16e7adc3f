//go:build !windows
// +build !windows

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxModulePathLen mirrors PATH_MAX on Linux.
const maxModulePathLen = 4096

// ModulePath returns the absolute path of the running executable with
// symlinks resolved.
func ModulePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", &ConfigError{Op: "resolve", Err: err}
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", &ConfigError{Op: "resolve", Path: exe, Err: err}
	}
	if len(resolved) >= maxModulePathLen {
		return "", &ConfigError{Op: "resolve", Err: fmt.Errorf("module path exceeds %d bytes", maxModulePathLen)}
	}
	return resolved, nil
}
