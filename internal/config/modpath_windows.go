//go:build windows
// +build windows

package config

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// maxModulePathLen is the longest path GetModuleFileNameW can return
// for extended-length paths, in UTF-16 code units.
const maxModulePathLen = 32767

// ModulePath returns the absolute path of the running executable.
func ModulePath() (string, error) {
	buf := make([]uint16, maxModulePathLen)
	n, err := windows.GetModuleFileName(0, &buf[0], uint32(len(buf)))
	if err != nil {
		return "", &ConfigError{Op: "resolve", Err: fmt.Errorf("GetModuleFileNameW error: %w", err)}
	}
	if int(n) >= len(buf) {
		return "", &ConfigError{Op: "resolve", Err: fmt.Errorf("module path exceeds %d characters", maxModulePathLen)}
	}
	return windows.UTF16ToString(buf[:n]), nil
}
