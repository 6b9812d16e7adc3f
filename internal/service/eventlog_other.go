//go:build !windows
// +build !windows

package service

// ReportStartupError is a no-op on non-Windows platforms; systemd captures
// stderr in the journal.
func ReportStartupError(serviceName string, err error) {}
