// Package service bridges a long-running process to the host operating
// system's service supervisor: systemd readiness notification and signal
// handling on Linux, the Service Control Manager on Windows.
package service

import "context"

// defaultEventSource is the event source used for startup errors reported
// before the service name is known.
const defaultEventSource = "osservice"

// Service defines the interface for platform-specific service management.
type Service interface {
	// Run starts the service. It blocks until the service is stopped.
	Run(ctx context.Context) error

	// Stop requests the service to stop.
	Stop() error

	// IsService returns true if running under the system supervisor.
	IsService() bool
}

// RunFunc is the workload hosted by the service.
type RunFunc func(ctx context.Context) error
