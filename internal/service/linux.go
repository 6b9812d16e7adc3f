//go:build !windows
// +build !windows

package service

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sync/errgroup"

	"osservice/internal/logger"
)

// LinuxService hosts a workload under systemd: it notifies readiness once
// the workload has been started and stops it on SIGINT or SIGTERM.
type LinuxService struct {
	name    string
	sink    *logger.Sink
	runFunc RunFunc
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool

	// isService overrides supervisor detection in tests.
	isService func() bool
}

// NewService creates a new platform-specific service.
func NewService(name string, sink *logger.Sink, runFunc RunFunc) Service {
	return &LinuxService{
		name:    name,
		sink:    sink,
		runFunc: runFunc,
	}
}

// Run starts the workload and blocks until it returns or a shutdown
// signal arrives. Readiness is only notified when running under systemd.
func (s *LinuxService) Run(ctx context.Context) error {
	log := logger.WithComponent("linux-service")

	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	defer s.Stop()

	var notifier *Notifier
	if s.IsService() {
		notifier = NewNotifier(s.sink)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.Stop()
		return s.runFunc(gctx)
	})
	g.Go(func() error {
		sig, err := WaitForSignals(gctx, notifier)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		s.sink.Logf("shutdown signal received: [%s]", sig)
		s.Stop()
		return nil
	})

	log.Info().Str("name", s.name).Msg("Service started")
	return g.Wait()
}

// Stop requests the service to stop.
func (s *LinuxService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil && !s.stopped {
		s.stopped = true
		s.cancel()
	}
	return nil
}

// IsService returns true if the process was started by systemd.
func (s *LinuxService) IsService() bool {
	if s.isService != nil {
		return s.isService()
	}
	return isSystemdService()
}

func isSystemdService() bool {
	if os.Getenv("NOTIFY_SOCKET") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	parent, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		return false
	}
	name, err := parent.Name()
	if err != nil {
		return false
	}
	return name == "systemd"
}
