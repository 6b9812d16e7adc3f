//go:build windows
// +build windows

package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/windows/svc"

	"osservice/internal/logger"
)

// WindowsService hosts a workload under the Service Control Manager. The
// workload is cancelled once the dispatcher reports the service stopped.
type WindowsService struct {
	name    string
	sink    *logger.Sink
	runFunc RunFunc
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
}

// NewService creates a new platform-specific service.
func NewService(name string, sink *logger.Sink, runFunc RunFunc) Service {
	return &WindowsService{
		name:    name,
		sink:    sink,
		runFunc: runFunc,
	}
}

// Run starts the service.
func (s *WindowsService) Run(ctx context.Context) error {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	defer s.Stop()

	if !s.IsService() {
		// Running interactively
		return s.runFunc(ctx)
	}

	log := logger.WithComponent("windows-service")
	op := StartServiceDispatcher(s.name, s.sink)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.Stop()
		return s.runFunc(gctx)
	})
	g.Go(func() error {
		err := op.Wait(gctx)
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("Workload finished before the service was stopped")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().Msg("Service stopped by service control manager")
		s.Stop()
		return nil
	})

	return g.Wait()
}

// Stop requests the service to stop.
func (s *WindowsService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil && !s.stopped {
		s.stopped = true
		s.cancel()
	}
	return nil
}

// IsService returns true if running as a Windows service.
func (s *WindowsService) IsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}
