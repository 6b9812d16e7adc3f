//go:build !windows
// +build !windows

package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"osservice/internal/logger"
)

// Create variable signal.Notify function so we can mock it in tests
var signalNotify = signal.Notify

// trackedSignals are the signals that end WaitForSignals.
var trackedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// WaitForSignals notifies readiness through n and then blocks until
// SIGINT or SIGTERM arrives, returning the consumed signal. Subscription
// happens before the notification so a signal sent in reaction to
// readiness is never lost. A nil n skips the notification.
//
// A failed notification is returned immediately; there is no retry.
func WaitForSignals(ctx context.Context, n *Notifier) (os.Signal, error) {
	log := logger.WithComponent("signal-waiter")

	sigChan := make(chan os.Signal, 1)
	signalNotify(sigChan, trackedSignals...)
	defer signal.Stop(sigChan)

	if n != nil {
		if err := n.Notify(); err != nil {
			return nil, err
		}
	}

	log.Info().Msg("Is due to wait for signals")
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Incoming signal")
		return sig, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
