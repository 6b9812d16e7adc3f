package service

import (
	"context"
	"runtime"
	"sync/atomic"

	"osservice/internal/logger"
)

// Operation is the one-shot result of a blocking call executed on a
// dedicated OS thread. Exactly one result is delivered and it can be
// consumed exactly once: Wait after the result was received, or while
// another Wait is in progress, returns ErrAlreadyAwaited.
//
// There is no cancellation. A ctx passed to Wait only bounds the wait;
// the underlying call keeps running and the result stays available.
type Operation struct {
	name    string
	ch      chan error
	claimed atomic.Bool
}

// runBridged executes fn on a goroutine locked to its own OS thread and
// delivers its return value through the operation. The thread is
// discarded when fn returns. If fn panics the operation resolves to
// ErrChannelClosed.
func runBridged(name string, fn func() error) *Operation {
	op := &Operation{name: name, ch: make(chan error, 1)}

	go func() {
		// Never unlocked: the thread exits with the goroutine.
		runtime.LockOSThread()

		defer close(op.ch)
		defer func() {
			if r := recover(); r != nil {
				log := logger.WithComponent("bridge")
				log.Error().
					Str("op", name).
					Interface("panic", r).
					Msg("Bridged operation terminated without a result")
			}
		}()

		op.ch <- fn()
	}()

	return op
}

// completedOperation returns an operation already resolved to err.
func completedOperation(name string, err error) *Operation {
	op := &Operation{name: name, ch: make(chan error, 1)}
	op.ch <- err
	close(op.ch)
	return op
}

// Name returns the operation name used in diagnostics.
func (op *Operation) Name() string {
	return op.name
}

// Wait blocks until the operation delivers its result or ctx is done.
func (op *Operation) Wait(ctx context.Context) error {
	if !op.claimed.CompareAndSwap(false, true) {
		return ErrAlreadyAwaited
	}

	select {
	case err, ok := <-op.ch:
		if !ok {
			return ErrChannelClosed
		}
		return err
	case <-ctx.Done():
		op.claimed.Store(false)
		return ctx.Err()
	}
}
