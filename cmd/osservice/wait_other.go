//go:build !windows
// +build !windows

package main

import (
	"context"
	"os"

	"osservice/internal/service"
)

func waitForSignals(ctx context.Context, n *service.Notifier) (os.Signal, error) {
	return service.WaitForSignals(ctx, n)
}
