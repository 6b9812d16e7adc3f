//go:build windows
// +build windows

package main

import (
	"context"
	"errors"
	"os"

	"osservice/internal/service"
)

func waitForSignals(context.Context, *service.Notifier) (os.Signal, error) {
	return nil, errors.New("signal waiting is not supported on Windows, use 'dispatch'")
}
