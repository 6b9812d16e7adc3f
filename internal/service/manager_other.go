//go:build !windows
// +build !windows

package service

import "fmt"

// errorCallNotImplemented is ERROR_CALL_NOT_IMPLEMENTED.
const errorCallNotImplemented uint32 = 120

type unsupportedError struct {
	call string
}

func (e unsupportedError) Error() string {
	return fmt.Sprintf("%s is not available on this platform", e.call)
}

func (e unsupportedError) NativeCode() uint32 { return errorCallNotImplemented }

type unsupportedManager struct{}

// NewControlManager returns a manager whose calls all fail: there is no
// Service Control Manager outside Windows. Use the readiness notifier instead.
func NewControlManager() ControlManager {
	return unsupportedManager{}
}

func (unsupportedManager) StartDispatcher(string, func(string)) error {
	return unsupportedError{call: "StartServiceCtrlDispatcherW"}
}

func (unsupportedManager) RegisterHandler(string, func(uint32) uint32) (Handle, error) {
	return 0, unsupportedError{call: "RegisterServiceCtrlHandlerExW"}
}

func (unsupportedManager) SetStatus(Handle, Status) error {
	return unsupportedError{call: "SetServiceStatus"}
}
