package service

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrChannelClosed is returned when a bridged operation terminated
	// without delivering a result. It indicates a defect in the bridge.
	ErrChannelClosed = errors.New("async op channel receive failure")

	// ErrAlreadyAwaited is returned by a second Wait on the same operation.
	ErrAlreadyAwaited = errors.New("async op result already awaited")

	// ErrAlreadyStarted is returned when a dispatcher is started twice.
	ErrAlreadyStarted = errors.New("service dispatcher is already started")

	// ErrStateOrder is returned when a status report would move the
	// service backwards in its lifecycle or repeat a state.
	ErrStateOrder = errors.New("service state transition out of order")
)

// nativeCoder is implemented by errors that carry a platform error code
// other than a syscall.Errno.
type nativeCoder interface {
	NativeCode() uint32
}

// nativeCode extracts the platform error code from err, or 0 when none is present.
func nativeCode(err error) uint32 {
	var nc nativeCoder
	if errors.As(err, &nc) {
		return nc.NativeCode()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}

// NameEncodingError reports a service name that cannot be passed to the
// supervisor as a NUL-terminated wide string.
type NameEncodingError struct {
	Name string
}

func (e *NameEncodingError) Error() string {
	return fmt.Sprintf("Name widen error, value: [%s]", e.Name)
}

// RegistrationError reports that the supervisor rejected the control
// handler registration.
type RegistrationError struct {
	Name string
	Code uint32
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("RegisterServiceCtrlHandlerExW error, name: [%s], code: [%d]", e.Name, e.Code)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// DispatchError reports a failed blocking dispatch/connect call.
type DispatchError struct {
	Name string
	Code uint32
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("StartServiceCtrlDispatcherW error, name: [%s], code: [%d]", e.Name, e.Code)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// StatusReportError reports a status update rejected by the supervisor.
type StatusReportError struct {
	State ServiceState
	Code  uint32
	Err   error
}

func (e *StatusReportError) Error() string {
	return fmt.Sprintf("SetServiceStatus error, status: [%s], code: [%d]", e.State, e.Code)
}

func (e *StatusReportError) Unwrap() error { return e.Err }

// NotifyError reports a failed readiness notification. Code follows the
// sd_notify convention: 0 when no notification socket is configured,
// a negative errno on failure.
type NotifyError struct {
	Code int
	Err  error
}

func (e *NotifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Error notifying SystemD, code: [%d]: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("Error notifying SystemD, code: [%d]", e.Code)
}

func (e *NotifyError) Unwrap() error { return e.Err }
