package service

import (
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"osservice/internal/logger"
)

// Dispatcher connects the process to the supervisor's control dispatcher
// and drives the status state machine of the single hosted service.
type Dispatcher struct {
	mgr      ControlManager
	sink     *logger.Sink
	reporter *Reporter
	slot     handleSlot

	started atomic.Bool
	regErr  atomic.Pointer[RegistrationError]
}

// NewDispatcher creates a dispatcher using mgr for all native calls.
// sink may be nil.
func NewDispatcher(mgr ControlManager, sink *logger.Sink) *Dispatcher {
	return &Dispatcher{
		mgr:      mgr,
		sink:     sink,
		reporter: NewReporter(mgr),
	}
}

var (
	defaultOnce       sync.Once
	defaultDispatcher *Dispatcher
)

// StartServiceDispatcher connects the process to the supervisor under the
// given service name. The returned operation resolves when the service
// has stopped. The process-wide dispatcher is created on the first call
// with the given sink; any later call resolves to ErrAlreadyStarted.
func StartServiceDispatcher(name string, sink *logger.Sink) *Operation {
	defaultOnce.Do(func() {
		defaultDispatcher = NewDispatcher(NewControlManager(), sink)
	})
	return defaultDispatcher.Start(name)
}

// Start runs the blocking dispatch call on a dedicated thread. It can be
// called once per dispatcher.
func (d *Dispatcher) Start(name string) *Operation {
	const opName = "start-service-dispatcher"
	if !d.started.CompareAndSwap(false, true) {
		return completedOperation(opName, ErrAlreadyStarted)
	}
	return runBridged(opName, func() error {
		return d.dispatch(name)
	})
}

func (d *Dispatcher) dispatch(name string) error {
	log := logger.WithComponent("dispatcher")

	if !validServiceName(name) {
		return &NameEncodingError{Name: name}
	}

	log.Info().Str("name", name).Msg("Connecting to service control dispatcher")
	if err := d.mgr.StartDispatcher(name, d.serviceMain); err != nil {
		return &DispatchError{Name: name, Code: nativeCode(err), Err: err}
	}
	log.Info().Str("name", name).Msg("Service control dispatcher returned")

	if regErr := d.regErr.Load(); regErr != nil {
		return regErr
	}
	return nil
}

// serviceMain is invoked by the supervisor on a thread it owns.
func (d *Dispatcher) serviceMain(name string) {
	log := logger.WithComponent("dispatcher")

	h, err := d.mgr.RegisterHandler(name, d.handleControl)
	if err != nil {
		regErr := &RegistrationError{Name: name, Code: nativeCode(err), Err: err}
		d.regErr.Store(regErr)
		d.sink.Log(regErr.Error())
		log.Error().Err(regErr).Msg("Control handler registration failed")
		return
	}

	if err := d.slot.publish(h); err != nil {
		d.sink.Logf("control handle publish error: %v", err)
		log.Error().Err(err).Msg("Control handle publish failed")
		return
	}

	if err := d.reporter.Report(h, StartPending); err != nil {
		d.sink.Log(err.Error())
		log.Error().Err(err).Msg("Failed to report start pending")
		return
	}
	if err := d.reporter.Report(h, Running); err != nil {
		d.sink.Log(err.Error())
		log.Error().Err(err).Msg("Failed to report running")
		return
	}
	log.Info().Str("name", name).Msg("Service running")
}

// handleControl is the control handler. It runs on a supervisor-owned
// thread and has no way to return an error to the caller, so failures are
// only logged. It always acknowledges with NO_ERROR.
func (d *Dispatcher) handleControl(ctrl uint32) uint32 {
	if ctrl != ControlStop && ctrl != ControlShutdown {
		return noError
	}

	log := logger.WithComponent("control-handler")
	log.Info().Str("control", controlName(ctrl)).Msg("Received control from supervisor")

	h, ok := d.slot.load()
	if !ok {
		log.Warn().Str("control", controlName(ctrl)).Msg("Control received before handle was published")
		return noError
	}

	d.stop(h)
	return noError
}

// stop reports StopPending then Stopped. Both reports are always attempted.
func (d *Dispatcher) stop(h Handle) {
	log := logger.WithComponent("control-handler")
	for _, state := range []ServiceState{StopPending, Stopped} {
		if err := d.reporter.Report(h, state); err != nil {
			d.sink.Log(err.Error())
			log.Warn().Err(err).Str("state", state.String()).Msg("Status report failed")
		}
	}
}

// validServiceName reports whether name can be encoded as a NUL-terminated
// UTF-16 string.
func validServiceName(name string) bool {
	return name != "" && utf8.ValidString(name) && !strings.ContainsRune(name, 0)
}
