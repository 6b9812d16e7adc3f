package service

// Handle identifies this process's registration with the supervisor.
type Handle uintptr

// ControlManager is the native supervisor API used by the dispatcher.
//
// StartDispatcher blocks the calling OS thread until the service has
// stopped; main is invoked by the supervisor on a thread it owns.
// The handler passed to RegisterHandler is likewise invoked on a
// supervisor-owned thread for every control code.
type ControlManager interface {
	StartDispatcher(name string, main func(name string)) error
	RegisterHandler(name string, handler func(ctrl uint32) uint32) (Handle, error)
	SetStatus(h Handle, st Status) error
}
