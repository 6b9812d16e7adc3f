package service

import "fmt"

// ServiceState is a supervisor-visible lifecycle state. Values match the
// native SERVICE_* state codes.
type ServiceState uint32

const (
	Stopped      ServiceState = 1
	StartPending ServiceState = 2
	StopPending  ServiceState = 3
	Running      ServiceState = 4
)

// Control codes delivered by the supervisor to the control handler.
const (
	ControlStop        uint32 = 1
	ControlInterrogate uint32 = 4
	ControlShutdown    uint32 = 5
)

// Accepted-controls bits and the fixed service type of a status record.
const (
	AcceptStop     uint32 = 0x1
	AcceptShutdown uint32 = 0x4

	serviceWin32OwnProcess uint32 = 0x10
	noError                uint32 = 0
)

func (s ServiceState) String() string {
	switch s {
	case Running:
		return "SERVICE_RUNNING"
	case StartPending:
		return "SERVICE_START_PENDING"
	case StopPending:
		return "SERVICE_STOP_PENDING"
	case Stopped:
		return "SERVICE_STOPPED"
	default:
		return fmt.Sprintf("%d", uint32(s))
	}
}

// rank orders states along the lifecycle StartPending -> Running ->
// StopPending -> Stopped. Unknown states rank below all of them.
func (s ServiceState) rank() int32 {
	switch s {
	case StartPending:
		return 0
	case Running:
		return 1
	case StopPending:
		return 2
	case Stopped:
		return 3
	default:
		return -1
	}
}

// pending reports whether progress checkpoints are meaningful in this state.
func (s ServiceState) pending() bool {
	return s == StartPending || s == StopPending
}

// Status is the record submitted to the supervisor on every transition.
type Status struct {
	ServiceType             uint32
	CurrentState            ServiceState
	ControlsAccepted        uint32
	Win32ExitCode           uint32
	ServiceSpecificExitCode uint32
	CheckPoint              uint32
	WaitHint                uint32
}

// NewStatus builds the status record for state. Only stop and shutdown are
// ever accepted.
func NewStatus(state ServiceState) Status {
	st := Status{
		ServiceType:      serviceWin32OwnProcess,
		CurrentState:     state,
		ControlsAccepted: AcceptStop | AcceptShutdown,
		Win32ExitCode:    noError,
	}
	if state.pending() {
		st.CheckPoint = 1
	}
	return st
}

func controlName(ctrl uint32) string {
	switch ctrl {
	case ControlStop:
		return "SERVICE_CONTROL_STOP"
	case ControlShutdown:
		return "SERVICE_CONTROL_SHUTDOWN"
	case ControlInterrogate:
		return "SERVICE_CONTROL_INTERROGATE"
	default:
		return fmt.Sprintf("%d", ctrl)
	}
}
