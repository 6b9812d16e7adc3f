package service

import (
	"fmt"
	"sync"
)

// Reporter submits status records to the supervisor and keeps every
// submission moving forward through the lifecycle.
type Reporter struct {
	mgr ControlManager

	// mu covers the order check and the submission, so records reach the
	// supervisor in the order they were accepted.
	mu sync.Mutex
	// lastRank is the lifecycle rank of the last attempted state, -1 before any.
	lastRank int32
}

// NewReporter creates a reporter submitting through mgr.
func NewReporter(mgr ControlManager) *Reporter {
	return &Reporter{mgr: mgr, lastRank: -1}
}

// Report submits the status record for state. Running must directly follow
// StartPending and Stopped must directly follow StopPending; StopPending may
// follow either earlier state, so a stop can arrive during start-up. Any
// other state is refused with ErrStateOrder and never reaches the
// supervisor. A failed attempt still counts as attempted, so Stopped may
// follow a rejected StopPending.
func (r *Reporter) Report(h Handle, state ServiceState) error {
	rank := state.rank()
	if rank < 0 {
		return fmt.Errorf("unknown service state %s: %w", state, ErrStateOrder)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !follows(rank, r.lastRank) {
		if r.lastRank < 0 {
			return fmt.Errorf("cannot report %s first: %w", state, ErrStateOrder)
		}
		return fmt.Errorf("cannot report %s after %s: %w", state, stateOfRank(r.lastRank), ErrStateOrder)
	}
	r.lastRank = rank

	if err := r.mgr.SetStatus(h, NewStatus(state)); err != nil {
		return &StatusReportError{State: state, Code: nativeCode(err), Err: err}
	}
	return nil
}

// follows reports whether a state of rank may be reported after prev.
func follows(rank, prev int32) bool {
	if StopPending.rank() == rank {
		return prev < rank
	}
	return rank == prev+1
}

func stateOfRank(rank int32) ServiceState {
	switch rank {
	case 0:
		return StartPending
	case 1:
		return Running
	case 2:
		return StopPending
	case 3:
		return Stopped
	default:
		return 0
	}
}
