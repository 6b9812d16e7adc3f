package service

import (
	"errors"
	"sync/atomic"
)

var errHandlePublished = errors.New("control handle already published")

// handleSlot holds the control handle for the lifetime of the process.
// It is written once by the registration step and read by the control
// handler on a supervisor-owned thread; the atomic store/load pair gives
// the required happens-before edge.
type handleSlot struct {
	v atomic.Uintptr
}

func (s *handleSlot) publish(h Handle) error {
	if h == 0 {
		return errors.New("cannot publish a null control handle")
	}
	if !s.v.CompareAndSwap(0, uintptr(h)) {
		return errHandlePublished
	}
	return nil
}

func (s *handleSlot) load() (Handle, bool) {
	h := s.v.Load()
	return Handle(h), h != 0
}
