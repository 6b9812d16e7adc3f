package service

import (
	"context"
	"errors"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitOp(t *testing.T, op *Operation) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := op.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "operation did not complete")
	return err
}

func TestDispatcher_FullLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	d := NewDispatcher(scm, nil)

	op := d.Start("svc1")
	scm.waitForState(t, Running)

	assert.Equal(t, noError, scm.control(ControlInterrogate), "unknown controls are acknowledged")
	assert.Equal(t, []ServiceState{StartPending, Running}, scm.states())

	assert.Equal(t, noError, scm.control(ControlStop))
	require.NoError(t, waitOp(t, op))

	assert.Equal(t, "svc1", scm.dispatchedName)
	assert.Equal(t, []ServiceState{StartPending, Running, StopPending, Stopped}, scm.states())

	var checkpoints []uint32
	for _, st := range scm.recorded() {
		checkpoints = append(checkpoints, st.CheckPoint)
		assert.Equal(t, AcceptStop|AcceptShutdown, st.ControlsAccepted)
	}
	assert.Equal(t, []uint32{1, 0, 1, 0}, checkpoints)
}

func TestDispatcher_ShutdownControlStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	op := NewDispatcher(scm, nil).Start("svc1")
	scm.waitForState(t, Running)

	scm.control(ControlShutdown)
	require.NoError(t, waitOp(t, op))
	assert.Equal(t, []ServiceState{StartPending, Running, StopPending, Stopped}, scm.states())
}

func TestDispatcher_StoppedAttemptedWhenStopPendingFails(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	scm.setStatusErr[StopPending] = syscall.Errno(6)
	op := NewDispatcher(scm, nil).Start("svc1")
	scm.waitForState(t, Running)

	assert.Equal(t, noError, scm.control(ControlStop))
	require.NoError(t, waitOp(t, op))
	assert.Equal(t, []ServiceState{StartPending, Running, StopPending, Stopped}, scm.states())
}

func TestDispatcher_RepeatedStopIgnored(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	op := NewDispatcher(scm, nil).Start("svc1")
	scm.waitForState(t, Running)

	scm.control(ControlStop)
	scm.control(ControlShutdown)
	require.NoError(t, waitOp(t, op))
	assert.Equal(t, []ServiceState{StartPending, Running, StopPending, Stopped}, scm.states())
}

func TestDispatcher_NoRunningWhenStartPendingFails(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	scm.setStatusErr[StartPending] = syscall.Errno(5)
	op := NewDispatcher(scm, nil).Start("svc1")
	scm.waitForState(t, StartPending)

	// The supervisor can still stop the service.
	scm.control(ControlStop)
	require.NoError(t, waitOp(t, op))
	assert.Equal(t, []ServiceState{StartPending, StopPending, Stopped}, scm.states())
}

func TestDispatcher_StopWhileRunningReportInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	release := make(chan struct{})
	scm.hold[Running] = release

	op := NewDispatcher(scm, nil).Start("svc1")
	select {
	case st := <-scm.held:
		require.Equal(t, Running, st)
	case <-time.After(2 * time.Second):
		t.Fatal("Running was never submitted")
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		assert.Equal(t, noError, scm.control(ControlStop))
	}()

	// The stop sequence waits for the in-flight Running submission.
	select {
	case <-stopped:
		t.Fatal("stop completed while Running was still being submitted")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop sequence never completed")
	}

	require.NoError(t, waitOp(t, op))
	assert.Equal(t, []ServiceState{StartPending, Running, StopPending, Stopped}, scm.states())
}

func TestDispatcher_StopDuringStartPending(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	release := make(chan struct{})
	scm.hold[StartPending] = release

	op := NewDispatcher(scm, nil).Start("svc1")
	select {
	case <-scm.held:
	case <-time.After(2 * time.Second):
		t.Fatal("StartPending was never submitted")
	}

	// The handle is published before StartPending, so the stop is accepted
	// and must wait; Running is refused afterwards.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		scm.control(ControlStop)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-stopped

	require.NoError(t, waitOp(t, op))
	states := scm.states()
	assert.Equal(t, StartPending, states[0])
	assert.Equal(t, []ServiceState{StopPending, Stopped}, states[len(states)-2:])
	for i := 1; i < len(states); i++ {
		assert.Greater(t, states[i].rank(), states[i-1].rank(), "states out of order: %v", states)
	}
}

func TestDispatcher_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	scm.autoStop = true
	d := NewDispatcher(scm, nil)

	first := d.Start("svc1")
	second := d.Start("svc1")

	assert.ErrorIs(t, waitOp(t, second), ErrAlreadyStarted)
	require.NoError(t, waitOp(t, first))
	assert.Equal(t, 1, scm.dispatchCalls)
}

func TestDispatcher_InvalidName(t *testing.T) {
	tests := []struct {
		name string
		svc  string
	}{
		{"empty", ""},
		{"embedded nul", "svc\x001"},
		{"invalid utf8", "svc\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scm := newFakeSCM()
			err := waitOp(t, NewDispatcher(scm, nil).Start(tt.svc))

			var nee *NameEncodingError
			require.True(t, errors.As(err, &nee), "expected *NameEncodingError, got %T", err)
			assert.Equal(t, tt.svc, nee.Name)
			assert.Equal(t, 0, scm.dispatchCalls, "dispatcher must not be called")
		})
	}
}

func TestDispatcher_DispatchFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	// ERROR_FAILED_SERVICE_CONTROLLER_CONNECT
	scm.dispatchErr = syscall.Errno(1063)

	err := waitOp(t, NewDispatcher(scm, nil).Start("svc1"))

	var de *DispatchError
	require.True(t, errors.As(err, &de), "expected *DispatchError, got %T", err)
	assert.Equal(t, uint32(1063), de.Code)
	assert.Equal(t, "svc1", de.Name)
	assert.Contains(t, err.Error(), "name: [svc1], code: [1063]")
	assert.Empty(t, scm.states())
}

func TestDispatcher_RegistrationFailureSurfaced(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scm := newFakeSCM()
	scm.registerErr = syscall.Errno(1060) // ERROR_SERVICE_DOES_NOT_EXIST

	err := waitOp(t, NewDispatcher(scm, nil).Start("svc1"))

	var re *RegistrationError
	require.True(t, errors.As(err, &re), "expected *RegistrationError, got %T", err)
	assert.Equal(t, uint32(1060), re.Code)
	assert.Empty(t, scm.states(), "no status may be reported without a handle")
}

func TestDispatcher_ControlBeforeHandlePublished(t *testing.T) {
	scm := newFakeSCM()
	d := NewDispatcher(scm, nil)

	assert.Equal(t, noError, d.handleControl(ControlStop))
	assert.Empty(t, scm.states())
}

func TestHandleSlot(t *testing.T) {
	var s handleSlot

	_, ok := s.load()
	assert.False(t, ok)

	assert.Error(t, s.publish(0))
	require.NoError(t, s.publish(fakeHandle))
	assert.ErrorIs(t, s.publish(fakeHandle+1), errHandlePublished)

	h, ok := s.load()
	assert.True(t, ok)
	assert.Equal(t, fakeHandle, h)
}

func TestHandleSlot_ConcurrentReaders(t *testing.T) {
	var s handleSlot
	done := make(chan Handle, 8)

	for i := 0; i < cap(done); i++ {
		go func() {
			for {
				if h, ok := s.load(); ok {
					done <- h
					return
				}
			}
		}()
	}

	require.NoError(t, s.publish(fakeHandle))
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, fakeHandle, <-done)
	}
}

func TestNewControlManager_UnsupportedOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("native manager talks to the real SCM")
	}

	err := waitOp(t, NewDispatcher(NewControlManager(), nil).Start("svc1"))

	var de *DispatchError
	require.True(t, errors.As(err, &de), "expected *DispatchError, got %T", err)
	assert.Equal(t, uint32(120), de.Code)
}
