package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fakeHandle Handle = 0x5c0de

// fakeSCM simulates the Service Control Manager: StartDispatcher invokes
// service main on its own goroutine and returns once Stopped was reported.
type fakeSCM struct {
	dispatchErr  error
	registerErr  error
	setStatusErr map[ServiceState]error
	// autoStop delivers ControlStop as soon as Running is reported.
	autoStop bool
	// hold blocks SetStatus for a state until the channel is closed; each
	// blocked state is announced on held first.
	hold map[ServiceState]chan struct{}
	held chan ServiceState

	mu             sync.Mutex
	statuses       []Status
	handler        func(uint32) uint32
	dispatchCalls  int
	dispatchedName string

	stopOnce sync.Once
	stopped  chan struct{}
}

func newFakeSCM() *fakeSCM {
	return &fakeSCM{
		setStatusErr: make(map[ServiceState]error),
		hold:         make(map[ServiceState]chan struct{}),
		held:         make(chan ServiceState, 4),
		stopped:      make(chan struct{}),
	}
}

func (f *fakeSCM) StartDispatcher(name string, main func(string)) error {
	f.mu.Lock()
	f.dispatchCalls++
	f.dispatchedName = name
	f.mu.Unlock()

	if f.dispatchErr != nil {
		return f.dispatchErr
	}

	mainDone := make(chan struct{})
	go func() {
		defer close(mainDone)
		main(name)
	}()
	<-mainDone

	if f.registerErr != nil {
		return nil
	}
	<-f.stopped
	return nil
}

func (f *fakeSCM) RegisterHandler(name string, handler func(uint32) uint32) (Handle, error) {
	if f.registerErr != nil {
		return 0, f.registerErr
	}
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
	return fakeHandle, nil
}

func (f *fakeSCM) SetStatus(h Handle, st Status) error {
	f.mu.Lock()
	gate := f.hold[st.CurrentState]
	f.mu.Unlock()
	if gate != nil {
		f.held <- st.CurrentState
		<-gate
	}

	f.mu.Lock()
	f.statuses = append(f.statuses, st)
	handler := f.handler
	err := f.setStatusErr[st.CurrentState]
	f.mu.Unlock()

	if h != fakeHandle {
		panic("status reported with unexpected handle")
	}
	if st.CurrentState == Stopped {
		f.stopOnce.Do(func() { close(f.stopped) })
	}
	if st.CurrentState == Running && f.autoStop {
		// Controls arrive on a supervisor thread.
		go handler(ControlStop)
	}
	return err
}

// control delivers a control code the way the supervisor would.
func (f *fakeSCM) control(ctrl uint32) uint32 {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	return handler(ctrl)
}

func (f *fakeSCM) states() []ServiceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ServiceState, 0, len(f.statuses))
	for _, st := range f.statuses {
		out = append(out, st.CurrentState)
	}
	return out
}

func (f *fakeSCM) recorded() []Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Status(nil), f.statuses...)
}

func (f *fakeSCM) waitForState(t *testing.T, state ServiceState) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range f.states() {
			if s == state {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "state %s never reported", state)
}
