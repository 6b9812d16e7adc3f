//go:build windows
// +build windows

package service

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/windows"
)

// Callbacks handed to the SCM are process-wide and created once; they
// dispatch to whichever functions the single dispatcher installed.
var (
	callbacksOnce   sync.Once
	mainCallback    uintptr
	handlerCallback uintptr

	activeMain    atomic.Value // func(string)
	activeHandler atomic.Value // func(uint32) uint32
)

func initCallbacks() {
	callbacksOnce.Do(func() {
		mainCallback = windows.NewCallback(serviceMainTrampoline)
		handlerCallback = windows.NewCallback(controlHandlerTrampoline)
	})
}

func serviceMainTrampoline(argc uint32, argv **uint16) uintptr {
	main, _ := activeMain.Load().(func(string))
	if main == nil {
		return 0
	}
	// The first argument is always the service name.
	var name string
	if argc > 0 && argv != nil {
		name = windows.UTF16PtrToString(*argv)
	}
	main(name)
	return 0
}

func controlHandlerTrampoline(ctrl, evtype, evdata, context uintptr) uintptr {
	handler, _ := activeHandler.Load().(func(uint32) uint32)
	if handler == nil {
		return uintptr(noError)
	}
	return uintptr(handler(uint32(ctrl)))
}

type scmManager struct{}

// NewControlManager returns the Service Control Manager binding.
func NewControlManager() ControlManager {
	return scmManager{}
}

func (scmManager) StartDispatcher(name string, main func(name string)) error {
	wname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	initCallbacks()
	activeMain.Store(main)

	table := []windows.SERVICE_TABLE_ENTRY{
		{ServiceName: wname, ServiceProc: mainCallback},
		{ServiceName: nil, ServiceProc: 0},
	}
	// Returns when the service has stopped.
	return windows.StartServiceCtrlDispatcher(&table[0])
}

func (scmManager) RegisterHandler(name string, handler func(ctrl uint32) uint32) (Handle, error) {
	wname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	initCallbacks()
	activeHandler.Store(handler)

	h, err := windows.RegisterServiceCtrlHandlerEx(wname, handlerCallback, 0)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (scmManager) SetStatus(h Handle, st Status) error {
	native := windows.SERVICE_STATUS{
		ServiceType:             st.ServiceType,
		CurrentState:            uint32(st.CurrentState),
		ControlsAccepted:        st.ControlsAccepted,
		Win32ExitCode:           st.Win32ExitCode,
		ServiceSpecificExitCode: st.ServiceSpecificExitCode,
		CheckPoint:              st.CheckPoint,
		WaitHint:                st.WaitHint,
	}
	return windows.SetServiceStatus(windows.Handle(h), &native)
}
