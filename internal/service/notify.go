package service

import (
	"errors"
	"os"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"osservice/internal/logger"
)

// Notifier sends the one-time readiness notification to systemd.
type Notifier struct {
	notify func(unsetEnvironment bool, state string) (bool, error)
	sink   *logger.Sink
}

// NewNotifier creates a notifier writing to the socket named by NOTIFY_SOCKET.
// sink may be nil.
func NewNotifier(sink *logger.Sink) *Notifier {
	return &Notifier{notify: daemon.SdNotify, sink: sink}
}

// RunOSServiceNotify notifies readiness on a dedicated thread. The
// returned operation resolves to nil or a *NotifyError.
func RunOSServiceNotify(sink *logger.Sink) *Operation {
	return runBridged("run-os-service-notify", NewNotifier(sink).Notify)
}

// Notify sends READY=1 without unsetting the environment. Any positive
// return code is success.
func (n *Notifier) Notify() error {
	log := logger.WithComponent("notifier")
	pid := os.Getpid()

	sent, err := n.notify(false, daemon.SdNotifyReady)
	code := notifyCode(sent, err)
	if code <= 0 {
		nerr := &NotifyError{Code: code, Err: err}
		n.sink.Log(nerr.Error())
		log.Error().Err(nerr).Int("pid", pid).Msg("Readiness notification failed")
		return nerr
	}

	n.sink.Logf("readiness notified, pid: [%d]", pid)
	log.Info().Int("pid", pid).Msg("Readiness notified")
	return nil
}

// notifyCode maps the result onto the sd_notify return convention:
// 1 when sent, 0 when no socket is configured, -errno on failure.
func notifyCode(sent bool, err error) int {
	if err != nil {
		var errno syscall.Errno
		if errors.As(err, &errno) && errno != 0 {
			return -int(errno)
		}
		return -1
	}
	if !sent {
		return 0
	}
	return 1
}
