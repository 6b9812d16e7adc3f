package service

import (
	"context"

	"github.com/benbjohnson/clock"

	"osservice/internal/config"
	"osservice/internal/logger"
)

// Process exit codes of the dispatcher entry point.
const (
	ExitConfigError   = -1
	ExitOK            = 0
	ExitDispatchError = 1
)

// Entry is the dispatcher entry point: load the config stored next to the
// module, connect to the supervisor and wait for the service to stop.
// Zero fields are replaced with the platform defaults.
type Entry struct {
	LoadConfig func() (*config.ServiceConfig, string, error)
	Manager    ControlManager
	Clock      clock.Clock
	// ReportStartupError receives configuration failures, which happen
	// before any log sink exists.
	ReportStartupError func(serviceName string, err error)
}

// Main runs the entry point with platform defaults and returns the exit code.
func Main() int {
	return Entry{}.Run(context.Background())
}

// Run executes the entry point and returns the process exit code.
func (e Entry) Run(ctx context.Context) int {
	if e.LoadConfig == nil {
		e.LoadConfig = config.LoadForModule
	}
	if e.Manager == nil {
		e.Manager = NewControlManager()
	}
	if e.ReportStartupError == nil {
		e.ReportStartupError = ReportStartupError
	}

	log := logger.WithComponent("entry")

	cfg, path, err := e.LoadConfig()
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to load configuration")
		e.ReportStartupError(defaultEventSource, err)
		return ExitConfigError
	}

	sink := logger.NewSink(cfg.LogFilePath, e.Clock)
	defer sink.Close()
	if cfg.LoggingEnabled() {
		log.Debug().Str("log", sink.Path()).Msg("Log sink enabled")
	} else {
		log.Debug().Msg("Log sink disabled")
	}

	sink.Logf("is due to call dispatcher, name: [%s]", cfg.ServiceName)
	log.Info().Str("name", cfg.ServiceName).Str("config", path).Msg("Starting service dispatcher")

	op := NewDispatcher(e.Manager, sink).Start(cfg.ServiceName)
	if err := op.Wait(ctx); err != nil {
		sink.Logf("dispatcher error: %v", err)
		ev := log.Error().Err(err)
		if sink.Enabled() {
			ev = ev.Str("log", sink.Path())
		}
		ev.Msg("Service dispatcher failed")
		return ExitDispatchError
	}

	sink.Log("dispatcher run complete")
	log.Info().Msg("Service dispatcher completed")
	return ExitOK
}
