package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"osservice/internal/config"
	"osservice/internal/logger"
	"osservice/internal/service"
)

func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Connect to the Windows Service Control Manager until the service stops",
		Long: "Loads <executable>.config.json, connects to the service control dispatcher and\n" +
			"blocks until the service is stopped. Exit codes: -1 config error, 0 success, 1 dispatch error.",
		Args: cobra.NoArgs,
		RunE: runDispatch,
	}
}

func runDispatch(cmd *cobra.Command, args []string) error {
	exit(service.Entry{}.Run(cmd.Context()))
	return nil
}

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send the systemd readiness notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := loadSink()
			defer sink.Close()
			return service.RunOSServiceNotify(sink).Wait(cmd.Context())
		},
	}
}

func newWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Short: "Notify systemd readiness, then block until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE:  runWait,
	}
}

func runWait(cmd *cobra.Command, args []string) error {
	sink := loadSink()
	defer sink.Close()

	sig, err := waitForSignals(cmd.Context(), service.NewNotifier(sink))
	if err != nil {
		return err
	}
	sink.Logf("signal received: [%s]", sig)
	return nil
}

func newRunCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "run [-- command args...]",
		Short: "Host a command under the service supervisor",
		Long: "Starts the given command and keeps it running until the supervisor stops the service.\n" +
			"Without a command the process idles until stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.LoadForModule()
			if err != nil {
				if runtime.GOOS == "windows" {
					service.ReportStartupError("osservice", err)
					exit(service.ExitConfigError)
				}
				logger.Warn().Err(err).Str("path", path).Msg("No service configuration, log sink disabled")
				cfg = &config.ServiceConfig{ServiceName: "osservice"}
			}
			if name != "" {
				cfg = &config.ServiceConfig{ServiceName: name, LogFilePath: cfg.LogFilePath}
			}

			sink := logger.NewSink(cfg.LogFilePath, nil)
			defer sink.Close()

			svc := service.NewService(cfg.ServiceName, sink, workload(args))
			logger.Info().Str("name", cfg.ServiceName).Strs("command", args).Msg("Starting service")
			if err := svc.Run(cmd.Context()); err != nil {
				sink.Logf("service run error: %v", err)
				return err
			}
			sink.Log("service run complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Service name, overrides the configured serviceName")
	return cmd
}

// workload returns a RunFunc executing args as a child process, or idling
// until cancelled when args is empty.
func workload(args []string) service.RunFunc {
	return func(ctx context.Context) error {
		if len(args) == 0 {
			<-ctx.Done()
			return nil
		}

		child := exec.CommandContext(ctx, args[0], args[1:]...)
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		err := child.Run()
		if ctx.Err() != nil {
			// Killed because the service is stopping.
			return nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("command exited with code %d", exitErr.ExitCode())
		}
		return err
	}
}

func newWriteConfigCmd() *cobra.Command {
	var (
		name    string
		logPath string
		path    string
	)

	cmd := &cobra.Command{
		Use:   "write-config",
		Short: "Write the service configuration next to the executable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				modPath, err := config.ModulePath()
				if err != nil {
					return err
				}
				path = config.PathFor(modPath)
			}
			if err := config.Save(path, &config.ServiceConfig{ServiceName: name, LogFilePath: logPath}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name of the registered service (required)")
	cmd.Flags().StringVar(&logPath, "log", "", "Log file path, empty disables logging")
	cmd.Flags().StringVar(&path, "path", "", "Config file path (default <executable>.config.json)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// loadSink opens the log sink from the module config, or a disabled sink
// when there is none.
func loadSink() *logger.Sink {
	cfg, path, err := config.LoadForModule()
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("No service configuration, log sink disabled")
		return logger.NewSink("", nil)
	}
	return logger.NewSink(cfg.LogFilePath, nil)
}
