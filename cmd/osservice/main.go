// Package main is the entry point for the osservice bridge.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"osservice/internal/logger"
	"osservice/internal/service"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	logLevel string
	console  bool
	diagFile string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "osservice",
		Short: "Bridge a process to the OS service supervisor",
		Long: "osservice registers the process with systemd or the Windows Service Control Manager,\n" +
			"reports readiness and status transitions, and relays stop requests.\n" +
			"Without a subcommand it runs the platform entry point: 'dispatch' on Windows, 'wait' elsewhere.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if runtime.GOOS == "windows" {
				return runDispatch(cmd, args)
			}
			return runWait(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&console, "console", true, "Write diagnostics to stderr when not running as a service")
	root.PersistentFlags().StringVar(&diagFile, "diag-file", "", "Optional rotating diagnostics log file")

	root.AddCommand(
		newDispatchCmd(),
		newNotifyCmd(),
		newWaitCmd(),
		newRunCmd(),
		newWriteConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func initLogging() error {
	svcProbe := service.NewService("", nil, nil)
	serviceMode := svcProbe.IsService()
	if serviceMode {
		logger.SetServiceMode(true)
	}

	cfg := logger.DefaultConfig()
	cfg.Level = logLevel
	cfg.Console = console
	cfg.FilePath = diagFile
	if err := logger.Init(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info().Str("version", version).Str("os", runtime.GOOS).Msg("osservice starting")
	logger.Debug().Bool("serviceMode", serviceMode).Str("level", logLevel).Str("diagFile", diagFile).Msg("Logger initialized")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("osservice %s (built %s)\n", version, buildTime)
		},
	}
}

// exit flushes diagnostics before terminating with code.
func exit(code int) {
	logger.Close()
	os.Exit(code)
}
