// Package config loads the service configuration stored next to the running module.
package config

import (
	"fmt"
)

// FileSuffix is appended to the module path to form the config file path.
const FileSuffix = ".config.json"

// ServiceConfig is the root configuration structure.
// It is read once at startup and never modified afterwards.
type ServiceConfig struct {
	ServiceName string `json:"serviceName"`
	LogFilePath string `json:"logFilePath"` // empty disables the log sink
}

// LoggingEnabled reports whether a log file path was configured.
func (c *ServiceConfig) LoggingEnabled() bool {
	return c.LogFilePath != ""
}

// ConfigError describes why the configuration could not be loaded.
type ConfigError struct {
	Op   string // "resolve", "read", "parse", "validate", "write"
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config %s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("config %s error, path: [%s]: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
