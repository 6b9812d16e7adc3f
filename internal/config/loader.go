package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// rawServiceConfig is used for JSON unmarshaling so that absent fields can
// be told apart from empty ones.
type rawServiceConfig struct {
	ServiceName *string `json:"serviceName"`
	LogFilePath *string `json:"logFilePath"`
}

// PathFor returns the config file path for the given module path.
func PathFor(modulePath string) string {
	return modulePath + FileSuffix
}

// Load reads configuration from the specified file path.
func Load(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Op: "read", Path: path, Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse parses configuration from JSON bytes.
func Parse(data []byte) (*ServiceConfig, error) {
	var raw rawServiceConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Op: "parse", Err: err}
	}

	if raw.ServiceName == nil {
		return nil, &ConfigError{Op: "validate", Err: errors.New("required field 'serviceName' is missing")}
	}
	if *raw.ServiceName == "" {
		return nil, &ConfigError{Op: "validate", Err: errors.New("field 'serviceName' must not be empty")}
	}
	if raw.LogFilePath == nil {
		return nil, &ConfigError{Op: "validate", Err: errors.New("required field 'logFilePath' is missing")}
	}

	return &ServiceConfig{
		ServiceName: *raw.ServiceName,
		LogFilePath: *raw.LogFilePath,
	}, nil
}

// LoadForModule resolves the path of the running module and loads the
// sibling "<module>.config.json" file.
func LoadForModule() (*ServiceConfig, string, error) {
	modPath, err := ModulePath()
	if err != nil {
		return nil, "", err
	}
	path := PathFor(modPath)
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Save writes cfg as indented JSON to path, replacing any existing file.
func Save(path string, cfg *ServiceConfig) error {
	if cfg == nil || cfg.ServiceName == "" {
		return &ConfigError{Op: "write", Path: path, Err: errors.New("service name must be specified")}
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return &ConfigError{Op: "write", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ConfigError{Op: "write", Path: path, Err: fmt.Errorf("failed to write config file: %w", err)}
	}
	return nil
}
