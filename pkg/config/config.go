// Package config loads wslusb configuration from JSON with env-driven
// defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aiyflowers/wslusb/pkg/logger"
	"github.com/aiyflowers/wslusb/pkg/runner"
	"github.com/aiyflowers/wslusb/pkg/usbipd"
)

// Duration unmarshals from JSON strings like "15s" or "2m".
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"15s\": %w", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config is the full wslusb configuration.
type Config struct {
	UsbipdPath       string        `json:"usbipd_path"`
	WingetPath       string        `json:"winget_path"`
	PowershellPath   string        `json:"powershell_path"`
	ManualInstallURL string        `json:"manual_install_url"`
	CommandTimeout   Duration      `json:"command_timeout"`
	ElevatedTimeout  Duration      `json:"elevated_timeout"`
	InstallTimeout   Duration      `json:"install_timeout"`
	Logging          logger.Config `json:"logging"`
}

// Default returns the configuration used when no file is given. Paths can be
// overridden through the environment for non-standard installs.
func Default() *Config {
	return &Config{
		UsbipdPath:       getEnvOrDefault("WSLUSB_USBIPD", "usbipd"),
		WingetPath:       getEnvOrDefault("WSLUSB_WINGET", "winget"),
		PowershellPath:   getEnvOrDefault("WSLUSB_POWERSHELL", "powershell"),
		ManualInstallURL: usbipd.DefaultManualInstallURL,
		CommandTimeout:   Duration(runner.DefaultTimeout),
		ElevatedTimeout:  Duration(runner.ElevatedTimeout),
		InstallTimeout:   Duration(runner.InstallTimeout),
		Logging:          *logger.DefaultConfig(),
	}
}

// LoadFile reads and unmarshals a JSON config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return cfg, nil
}

// ClientConfig maps the file config onto the usbipd client knobs.
func (c *Config) ClientConfig() usbipd.ClientConfig {
	return usbipd.ClientConfig{
		Binary:           c.UsbipdPath,
		Winget:           c.WingetPath,
		ManualInstallURL: c.ManualInstallURL,
		CommandTimeout:   time.Duration(c.CommandTimeout),
		ElevatedTimeout:  time.Duration(c.ElevatedTimeout),
		InstallTimeout:   time.Duration(c.InstallTimeout),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}
