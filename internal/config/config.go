// Package config provides configuration management for Maestro.
//
// Configuration is loaded in the following order (later sources override
// earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./maestro.config.yaml, ~/.maestro/config.yaml, /etc/maestro/config.yaml)
//  3. .env files
//  4. Environment variables (MAESTRO_ prefix)
//
// The parameters and connection_strings sections supply Run-mode values for
// parameter and connection-string resources:
//
//	parameters:
//	  pg-password: s3cret
//	connection_strings:
//	  legacy-db: "Host=db.internal;Port=5432"
//
// Environment variables override nested keys with underscores:
//   - MAESTRO_LAUNCHER_BASE_PORT=16000
//   - MAESTRO_API_PORT=8470
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for Maestro.
type Config struct {
	// Launcher contains Run-mode launcher settings.
	Launcher LauncherConfig `mapstructure:"launcher"`

	// API contains inspection API settings.
	API APIConfig `mapstructure:"api"`

	// Publish contains publish-mode output settings.
	Publish PublishConfig `mapstructure:"publish"`

	// Parameters supplies Run-mode values for parameter resources.
	Parameters map[string]string `mapstructure:"parameters"`

	// ConnectionStrings supplies Run-mode values for connection-string
	// resources.
	ConnectionStrings map[string]string `mapstructure:"connection_strings"`
}

// LauncherConfig contains Run-mode launcher settings.
type LauncherConfig struct {
	// DockerSocket is the Docker daemon socket URL.
	DockerSocket string `mapstructure:"docker_socket"`

	// Network is the Docker network containers join. Empty uses the
	// default bridge.
	Network string `mapstructure:"network"`

	// Host is the address endpoints are allocated on.
	Host string `mapstructure:"host"`

	// BasePort is the first host port considered for allocation.
	BasePort int `mapstructure:"base_port"`

	// StartTimeout bounds one launch pass.
	StartTimeout time.Duration `mapstructure:"start_timeout"`

	// StopTimeout bounds container shutdown.
	StopTimeout time.Duration `mapstructure:"stop_timeout"`

	// RollbackOnError removes already-started containers when a later
	// wave fails.
	RollbackOnError bool `mapstructure:"rollback_on_error"`
}

// APIConfig contains inspection API settings.
type APIConfig struct {
	// Enabled starts the inspection API during run.
	Enabled bool `mapstructure:"enabled"`

	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the listen port.
	Port int `mapstructure:"port"`

	// RateLimit is the maximum requests per second per client.
	RateLimit int `mapstructure:"rate_limit"`
}

// PublishConfig contains publish-mode settings.
type PublishConfig struct {
	// Output is the manifest file path.
	Output string `mapstructure:"output"`
}

// Load reads configuration from a file and environment variables. If cfgFile
// is empty, it searches for maestro.config.yaml in standard locations.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("maestro.config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.maestro")
		v.AddConfigPath("/etc/maestro")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("MAESTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("launcher.docker_socket", "unix:///var/run/docker.sock")
	v.SetDefault("launcher.network", "")
	v.SetDefault("launcher.host", "localhost")
	v.SetDefault("launcher.base_port", 15000)
	v.SetDefault("launcher.start_timeout", "5m")
	v.SetDefault("launcher.stop_timeout", "30s")
	v.SetDefault("launcher.rollback_on_error", true)

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "localhost")
	v.SetDefault("api.port", 8460)
	v.SetDefault("api.rate_limit", 100)

	v.SetDefault("publish.output", "manifest.json")
}

func validate(cfg *Config) error {
	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", cfg.API.Port)
	}
	if cfg.Launcher.BasePort < 1 || cfg.Launcher.BasePort > 65535 {
		return fmt.Errorf("invalid launcher base port: %d", cfg.Launcher.BasePort)
	}
	if cfg.Launcher.Host == "" {
		return fmt.Errorf("launcher host is required")
	}
	return nil
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
