// Package config provides bridge configuration loaded from environment
// variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds function-bridge configuration.
type Config struct {
	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogCallFailures and LogInteropFailures toggle independently.
	// Version-mismatch logging is unconditional and has no toggle.
	LogCallFailures    bool `envconfig:"BRIDGE_LOG_CALL_FAILURES" default:"true"`
	LogInteropFailures bool `envconfig:"BRIDGE_LOG_INTEROP_FAILURES" default:"true"`

	// Call-lifecycle event publishing (off by default; the bridge is
	// fully functional without a COMMS connection).
	EventsEnabled bool   `envconfig:"BRIDGE_EVENTS_ENABLED" default:"false"`
	COMMSURL      string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName     string `envconfig:"SERVICE_NAME" default:"function-bridge"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForEvents checks required config when event publishing is
// enabled.
func (c *Config) ValidateForEvents() error {
	if !c.EventsEnabled {
		return nil
	}
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required when BRIDGE_EVENTS_ENABLED is set", logPrefix)
	}
	if c.COMMSName == "" {
		return fmt.Errorf("%s - SERVICE_NAME is required when BRIDGE_EVENTS_ENABLED is set", logPrefix)
	}
	return nil
}
