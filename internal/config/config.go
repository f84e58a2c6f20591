// Package config provides client configuration loaded from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/cadence-client/pkg/semver"
)

const logPrefix = "config:LoadConfig"

// Config holds cadence-client configuration.
type Config struct {
	// Proxy
	ProxyURL     string `envconfig:"CADENCE_PROXY_URL" default:"http://127.0.0.1:5000"`
	ProxyBinary  string `envconfig:"CADENCE_PROXY_BINARY"`
	ProxyArgs    string `envconfig:"CADENCE_PROXY_ARGS"`
	ProxyVersion string `envconfig:"CADENCE_PROXY_VERSION"`
	ListenAddr   string `envconfig:"CADENCE_LISTEN_ADDR" default:"127.0.0.1:0"`

	// Cluster
	Endpoints string `envconfig:"CADENCE_ENDPOINTS"`
	Domain    string `envconfig:"CADENCE_DOMAIN"`
	// Identity defaults to a generated UUID when empty.
	Identity string `envconfig:"CADENCE_IDENTITY"`

	// Timeouts
	RequestTimeout          time.Duration `envconfig:"CADENCE_REQUEST_TIMEOUT" default:"25s"`
	ConnectTimeout          time.Duration `envconfig:"CADENCE_CONNECT_TIMEOUT" default:"10s"`
	HeartbeatInterval       time.Duration `envconfig:"CADENCE_HEARTBEAT_INTERVAL" default:"5s"`
	HeartbeatTimeout        time.Duration `envconfig:"CADENCE_HEARTBEAT_TIMEOUT" default:"2s"`
	MaxMissedHeartbeats     int           `envconfig:"CADENCE_MAX_MISSED_HEARTBEATS" default:"2"`
	InboundHeartbeatTimeout time.Duration `envconfig:"CADENCE_INBOUND_HEARTBEAT_TIMEOUT" default:"0s"`

	// COMMS: lifecycle events go to NATS at COMMSURL; empty disables them.
	COMMSURL     string `envconfig:"COMMS_URL"`
	COMMSName    string `envconfig:"SERVICE_NAME" default:"cadence-client"`
	EventSubject string `envconfig:"CADENCE_EVENT_SUBJECT"`
	// ControlSubject is where a long-running session answers operator requests.
	ControlSubject string `envconfig:"CADENCE_CONTROL_SUBJECT" default:"cadence.control"`

	// Database: empty DatabaseURL disables the operation journal.
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ProxyArgList splits CADENCE_PROXY_ARGS on whitespace.
func (c *Config) ProxyArgList() []string {
	return strings.Fields(c.ProxyArgs)
}

// ValidateForConnect checks required config before opening a proxy connection.
func (c *Config) ValidateForConnect() error {
	u, err := url.Parse(c.ProxyURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s - CADENCE_PROXY_URL %q must be an http(s) URL", logPrefix, c.ProxyURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - CADENCE_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%s - CADENCE_CONNECT_TIMEOUT must be positive", logPrefix)
	}
	if c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("%s - CADENCE_HEARTBEAT_TIMEOUT must be positive", logPrefix)
	}
	if c.HeartbeatInterval > 0 && c.HeartbeatTimeout > c.HeartbeatInterval {
		return fmt.Errorf("%s - CADENCE_HEARTBEAT_TIMEOUT (%s) exceeds CADENCE_HEARTBEAT_INTERVAL (%s)",
			logPrefix, c.HeartbeatTimeout, c.HeartbeatInterval)
	}
	if c.MaxMissedHeartbeats < 1 {
		return fmt.Errorf("%s - CADENCE_MAX_MISSED_HEARTBEATS must be at least 1", logPrefix)
	}
	if c.InboundHeartbeatTimeout < 0 {
		return fmt.Errorf("%s - CADENCE_INBOUND_HEARTBEAT_TIMEOUT must not be negative", logPrefix)
	}
	if err := semver.ValidateRange(c.ProxyVersion); err != nil {
		return fmt.Errorf("%s - CADENCE_PROXY_VERSION: %w", logPrefix, err)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
