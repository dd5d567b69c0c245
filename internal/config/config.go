// Package config provides centralized configuration management for the connector.
// It loads configuration from environment variables, falling back to an optional
// application.properties file and then to defaults, and validates all settings
// on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Directory DirectoryConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" prop:"server.port" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DirectoryConfig holds the users file and column mapping settings.
// Property names match the ones existing connector deployments use.
type DirectoryConfig struct {
	// UsersFilePath is the users CSV, or a directory whose newest file is used (required)
	UsersFilePath string `env:"USERS_FILE_PATH" prop:"usersFilePath" required:"true"`

	// ProcessedFolder receives a timestamped copy of each ingested file (default: none)
	ProcessedFolder string `env:"CSV_PROCESSED_FOLDER" prop:"csvProcessedFolder"`

	// InactiveValue is the active-column value that marks a user inactive (default: inactive)
	InactiveValue string `env:"USER_INACTIVE_VALUE" prop:"userInactiveValueInCSV" default:"inactive"`

	// CustomSchemaName is the URN custom attributes are published under
	CustomSchemaName string `env:"CUSTOM_SCHEMA_NAME" prop:"customSchemaName" default:"urn:okta:onprem_app:1.0:user:custom"`

	// MappingFile is the column mapping, .properties or .yaml (required)
	MappingFile string `env:"COLUMN_MAPPING_FILE" prop:"columnMappingFile" required:"true"`

	// RefreshInterval enables periodic refreshes when positive (default: 0, disabled)
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" prop:"refreshInterval" default:"0s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables API key authentication (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" prop:"logging.level" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
