// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
	"unicode/utf8"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Load     LoadConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional Postgres sink settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables the Postgres sink.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// SQLitePath is where the CLI load command writes when no URL is given
	SQLitePath string `env:"SQLITE_PATH" default:"fileframe.db"`
}

// Enabled reports whether a Postgres URL is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// LoadConfig holds file loading and validation settings.
type LoadConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"LOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of validations running at once (default: 4)
	MaxConcurrent int `env:"LOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a validation slot (default: 10s)
	MaxWaitTime time.Duration `env:"LOAD_MAX_WAIT_TIME" default:"10s"`

	// Delimiter is the default CSV field separator; "tab" means '\t' (default: ,)
	Delimiter string `env:"LOAD_DELIMITER" default:","`

	// NullValues are cell texts read as null, in addition to the empty cell
	NullValues []string `env:"LOAD_NULL_VALUES" default:"NA,N/A,NULL,null,NaN,nan,None,#N/A"`

	// InferTypes turns typed columns on (default: true)
	InferTypes bool `env:"LOAD_INFER_TYPES" default:"true"`
}

// DelimiterRune returns the configured delimiter as a rune, or 0 if it is
// not a single character.
func (c *LoadConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "tab", `\t`:
		return '\t'
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size == 0 || size != len(c.Delimiter) || r == utf8.RuneError {
		return 0
	}
	return r
}

// NullMarkers returns NullValues plus the empty cell.
func (c *LoadConfig) NullMarkers() []string {
	return append([]string{""}, c.NullValues...)
}

// SecurityConfig holds settings for the upload API's outer edge.
type SecurityConfig struct {
	// TrustedProxies are CIDRs or IPs whose X-Real-IP/X-Forwarded-For
	// headers are believed. Empty means client headers are ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys enables X-API-Key checks on upload routes when non-empty
	APIKeys []string `env:"API_KEYS"`
}

// RequireAPIKey reports whether upload routes need an X-API-Key header.
func (c *SecurityConfig) RequireAPIKey() bool { return len(c.APIKeys) > 0 }

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
