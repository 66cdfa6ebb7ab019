// Package config provides configuration management for opalfix services.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ServiceConfig holds configuration for the query validation service.
type ServiceConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	DatabaseURL    string
	PlatformURL    string
	QueryTimeout   time.Duration
	LLMModel       string
	DocsDir        string
	AlignWindow    string
}

// DefaultServiceConfig returns configuration with default values.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		RequestTimeout: 30 * time.Second,
		DatabaseURL:    "sqlite://./opalfix.db",
		PlatformURL:    "",
		QueryTimeout:   60 * time.Second,
		LLMModel:       "claude-sonnet-4-20250514",
		DocsDir:        "./docs",
		AlignWindow:    "5m",
	}
}

// APIToken extracts the inbound bearer token from OPALFIX_API_TOKEN.
// Tokens are environment-only; an empty value means auth is disabled,
// which the server only permits on loopback hosts.
func APIToken() (string, error) {
	val := os.Getenv("OPALFIX_API_TOKEN")
	if val == "" {
		return "", nil
	}
	return ParseToken("OPALFIX_API_TOKEN", val)
}

// PlatformToken extracts the upstream platform token from
// OPALFIX_PLATFORM_TOKEN. Required whenever a platform URL is set.
func PlatformToken() (string, error) {
	val := os.Getenv("OPALFIX_PLATFORM_TOKEN")
	if val == "" {
		return "", nil
	}
	return ParseToken("OPALFIX_PLATFORM_TOKEN", val)
}

// ParseToken validates a bearer token value from an environment variable.
func ParseToken(name, val string) (string, error) {
	token := strings.TrimSpace(val)
	if len(token) < 16 {
		return "", fmt.Errorf("%s: token must be at least 16 characters, got %d", name, len(token))
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return "", fmt.Errorf("%s: token must not contain whitespace", name)
	}
	return token, nil
}
