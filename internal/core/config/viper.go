package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultServiceConfig
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("db.url", "sqlite://./opalfix.db")
	v.SetDefault("platform.url", "")
	v.SetDefault("platform.query_timeout", "60s")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("docs.dir", "./docs")
	v.SetDefault("opal.align_window", "5m")

	// Bind environment variables with OPALFIX_ prefix
	v.SetEnvPrefix("OPALFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: reject secrets in config files
	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServiceConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
		DatabaseURL:    v.GetString("db.url"),
		PlatformURL:    v.GetString("platform.url"),
		QueryTimeout:   v.GetDuration("platform.query_timeout"),
		LLMModel:       v.GetString("llm.model"),
		DocsDir:        v.GetString("docs.dir"),
		AlignWindow:    v.GetString("opal.align_window"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive timeouts, and URL schemes.
func validateConfig(cfg *ServiceConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %v", cfg.QueryTimeout)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("db.url must not be empty")
	}
	if !strings.HasPrefix(cfg.DatabaseURL, "sqlite://") && !strings.HasPrefix(cfg.DatabaseURL, "postgres://") {
		return fmt.Errorf("db.url must use sqlite:// or postgres:// scheme, got %q", cfg.DatabaseURL)
	}
	if cfg.PlatformURL != "" && !strings.HasPrefix(cfg.PlatformURL, "http://") && !strings.HasPrefix(cfg.PlatformURL, "https://") {
		return fmt.Errorf("platform.url must be an http(s) URL, got %q", cfg.PlatformURL)
	}
	if cfg.AlignWindow == "" {
		return fmt.Errorf("opal.align_window must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	for _, key := range []string{
		"api_token", "server.api_token",
		"platform_token", "platform.token",
		"anthropic_api_key", "llm.api_key",
	} {
		if v.IsSet(key) {
			return fmt.Errorf("tokens not allowed in config files (use OPALFIX_API_TOKEN, OPALFIX_PLATFORM_TOKEN, and ANTHROPIC_API_KEY environment variables)")
		}
	}
	return nil
}
