// Package config holds the client configuration: credentials, the
// authentication endpoint, transport tuning and metrics settings. Values are
// loaded from defaults, an optional YAML file and environment overrides, in
// that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Configuration is the complete client configuration.
type Configuration struct {
	Auth      AuthConfig      `yaml:"auth"`
	Transport TransportConfig `yaml:"transport"`
	Retry     RetryConfig     `yaml:"retry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AuthConfig carries the credentials and the authentication endpoint.
type AuthConfig struct {
	Username   string `yaml:"username"`
	APIKey     string `yaml:"api_key"`
	AuthURL    string `yaml:"auth_url"`
	ServiceNet bool   `yaml:"service_net"`
}

// ProxyConfig carries optional outbound proxy credentials. An empty Username
// with a non-empty Address means ambient proxy authentication.
type ProxyConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`
}

// TransportConfig tunes the HTTP adapter.
type TransportConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	ChunkSize int           `yaml:"chunk_size"`
	UserAgent string        `yaml:"user_agent"`
	Proxy     ProxyConfig   `yaml:"proxy"`
}

// RetryConfig tunes retry of transient transport failures.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// MetricsConfig tunes the prometheus collector.
type MetricsConfig struct {
	Enabled   bool              `yaml:"enabled"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels"`
}

// LoggingConfig tunes the client logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewDefault returns a configuration with sensible defaults. Credentials and
// the auth URL have no defaults and must be supplied.
func NewDefault() *Configuration {
	return &Configuration{
		Transport: TransportConfig{
			Timeout:   90 * time.Second,
			ChunkSize: 64 * 1024,
			UserAgent: "cloudstow-go/1.0",
		},
		Retry: RetryConfig{
			MaxAttempts:  1,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "cloudstow",
			Labels:    map[string]string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile merges configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return pkgerrors.Wrap(err, "failed to parse config file")
	}
	return nil
}

// LoadFromEnv merges configuration from environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("CLOUDSTOW_USERNAME"); val != "" {
		c.Auth.Username = val
	}
	if val := os.Getenv("CLOUDSTOW_API_KEY"); val != "" {
		c.Auth.APIKey = val
	}
	if val := os.Getenv("CLOUDSTOW_AUTH_URL"); val != "" {
		c.Auth.AuthURL = val
	}
	if val := os.Getenv("CLOUDSTOW_SERVICE_NET"); val != "" {
		c.Auth.ServiceNet = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("CLOUDSTOW_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.Timeout = d
		}
	}
	if val := os.Getenv("CLOUDSTOW_CHUNK_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			c.Transport.ChunkSize = size
		}
	}
	if val := os.Getenv("CLOUDSTOW_PROXY_ADDRESS"); val != "" {
		c.Transport.Proxy.Address = val
	}
	if val := os.Getenv("CLOUDSTOW_PROXY_USERNAME"); val != "" {
		c.Transport.Proxy.Username = val
	}
	if val := os.Getenv("CLOUDSTOW_PROXY_PASSWORD"); val != "" {
		c.Transport.Proxy.Password = val
	}
	if val := os.Getenv("CLOUDSTOW_RETRY_MAX_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil {
			c.Retry.MaxAttempts = attempts
		}
	}
	if val := os.Getenv("CLOUDSTOW_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	return nil
}

// SaveToFile writes the configuration to a YAML file.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return pkgerrors.Wrap(err, "failed to write config file")
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Configuration) Validate() error {
	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Auth.AuthURL == "" {
		return fmt.Errorf("auth.auth_url is required")
	}
	if _, err := url.ParseRequestURI(c.Auth.AuthURL); err != nil {
		return fmt.Errorf("auth.auth_url is not a valid URL: %v", err)
	}
	if c.Transport.Timeout <= 0 {
		return fmt.Errorf("transport.timeout must be greater than 0")
	}
	if c.Transport.ChunkSize <= 0 {
		return fmt.Errorf("transport.chunk_size must be greater than 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be greater than 0")
	}
	if c.Transport.Proxy.Username != "" && c.Transport.Proxy.Address == "" {
		return fmt.Errorf("transport.proxy.address is required when proxy credentials are set")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.EqualFold(c.Logging.Level, level) {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid logging.level: %s (must be one of: %s)",
			c.Logging.Level, strings.Join(validLevels, ", "))
	}
	return nil
}
