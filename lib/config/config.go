// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable [Load] reads.
const EnvConfigPath = "TAIGA_MCP_CONFIG"

// Environment variables read by [FromEnvironment].
const (
	EnvAPIURL     = "TAIGA_API_URL"
	EnvUsername   = "TAIGA_USERNAME"
	EnvPassword   = "TAIGA_PASSWORD"
	EnvAuthToken  = "TAIGA_AUTH_TOKEN"
	EnvTimeout    = "TAIGA_TIMEOUT"
	EnvMaxRetries = "TAIGA_MAX_RETRIES"
)

// Limits enforced by Validate.
const (
	MaxTimeout        = 300 * time.Second
	MaxRetryLimit     = 10
	minBaseURLLength  = 11
	redacted          = "********"
)

// Config is the complete server configuration.
type Config struct {
	Taiga     TaigaConfig     `yaml:"taiga" json:"taiga"`
	Pool      PoolConfig      `yaml:"pool" json:"pool"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// TaigaConfig locates the Taiga API and holds credentials.
type TaigaConfig struct {
	// BaseURL is the API root, e.g. https://api.taiga.io/api/v1.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Username and Password are exchanged for tokens by "auth login".
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// AuthToken skips the login round trip when already known.
	AuthToken    string `yaml:"auth_token,omitempty" json:"auth_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty" json:"refresh_token,omitempty"`

	// Timeout bounds each HTTP attempt. Default: 30s.
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// PoolConfig sizes the shared HTTP connection pool.
type PoolConfig struct {
	MaxConnections  int      `yaml:"max_connections" json:"max_connections"`
	MaxKeepAlive    int      `yaml:"max_keepalive" json:"max_keepalive"`
	KeepAliveExpiry Duration `yaml:"keepalive_expiry" json:"keepalive_expiry"`
}

// RetryConfig tunes the backoff policy.
type RetryConfig struct {
	MaxRetries      int      `yaml:"max_retries" json:"max_retries"`
	BaseDelay       Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay        Duration `yaml:"max_delay" json:"max_delay"`
	ExponentialBase float64  `yaml:"exponential_base" json:"exponential_base"`
	Jitter          bool     `yaml:"jitter" json:"jitter"`
}

// CacheConfig controls the GET response cache. A zero TTL disables it.
type CacheConfig struct {
	TTL        Duration `yaml:"ttl" json:"ttl"`
	MaxEntries int      `yaml:"max_entries" json:"max_entries"`
}

// RateLimitConfig throttles outgoing requests. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" json:"level"`

	// Format is text, json, or auto (text on a terminal, json
	// otherwise).
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration every source is merged into.
// BaseURL is left empty: there is no sensible default server.
func Default() *Config {
	return &Config{
		Taiga: TaigaConfig{
			Timeout: Duration(30 * time.Second),
		},
		Pool: PoolConfig{
			MaxConnections:  100,
			MaxKeepAlive:    20,
			KeepAliveExpiry: Duration(30 * time.Second),
		},
		Retry: RetryConfig{
			MaxRetries:      3,
			BaseDelay:       Duration(time.Second),
			MaxDelay:        Duration(60 * time.Second),
			ExponentialBase: 2,
			Jitter:          true,
		},
		Cache: CacheConfig{
			MaxEntries: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads the file named by TAIGA_MCP_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your config file, or use --config", EnvConfigPath)
	}
	return LoadFile(path)
}

// LoadFile reads a YAML or JSONC file over the defaults and expands
// ${VAR} references. It does not validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	config := Default()
	if err := config.decode(filepath.Ext(path), data); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	config.expandVariables()
	return config, nil
}

func (c *Config) decode(extension string, data []byte) error {
	switch strings.ToLower(extension) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		return decoder.Decode(c)
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json, or .jsonc)", extension)
	}
}

// FromEnvironment builds a configuration from the TAIGA_* variables.
// Unset variables keep their defaults.
func FromEnvironment() (*Config, error) {
	config := Default()
	config.Taiga.BaseURL = os.Getenv(EnvAPIURL)
	config.Taiga.Username = os.Getenv(EnvUsername)
	config.Taiga.Password = os.Getenv(EnvPassword)
	config.Taiga.AuthToken = os.Getenv(EnvAuthToken)

	var errs []error
	if value := os.Getenv(EnvTimeout); value != "" {
		timeout, err := ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		}
		config.Taiga.Timeout = timeout
	}
	if value := os.Getenv(EnvMaxRetries); value != "" {
		retries, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", EnvMaxRetries, value))
		}
		config.Retry.MaxRetries = retries
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return config, nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

func (c *Config) expandVariables() {
	c.Taiga.BaseURL = expandVars(c.Taiga.BaseURL)
	c.Taiga.Username = expandVars(c.Taiga.Username)
	c.Taiga.Password = expandVars(c.Taiga.Password)
	c.Taiga.AuthToken = expandVars(c.Taiga.AuthToken)
	c.Taiga.RefreshToken = expandVars(c.Taiga.RefreshToken)
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Taiga.BaseURL == "" {
		fail("taiga.base_url is required")
	} else if parsed, err := url.Parse(c.Taiga.BaseURL); err != nil ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		fail("taiga.base_url must be an http or https URL, got %q", c.Taiga.BaseURL)
	} else if len(c.Taiga.BaseURL) < minBaseURLLength {
		fail("taiga.base_url %q is too short", c.Taiga.BaseURL)
	}
	if (c.Taiga.Username == "") != (c.Taiga.Password == "") {
		fail("taiga.username and taiga.password must be set together")
	}
	if c.Taiga.Timeout <= 0 || c.Taiga.Timeout.Std() > MaxTimeout {
		fail("taiga.timeout must be in (0, %s], got %s", MaxTimeout, c.Taiga.Timeout)
	}

	if c.Pool.MaxConnections <= 0 {
		fail("pool.max_connections must be positive, got %d", c.Pool.MaxConnections)
	}
	if c.Pool.MaxKeepAlive < 0 || c.Pool.MaxKeepAlive > c.Pool.MaxConnections {
		fail("pool.max_keepalive must be in [0, max_connections], got %d", c.Pool.MaxKeepAlive)
	}
	if c.Pool.KeepAliveExpiry < 0 {
		fail("pool.keepalive_expiry must not be negative")
	}

	if c.Retry.MaxRetries < 0 || c.Retry.MaxRetries > MaxRetryLimit {
		fail("retry.max_retries must be in [0, %d], got %d", MaxRetryLimit, c.Retry.MaxRetries)
	}
	if c.Retry.BaseDelay < 0 {
		fail("retry.base_delay must not be negative")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		fail("retry.max_delay %s is less than retry.base_delay %s", c.Retry.MaxDelay, c.Retry.BaseDelay)
	}
	if c.Retry.ExponentialBase < 1 {
		fail("retry.exponential_base must be at least 1, got %g", c.Retry.ExponentialBase)
	}

	if c.Cache.TTL < 0 || c.Cache.MaxEntries < 0 {
		fail("cache.ttl and cache.max_entries must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		fail("rate_limit.requests_per_second and rate_limit.burst must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		fail("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		fail("logging.format must be one of auto, text, json; got %q", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Redacted returns a copy with secrets replaced, for display.
func (c *Config) Redacted() *Config {
	copied := *c
	for _, secret := range []*string{&copied.Taiga.Password, &copied.Taiga.AuthToken, &copied.Taiga.RefreshToken} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return &copied
}
