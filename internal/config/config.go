// ABOUTME: Configuration loading and parsing for robot-gateway
// ABOUTME: Supports YAML or TOML files with ${VAR} expansion, env overrides and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ROBOT_GATEWAY_SERVER_HTTP_ADDR.
const EnvPrefix = "ROBOT_GATEWAY_"

// Robot drivers.
const (
	DriverFake = "fake"
	DriverGRPC = "grpc"
)

// Validation profiles accepted by api.versions.
const (
	ProfileLoose  = "loose"
	ProfileStrict = "strict"
)

// Config represents the complete robot-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server" envPrefix:"SERVER_"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale" envPrefix:"TAILSCALE_"`
	Robot     RobotConfig     `yaml:"robot" toml:"robot" envPrefix:"ROBOT_"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache" envPrefix:"CACHE_"`
	API       APIConfig       `yaml:"api" toml:"api"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth" envPrefix:"AUTH_"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging" envPrefix:"LOGGING_"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics" envPrefix:"METRICS_"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr" toml:"http_addr" env:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	Hostname  string `yaml:"hostname" toml:"hostname" env:"HOSTNAME"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key" env:"AUTH_KEY"`
	StateDir  string `yaml:"state_dir" toml:"state_dir" env:"STATE_DIR"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral" env:"EPHEMERAL"`
	CertFile  string `yaml:"cert_file" toml:"cert_file" env:"CERT_FILE"` // TLS cert file (generate via: tailscale cert <hostname>)
	KeyFile   string `yaml:"key_file" toml:"key_file" env:"KEY_FILE"`
	Funnel    bool   `yaml:"funnel" toml:"funnel" env:"FUNNEL"` // Enable public Funnel (implies HTTPS)
}

// RobotConfig selects the capability client
type RobotConfig struct {
	Driver      string        `yaml:"driver" toml:"driver" env:"DRIVER"`
	Address     string        `yaml:"address" toml:"address" env:"ADDRESS"`
	Token       string        `yaml:"token" toml:"token" env:"TOKEN"`
	CallTimeout time.Duration `yaml:"-" toml:"-"`

	CallTimeoutRaw string `yaml:"call_timeout" toml:"call_timeout" env:"CALL_TIMEOUT"`
}

// CacheConfig bounds the map cache
type CacheConfig struct {
	MaxMaps int `yaml:"max_maps" toml:"max_maps" env:"MAX_MAPS"`
}

// APIConfig lists the mounted API versions
type APIConfig struct {
	Versions []VersionConfig `yaml:"versions" toml:"versions"`
}

// VersionConfig binds a URL prefix to a validation profile
type VersionConfig struct {
	Prefix  string `yaml:"prefix" toml:"prefix"`
	Profile string `yaml:"profile" toml:"profile"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret" env:"JWT_SECRET"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL"`
	Format string `yaml:"format" toml:"format" env:"FORMAT"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" toml:"path" env:"PATH"`
}

// DefaultVersions mounts the legacy API under /api/v1 and the strict API under /api/v2.
func DefaultVersions() []VersionConfig {
	return []VersionConfig{
		{Prefix: "/api/v1", Profile: ProfileLoose},
		{Prefix: "/api/v2", Profile: ProfileStrict},
	}
}

// Default returns a configuration that serves the fake robot locally.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Path returns the config file location.
// Priority: ROBOT_GATEWAY_CONFIG > XDG_CONFIG_HOME/robot-gateway/gateway.yaml > ~/.config/robot-gateway/gateway.yaml
func Path() string {
	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "robot-gateway", "gateway.yaml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded, then
// ROBOT_GATEWAY_* overrides are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(&cfg)
}

// FromEnv builds a configuration from defaults and ROBOT_GATEWAY_* variables only.
func FromEnv() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME}
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" && !cfg.Tailscale.Enabled {
		cfg.Server.HTTPAddr = "127.0.0.1:8000"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Robot.Driver == "" {
		cfg.Robot.Driver = DriverFake
	}
	if cfg.Robot.CallTimeout == 0 {
		cfg.Robot.CallTimeout = 5 * time.Second
	}
	if cfg.Cache.MaxMaps == 0 {
		cfg.Cache.MaxMaps = 256
	}
	if len(cfg.API.Versions) == 0 {
		cfg.API.Versions = DefaultVersions()
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Robot.Driver {
	case DriverFake:
	case DriverGRPC:
		if c.Robot.Address == "" {
			return fmt.Errorf("robot.address is required for the grpc driver")
		}
	default:
		return fmt.Errorf("robot.driver must be %q or %q, got %q", DriverFake, DriverGRPC, c.Robot.Driver)
	}

	if c.Cache.MaxMaps < 0 {
		return fmt.Errorf("cache.max_maps must not be negative")
	}

	if err := c.validateVersions(); err != nil {
		return err
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

func (c *Config) validateVersions() error {
	seen := make(map[string]bool, len(c.API.Versions))
	for i, v := range c.API.Versions {
		if !strings.HasPrefix(v.Prefix, "/") || v.Prefix == "/" || strings.HasSuffix(v.Prefix, "/") {
			return fmt.Errorf("api.versions[%d].prefix %q must start with / and not end with /", i, v.Prefix)
		}
		if seen[v.Prefix] {
			return fmt.Errorf("api.versions[%d].prefix %q is mounted twice", i, v.Prefix)
		}
		seen[v.Prefix] = true
		if v.Profile != ProfileLoose && v.Profile != ProfileStrict {
			return fmt.Errorf("api.versions[%d].profile must be %q or %q", i, ProfileLoose, ProfileStrict)
		}
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
		if cfg.Server.ShutdownTimeout < 0 {
			return fmt.Errorf("shutdown_timeout must not be negative")
		}
	}

	if cfg.Robot.CallTimeoutRaw != "" {
		cfg.Robot.CallTimeout, err = time.ParseDuration(cfg.Robot.CallTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing call_timeout %q: %w", cfg.Robot.CallTimeoutRaw, err)
		}
		if cfg.Robot.CallTimeout < 0 {
			return fmt.Errorf("call_timeout must not be negative")
		}
	}

	return nil
}
