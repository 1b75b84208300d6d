// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion and overrides, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, "gateway.yaml", `
server:
  http_addr: "0.0.0.0:8080"
  shutdown_timeout: "3s"

robot:
  driver: grpc
  address: "robot.local:50051"
  call_timeout: "750ms"

cache:
  max_maps: 16

api:
  versions:
    - prefix: /api/v1
      profile: loose

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Robot.Driver != DriverGRPC || cfg.Robot.Address != "robot.local:50051" {
		t.Errorf("Robot = %+v, want grpc driver at robot.local:50051", cfg.Robot)
	}
	if cfg.Robot.CallTimeout != 750*time.Millisecond {
		t.Errorf("Robot.CallTimeout = %v, want 750ms", cfg.Robot.CallTimeout)
	}
	if cfg.Cache.MaxMaps != 16 {
		t.Errorf("Cache.MaxMaps = %d, want 16", cfg.Cache.MaxMaps)
	}
	if len(cfg.API.Versions) != 1 || cfg.API.Versions[0] != (VersionConfig{Prefix: "/api/v1", Profile: ProfileLoose}) {
		t.Errorf("API.Versions = %+v, want only /api/v1 loose", cfg.API.Versions)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "gateway.toml", `
[server]
http_addr = "127.0.0.1:9000"

[robot]
driver = "fake"

[[api.versions]]
prefix = "/api/v2"
profile = "strict"

[logging]
level = "warn"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9000")
	}
	if len(cfg.API.Versions) != 1 || cfg.API.Versions[0].Profile != ProfileStrict {
		t.Errorf("API.Versions = %+v, want only /api/v2 strict", cfg.API.Versions)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "gateway.yaml", "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8000" {
		t.Errorf("Server.HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Robot.Driver != DriverFake {
		t.Errorf("Robot.Driver = %q, want fake", cfg.Robot.Driver)
	}
	if cfg.Cache.MaxMaps != 256 {
		t.Errorf("Cache.MaxMaps = %d, want 256", cfg.Cache.MaxMaps)
	}
	if len(cfg.API.Versions) != 2 {
		t.Fatalf("API.Versions = %+v, want v1 and v2", cfg.API.Versions)
	}
	if cfg.API.Versions[0].Prefix != "/api/v1" || cfg.API.Versions[1].Prefix != "/api/v2" {
		t.Errorf("API.Versions = %+v, want /api/v1 then /api/v2", cfg.API.Versions)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_ROBOT_SECRET", "expanded-secret-with-32-bytes!!!")
	t.Setenv("TEST_ROBOT_ADDR", "10.0.0.7:50051")

	path := writeConfig(t, "gateway.yaml", `
robot:
  driver: grpc
  address: "${TEST_ROBOT_ADDR}"
auth:
  jwt_secret: "${TEST_ROBOT_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Robot.Address != "10.0.0.7:50051" {
		t.Errorf("Robot.Address = %q, want %q", cfg.Robot.Address, "10.0.0.7:50051")
	}
	if cfg.Auth.JWTSecret != "expanded-secret-with-32-bytes!!!" {
		t.Errorf("Auth.JWTSecret = %q, want expanded value", cfg.Auth.JWTSecret)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROBOT_GATEWAY_SERVER_HTTP_ADDR", "0.0.0.0:7000")
	t.Setenv("ROBOT_GATEWAY_ROBOT_CALL_TIMEOUT", "2s")
	t.Setenv("ROBOT_GATEWAY_CACHE_MAX_MAPS", "8")
	t.Setenv("ROBOT_GATEWAY_METRICS_ENABLED", "true")

	path := writeConfig(t, "gateway.yaml", `
server:
  http_addr: "127.0.0.1:8000"
robot:
  call_timeout: "10s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:7000" {
		t.Errorf("Server.HTTPAddr = %q, want env override", cfg.Server.HTTPAddr)
	}
	if cfg.Robot.CallTimeout != 2*time.Second {
		t.Errorf("Robot.CallTimeout = %v, want 2s", cfg.Robot.CallTimeout)
	}
	if cfg.Cache.MaxMaps != 8 {
		t.Errorf("Cache.MaxMaps = %d, want 8", cfg.Cache.MaxMaps)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want env override true")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ROBOT_GATEWAY_LOGGING_LEVEL", "debug")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Robot.Driver != DriverFake {
		t.Errorf("Robot.Driver = %q, want fake", cfg.Robot.Driver)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/gateway.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "gateway.yaml", "server:\n  http_addr: [unclosed\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("Load() error = %v, want parsing error", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "shutdown timeout", content: "server:\n  shutdown_timeout: \"soon\"\n"},
		{name: "call timeout", content: "robot:\n  call_timeout: \"fast\"\n"},
		{name: "negative call timeout", content: "robot:\n  call_timeout: \"-1s\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "gateway.yaml", tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), "parsing durations") {
				t.Errorf("Load() error = %v, want duration error", err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single env var", input: "${FOO}", expected: "bar"},
		{name: "env var with surrounding text", input: "prefix-${FOO}-suffix", expected: "prefix-bar-suffix"},
		{name: "multiple env vars", input: "${FOO}/${BAZ}", expected: "bar/qux"},
		{name: "no env vars", input: "no-vars-here", expected: "no-vars-here"},
		{name: "unset env var", input: "${UNSET_VAR}", expected: ""},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		wantErrSubstr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name: "tailscale enabled allows empty http addr",
			mutate: func(c *Config) {
				c.Server.HTTPAddr = ""
				c.Tailscale = TailscaleConfig{Enabled: true, Hostname: "robot-gateway"}
			},
		},
		{
			name: "tailscale enabled requires hostname",
			mutate: func(c *Config) {
				c.Tailscale = TailscaleConfig{Enabled: true}
			},
			wantErrSubstr: "tailscale.hostname is required",
		},
		{
			name:          "http addr required without tailscale",
			mutate:        func(c *Config) { c.Server.HTTPAddr = "" },
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name:          "unknown driver",
			mutate:        func(c *Config) { c.Robot.Driver = "serial" },
			wantErrSubstr: "robot.driver must be",
		},
		{
			name:          "grpc driver needs address",
			mutate:        func(c *Config) { c.Robot.Driver = DriverGRPC },
			wantErrSubstr: "robot.address is required",
		},
		{
			name:          "negative cache size",
			mutate:        func(c *Config) { c.Cache.MaxMaps = -1 },
			wantErrSubstr: "cache.max_maps",
		},
		{
			name: "prefix must start with slash",
			mutate: func(c *Config) {
				c.API.Versions = []VersionConfig{{Prefix: "api/v1", Profile: ProfileLoose}}
			},
			wantErrSubstr: "must start with /",
		},
		{
			name: "prefix must not end with slash",
			mutate: func(c *Config) {
				c.API.Versions = []VersionConfig{{Prefix: "/api/v1/", Profile: ProfileLoose}}
			},
			wantErrSubstr: "not end with /",
		},
		{
			name: "duplicate prefix",
			mutate: func(c *Config) {
				c.API.Versions = []VersionConfig{
					{Prefix: "/api/v1", Profile: ProfileLoose},
					{Prefix: "/api/v1", Profile: ProfileStrict},
				}
			},
			wantErrSubstr: "mounted twice",
		},
		{
			name: "unknown profile",
			mutate: func(c *Config) {
				c.API.Versions = []VersionConfig{{Prefix: "/api/v3", Profile: "lenient"}}
			},
			wantErrSubstr: "profile must be",
		},
		{
			name:          "short jwt secret",
			mutate:        func(c *Config) { c.Auth.JWTSecret = "short" },
			wantErrSubstr: "at least 32 bytes",
		},
		{
			name:          "bad log level",
			mutate:        func(c *Config) { c.Logging.Level = "verbose" },
			wantErrSubstr: "logging.level",
		},
		{
			name:          "bad log format",
			mutate:        func(c *Config) { c.Logging.Format = "xml" },
			wantErrSubstr: "logging.format",
		},
		{
			name:          "metrics path",
			mutate:        func(c *Config) { c.Metrics.Path = "metrics" },
			wantErrSubstr: "metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErrSubstr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("ROBOT_GATEWAY_CONFIG", "/etc/robot-gateway/custom.toml")
	if got := Path(); got != "/etc/robot-gateway/custom.toml" {
		t.Errorf("Path() = %q, want env override", got)
	}

	t.Setenv("ROBOT_GATEWAY_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Path(); got != "/tmp/xdg/robot-gateway/gateway.yaml" {
		t.Errorf("Path() = %q, want XDG path", got)
	}
}
