// ABOUTME: Tests for the robot-gateway CLI helpers
// ABOUTME: Covers logging setup, config generation, token issuing and the simulated robot end to end

package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/robot-gateway/internal/auth"
	"github.com/2389/robot-gateway/internal/capability"
	"github.com/2389/robot-gateway/internal/config"
	"github.com/2389/robot-gateway/internal/gateway"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)

	logger.Info("hidden")
	logger.With("component", "test").Warn("shown", "map_id", 42)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=")
	assert.Contains(t, out, "map_id=")
	assert.Contains(t, out, "42")
}

func TestSetupLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestRenderConfigLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")

	t.Setenv("ROBOT_TOKEN", "robot-token")
	yaml := renderConfig(initAnswers{
		HTTPAddr:     "127.0.0.1:9000",
		Driver:       config.DriverGRPC,
		RobotAddress: "10.0.0.5:50051",
		JWTSecret:    testSecret,
		LogLevel:     "debug",
		LogFormat:    "json",
		Metrics:      true,
	})
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTPAddr)
	assert.Equal(t, config.DriverGRPC, cfg.Robot.Driver)
	assert.Equal(t, "10.0.0.5:50051", cfg.Robot.Address)
	assert.Equal(t, "robot-token", cfg.Robot.Token)
	assert.Equal(t, 5*time.Second, cfg.Robot.CallTimeout)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, config.DefaultVersions(), cfg.API.Versions)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestRunInitWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "gateway.yaml")

	// Path, then defaults for every other question.
	in := strings.NewReader(path + "\n")
	var out bytes.Buffer
	require.NoError(t, runInit(in, &out))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.HTTPAddr)
	assert.Equal(t, config.DriverFake, cfg.Robot.Driver)
	assert.GreaterOrEqual(t, len(cfg.Auth.JWTSecret), auth.MinSecretLength)
	assert.False(t, cfg.Tailscale.Enabled)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestParseTokenFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    tokenOptions
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"--subject", "ops"},
			want: tokenOptions{Subject: "ops", Roles: []string{auth.RoleOperator}, TTL: 30 * 24 * time.Hour},
		},
		{
			name: "viewer with ttl",
			args: []string{"--subject=dash", "--roles", "viewer", "--ttl", "1h"},
			want: tokenOptions{Subject: "dash", Roles: []string{auth.RoleViewer}, TTL: time.Hour},
		},
		{name: "missing subject", args: []string{}, wantErr: true},
		{name: "unknown role", args: []string{"--subject", "x", "--roles", "admin"}, wantErr: true},
		{name: "negative ttl", args: []string{"--subject", "x", "--ttl", "-1h"}, wantErr: true},
		{name: "stray argument", args: []string{"--subject", "x", "extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("token", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			got, err := parseTokenFlags(fs, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIssueToken(t *testing.T) {
	var out bytes.Buffer
	err := issueToken(testSecret, tokenOptions{Subject: "ops", Roles: []string{auth.RoleOperator}, TTL: time.Hour}, &out)
	require.NoError(t, err)

	verifier, err := auth.NewJWTVerifier([]byte(testSecret))
	require.NoError(t, err)
	claims, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, []string{auth.RoleOperator}, claims.Roles)

	assert.Error(t, issueToken("", tokenOptions{Subject: "ops", Roles: []string{auth.RoleOperator}, TTL: time.Hour}, &out))
}

func TestParseSimFlags(t *testing.T) {
	fs := flag.NewFlagSet("sim-robot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts, err := parseSimFlags(fs, []string{"--addr", ":6000", "--maps", "5"})
	require.NoError(t, err)
	assert.Equal(t, simOptions{Addr: ":6000", Maps: 5}, opts)

	fs = flag.NewFlagSet("sim-robot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err = parseSimFlags(fs, []string{"--maps", "-1"})
	assert.Error(t, err)
}

// startSimRobot serves a simulated robot on a loopback port.
func startSimRobot(t *testing.T, verifier auth.TokenVerifier) (string, func() int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	robot := newSimRobot(2)
	srv := newSimServer(robot, verifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(srv.Stop)

	return ln.Addr().String(), func() int { return robot.CallCount(capability.OpFetchMap) }
}

func gatewayFor(t *testing.T, addr, token string) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Robot.Driver = config.DriverGRPC
	cfg.Robot.Address = addr
	cfg.Robot.Token = token
	cfg.Robot.CallTimeout = 2 * time.Second

	gw, err := gateway.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Shutdown(context.Background()) })
	return gw.Handler()
}

func TestSimRobotThroughGateway(t *testing.T) {
	addr, fetches := startSimRobot(t, nil)
	h := gatewayFor(t, addr, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/base", strings.NewReader(`{"method":"drive","linear_velocity":0.5,"angle_velocity":0}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"response":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.JSONEq(t, `{"status":"driving"}`, rec.Body.String())

	for range 2 {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/base/maps/1", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"floor-1"`)
	}
	assert.Equal(t, 1, fetches())
}

func TestSimRobotRequiresToken(t *testing.T) {
	verifier, err := auth.NewJWTVerifier([]byte(testSecret))
	require.NoError(t, err)
	addr, _ := startSimRobot(t, verifier)

	anonymous := gatewayFor(t, addr, "")
	rec := httptest.NewRecorder()
	anonymous.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/core", strings.NewReader(`{"method":"ping"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	token, err := verifier.Generate("gateway", []string{auth.RoleOperator}, time.Hour)
	require.NoError(t, err)
	authed := gatewayFor(t, addr, token)
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/core", strings.NewReader(`{"method":"ping"}`)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"response":"pong"}`, rec.Body.String())
}
