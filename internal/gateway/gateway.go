// ABOUTME: Gateway orchestrator that wires the robot client, router, cache and HTTP server
// ABOUTME: Manages listener setup (TCP or Tailscale), health endpoints and shutdown

package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/robot-gateway/internal/auth"
	"github.com/2389/robot-gateway/internal/capability"
	"github.com/2389/robot-gateway/internal/capability/fake"
	"github.com/2389/robot-gateway/internal/capability/remote"
	"github.com/2389/robot-gateway/internal/config"
	"github.com/2389/robot-gateway/internal/dispatch"
	"github.com/2389/robot-gateway/internal/mapcache"
	"github.com/2389/robot-gateway/internal/schema"
)

// Gateway serves the robot command API.
type Gateway struct {
	config      *config.Config
	client      capability.Client
	router      *dispatch.Router
	maps        *mapcache.MapCache
	markers     *mapcache.MarkerStore
	metrics     *metrics
	versions    []Version
	handler     http.Handler
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// clientCloser releases the capability transport, nil for in-process robots.
	clientCloser io.Closer
}

// New creates a gateway whose capability client is selected by cfg.Robot.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, closer, err := newCapabilityClient(cfg.Robot, logger)
	if err != nil {
		return nil, err
	}

	gw, err := NewWithClient(cfg, client, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	gw.clientCloser = closer
	return gw, nil
}

// newCapabilityClient builds the configured robot driver.
func newCapabilityClient(cfg config.RobotConfig, logger *slog.Logger) (capability.Client, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverFake, "":
		logger.Info("using simulated robot")
		return fake.New(), nil, nil
	case config.DriverGRPC:
		client, err := remote.Dial(cfg.Address, cfg.Token, remote.WithCallTimeout(cfg.CallTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to robot at %s: %w", cfg.Address, err)
		}
		logger.Info("using remote robot", "address", cfg.Address, "call_timeout", cfg.CallTimeout)
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown robot driver %q", cfg.Driver)
	}
}

// NewWithClient creates a gateway around an existing capability client.
// A nil client yields a gateway whose robot endpoints report the robot as
// not initialized.
func NewWithClient(cfg *config.Config, client capability.Client, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gateway")

	versions, err := versionsFromConfig(cfg.API.Versions)
	if err != nil {
		return nil, err
	}

	m := newMetrics()
	router := dispatch.New(client, logger).WithObserver(m)

	maps, err := mapcache.New(router, cfg.Cache.MaxMaps, logger)
	if err != nil {
		return nil, fmt.Errorf("creating map cache: %w", err)
	}
	markers := mapcache.NewMarkerStore()
	m.watchCache(maps, markers)

	gw := &Gateway{
		config:   cfg,
		client:   client,
		router:   router,
		maps:     maps,
		markers:  markers,
		metrics:  m,
		versions: versions,
		logger:   logger,
	}

	handler, err := gw.buildHandler()
	if err != nil {
		return nil, err
	}
	gw.handler = handler

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// buildHandler assembles the root router: health and metrics at the top
// level, one mount per API version.
func (g *Gateway) buildHandler() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(g.logger, g.metrics))

	r.Get("/health", g.handleHealth)
	r.Get("/health/ready", g.handleReady)

	if g.config.Metrics.Enabled {
		r.Handle(g.config.Metrics.Path, g.metrics.handler())
		g.logger.Info("metrics enabled", "path", g.config.Metrics.Path)
	}

	var authMiddleware []func(http.Handler) http.Handler
	if g.config.Auth.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier([]byte(g.config.Auth.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("creating JWT verifier: %w", err)
		}
		authMiddleware = append(authMiddleware,
			auth.HTTPAuthMiddleware(verifier, g.logger.With("component", "auth")),
			auth.RequireOperatorHTTP(),
		)
	} else {
		g.logger.Warn("auth.jwt_secret not set, robot API is unauthenticated")
	}

	for _, v := range g.versions {
		a := newAPI(v, g.router, g.maps, g.markers, g.logger)
		r.Mount(v.Prefix, a.routes(authMiddleware...))
		g.logger.Debug("mounted api version", "prefix", v.Prefix, "profile", v.Profile)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusNotFound, errorBody{Error: "not found", Code: codeNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return r, nil
}

// Handler returns the root HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Versions returns the mounted API versions.
func (g *Gateway) Versions() []Version {
	return g.versions
}

// setupTCPListener creates the standard TCP listener for HTTP.
func (g *Gateway) setupTCPListener() (net.Listener, error) {
	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// setupListener creates the listener based on configuration (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled",
				"http_addr", g.config.Server.HTTPAddr,
			)
		}
		return g.setupTailscaleListener(ctx)
	}
	return g.setupTCPListener()
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown runs Shutdown with a fresh context since the run
// context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	timeout := g.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "robot-gateway", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set tailscale.auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// setupTailscaleListener joins the tailnet and returns the HTTP listener.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailscaleStatus(tsCfg.Hostname, status)

	return g.createTailscaleHTTPListener(tsCfg)
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// createTailscaleHTTPListener picks Funnel, TLS from cert files, or plain HTTP on :80.
func (g *Gateway) createTailscaleHTTPListener(tsCfg config.TailscaleConfig) (net.Listener, error) {
	switch {
	case tsCfg.Funnel:
		g.logger.Info("enabling tailscale funnel (public HTTPS) on :443")
		ln, err := g.tsnetServer.ListenFunnel("tcp", ":443")
		if err != nil {
			_ = g.tsnetServer.Close()
			return nil, fmt.Errorf("listening on tailscale funnel port: %w", err)
		}
		return ln, nil
	case tsCfg.CertFile != "" && tsCfg.KeyFile != "":
		return g.createTailscaleTLSListener(tsCfg.CertFile, tsCfg.KeyFile)
	default:
		ln, err := g.tsnetServer.Listen("tcp", ":80")
		if err != nil {
			_ = g.tsnetServer.Close()
			return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
		}
		return ln, nil
	}
}

// createTailscaleTLSListener serves HTTPS on :443 with a certificate from
// disk (generate via: tailscale cert <hostname>).
func (g *Gateway) createTailscaleTLSListener(certFile, keyFile string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("loading tailscale TLS certificate: %w", err)
	}

	g.logger.Info("enabling HTTPS on :443", "cert_file", certFile)
	ln, err := g.tsnetServer.Listen("tcp", ":443")
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTPS port: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases the robot transport.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	if g.clientCloser != nil {
		errs = appendCloseError(errs, "robot client close", g.clientCloser.Close())
	}

	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the robot answers a ping.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := g.router.Dispatch(ctx, schema.Ping{}); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "robot not ready: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
