// ABOUTME: sim-robot command serving the simulated robot over the capability gRPC service
// ABOUTME: Lets the gateway run with driver=grpc without robot hardware

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/2389/robot-gateway/internal/auth"
	"github.com/2389/robot-gateway/internal/capability/fake"
	"github.com/2389/robot-gateway/internal/capability/remote"
	"github.com/2389/robot-gateway/internal/config"
)

// simOptions are the parsed flags of the sim-robot command.
type simOptions struct {
	Addr     string
	Maps     int
	Insecure bool
}

func parseSimFlags(fs *flag.FlagSet, args []string) (simOptions, error) {
	var opts simOptions
	fs.StringVar(&opts.Addr, "addr", "127.0.0.1:50051", "gRPC listen address")
	fs.IntVar(&opts.Maps, "maps", 3, "number of demo maps to seed")
	fs.BoolVar(&opts.Insecure, "insecure", false, "accept calls without a token even when auth.jwt_secret is set")
	if err := fs.Parse(args); err != nil {
		return simOptions{}, err
	}
	if fs.NArg() > 0 {
		return simOptions{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if opts.Maps < 0 {
		return simOptions{}, fmt.Errorf("--maps must not be negative")
	}
	return opts, nil
}

// newSimRobot returns a simulated robot seeded with n demo maps.
func newSimRobot(n int) *fake.Robot {
	robot := fake.New()
	for id := 1; id <= n; id++ {
		robot.SeedMap(id, map[string]any{
			"name":       fmt.Sprintf("floor-%d", id),
			"resolution": 0.05,
			"width":      200,
			"height":     200,
		})
	}
	return robot
}

// newSimServer builds the gRPC server. A non-nil verifier requires operator
// tokens on every call.
func newSimServer(robot *fake.Robot, verifier auth.TokenVerifier, logger *slog.Logger) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	if verifier != nil {
		opts = append(opts, grpc.ChainUnaryInterceptor(auth.UnaryInterceptor(verifier, logger.With("component", "auth"))))
	}

	srv := grpc.NewServer(opts...)
	remote.NewServer(robot, logger).Register(srv)
	return srv
}

func runSimRobot(ctx context.Context, args []string) error {
	opts, err := parseSimFlags(flag.NewFlagSet("sim-robot", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(config.Path())
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging, os.Stdout).With("component", "sim-robot")

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" && !opts.Insecure {
		v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("creating JWT verifier: %w", err)
		}
		verifier = v
	} else {
		logger.Warn("sim-robot accepts unauthenticated calls")
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", opts.Addr, err)
	}

	srv := newSimServer(newSimRobot(opts.Maps), verifier, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("simulated robot listening", "addr", ln.Addr().String(), "maps", opts.Maps)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("context canceled, stopping simulated robot")
	case err := <-errCh:
		return err
	}

	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		srv.Stop()
	}
	return nil
}
