// ABOUTME: token command issuing signed API tokens for the robot HTTP API
// ABOUTME: Tokens carry a subject and roles and are signed with auth.jwt_secret

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/2389/robot-gateway/internal/auth"
	"github.com/2389/robot-gateway/internal/config"
)

// tokenOptions are the parsed flags of the token command.
type tokenOptions struct {
	Subject string
	Roles   []string
	TTL     time.Duration
}

func parseTokenFlags(fs *flag.FlagSet, args []string) (tokenOptions, error) {
	var (
		opts  tokenOptions
		roles string
	)
	fs.StringVar(&opts.Subject, "subject", "", "token subject (who the token is for)")
	fs.StringVar(&roles, "roles", auth.RoleOperator, "comma-separated roles (operator, viewer)")
	fs.DurationVar(&opts.TTL, "ttl", 30*24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return tokenOptions{}, err
	}
	if fs.NArg() > 0 {
		return tokenOptions{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	opts.Subject = strings.TrimSpace(opts.Subject)
	if opts.Subject == "" {
		return tokenOptions{}, fmt.Errorf("--subject is required")
	}
	if opts.TTL <= 0 {
		return tokenOptions{}, fmt.Errorf("--ttl must be positive")
	}

	for _, r := range strings.Split(roles, ",") {
		r = strings.TrimSpace(r)
		switch r {
		case "":
			continue
		case auth.RoleOperator, auth.RoleViewer:
			opts.Roles = append(opts.Roles, r)
		default:
			return tokenOptions{}, fmt.Errorf("unknown role %q", r)
		}
	}
	if len(opts.Roles) == 0 {
		return tokenOptions{}, fmt.Errorf("at least one role is required")
	}
	return opts, nil
}

func runToken(args []string, out io.Writer) error {
	opts, err := parseTokenFlags(flag.NewFlagSet("token", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(config.Path())
	if err != nil {
		return err
	}
	return issueToken(cfg.Auth.JWTSecret, opts, out)
}

func issueToken(secret string, opts tokenOptions, out io.Writer) error {
	if secret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	verifier, err := auth.NewJWTVerifier([]byte(secret))
	if err != nil {
		return fmt.Errorf("creating JWT verifier: %w", err)
	}

	token, err := verifier.Generate(opts.Subject, opts.Roles, opts.TTL)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
