// ABOUTME: init command writing a gateway config file from interactive answers
// ABOUTME: Generates a random JWT secret when auth is enabled

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/robot-gateway/internal/config"
)

// initAnswers holds everything runInit asks for.
type initAnswers struct {
	HTTPAddr     string
	Driver       string
	RobotAddress string
	JWTSecret    string
	Tailscale    bool
	TSHostname   string
	TSAuthKey    string
	TSEphemeral  bool
	TSFunnel     bool
	LogLevel     string
	LogFormat    string
	Metrics      bool
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "robot-gateway configuration setup")
	fmt.Fprintln(out, "=================================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", config.Path())

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, out, "HTTP address", "127.0.0.1:8000")

	fmt.Fprintln(out, "\n--- Robot Configuration ---")
	a.Driver = prompt(reader, out, "Robot driver (fake/grpc)", config.DriverFake)
	if a.Driver == config.DriverGRPC {
		a.RobotAddress = prompt(reader, out, "Robot gRPC address", "127.0.0.1:50051")
	}

	fmt.Fprintln(out, "\n--- Auth Configuration ---")
	if yes(prompt(reader, out, "Require API tokens?", "yes")) {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		a.JWTSecret = secret
	}

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	a.Tailscale = yes(prompt(reader, out, "Enable Tailscale?", "no"))
	if a.Tailscale {
		a.TSHostname = prompt(reader, out, "Tailscale hostname", "robot-gateway")
		a.TSAuthKey = prompt(reader, out, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		a.TSEphemeral = yes(prompt(reader, out, "Ephemeral node?", "no"))
		a.TSFunnel = yes(prompt(reader, out, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, out, "Log format (text/json)", "text")
	a.Metrics = yes(prompt(reader, out, "Expose Prometheus metrics?", "no"))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may hold the JWT secret.
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  robot-gateway serve")
	if a.JWTSecret != "" {
		fmt.Fprintln(out, "To issue a token:")
		fmt.Fprintln(out, "  robot-gateway token --subject you")
	}
	return nil
}

// renderConfig produces the YAML config for a.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# robot-gateway configuration\n")
	cfg.WriteString("# Generated by robot-gateway init\n\n")

	cfg.WriteString("server:\n")
	if a.HTTPAddr != "" {
		cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	}
	cfg.WriteString("  shutdown_timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("robot:\n")
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", a.Driver))
	if a.RobotAddress != "" {
		cfg.WriteString(fmt.Sprintf("  address: %q\n", a.RobotAddress))
		cfg.WriteString("  token: \"${ROBOT_TOKEN}\"\n")
	}
	cfg.WriteString("  call_timeout: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("cache:\n")
	cfg.WriteString("  max_maps: 256\n")
	cfg.WriteString("\n")

	cfg.WriteString("api:\n")
	cfg.WriteString("  versions:\n")
	for _, v := range config.DefaultVersions() {
		cfg.WriteString(fmt.Sprintf("    - prefix: %q\n", v.Prefix))
		cfg.WriteString(fmt.Sprintf("      profile: %q\n", v.Profile))
	}
	cfg.WriteString("\n")

	if a.JWTSecret != "" {
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", a.JWTSecret))
		cfg.WriteString("\n")
	}

	cfg.WriteString("tailscale:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", a.Tailscale))
	if a.Tailscale {
		cfg.WriteString(fmt.Sprintf("  hostname: %q\n", a.TSHostname))
		if a.TSAuthKey != "" {
			cfg.WriteString(fmt.Sprintf("  auth_key: %q\n", a.TSAuthKey))
		}
		cfg.WriteString(fmt.Sprintf("  ephemeral: %t\n", a.TSEphemeral))
		cfg.WriteString(fmt.Sprintf("  funnel: %t\n", a.TSFunnel))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", a.Metrics))
	cfg.WriteString("  path: \"/metrics\"\n")

	return cfg.String()
}

func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

func yes(answer string) bool {
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y"
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
