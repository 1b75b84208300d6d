// Package config handles configuration loading for robot-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by the .toml
// extension), then overridden by ROBOT_GATEWAY_* environment variables,
// then filled with defaults and validated. Without a file, FromEnv builds
// the same configuration from defaults and the environment alone.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from ROBOT_GATEWAY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/robot-gateway/gateway.yaml
//  3. ~/.config/robot-gateway/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${ROBOT_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Environment Overrides
//
// Each scalar setting has an override named after its section and key:
//
//	ROBOT_GATEWAY_SERVER_HTTP_ADDR=0.0.0.0:8000
//	ROBOT_GATEWAY_ROBOT_DRIVER=grpc
//	ROBOT_GATEWAY_ROBOT_ADDRESS=robot.local:50051
//	ROBOT_GATEWAY_CACHE_MAX_MAPS=64
//
// api.versions can only be set in the file.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8000"
//	  shutdown_timeout: "10s"
//
//	robot:
//	  driver: grpc          # fake | grpc
//	  address: "robot.local:50051"
//	  token: "${ROBOT_TOKEN}"
//	  call_timeout: "5s"
//
//	cache:
//	  max_maps: 256
//
//	api:
//	  versions:
//	    - prefix: /api/v1
//	      profile: loose    # legacy aliases, unknown fields ignored
//	    - prefix: /api/v2
//	      profile: strict
//
//	auth:
//	  jwt_secret: ""        # empty disables auth; otherwise at least 32 bytes
//
//	logging:
//	  level: info           # debug | info | warn | error
//	  format: text          # text | json
//
//	metrics:
//	  enabled: true
//	  path: /metrics
//
// Tailscale settings mirror the tsnet options: enabled, hostname, auth_key,
// state_dir, ephemeral, cert_file, key_file and funnel.
package config
