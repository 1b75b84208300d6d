// Package gateway serves the robot command API over HTTP.
//
// # Overview
//
// The gateway owns the capability client, the command router, the map
// cache and the marker store, and exposes them through one chi router.
// Every configured API version is mounted under its prefix with its own
// schema registry profile and result policy:
//
//	/api/v1  loose   legacy aliases accepted, truthiness-based results
//	/api/v2  strict  canonical fields only, only nil/false results fail
//
// # HTTP API
//
// Each version mounts the same handler set (api.go):
//
//   - POST /core, /base, /base/maps, /head, /arm, /arm/gripper - commands
//   - PUT /head - idle mode
//   - GET /core/version, /base/status, /base/maps/position - reads
//   - GET /base/maps - map list
//   - GET /base/maps/{id} - cached map payload
//   - DELETE /base/maps/{id} - drop a cached payload
//   - POST /save-markers, GET /load-markers/{id} - marker sets
//   - GET /status - current action (204 when idle)
//   - GET /error - last robot error
//
// Unversioned:
//
//   - GET /health - Liveness check
//   - GET /health/ready - Robot ping
//   - GET /metrics - Prometheus metrics (when enabled)
//
// # Responses
//
// Success bodies are {"response": result} except for the map and marker
// endpoints. Failures are {"error": message, "code": ..., "field": ...}
// with status chosen in errors.go:
//
//	malformed request       400
//	unsupported method      422
//	map not found           404
//	backend failure         500
//	robot not initialized   500
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//	...
//	cancel()
//
// Run listens on server.http_addr, or joins the tailnet when tailscale is
// enabled, and shuts down within server.shutdown_timeout.
package gateway
