// Package capability defines the contract between the gateway and the robot.
//
// # Overview
//
// The robot SDK is an external collaborator. The gateway never drives motors
// or reads sensors itself; it calls into a Client grouped by subsystem:
//
//	client.Core().Ping(ctx)
//	client.Base().Drive(ctx, 0.5, 0.1)
//	client.Base().Maps().Fetch(ctx, 42)
//	client.Head().Look(ctx, 10, -5, 0.5)
//	client.Arm().Gripper().Open(ctx)
//
// # Result Convention
//
// Operations return (any, error). An error means the call itself failed
// (transport, SDK exception). A falsy result with a nil error means the
// robot rejected the request; the reason is read from LastError. Callers that
// pair a failed call with LastError must not let another call run in between.
//
// # Implementations
//
//   - fake: deterministic in-memory robot for development and tests
//   - remote: gRPC client for a robot-side daemon, plus the matching server
//
// # Operation Names
//
// Every operation has a stable Op name (e.g. "base.maps.fetch") used in logs,
// metrics and the gRPC wire format. Call dispatches an Op with Args onto a
// Client and is what the gRPC server uses.
package capability
