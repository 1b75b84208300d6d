// Package remote carries capability calls over gRPC.
//
// The service is robot.capability.v1.Capability with a single unary Invoke
// method. Requests and responses are google.protobuf.Struct values:
//
//	request:  {"op": "base.drive", "args": {"linear_velocity": 0.5, "angle_velocity": 0.1}}
//	response: {"result": true}
//	response: {"error": "serial port closed"}
//
// Client implements capability.Client for the gateway. Server exposes any
// capability.Client, which is how the sim-robot command serves the fake robot.
package remote
