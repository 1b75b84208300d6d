// ABOUTME: Capability Client contract consumed by the gateway
// ABOUTME: Domain interfaces (core, base, maps, head, arm, gripper) and operation names

package capability

import (
	"context"
	"errors"
)

// ErrUnknownOp is returned by transports that receive an operation name they
// cannot map onto the Client contract.
var ErrUnknownOp = errors.New("unknown capability operation")

// Client is the robot-side dependency the gateway calls into.
//
// Every operation is synchronous. A call either fails with an error, or
// returns a result value. A falsy result with a nil error means the backend
// rejected the request; the reason is then available from LastError.
type Client interface {
	Core() Core
	Base() Base
	Head() Head
	Arm() Arm

	// SetJSONMode toggles structured responses from the robot firmware.
	SetJSONMode(ctx context.Context, enabled bool) (any, error)
	// SetTOFs enables or disables the time-of-flight sensors.
	SetTOFs(ctx context.Context, enabled bool) (any, error)

	// CurrentAction reports what the robot is doing, nil when idle.
	CurrentAction(ctx context.Context) (any, error)
	// LastError returns the most recently reported backend error text.
	LastError(ctx context.Context) (string, error)
}

// Core exposes diagnostics of the main controller.
type Core interface {
	Ping(ctx context.Context) (any, error)
	Version(ctx context.Context) (any, error)
}

// Base exposes the mobility base.
type Base interface {
	Initialize(ctx context.Context) (any, error)
	SetMode(ctx context.Context, modeID int) (any, error)
	Start(ctx context.Context) (any, error)
	Quickmap(ctx context.Context) (any, error)
	Dock(ctx context.Context) (any, error)
	Kill(ctx context.Context) (any, error)
	TriggerBump(ctx context.Context, left, right bool) (any, error)
	Speak(ctx context.Context, modelSrc, text string, speakerID *int) (any, error)
	Drive(ctx context.Context, linearVelocity, angleVelocity float64) (any, error)
	Status(ctx context.Context) (any, error)
	Maps() Maps
}

// Maps exposes navigation on stored maps.
type Maps interface {
	// Goto navigates to (x, y). Nil angle or speed lets the robot choose.
	Goto(ctx context.Context, x, y float64, angle, speed *float64) (any, error)
	// List returns the ids/names of the maps stored on the robot, nil if unknown.
	List(ctx context.Context) (any, error)
	Position(ctx context.Context) (any, error)
	// Fetch returns the (possibly compressed) payload of a map, nil if absent.
	Fetch(ctx context.Context, mapID int) (any, error)
}

// Head exposes the head and eyes.
type Head interface {
	SetIdleMode(ctx context.Context, enabled bool) (any, error)
	Look(ctx context.Context, pan, tilt, speed float64) (any, error)
	Gaze(ctx context.Context, x, y float64) (any, error)
}

// Arm exposes the arm joints and gripper.
type Arm interface {
	MoveJoint(ctx context.Context, joint int, angle, speed float64) (any, error)
	MoveJoints(ctx context.Context, angles []float64, speed float64) (any, error)
	Gripper() Gripper
}

// Gripper exposes the end effector.
type Gripper interface {
	Calibrate(ctx context.Context) (any, error)
	Open(ctx context.Context) (any, error)
	Close(ctx context.Context) (any, error)
}
