// ABOUTME: gRPC implementation of capability.Client talking to a remote robot controller
// ABOUTME: Every operation is one unary Invoke call carrying {op, args} as a protobuf Struct

package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/2389/robot-gateway/internal/capability"
)

// ErrRemote wraps an error reported by the remote capability implementation.
var ErrRemote = errors.New("remote capability error")

// Client is a capability.Client backed by a gRPC connection.
type Client struct {
	conn        grpc.ClientConnInterface
	closer      func() error
	callTimeout time.Duration
}

var _ capability.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout bounds every call. Zero means no timeout beyond the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// NewClient wraps an existing connection. The caller owns conn.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	c := &Client{conn: conn, closer: func() error { return nil }}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to a capability server at target. A non-empty token is sent
// as a bearer token with every call.
func Dial(target, token string, opts ...Option) (*Client, error) {
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(bearer(token)))
	}
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	c := NewClient(conn, opts...)
	c.closer = conn.Close
	return c, nil
}

// Close releases the connection opened by Dial.
func (c *Client) Close() error { return c.closer() }

// bearer attaches a static token to every RPC.
type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool { return false }

func (c *Client) invoke(ctx context.Context, op capability.Op, args map[string]any) (any, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	fields := map[string]*structpb.Value{fieldOp: structpb.NewStringValue(string(op))}
	if len(args) > 0 {
		encoded, err := toValue(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fields[fieldArgs] = encoded
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, invokeMethod, &structpb.Struct{Fields: fields}, resp); err != nil {
		return nil, err
	}
	if msg := resp.GetFields()[fieldError].GetStringValue(); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	}
	v, ok := resp.GetFields()[fieldResult]
	if !ok {
		return nil, nil
	}
	return v.AsInterface(), nil
}

// Core returns the core subsystem.
func (c *Client) Core() capability.Core { return core{c} }

// Base returns the mobility base.
func (c *Client) Base() capability.Base { return base{c} }

// Head returns the head subsystem.
func (c *Client) Head() capability.Head { return head{c} }

// Arm returns the arm subsystem.
func (c *Client) Arm() capability.Arm { return arm{c} }

func (c *Client) SetJSONMode(ctx context.Context, enabled bool) (any, error) {
	return c.invoke(ctx, capability.OpSetJSONMode, map[string]any{"enabled": enabled})
}

func (c *Client) SetTOFs(ctx context.Context, enabled bool) (any, error) {
	return c.invoke(ctx, capability.OpSetTOFs, map[string]any{"enabled": enabled})
}

func (c *Client) CurrentAction(ctx context.Context) (any, error) {
	return c.invoke(ctx, capability.OpCurrentAction, nil)
}

// LastError returns the remote side channel. A non-string result reads as empty.
func (c *Client) LastError(ctx context.Context) (string, error) {
	v, err := c.invoke(ctx, capability.OpLastError, nil)
	if err != nil {
		return "", err
	}
	msg, _ := v.(string)
	return msg, nil
}

type core struct{ c *Client }

func (x core) Ping(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpPing, nil)
}

func (x core) Version(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpVersion, nil)
}

type base struct{ c *Client }

func (x base) Initialize(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpInitialize, nil)
}

func (x base) SetMode(ctx context.Context, modeID int) (any, error) {
	return x.c.invoke(ctx, capability.OpSetMode, map[string]any{"mode_id": modeID})
}

func (x base) Start(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpStart, nil)
}

func (x base) Quickmap(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpQuickmap, nil)
}

func (x base) Dock(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpDock, nil)
}

func (x base) Kill(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpKill, nil)
}

func (x base) TriggerBump(ctx context.Context, left, right bool) (any, error) {
	return x.c.invoke(ctx, capability.OpTriggerBump, map[string]any{"left": left, "right": right})
}

func (x base) Speak(ctx context.Context, modelSrc, text string, speakerID *int) (any, error) {
	args := map[string]any{"model_src": modelSrc, "text": text}
	if speakerID != nil {
		args["speaker_id"] = *speakerID
	}
	return x.c.invoke(ctx, capability.OpSpeak, args)
}

func (x base) Drive(ctx context.Context, linearVelocity, angleVelocity float64) (any, error) {
	return x.c.invoke(ctx, capability.OpDrive, map[string]any{
		"linear_velocity": linearVelocity,
		"angle_velocity":  angleVelocity,
	})
}

func (x base) Status(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpBaseStatus, nil)
}

func (x base) Maps() capability.Maps { return maps(x) }

type maps struct{ c *Client }

func (x maps) Goto(ctx context.Context, px, py float64, angle, speed *float64) (any, error) {
	args := map[string]any{"x": px, "y": py}
	if angle != nil {
		args["angle"] = *angle
	}
	if speed != nil {
		args["speed"] = *speed
	}
	return x.c.invoke(ctx, capability.OpGoto, args)
}

func (x maps) List(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpListMaps, nil)
}

func (x maps) Position(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpPosition, nil)
}

func (x maps) Fetch(ctx context.Context, mapID int) (any, error) {
	return x.c.invoke(ctx, capability.OpFetchMap, map[string]any{"map_id": mapID})
}

type head struct{ c *Client }

func (x head) SetIdleMode(ctx context.Context, enabled bool) (any, error) {
	return x.c.invoke(ctx, capability.OpSetIdleMode, map[string]any{"enabled": enabled})
}

func (x head) Look(ctx context.Context, pan, tilt, speed float64) (any, error) {
	return x.c.invoke(ctx, capability.OpLook, map[string]any{"pan": pan, "tilt": tilt, "speed": speed})
}

func (x head) Gaze(ctx context.Context, px, py float64) (any, error) {
	return x.c.invoke(ctx, capability.OpGaze, map[string]any{"x": px, "y": py})
}

type arm struct{ c *Client }

func (x arm) MoveJoint(ctx context.Context, joint int, angle, speed float64) (any, error) {
	return x.c.invoke(ctx, capability.OpMoveJoint, map[string]any{"joint": joint, "angle": angle, "speed": speed})
}

func (x arm) MoveJoints(ctx context.Context, angles []float64, speed float64) (any, error) {
	list := make([]any, len(angles))
	for i, a := range angles {
		list[i] = a
	}
	return x.c.invoke(ctx, capability.OpMoveJoints, map[string]any{"angles": list, "speed": speed})
}

func (x arm) Gripper() capability.Gripper { return gripper(x) }

type gripper struct{ c *Client }

func (x gripper) Calibrate(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpCalibrate, nil)
}

func (x gripper) Open(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpOpen, nil)
}

func (x gripper) Close(ctx context.Context) (any, error) {
	return x.c.invoke(ctx, capability.OpClose, nil)
}
