// ABOUTME: Generic invocation of a Client operation by name with loosely typed arguments
// ABOUTME: Lets transports (gRPC server) demultiplex wire calls onto the Client contract

package capability

import (
	"context"
	"errors"
	"fmt"
)

// ErrBadArgs is returned when a named call carries arguments of the wrong shape.
var ErrBadArgs = errors.New("bad capability arguments")

// Args are the named arguments of a call as decoded from a wire format.
// Numbers are float64, lists are []any, absent optionals are missing or nil.
type Args map[string]any

// Call invokes op on c with args. It is the inverse of the argument encoding
// done by transports: every Op in AllOps is accepted.
func Call(ctx context.Context, c Client, op Op, args Args) (any, error) {
	switch op {
	case OpPing:
		return c.Core().Ping(ctx)
	case OpVersion:
		return c.Core().Version(ctx)
	case OpSetJSONMode:
		v, err := args.boolean("enabled")
		if err != nil {
			return nil, err
		}
		return c.SetJSONMode(ctx, v)
	case OpSetTOFs:
		v, err := args.boolean("enabled")
		if err != nil {
			return nil, err
		}
		return c.SetTOFs(ctx, v)
	case OpCurrentAction:
		return c.CurrentAction(ctx)
	case OpLastError:
		msg, err := c.LastError(ctx)
		return msg, err
	}

	if result, ok, err := callBase(ctx, c.Base(), op, args); ok {
		return result, err
	}
	if result, ok, err := callHeadArm(ctx, c, op, args); ok {
		return result, err
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownOp, op)
}

func callBase(ctx context.Context, b Base, op Op, args Args) (any, bool, error) {
	switch op {
	case OpInitialize:
		r, err := b.Initialize(ctx)
		return r, true, err
	case OpSetMode:
		id, err := args.integer("mode_id")
		if err != nil {
			return nil, true, err
		}
		r, err := b.SetMode(ctx, id)
		return r, true, err
	case OpStart:
		r, err := b.Start(ctx)
		return r, true, err
	case OpQuickmap:
		r, err := b.Quickmap(ctx)
		return r, true, err
	case OpDock:
		r, err := b.Dock(ctx)
		return r, true, err
	case OpKill:
		r, err := b.Kill(ctx)
		return r, true, err
	case OpTriggerBump:
		left, err := args.boolean("left")
		if err != nil {
			return nil, true, err
		}
		right, err := args.boolean("right")
		if err != nil {
			return nil, true, err
		}
		r, err := b.TriggerBump(ctx, left, right)
		return r, true, err
	case OpSpeak:
		model, err := args.str("model_src")
		if err != nil {
			return nil, true, err
		}
		text, err := args.str("text")
		if err != nil {
			return nil, true, err
		}
		speaker, err := args.optInteger("speaker_id")
		if err != nil {
			return nil, true, err
		}
		r, err := b.Speak(ctx, model, text, speaker)
		return r, true, err
	case OpDrive:
		lin, err := args.number("linear_velocity")
		if err != nil {
			return nil, true, err
		}
		ang, err := args.number("angle_velocity")
		if err != nil {
			return nil, true, err
		}
		r, err := b.Drive(ctx, lin, ang)
		return r, true, err
	case OpBaseStatus:
		r, err := b.Status(ctx)
		return r, true, err
	case OpGoto:
		x, err := args.number("x")
		if err != nil {
			return nil, true, err
		}
		y, err := args.number("y")
		if err != nil {
			return nil, true, err
		}
		angle, err := args.optNumber("angle")
		if err != nil {
			return nil, true, err
		}
		speed, err := args.optNumber("speed")
		if err != nil {
			return nil, true, err
		}
		r, err := b.Maps().Goto(ctx, x, y, angle, speed)
		return r, true, err
	case OpListMaps:
		r, err := b.Maps().List(ctx)
		return r, true, err
	case OpPosition:
		r, err := b.Maps().Position(ctx)
		return r, true, err
	case OpFetchMap:
		id, err := args.integer("map_id")
		if err != nil {
			return nil, true, err
		}
		r, err := b.Maps().Fetch(ctx, id)
		return r, true, err
	}
	return nil, false, nil
}

func callHeadArm(ctx context.Context, c Client, op Op, args Args) (any, bool, error) {
	switch op {
	case OpSetIdleMode:
		v, err := args.boolean("enabled")
		if err != nil {
			return nil, true, err
		}
		r, err := c.Head().SetIdleMode(ctx, v)
		return r, true, err
	case OpLook:
		pan, err := args.number("pan")
		if err != nil {
			return nil, true, err
		}
		tilt, err := args.number("tilt")
		if err != nil {
			return nil, true, err
		}
		speed, err := args.number("speed")
		if err != nil {
			return nil, true, err
		}
		r, err := c.Head().Look(ctx, pan, tilt, speed)
		return r, true, err
	case OpGaze:
		x, err := args.number("x")
		if err != nil {
			return nil, true, err
		}
		y, err := args.number("y")
		if err != nil {
			return nil, true, err
		}
		r, err := c.Head().Gaze(ctx, x, y)
		return r, true, err
	case OpMoveJoint:
		joint, err := args.integer("joint")
		if err != nil {
			return nil, true, err
		}
		angle, err := args.number("angle")
		if err != nil {
			return nil, true, err
		}
		speed, err := args.number("speed")
		if err != nil {
			return nil, true, err
		}
		r, err := c.Arm().MoveJoint(ctx, joint, angle, speed)
		return r, true, err
	case OpMoveJoints:
		angles, err := args.numbers("angles")
		if err != nil {
			return nil, true, err
		}
		speed, err := args.number("speed")
		if err != nil {
			return nil, true, err
		}
		r, err := c.Arm().MoveJoints(ctx, angles, speed)
		return r, true, err
	case OpCalibrate:
		r, err := c.Arm().Gripper().Calibrate(ctx)
		return r, true, err
	case OpOpen:
		r, err := c.Arm().Gripper().Open(ctx)
		return r, true, err
	case OpClose:
		r, err := c.Arm().Gripper().Close(ctx)
		return r, true, err
	}
	return nil, false, nil
}

func (a Args) number(key string) (float64, error) {
	v, ok := a[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadArgs, key)
	}
	return v, nil
}

func (a Args) optNumber(key string) (*float64, error) {
	if a[key] == nil {
		return nil, nil
	}
	v, err := a.number(key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (a Args) integer(key string) (int, error) {
	v, err := a.number(key)
	if err != nil {
		return 0, err
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadArgs, key)
	}
	return int(v), nil
}

func (a Args) optInteger(key string) (*int, error) {
	if a[key] == nil {
		return nil, nil
	}
	v, err := a.integer(key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (a Args) boolean(key string) (bool, error) {
	v, ok := a[key].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrBadArgs, key)
	}
	return v, nil
}

func (a Args) str(key string) (string, error) {
	v, ok := a[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadArgs, key)
	}
	return v, nil
}

func (a Args) numbers(key string) ([]float64, error) {
	list, ok := a[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", ErrBadArgs, key)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a number", ErrBadArgs, key, i)
		}
		out[i] = f
	}
	return out, nil
}
