// ABOUTME: Command router mapping every validated command variant to one capability operation
// ABOUTME: Serializes each call with its last-error read and applies the version's result policy

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/2389/robot-gateway/internal/capability"
	"github.com/2389/robot-gateway/internal/schema"
)

// Outcomes reported to an Observer.
const (
	OutcomeOK    = "ok"
	OutcomeFalsy = "falsy"
	OutcomeError = "error"
)

// Observer receives one notification per capability call.
type Observer interface {
	ObserveCall(op capability.Op, outcome string, elapsed time.Duration)
}

// Router dispatches commands to a capability client. One call runs at a
// time; waiting for the slot honours the caller's context. Routers derived
// with WithPolicy or WithObserver share the slot of their parent.
type Router struct {
	client   capability.Client
	policy   Policy
	slot     *semaphore.Weighted
	observer Observer
	logger   *slog.Logger
}

// New creates a router with the loose policy. A nil client makes every call
// fail with ErrUnavailable.
func New(client capability.Client, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		client: client,
		policy: PolicyLoose,
		slot:   semaphore.NewWeighted(1),
		logger: logger.With("component", "dispatch"),
	}
}

// WithPolicy returns a router applying p that shares r's call lock.
func (r *Router) WithPolicy(p Policy) *Router {
	cp := *r
	cp.policy = p
	return &cp
}

// WithObserver returns a router reporting calls to o that shares r's call lock.
func (r *Router) WithObserver(o Observer) *Router {
	cp := *r
	cp.observer = o
	return &cp
}

// Policy returns the result policy.
func (r *Router) Policy() Policy { return r.policy }

type opFunc func(ctx context.Context, c capability.Client) (any, error)

// Dispatch runs the capability operation bound to cmd.
func (r *Router) Dispatch(ctx context.Context, cmd schema.Command) (any, error) {
	switch c := cmd.(type) {
	case schema.Ping:
		return r.call(ctx, capability.OpPing, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Core().Ping(ctx)
		})
	case schema.Settings:
		return r.settings(ctx, c)

	case schema.Initialize:
		return r.call(ctx, capability.OpInitialize, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Initialize(ctx)
		})
	case schema.SetMode:
		return r.call(ctx, capability.OpSetMode, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().SetMode(ctx, c.ModeID)
		})
	case schema.Start:
		return r.call(ctx, capability.OpStart, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Start(ctx)
		})
	case schema.Quickmap:
		return r.call(ctx, capability.OpQuickmap, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Quickmap(ctx)
		})
	case schema.Dock:
		return r.call(ctx, capability.OpDock, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Dock(ctx)
		})
	case schema.Kill:
		return r.call(ctx, capability.OpKill, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Kill(ctx)
		})
	case schema.TriggerBump:
		return r.call(ctx, capability.OpTriggerBump, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().TriggerBump(ctx, c.Left, c.Right)
		})
	case schema.Speak:
		return r.call(ctx, capability.OpSpeak, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Speak(ctx, c.ModelSrc, c.Text, c.SpeakerID)
		})
	case schema.Drive:
		return r.call(ctx, capability.OpDrive, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Drive(ctx, c.LinearVelocity, c.AngleVelocity)
		})
	case schema.Goto:
		return r.call(ctx, capability.OpGoto, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Base().Maps().Goto(ctx, c.X, c.Y, c.Angle, c.Speed)
		})

	case schema.Look:
		return r.call(ctx, capability.OpLook, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Head().Look(ctx, c.Pan, c.Tilt, c.Speed)
		})
	case schema.Gaze:
		return r.call(ctx, capability.OpGaze, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Head().Gaze(ctx, c.X, c.Y)
		})
	case schema.SetIdleMode:
		return r.call(ctx, capability.OpSetIdleMode, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Head().SetIdleMode(ctx, c.IdleMode)
		})

	case schema.MoveJoint:
		return r.call(ctx, capability.OpMoveJoint, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Arm().MoveJoint(ctx, c.Joint, c.Angle, c.Speed)
		})
	case schema.MoveJoints:
		return r.call(ctx, capability.OpMoveJoints, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Arm().MoveJoints(ctx, c.Angles, c.Speed)
		})
	case schema.GripperCalibrate:
		return r.call(ctx, capability.OpCalibrate, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Arm().Gripper().Calibrate(ctx)
		})
	case schema.GripperOpen:
		return r.call(ctx, capability.OpOpen, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Arm().Gripper().Open(ctx)
		})
	case schema.GripperClose:
		return r.call(ctx, capability.OpClose, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.Arm().Gripper().Close(ctx)
		})
	}
	return nil, fmt.Errorf("%w: no operation bound to %T", schema.ErrUnsupportedMethod, cmd)
}

// settings applies each provided setting in order under one lock and stops
// at the first failure. The last result is returned.
func (r *Router) settings(ctx context.Context, c schema.Settings) (any, error) {
	if r.client == nil {
		return nil, ErrUnavailable
	}
	first := capability.OpSetTOFs
	if c.JSONResponses != nil {
		first = capability.OpSetJSONMode
	}
	release, err := r.acquire(ctx, first)
	if err != nil {
		return nil, err
	}
	defer release()

	var result any
	if c.JSONResponses != nil {
		on := *c.JSONResponses
		res, err := r.callLocked(ctx, capability.OpSetJSONMode, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.SetJSONMode(ctx, on)
		})
		if err != nil {
			return nil, err
		}
		result = res
	}
	if c.TOFsEnabled != nil {
		on := *c.TOFsEnabled
		res, err := r.callLocked(ctx, capability.OpSetTOFs, func(ctx context.Context, cl capability.Client) (any, error) {
			return cl.SetTOFs(ctx, on)
		})
		if err != nil {
			return nil, err
		}
		result = res
	}
	return result, nil
}

// Version reads the controller version.
func (r *Router) Version(ctx context.Context) (any, error) {
	return r.call(ctx, capability.OpVersion, func(ctx context.Context, cl capability.Client) (any, error) {
		return cl.Core().Version(ctx)
	})
}

// Status reads the base status.
func (r *Router) Status(ctx context.Context) (any, error) {
	return r.call(ctx, capability.OpBaseStatus, func(ctx context.Context, cl capability.Client) (any, error) {
		return cl.Base().Status(ctx)
	})
}

// Position reads the pose on the current map.
func (r *Router) Position(ctx context.Context) (any, error) {
	return r.call(ctx, capability.OpPosition, func(ctx context.Context, cl capability.Client) (any, error) {
		return cl.Base().Maps().Position(ctx)
	})
}

// ListMaps returns the raw map list. A nil list is not an error here.
func (r *Router) ListMaps(ctx context.Context) (any, error) {
	return r.read(ctx, capability.OpListMaps, func(ctx context.Context, cl capability.Client) (any, error) {
		return cl.Base().Maps().List(ctx)
	})
}

// FetchMap returns the raw payload of mapID. A nil payload is not an error here.
func (r *Router) FetchMap(ctx context.Context, mapID int) (any, error) {
	return r.read(ctx, capability.OpFetchMap, func(ctx context.Context, cl capability.Client) (any, error) {
		return cl.Base().Maps().Fetch(ctx, mapID)
	})
}

// CurrentAction returns the action in progress, or nil when idle.
func (r *Router) CurrentAction(ctx context.Context) (any, error) {
	return r.read(ctx, capability.OpCurrentAction, func(ctx context.Context, cl capability.Client) (any, error) {
		return cl.CurrentAction(ctx)
	})
}

// LastError returns the backend's last error text.
func (r *Router) LastError(ctx context.Context) (string, error) {
	if r.client == nil {
		return "", ErrUnavailable
	}
	release, err := r.acquire(ctx, capability.OpLastError)
	if err != nil {
		return "", err
	}
	defer release()

	msg, err := r.client.LastError(ctx)
	if err != nil {
		return "", &BackendError{
			Op:      capability.OpLastError,
			Message: fmt.Sprintf("%s failed: %v", capability.OpLastError, err),
			Err:     err,
		}
	}
	return msg, nil
}

func (r *Router) call(ctx context.Context, op capability.Op, fn opFunc) (any, error) {
	if r.client == nil {
		return nil, ErrUnavailable
	}
	release, err := r.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer release()
	return r.callLocked(ctx, op, fn)
}

// acquire waits for the call slot. A caller whose context ends first gets a
// backend failure and never reaches the robot.
func (r *Router) acquire(ctx context.Context, op capability.Op) (func(), error) {
	if err := r.slot.Acquire(ctx, 1); err != nil {
		r.logger.Warn("gave up waiting for robot", "op", op, "error", err)
		return nil, &BackendError{
			Op:      op,
			Message: fmt.Sprintf("%s not started: %v", op, err),
			Err:     err,
		}
	}
	return func() { r.slot.Release(1) }, nil
}

// callLocked must run while holding the call slot so that a falsy result is paired with
// the last error it produced.
func (r *Router) callLocked(ctx context.Context, op capability.Op, fn opFunc) (any, error) {
	start := time.Now()
	result, err := fn(ctx, r.client)
	if err != nil {
		r.observe(op, OutcomeError, start)
		r.logger.Error("capability call failed", "op", op, "error", err)
		return nil, &BackendError{Op: op, Message: fmt.Sprintf("%s failed: %v", op, err), Err: err}
	}
	if r.policy.Falsy(result) {
		r.observe(op, OutcomeFalsy, start)
		msg, lerr := r.client.LastError(ctx)
		if lerr != nil || msg == "" {
			msg = fmt.Sprintf("%s returned no result", op)
		}
		r.logger.Warn("capability call rejected", "op", op, "error", msg)
		return nil, &BackendError{Op: op, Message: msg}
	}
	r.observe(op, OutcomeOK, start)
	r.logger.Debug("capability call", "op", op, "elapsed", time.Since(start))
	return result, nil
}

// read runs op in the call slot without applying the result policy.
func (r *Router) read(ctx context.Context, op capability.Op, fn opFunc) (any, error) {
	if r.client == nil {
		return nil, ErrUnavailable
	}
	release, err := r.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	result, err := fn(ctx, r.client)
	if err != nil {
		r.observe(op, OutcomeError, start)
		r.logger.Error("capability read failed", "op", op, "error", err)
		return nil, &BackendError{Op: op, Message: fmt.Sprintf("%s failed: %v", op, err), Err: err}
	}
	r.observe(op, OutcomeOK, start)
	return result, nil
}

func (r *Router) observe(op capability.Op, outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveCall(op, outcome, time.Since(start))
	}
}
