// ABOUTME: Deterministic in-memory robot implementing capability.Client
// ABOUTME: Programmable results, last-error side channel and call recording for dev and tests

package fake

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/2389/robot-gateway/internal/capability"
)

// Call records one capability invocation.
type Call struct {
	Op   capability.Op
	Args capability.Args
}

// Robot is a simulated robot. The zero value is not usable; use New.
// All methods are safe for concurrent use.
type Robot struct {
	mu       sync.Mutex
	calls    []Call
	results  map[capability.Op]any
	errs     map[capability.Op]error
	failures map[capability.Op]string
	maps     map[int]any
	lastErr  string
	action   any
	mode     int

	// hook runs after a call is recorded and before it returns, outside the lock.
	hook func(op capability.Op)
}

var _ capability.Client = (*Robot)(nil)

// New creates a robot that answers every operation successfully.
func New() *Robot {
	return &Robot{
		results:  make(map[capability.Op]any),
		errs:     make(map[capability.Op]error),
		failures: make(map[capability.Op]string),
		maps:     make(map[int]any),
	}
}

// SetResult overrides the result of op. A nil result is returned as nil.
func (r *Robot) SetResult(op capability.Op, result any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[op] = result
}

// SetError makes op fail with err.
func (r *Robot) SetError(op capability.Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[op] = err
}

// Fail makes op return false and report msg through LastError.
func (r *Robot) Fail(op capability.Op, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = msg
}

// SetLastError overwrites the last-error side channel.
func (r *Robot) SetLastError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = msg
}

// SeedMap stores a map payload served by Maps().Fetch and listed by Maps().List.
func (r *Robot) SeedMap(id int, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps[id] = payload
}

// OnCall installs a hook invoked for every call. Tests use it to block or
// observe in-flight calls.
func (r *Robot) OnCall(hook func(op capability.Op)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = hook
}

// Calls returns a copy of the recorded calls in order.
func (r *Robot) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallCount returns how many times op was invoked.
func (r *Robot) CallCount(op capability.Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (r *Robot) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// invoke records the call and resolves its outcome. def computes the default
// result under the lock when no override is configured.
func (r *Robot) invoke(op capability.Op, args capability.Args, def func() any) (any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Op: op, Args: args})
	hook := r.hook

	var (
		result any
		err    error
	)
	switch {
	case r.errs[op] != nil:
		err = r.errs[op]
	case r.failures[op] != "":
		r.lastErr = r.failures[op]
		result = false
	default:
		if v, ok := r.results[op]; ok {
			result = v
		} else {
			result = def()
		}
	}
	r.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	return result, err
}

func ok() any { return true }

// Core returns the core subsystem.
func (r *Robot) Core() capability.Core { return core{r} }

// Base returns the mobility base.
func (r *Robot) Base() capability.Base { return base{r} }

// Head returns the head subsystem.
func (r *Robot) Head() capability.Head { return head{r} }

// Arm returns the arm subsystem.
func (r *Robot) Arm() capability.Arm { return arm{r} }

// SetJSONMode implements capability.Client.
func (r *Robot) SetJSONMode(_ context.Context, enabled bool) (any, error) {
	return r.invoke(capability.OpSetJSONMode, capability.Args{"enabled": enabled}, ok)
}

// SetTOFs implements capability.Client.
func (r *Robot) SetTOFs(_ context.Context, enabled bool) (any, error) {
	return r.invoke(capability.OpSetTOFs, capability.Args{"enabled": enabled}, ok)
}

// CurrentAction implements capability.Client.
func (r *Robot) CurrentAction(_ context.Context) (any, error) {
	return r.invoke(capability.OpCurrentAction, nil, func() any { return r.action })
}

// LastError implements capability.Client. It is not recorded as a call.
func (r *Robot) LastError(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr, nil
}

// setAction must be called with r.mu held.
func (r *Robot) setAction(action any) any {
	r.action = action
	return true
}

type core struct{ r *Robot }

func (c core) Ping(_ context.Context) (any, error) {
	return c.r.invoke(capability.OpPing, nil, func() any { return "pong" })
}

func (c core) Version(_ context.Context) (any, error) {
	return c.r.invoke(capability.OpVersion, nil, func() any {
		return map[string]any{"main_controller": "sim-1.0", "temperature_sensor": "sim-1.0"}
	})
}

type base struct{ r *Robot }

func (b base) Initialize(_ context.Context) (any, error) {
	return b.r.invoke(capability.OpInitialize, nil, ok)
}

func (b base) SetMode(_ context.Context, modeID int) (any, error) {
	return b.r.invoke(capability.OpSetMode, capability.Args{"mode_id": modeID}, func() any {
		b.r.mode = modeID
		return true
	})
}

func (b base) Start(_ context.Context) (any, error) {
	return b.r.invoke(capability.OpStart, nil, ok)
}

func (b base) Quickmap(_ context.Context) (any, error) {
	return b.r.invoke(capability.OpQuickmap, nil, func() any { return b.r.setAction("mapping") })
}

func (b base) Dock(_ context.Context) (any, error) {
	return b.r.invoke(capability.OpDock, nil, func() any { return b.r.setAction("docking") })
}

func (b base) Kill(_ context.Context) (any, error) {
	return b.r.invoke(capability.OpKill, nil, func() any { return b.r.setAction(nil) })
}

func (b base) TriggerBump(_ context.Context, left, right bool) (any, error) {
	return b.r.invoke(capability.OpTriggerBump, capability.Args{"left": left, "right": right}, ok)
}

func (b base) Speak(_ context.Context, modelSrc, text string, speakerID *int) (any, error) {
	args := capability.Args{"model_src": modelSrc, "text": text, "speaker_id": nil}
	if speakerID != nil {
		args["speaker_id"] = *speakerID
	}
	return b.r.invoke(capability.OpSpeak, args, ok)
}

func (b base) Drive(_ context.Context, linearVelocity, angleVelocity float64) (any, error) {
	args := capability.Args{"linear_velocity": linearVelocity, "angle_velocity": angleVelocity}
	return b.r.invoke(capability.OpDrive, args, func() any { return b.r.setAction("driving") })
}

func (b base) Status(_ context.Context) (any, error) {
	return b.r.invoke(capability.OpBaseStatus, nil, func() any {
		return map[string]any{"mode": b.r.mode, "action": b.r.action, "battery": 100}
	})
}

func (b base) Maps() capability.Maps { return maps{b.r} }

type maps struct{ r *Robot }

func (m maps) Goto(_ context.Context, x, y float64, angle, speed *float64) (any, error) {
	args := capability.Args{"x": x, "y": y, "angle": nil, "speed": nil}
	if angle != nil {
		args["angle"] = *angle
	}
	if speed != nil {
		args["speed"] = *speed
	}
	return m.r.invoke(capability.OpGoto, args, func() any { return m.r.setAction("navigating") })
}

func (m maps) List(_ context.Context) (any, error) {
	return m.r.invoke(capability.OpListMaps, nil, func() any {
		ids := make([]int, 0, len(m.r.maps))
		for id := range m.r.maps {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		list := make([]any, len(ids))
		for i, id := range ids {
			list[i] = map[string]any{"id": id, "name": fmt.Sprintf("map-%d", id)}
		}
		return list
	})
}

func (m maps) Position(_ context.Context) (any, error) {
	return m.r.invoke(capability.OpPosition, nil, func() any {
		return map[string]any{"x": 0.0, "y": 0.0, "angle": 0.0}
	})
}

func (m maps) Fetch(_ context.Context, mapID int) (any, error) {
	return m.r.invoke(capability.OpFetchMap, capability.Args{"map_id": mapID}, func() any {
		return m.r.maps[mapID]
	})
}

type head struct{ r *Robot }

func (h head) SetIdleMode(_ context.Context, enabled bool) (any, error) {
	return h.r.invoke(capability.OpSetIdleMode, capability.Args{"enabled": enabled}, ok)
}

func (h head) Look(_ context.Context, pan, tilt, speed float64) (any, error) {
	return h.r.invoke(capability.OpLook, capability.Args{"pan": pan, "tilt": tilt, "speed": speed}, ok)
}

func (h head) Gaze(_ context.Context, x, y float64) (any, error) {
	return h.r.invoke(capability.OpGaze, capability.Args{"x": x, "y": y}, ok)
}

type arm struct{ r *Robot }

func (a arm) MoveJoint(_ context.Context, joint int, angle, speed float64) (any, error) {
	return a.r.invoke(capability.OpMoveJoint, capability.Args{"joint": joint, "angle": angle, "speed": speed}, ok)
}

func (a arm) MoveJoints(_ context.Context, angles []float64, speed float64) (any, error) {
	return a.r.invoke(capability.OpMoveJoints, capability.Args{"angles": slices.Clone(angles), "speed": speed}, ok)
}

func (a arm) Gripper() capability.Gripper { return gripper{a.r} }

type gripper struct{ r *Robot }

func (g gripper) Calibrate(_ context.Context) (any, error) {
	return g.r.invoke(capability.OpCalibrate, nil, ok)
}

func (g gripper) Open(_ context.Context) (any, error) {
	return g.r.invoke(capability.OpOpen, nil, ok)
}

func (g gripper) Close(_ context.Context) (any, error) {
	return g.r.invoke(capability.OpClose, nil, ok)
}
