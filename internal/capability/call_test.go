// ABOUTME: Tests for named capability invocation
// ABOUTME: Uses the fake robot to verify argument decoding and op coverage

package capability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/robot-gateway/internal/capability"
	"github.com/2389/robot-gateway/internal/capability/fake"
)

func TestCall_Drive(t *testing.T) {
	robot := fake.New()
	robot.SetResult(capability.OpDrive, "driving")

	got, err := capability.Call(context.Background(), robot, capability.OpDrive, capability.Args{
		"linear_velocity": 0.5,
		"angle_velocity":  0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "driving", got)

	calls := robot.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, capability.OpDrive, calls[0].Op)
	assert.Equal(t, 0.5, calls[0].Args["linear_velocity"])
}

func TestCall_OptionalArgs(t *testing.T) {
	robot := fake.New()

	_, err := capability.Call(context.Background(), robot, capability.OpGoto, capability.Args{
		"x": 1.0,
		"y": 2.0,
	})
	require.NoError(t, err)

	calls := robot.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Args["angle"])
	assert.Nil(t, calls[0].Args["speed"])
}

func TestCall_BadArgs(t *testing.T) {
	tests := []struct {
		name string
		op   capability.Op
		args capability.Args
	}{
		{"missing number", capability.OpDrive, capability.Args{"linear_velocity": 1.0}},
		{"string for number", capability.OpGaze, capability.Args{"x": "1", "y": 2.0}},
		{"fractional integer", capability.OpSetMode, capability.Args{"mode_id": 1.5}},
		{"list element", capability.OpMoveJoints, capability.Args{"angles": []any{1.0, "x"}, "speed": 1.0}},
		{"bool", capability.OpTriggerBump, capability.Args{"left": 1.0, "right": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			robot := fake.New()
			_, err := capability.Call(context.Background(), robot, tt.op, tt.args)
			assert.True(t, errors.Is(err, capability.ErrBadArgs), "got %v", err)
			assert.Empty(t, robot.Calls())
		})
	}
}

func TestCall_UnknownOp(t *testing.T) {
	_, err := capability.Call(context.Background(), fake.New(), capability.Op("base.fly"), nil)
	assert.ErrorIs(t, err, capability.ErrUnknownOp)
}

func TestCall_EveryOpIsRoutable(t *testing.T) {
	args := capability.Args{
		"enabled": true, "mode_id": 1.0, "left": true, "right": false,
		"model_src": "en_GB", "text": "hi", "linear_velocity": 0.1, "angle_velocity": 0.2,
		"x": 1.0, "y": 1.0, "map_id": 1.0, "pan": 1.0, "tilt": 1.0, "speed": 1.0,
		"joint": 1.0, "angle": 1.0, "angles": []any{1.0, 2.0},
	}
	for _, op := range capability.AllOps {
		robot := fake.New()
		_, err := capability.Call(context.Background(), robot, op, args)
		assert.NotErrorIs(t, err, capability.ErrUnknownOp, "op %s", op)
		assert.NotErrorIs(t, err, capability.ErrBadArgs, "op %s", op)
	}
}
