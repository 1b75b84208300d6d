// ABOUTME: Tests for the simulated robot
// ABOUTME: Covers overrides, failure side channel, map seeding and call recording

package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/robot-gateway/internal/capability"
)

func TestRobot_Defaults(t *testing.T) {
	r := New()
	ctx := context.Background()

	got, err := r.Core().Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", got)

	got, err = r.Base().Drive(ctx, 0.5, 0.1)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	action, err := r.CurrentAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, "driving", action)

	_, err = r.Base().Kill(ctx)
	require.NoError(t, err)
	action, _ = r.CurrentAction(ctx)
	assert.Nil(t, action)
}

func TestRobot_Fail(t *testing.T) {
	r := New()
	r.Fail(capability.OpDock, "dock not found")

	got, err := r.Base().Dock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, false, got)

	msg, err := r.LastError(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dock not found", msg)
}

func TestRobot_SetError(t *testing.T) {
	r := New()
	boom := errors.New("serial port closed")
	r.SetError(capability.OpGaze, boom)

	_, err := r.Head().Gaze(context.Background(), 1, 2)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, r.CallCount(capability.OpGaze))
}

func TestRobot_Maps(t *testing.T) {
	r := New()
	r.SeedMap(2, "b")
	r.SeedMap(1, "a")
	ctx := context.Background()

	payload, err := r.Base().Maps().Fetch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", payload)

	missing, err := r.Base().Maps().Fetch(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := r.Base().Maps().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"id": 1, "name": "map-1"},
		map[string]any{"id": 2, "name": "map-2"},
	}, list)
}

func TestRobot_SetResultNil(t *testing.T) {
	r := New()
	r.SetResult(capability.OpListMaps, nil)

	list, err := r.Base().Maps().List(context.Background())
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestRobot_RecordsArgs(t *testing.T) {
	r := New()
	speaker := 3
	_, _ = r.Base().Speak(context.Background(), "en_GB-semaine-medium", "hello", &speaker)
	_, _ = r.Base().Speak(context.Background(), "en_GB-semaine-medium", "again", nil)

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 3, calls[0].Args["speaker_id"])
	assert.Nil(t, calls[1].Args["speaker_id"])

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestRobot_OnCall(t *testing.T) {
	r := New()
	var seen []capability.Op
	r.OnCall(func(op capability.Op) { seen = append(seen, op) })

	_, _ = r.Arm().Gripper().Open(context.Background())
	_, _ = r.Arm().MoveJoint(context.Background(), 1, 45, 0.5)

	assert.Equal(t, []capability.Op{capability.OpOpen, capability.OpMoveJoint}, seen)
}
