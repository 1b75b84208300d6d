// ABOUTME: Tests for command routing, failure translation and call serialization
// ABOUTME: Uses the fake robot as a spy capability client

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/robot-gateway/internal/capability"
	"github.com/2389/robot-gateway/internal/capability/fake"
	"github.com/2389/robot-gateway/internal/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func boolPtr(b bool) *bool { return &b }

func TestDispatch_EveryVariantMakesOneCall(t *testing.T) {
	robot := fake.New()
	router := New(robot, testLogger()).WithPolicy(PolicyStrict)

	commands := []schema.Command{schema.SetIdleMode{IdleMode: true}}
	for _, ep := range schema.Endpoints {
		for _, v := range schema.Variants(ep) {
			if _, ok := v.(schema.Settings); ok {
				v = schema.Settings{TOFsEnabled: boolPtr(true)}
			}
			commands = append(commands, v)
		}
	}

	for _, cmd := range commands {
		t.Run(cmd.Method(), func(t *testing.T) {
			robot.Reset()
			_, err := router.Dispatch(context.Background(), cmd)
			require.NoError(t, err)
			assert.Len(t, robot.Calls(), 1, "%T should make exactly one call", cmd)
		})
	}
}

func TestDispatch_EchoesResult(t *testing.T) {
	robot := fake.New()
	robot.SetResult(capability.OpDrive, "driving")
	router := New(robot, testLogger())

	got, err := router.Dispatch(context.Background(), schema.Drive{LinearVelocity: 0.5, AngleVelocity: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "driving", got)

	calls := robot.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, capability.OpDrive, calls[0].Op)
	assert.Equal(t, capability.Args{"linear_velocity": 0.5, "angle_velocity": 0.1}, calls[0].Args)
}

func TestDispatch_FalsyResultUsesLastError(t *testing.T) {
	robot := fake.New()
	robot.Fail(capability.OpDock, "no dock in range")
	router := New(robot, testLogger())

	_, err := router.Dispatch(context.Background(), schema.Dock{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Equal(t, "no dock in range", err.Error())

	var berr *BackendError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, capability.OpDock, berr.Op)
	assert.Nil(t, berr.Err)
}

func TestDispatch_FalsyResultWithoutLastError(t *testing.T) {
	robot := fake.New()
	robot.SetResult(capability.OpDock, false)
	router := New(robot, testLogger())

	_, err := router.Dispatch(context.Background(), schema.Dock{})
	require.Error(t, err)
	assert.Equal(t, "base.dock returned no result", err.Error())
}

func TestDispatch_CapabilityError(t *testing.T) {
	robot := fake.New()
	boom := errors.New("serial port closed")
	robot.SetError(capability.OpGaze, boom)
	router := New(robot, testLogger())

	_, err := router.Dispatch(context.Background(), schema.Gaze{X: 1, Y: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "head.eyes.gaze failed: serial port closed", err.Error())
}

func TestDispatch_NilClient(t *testing.T) {
	router := New(nil, testLogger())

	_, err := router.Dispatch(context.Background(), schema.Ping{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = router.ListMaps(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = router.LastError(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDispatch_Settings(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		robot := fake.New()
		router := New(robot, testLogger())

		got, err := router.Dispatch(context.Background(), schema.Settings{
			JSONResponses: boolPtr(true),
			TOFsEnabled:   boolPtr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, true, got)

		calls := robot.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, capability.OpSetJSONMode, calls[0].Op)
		assert.Equal(t, true, calls[0].Args["enabled"])
		assert.Equal(t, capability.OpSetTOFs, calls[1].Op)
		assert.Equal(t, false, calls[1].Args["enabled"])
	})

	t.Run("stops at first failure", func(t *testing.T) {
		robot := fake.New()
		robot.Fail(capability.OpSetJSONMode, "json mode unsupported")
		router := New(robot, testLogger())

		_, err := router.Dispatch(context.Background(), schema.Settings{
			JSONResponses: boolPtr(true),
			TOFsEnabled:   boolPtr(true),
		})
		require.Error(t, err)
		assert.Equal(t, "json mode unsupported", err.Error())
		assert.Equal(t, 0, robot.CallCount(capability.OpSetTOFs))
	})
}

func TestRouter_ReadsSkipPolicy(t *testing.T) {
	robot := fake.New()
	robot.SetResult(capability.OpListMaps, []any{})
	router := New(robot, testLogger())

	list, err := router.ListMaps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{}, list)

	payload, err := router.FetchMap(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, payload)

	action, err := router.CurrentAction(context.Background())
	require.NoError(t, err)
	assert.Nil(t, action)
}

func TestRouter_ReadsApplyPolicy(t *testing.T) {
	robot := fake.New()
	robot.SetResult(capability.OpVersion, map[string]any{})
	robot.SetLastError("version unavailable")

	_, err := New(robot, testLogger()).Version(context.Background())
	require.Error(t, err)
	assert.Equal(t, "version unavailable", err.Error())

	got, err := New(robot, testLogger()).WithPolicy(PolicyStrict).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
}

func TestRouter_DerivedRoutersShareLock(t *testing.T) {
	router := New(fake.New(), testLogger())
	strict := router.WithPolicy(PolicyStrict)
	observed := strict.WithObserver(nil)

	assert.Same(t, router.slot, strict.slot)
	assert.Same(t, router.slot, observed.slot)
	assert.Equal(t, PolicyLoose, router.Policy())
	assert.Equal(t, PolicyStrict, strict.Policy())
}

func TestRouter_SerializesCalls(t *testing.T) {
	robot := fake.New()
	var inFlight, maxInFlight atomic.Int32
	robot.OnCall(func(capability.Op) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
	})

	loose := New(robot, testLogger())
	strict := loose.WithPolicy(PolicyStrict)

	var wg sync.WaitGroup
	for i := range 16 {
		r := loose
		if i%2 == 0 {
			r = strict
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Dispatch(context.Background(), schema.Ping{})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, 16, robot.CallCount(capability.OpPing))
}

func TestRouter_WaiterHonoursContext(t *testing.T) {
	robot := fake.New()
	started := make(chan struct{})
	unblock := make(chan struct{})
	robot.OnCall(func(op capability.Op) {
		if op == capability.OpDrive {
			close(started)
			<-unblock
		}
	})
	router := New(robot, testLogger())

	driveDone := make(chan error, 1)
	go func() {
		_, err := router.Dispatch(context.Background(), schema.Drive{LinearVelocity: 0.5})
		driveDone <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	begin := time.Now()
	_, err := router.Dispatch(ctx, schema.Kill{})
	assert.Less(t, time.Since(begin), 2*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, robot.CallCount(capability.OpKill))

	_, err = router.LastError(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
	require.NoError(t, <-driveDone)

	_, err = router.Dispatch(context.Background(), schema.Kill{})
	require.NoError(t, err)
	assert.Equal(t, 1, robot.CallCount(capability.OpKill))
}

func TestRouter_FalsyErrorIsNotClobbered(t *testing.T) {
	robot := fake.New()
	robot.Fail(capability.OpDock, "dock blocked")
	robot.Fail(capability.OpQuickmap, "lidar offline")
	router := New(robot, testLogger())

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = router.Dispatch(context.Background(), schema.Dock{})
			} else {
				_, errs[i] = router.Dispatch(context.Background(), schema.Quickmap{})
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		want := "dock blocked"
		if i%2 == 1 {
			want = "lidar offline"
		}
		require.Error(t, err)
		assert.Equal(t, want, err.Error())
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveCall(op capability.Op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, string(op)+":"+outcome)
}

func TestRouter_Observer(t *testing.T) {
	robot := fake.New()
	robot.Fail(capability.OpKill, "estop engaged")
	robot.SetError(capability.OpStart, errors.New("timeout"))
	obs := &recordingObserver{}
	router := New(robot, testLogger()).WithObserver(obs)

	_, _ = router.Dispatch(context.Background(), schema.Ping{})
	_, _ = router.Dispatch(context.Background(), schema.Kill{})
	_, _ = router.Dispatch(context.Background(), schema.Start{})

	assert.Equal(t, []string{
		"core.ping:ok",
		"base.kill:falsy",
		"base.start:error",
	}, obs.outcomes)
}

func TestPolicy_Falsy(t *testing.T) {
	tests := []struct {
		name   string
		result any
		loose  bool
		strict bool
	}{
		{"nil", nil, true, true},
		{"false", false, true, true},
		{"true", true, false, false},
		{"empty string", "", true, false},
		{"string", "ok", false, false},
		{"zero int", 0, true, false},
		{"zero float", 0.0, true, false},
		{"number", 1.5, false, false},
		{"empty list", []any{}, true, false},
		{"list", []any{1}, false, false},
		{"empty object", map[string]any{}, true, false},
		{"object", map[string]any{"a": 1}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.loose, PolicyLoose.Falsy(tt.result))
			assert.Equal(t, tt.strict, PolicyStrict.Falsy(tt.result))
		})
	}
}
