package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	_, err := ParseSchedule("*/30 * * * *")
	assert.NoError(t, err)

	_, err = ParseSchedule("every half hour")
	assert.Error(t, err)
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	s := NewScheduler("0 0 1 1 *", time.UTC, func(ctx context.Context) error {
		runs.Add(1)
		cancel()
		return nil
	}, logger)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s := NewScheduler("nope", time.UTC, func(context.Context) error { return nil }, logger)
	assert.Error(t, s.Run(context.Background()))
}

func TestScheduler_SkipsOverlappingPass(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s := NewScheduler("* * * * *", time.UTC, func(context.Context) error { return nil }, logger)

	s.mu.Lock()
	assert.False(t, s.runOnce(context.Background()))
	s.mu.Unlock()
	assert.Equal(t, "scheduler: previous pass still running, skipping tick", hook.LastEntry().Message)

	assert.True(t, s.runOnce(context.Background()))
}

func TestScheduler_LogsFailedPass(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s := NewScheduler("* * * * *", time.UTC, func(context.Context) error {
		return errors.New("stormglass down")
	}, logger)

	assert.True(t, s.runOnce(context.Background()))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "scheduler: pass failed", hook.LastEntry().Message)
}
