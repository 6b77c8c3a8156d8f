package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestValidateCron(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/15 * * * *", false},
		{"0 30 2 * * *", false},
		{"@hourly", false},
		{"@every 10m", false},
		{"", true},
		{"not a schedule", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCron(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_Add(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("resync", "@every 1m", noop))
	assert.Equal(t, 1, s.Len())

	err := s.Add("resync", "@hourly", noop)
	assert.ErrorContains(t, err, "already registered")

	err = s.Add("broken", "* *", noop)
	assert.ErrorContains(t, err, "invalid cron expression")
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_NextRun(t *testing.T) {
	s := New()
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 7, 0, 0, time.UTC) }
	require.NoError(t, s.Add("resync", "*/15 * * * *", func(context.Context) error { return nil }))

	next, ok := s.NextRun("resync")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC), next)

	_, ok = s.NextRun("missing")
	assert.False(t, ok)
}

func TestScheduler_Run(t *testing.T) {
	s := New()
	var ok, failing, panicking atomic.Int32
	require.NoError(t, s.Add("ok", "@every 1s", func(context.Context) error {
		ok.Add(1)
		return nil
	}))
	require.NoError(t, s.Add("failing", "@every 1s", func(context.Context) error {
		failing.Add(1)
		return errors.New("boom")
	}))
	require.NoError(t, s.Add("panicking", "@every 1s", func(context.Context) error {
		panicking.Add(1)
		panic("boom")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Failing tasks keep their schedule.
	require.Eventually(t, func() bool {
		return ok.Load() >= 2 && failing.Load() >= 2 && panicking.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunWithoutTasks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, New().Run(ctx))
}
