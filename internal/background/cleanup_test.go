package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockPurger struct {
	deleteExpired func(ctx context.Context, now time.Time) (int64, error)
	calls         atomic.Int32
}

func (m *mockPurger) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.calls.Add(1)
	return m.deleteExpired(ctx, now)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes with the current time", func(t *testing.T) {
		purger := &mockPurger{deleteExpired: func(ctx context.Context, now time.Time) (int64, error) {
			assert.Equal(t, fixed, now)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return 4, nil
		}}
		cleanup := NewRevocationCleanup(purger, discardLogger(), time.Hour)
		cleanup.now = func() time.Time { return fixed }

		assert.Equal(t, int64(4), cleanup.RunOnce(context.Background()))
	})

	t.Run("store failure", func(t *testing.T) {
		purger := &mockPurger{deleteExpired: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, errors.New("db down")
		}}
		cleanup := NewRevocationCleanup(purger, discardLogger(), time.Hour)

		assert.Zero(t, cleanup.RunOnce(context.Background()))
	})
}

func TestStart_RunsUntilStopped(t *testing.T) {
	purger := &mockPurger{deleteExpired: func(ctx context.Context, now time.Time) (int64, error) {
		return 0, nil
	}}
	cleanup := NewRevocationCleanup(purger, discardLogger(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		cleanup.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cleanup.Stop()
	cleanup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	purger := &mockPurger{deleteExpired: func(ctx context.Context, now time.Time) (int64, error) {
		return 0, nil
	}}
	cleanup := NewRevocationCleanup(purger, discardLogger(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanup.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return purger.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}
