package scheduler_test

import (
	"context"
	"testing"
	"time"

	"openclaw/internal/model"
	"openclaw/internal/scheduler"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLock_Exclusive(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	a := scheduler.NewRedisLock(client, "openclaw:reminder-cycle", time.Minute)
	b := scheduler.NewRedisLock(client, "openclaw:reminder-cycle", time.Minute)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b does not hold the lease so its unlock leaves it in place.
	require.NoError(t, b.Unlock(ctx))
	assert.True(t, mr.Exists("openclaw:reminder-cycle"))

	require.NoError(t, a.Unlock(ctx))
	assert.False(t, mr.Exists("openclaw:reminder-cycle"))

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_Expires(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	a := scheduler.NewRedisLock(client, "cycle", 5*time.Second)
	b := scheduler.NewRedisLock(client, "cycle", 5*time.Second)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunCycle_SkippedWhileLockHeldElsewhere(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	other := scheduler.NewRedisLock(client, "cycle", time.Minute)
	ok, err := other.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store := new(MockReminderStore)
	s := scheduler.New(store, &recordingNotifier{}, scheduler.DefaultConfig(), zerolog.Nop(),
		scheduler.WithLock(scheduler.NewRedisLock(client, "cycle", time.Minute)))

	report, err := s.RunCycle(ctx)

	require.NoError(t, err)
	assert.True(t, report.Locked)
	store.AssertNotCalled(t, "ListDueAfter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunCycle_ReleasesLockAfterCycle(t *testing.T) {
	mr, client := setupRedis(t)
	store := new(MockReminderStore)
	store.On("ListDueAfter", mock.Anything, mock.Anything, mock.Anything, 0).Return([]model.Reminder{}, nil)

	s := scheduler.New(store, &recordingNotifier{}, scheduler.DefaultConfig(), zerolog.Nop(),
		scheduler.WithLock(scheduler.NewRedisLock(client, "cycle", time.Minute)))

	_, err := s.RunCycle(context.Background())

	require.NoError(t, err)
	assert.False(t, mr.Exists("cycle"))
	store.AssertExpectations(t)
}

func TestRunCycle_LockErrorIsCycleFault(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	s := scheduler.New(new(MockReminderStore), &recordingNotifier{}, scheduler.DefaultConfig(), zerolog.Nop(),
		scheduler.WithLock(scheduler.NewRedisLock(client, "cycle", time.Minute)))

	_, err := s.RunCycle(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire cycle lock")
}
