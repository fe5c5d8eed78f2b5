package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis integration test skipped in -short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "redis endpoint")

	client, err := New(ctx, ClientConfig{Addr: endpoint})
	require.NoError(t, err, "connect redis")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	client := setupTestRedis(t)
	first := NewLocker(client)
	second := NewLocker(client)
	key := waiver.LockKey("liga1")

	unlock, err := first.TryLock(t.Context(), key, time.Minute)
	require.NoError(t, err)

	_, err = second.TryLock(t.Context(), key, time.Minute)
	require.True(t, errors.Is(err, ownership.ErrLockNotAcquired), "expected lock held, got %v", err)

	unlock()
	unlock()

	unlockAgain, err := second.TryLock(t.Context(), key, time.Minute)
	require.NoError(t, err)
	unlockAgain()
}

func TestLocker_ReleaseIgnoresForeignToken(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewLocker(client)
	key := waiver.LockKey("liga2")

	staleUnlock, err := locker.TryLock(t.Context(), key, 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	unlock, err := locker.TryLock(t.Context(), key, time.Minute)
	require.NoError(t, err, "expired lock must be acquirable")

	staleUnlock()
	_, err = locker.TryLock(t.Context(), key, time.Minute)
	require.ErrorIs(t, err, ownership.ErrLockNotAcquired, "stale holder must not release the new lock")
	unlock()
}
