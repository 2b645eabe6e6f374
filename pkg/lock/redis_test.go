package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLocker(rdb, "chat:lock:", ttl)
	l.poll = 5 * time.Millisecond
	return l, mr
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	l, _ := newRedisLocker(t, time.Minute)
	exerciseMutualExclusion(t, l, "chat-1")
}

func TestRedisLocker_KeyAndTTL(t *testing.T) {
	l, mr := newRedisLocker(t, 30*time.Second)

	unlock, err := l.Lock(context.Background(), "abc")
	require.NoError(t, err)

	require.True(t, mr.Exists("chat:lock:abc"))
	assert.Equal(t, 30*time.Second, mr.TTL("chat:lock:abc"))

	unlock()
	assert.False(t, mr.Exists("chat:lock:abc"))
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	l, _ := newRedisLocker(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "busy")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "busy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAcquired))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// Simulate expiry followed by another holder taking the key.
	require.NoError(t, mr.Set("chat:lock:k", "someone-else"))
	unlock()

	got, err := mr.Get("chat:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ExpiredHolderDoesNotBlockForever(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)

	_, err := l.Lock(context.Background(), "stale")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, "stale")
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_Unavailable(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	mr.Close()

	_, err := l.Lock(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotAcquired))
}
