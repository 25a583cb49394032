package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SetGet(t *testing.T) {
	m := NewManager(Options{Name: "test", MaxSize: 10, TTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", 0))

	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(Options{Name: "test", MaxSize: 10, TTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", "x", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManager_TakeConsumes(t *testing.T) {
	m := NewManager(Options{Name: "test", MaxSize: 10, TTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "token", "payload", 0))

	v, err := m.Take(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	_, err = m.Take(ctx, "token")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManager_EvictsLeastUsed(t *testing.T) {
	m := NewManager(Options{Name: "test", MaxSize: 2, TTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "hot", "1", 0))
	require.NoError(t, m.Set(ctx, "cold", "2", 0))
	_, _ = m.Get(ctx, "hot")

	require.NoError(t, m.Set(ctx, "new", "3", 0))

	_, err := m.Get(ctx, "cold")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	v, err := m.Get(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, m.Stats()["size"])
}

func TestKey(t *testing.T) {
	assert.Equal(t, "off:product:737628064502", Key("off", "product", "737628064502"))

	long := Key("search", string(make([]byte, 100)))
	assert.Len(t, long, len("search:")+64)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis-dependent test - REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, config.RedisConfig{Addr: addr}, "nutrition-test", time.Minute)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	v, err = s.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}
