package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/compoundaccess/config"
	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lockDate = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(config.RedisConfig{Addr: mr.Addr()}, time.Minute)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:amenity:pool", amenityKey("pool"))
	assert.Equal(t, "lock:amenity:pool:date:2026-10-17", scheduleLockKey("pool", lockDate))
}

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute)
	defer c.Close()

	assert.NotNil(t, c.client)
	assert.Equal(t, time.Minute, c.amenitiesTTL)
}

func TestAmenityCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	cached, err := c.GetAmenity(ctx, "pool")
	require.NoError(t, err)
	assert.Nil(t, cached, "miss is not an error")

	hours := domain.WeeklyHours{time.Saturday: {Open: domain.Clock(6, 0), Close: domain.Clock(22, 0)}}
	require.NoError(t, c.SetAmenity(ctx, &domain.Amenity{ID: "pool", Name: "Pool", Capacity: 10, OperatingHours: hours, IsActive: true}))
	assert.Equal(t, time.Minute, mr.TTL(amenityKey("pool")))

	cached, err = c.GetAmenity(ctx, "pool")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Pool", cached.Name)
	assert.Equal(t, 10, cached.Capacity)
	assert.Equal(t, hours, cached.OperatingHours)
}

func TestScheduleLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := scheduleLockKey("pool", lockDate)

	token, err := c.AcquireScheduleLock(ctx, "pool", lockDate, 10*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	busy, err := c.AcquireScheduleLock(ctx, "pool", lockDate, 10*time.Second)
	require.NoError(t, err)
	assert.Empty(t, busy)

	other, err := c.AcquireScheduleLock(ctx, "gym", lockDate, 10*time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, other, "locks are per amenity")

	require.NoError(t, c.ReleaseScheduleLock(ctx, "pool", lockDate, "not-the-holder"))
	assert.True(t, mr.Exists(key))

	require.NoError(t, c.ReleaseScheduleLock(ctx, "pool", lockDate, token))
	assert.False(t, mr.Exists(key))

	again, err := c.AcquireScheduleLock(ctx, "pool", lockDate, 10*time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, again)
}

func TestScheduleLock_ExpiredHolderCannotReleaseNewLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := scheduleLockKey("pool", lockDate)

	slow, err := c.AcquireScheduleLock(ctx, "pool", lockDate, time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	current, err := c.AcquireScheduleLock(ctx, "pool", lockDate, 10*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, current)

	require.NoError(t, c.ReleaseScheduleLock(ctx, "pool", lockDate, slow))

	held, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, current, held)
}

func TestScheduleLock_RedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	token, err := c.AcquireScheduleLock(context.Background(), "pool", lockDate, time.Second)
	assert.Error(t, err)
	assert.Empty(t, token)
}
