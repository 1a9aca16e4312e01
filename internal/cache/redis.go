package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/compoundaccess/config"
	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client       *redis.Client
	amenitiesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, amenitiesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		amenitiesTTL: amenitiesTTL,
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetAmenity returns nil without error on a cache miss.
func (c *RedisCache) GetAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	data, err := c.client.Get(ctx, amenityKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var amenity domain.Amenity
	if err := json.Unmarshal(data, &amenity); err != nil {
		return nil, err
	}
	return &amenity, nil
}

func (c *RedisCache) SetAmenity(ctx context.Context, amenity *domain.Amenity) error {
	payload, err := json.Marshal(amenity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, amenityKey(amenity.ID), payload, c.amenitiesTTL).Err()
}

// releaseScript deletes the lock only while it still holds the caller's token,
// so a lock that expired and was taken by another request survives.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireScheduleLock serializes booking commits for one amenity and date.
// It returns the holder token, or "" when the lock is already taken.
func (c *RedisCache) AcquireScheduleLock(ctx context.Context, amenityID string, date time.Time, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, scheduleLockKey(amenityID, date), token, ttl).Result()
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

func (c *RedisCache) ReleaseScheduleLock(ctx context.Context, amenityID string, date time.Time, token string) error {
	return releaseScript.Run(ctx, c.client, []string{scheduleLockKey(amenityID, date)}, token).Err()
}

func amenityKey(id string) string {
	return "cache:amenity:" + id
}

func scheduleLockKey(amenityID string, date time.Time) string {
	return fmt.Sprintf("lock:amenity:%s:date:%s", amenityID, date.Format(domain.DateLayout))
}
