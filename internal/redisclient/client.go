package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// releaseLockScript deletes the lock only while it still holds our token
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PutValue stores a namespaced value with TTL
func (c *Client) PutValue(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, namespacedKey(namespace, key), value, ttl).Err()
}

// GetValue returns a namespaced value; ok is false when the key is absent or expired
func (c *Client) GetValue(ctx context.Context, namespace, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, namespacedKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// TakeValue reads and deletes a namespaced value in one step
func (c *Client) TakeValue(ctx context.Context, namespace, key string) (string, bool, error) {
	val, err := c.rdb.GetDel(ctx, namespacedKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteValue removes a namespaced value
func (c *Client) DeleteValue(ctx context.Context, namespace, key string) error {
	return c.rdb.Del(ctx, namespacedKey(namespace, key)).Err()
}

// AcquireLock acquires a lock owned by token
func (c *Client) AcquireLock(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, namespacedKey("lock", lockKey), token, ttl).Result()
}

// ReleaseLock releases a lock if token still owns it
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{namespacedKey("lock", lockKey)}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

func namespacedKey(namespace, key string) string {
	return fmt.Sprintf("storefront:%s:%s", namespace, key)
}
