package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript bumps the window counter, starting the window on first use, and
// returns the new count with the window's remaining milliseconds.
var incrScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return {count, ttl}
`)

// Redis is a fixed-window limiter shared by every process using the same
// Redis deployment.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedis connects to the Redis URL and allows limit requests per key per
// window.
func NewRedis(ctx context.Context, url string, limit int, window time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctxPing).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: rdb, limit: limit, window: window, prefix: "najdeno:ratelimit:"}, nil
}

// Allow implements Limiter.
func (rl *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := incrScript.Run(ctx, rl.client, []string{rl.prefix + key}, rl.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit counter: %w", err)
	}
	count, ttl := res[0], res[1]

	if count > int64(rl.limit) {
		if ttl < 0 {
			ttl = rl.window.Milliseconds()
		}
		return false, time.Duration(ttl) * time.Millisecond, nil
	}
	return true, 0, nil
}

// Close releases the connection pool.
func (rl *Redis) Close() error {
	return rl.client.Close()
}
