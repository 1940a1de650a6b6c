package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis keeps each window as a sorted set scored by request time in
// milliseconds. Trimming, counting and recording run as one script so
// concurrent requests for a key cannot both take the last slot.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// allowScript returns {allowed, count before this request, oldest score}.
var allowScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local count = redis.call("ZCARD", KEYS[1])
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
local first = tonumber(ARGV[2])
if #oldest > 0 then first = tonumber(oldest[2]) end
if count >= tonumber(ARGV[3]) then return {0, count, first} end
redis.call("ZADD", KEYS[1], ARGV[2], ARGV[5])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {1, count, first}
`)

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := r.now()
	out, err := allowScript.Run(ctx, r.client, []string{r.prefix + key},
		now.Add(-window).UnixMilli(),
		now.UnixMilli(),
		limit,
		window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("admit request: %w", err)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("admit request: unexpected reply %v", out)
	}

	count := int(out[1])
	resetAt := time.UnixMilli(out[2]).Add(window)
	if out[0] == 0 {
		return denied(limit, resetAt, now), nil
	}
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   resetAt,
	}, nil
}
