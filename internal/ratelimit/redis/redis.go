// Package redis implements the sliding-window limiter on a Redis sorted
// set per client, so multiple gateway instances can share one budget.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptgate/promptgate/internal/ratelimit"
)

const keyPrefix = "promptgate:window:"

type Limiter struct {
	client *redis.Client
	policy ratelimit.Policy
}

func New(client *redis.Client, p ratelimit.Policy) *Limiter {
	return &Limiter{client: client, policy: p}
}

func (l *Limiter) Close() error { return l.client.Close() }

func (l *Limiter) Check(ctx context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	if l.policy.Limit <= 0 || l.policy.Window <= 0 {
		return ratelimit.Decision{Allowed: true}, nil
	}

	rkey := keyPrefix + key
	windowStart := now.Add(-l.policy.Window)

	// Scores are unix nanos: prune everything older than the window,
	// then count what is left.
	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, err
	}
	count := int(countCmd.Val())

	if count >= l.policy.Limit {
		oldest, err := l.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
		if err != nil {
			return ratelimit.Decision{}, err
		}
		reset := now.Add(l.policy.Window) // fallback if the set emptied under us
		if len(oldest) > 0 {
			reset = time.Unix(0, int64(oldest[0].Score)).Add(l.policy.Window)
		}
		retry := reset.Sub(now)
		if retry <= 0 {
			retry = time.Second
		}
		return ratelimit.Decision{
			Allowed:      false,
			Limit:        l.policy.Limit,
			Remaining:    0,
			RetryAfter:   retry,
			ResetUnixSec: reset.Unix(),
		}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = l.client.Pipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, rkey, l.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, err
	}

	return ratelimit.Decision{
		Allowed:      true,
		Limit:        l.policy.Limit,
		Remaining:    l.policy.Limit - count - 1,
		ResetUnixSec: now.Add(l.policy.Window).Unix(),
	}, nil
}
