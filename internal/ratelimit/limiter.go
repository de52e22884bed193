package ratelimit

import (
	"context"
	"time"
)

// Policy is the sliding-window budget applied to every client.
type Policy struct {
	Limit  int           // max requests per window
	Window time.Duration // trailing window length
}

type Decision struct {
	Allowed      bool
	Limit        int           // configured per-window limit
	Remaining    int           // slots left after this request (min 0)
	RetryAfter   time.Duration // on deny: wait until a slot frees up (always > 0)
	ResetUnixSec int64         // when the oldest recorded request leaves the window
}

// Limiter decides whether a request from key at time now may proceed.
// Implementations record now on allow; a denied request is not recorded.
// The check-then-record sequence is atomic per key.
type Limiter interface {
	Check(ctx context.Context, key string, now time.Time) (Decision, error)
	Close() error
}
