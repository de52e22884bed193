// Package memory implements the sliding-window limiter in process memory.
// State lives for the lifetime of one instance only; for multi-instance
// deployments use the redis backend behind the same interface.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/promptgate/promptgate/internal/ratelimit"
)

type window struct {
	mu     sync.Mutex
	stamps []time.Time // ascending; pruned to the trailing window on each check
}

type Limiter struct {
	policy  ratelimit.Policy
	windows sync.Map // key -> *window
	done    chan struct{}
	once    sync.Once
}

func New(p ratelimit.Policy) *Limiter {
	l := &Limiter{
		policy: p,
		done:   make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *Limiter) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *Limiter) Check(_ context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	if l.policy.Limit <= 0 || l.policy.Window <= 0 {
		return ratelimit.Decision{Allowed: true}, nil
	}

	v, _ := l.windows.LoadOrStore(key, &window{})
	w := v.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	// drop timestamps older than the trailing window
	cutoff := now.Add(-l.policy.Window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}

	if len(w.stamps) >= l.policy.Limit {
		oldest := w.stamps[0]
		reset := oldest.Add(l.policy.Window)
		return ratelimit.Decision{
			Allowed:      false,
			Limit:        l.policy.Limit,
			Remaining:    0,
			RetryAfter:   reset.Sub(now),
			ResetUnixSec: reset.Unix(),
		}, nil
	}

	w.stamps = append(w.stamps, now)
	return ratelimit.Decision{
		Allowed:      true,
		Limit:        l.policy.Limit,
		Remaining:    l.policy.Limit - len(w.stamps),
		ResetUnixSec: w.stamps[0].Add(l.policy.Window).Unix(),
	}, nil
}

// janitor evicts clients that have been idle for a full window so the
// key space does not grow without bound.
func (l *Limiter) janitor() {
	interval := l.policy.Window
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-t.C:
			cutoff := now.Add(-l.policy.Window)
			l.windows.Range(func(k, v any) bool {
				w := v.(*window)
				w.mu.Lock()
				idle := len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff)
				w.mu.Unlock()
				if idle {
					l.windows.Delete(k)
				}
				return true
			})
		}
	}
}
