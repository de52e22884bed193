// Package policy composes the rate limiter and the content rules into
// the per-request decision pipeline.
package policy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/promptgate/promptgate/internal/filter"
	"github.com/promptgate/promptgate/internal/ratelimit"
)

type Kind string

const (
	Allow       Kind = "allow"
	Blocked     Kind = "blocked"
	RateLimited Kind = "rate_limited"
	// Error means the limiter backend failed; the request is rejected
	// rather than silently allowed.
	Error Kind = "error"
)

// Request is what the pipeline needs to know about an inbound call.
type Request struct {
	ClientID string
	Text     string
}

// Decision is produced fresh per request and never persisted.
type Decision struct {
	Kind         Kind
	RuleID       string        // Blocked only
	Reason       string        // Blocked: rule reason; Error: detail
	RetryAfter   time.Duration // RateLimited only
	Limit        int
	Remaining    int
	ResetUnixSec int64
}

type Engine struct {
	limiter ratelimit.Limiter
	rules   *filter.RuleSet
	log     zerolog.Logger
}

func NewEngine(limiter ratelimit.Limiter, rules *filter.RuleSet, log zerolog.Logger) *Engine {
	return &Engine{limiter: limiter, rules: rules, log: log}
}

// Decide runs the rate check, then the content check. The order is a
// contract: over-quota traffic is turned away before any pattern work is
// spent on it, so a request that is both over quota and in violation
// reports the rate limit. Only the limiter mutates state, and every
// request reaches it.
func (e *Engine) Decide(ctx context.Context, req Request, now time.Time) Decision {
	rl, err := e.limiter.Check(ctx, req.ClientID, now)
	if err != nil {
		d := Decision{Kind: Error, Reason: "rate limiter unavailable"}
		e.logDecision(req, d, now, err)
		return d
	}
	if !rl.Allowed {
		d := Decision{
			Kind:         RateLimited,
			RetryAfter:   rl.RetryAfter,
			Limit:        rl.Limit,
			Remaining:    0,
			ResetUnixSec: rl.ResetUnixSec,
		}
		e.logDecision(req, d, now, nil)
		return d
	}

	if m, ok := e.rules.Evaluate(req.Text); ok {
		d := Decision{
			Kind:         Blocked,
			RuleID:       m.RuleID,
			Reason:       m.Reason,
			Limit:        rl.Limit,
			Remaining:    rl.Remaining,
			ResetUnixSec: rl.ResetUnixSec,
		}
		e.logDecision(req, d, now, nil)
		return d
	}

	d := Decision{
		Kind:         Allow,
		Limit:        rl.Limit,
		Remaining:    rl.Remaining,
		ResetUnixSec: rl.ResetUnixSec,
	}
	e.logDecision(req, d, now, nil)
	return d
}

func (e *Engine) logDecision(req Request, d Decision, now time.Time, err error) {
	var ev *zerolog.Event
	if d.Kind == Allow {
		ev = e.log.Info()
	} else {
		ev = e.log.Warn()
	}
	ev = ev.
		Time("ts", now).
		Str("client", req.ClientID).
		Str("decision", string(d.Kind))
	switch d.Kind {
	case Blocked:
		ev = ev.Str("rule", d.RuleID).Str("reason", d.Reason)
	case RateLimited:
		ev = ev.Dur("retry_after", d.RetryAfter).Int("limit", d.Limit)
	case Error:
		ev = ev.Err(err)
	default:
		ev = ev.Int("remaining", d.Remaining)
	}
	ev.Msg("decision")
}
