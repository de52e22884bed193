// Package gateway is the HTTP face of the decision pipeline: it decodes
// inbound payloads, runs them through policy, and relays or rejects.
package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/promptgate/promptgate/internal/identity"
	"github.com/promptgate/promptgate/internal/obs"
	"github.com/promptgate/promptgate/internal/policy"
	"github.com/promptgate/promptgate/internal/proxy"
)

type Handler struct {
	engine    *policy.Engine
	forwarder *proxy.Forwarder
	metrics   *obs.Metrics
	now       func() time.Time
}

func NewHandler(engine *policy.Engine, forwarder *proxy.Forwarder, metrics *obs.Metrics) *Handler {
	return &Handler{
		engine:    engine,
		forwarder: forwarder,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Infer handles POST /v1/infer.
func (h *Handler) Infer(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds limit", "")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed_payload", "could not read request body", "")
		return
	}

	text, err := ExtractText(body)
	if err != nil {
		h.observe("malformed", start)
		writeError(w, http.StatusBadRequest, "malformed_payload",
			"payload must contain one of prompt, messages, or inputs", "")
		return
	}

	clientID, ok := identity.ClientIDFrom(r.Context())
	if !ok {
		clientID = r.RemoteAddr
	}

	dec := h.engine.Decide(r.Context(), policy.Request{ClientID: clientID, Text: text}, start)

	switch dec.Kind {
	case policy.Error:
		h.observe(string(dec.Kind), start)
		writeError(w, http.StatusInternalServerError, "limiter_error", "internal rate limiter error", "")
		return

	case policy.RateLimited:
		h.observe(string(dec.Kind), start)
		setRateHeaders(w, dec.Limit, 0, dec.ResetUnixSec)
		retry := retryAfterSeconds(dec.RetryAfter)
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeError(w, http.StatusTooManyRequests, "rate_limited",
			"rate limit exceeded, retry in "+strconv.Itoa(retry)+"s", "")
		return

	case policy.Blocked:
		h.observe(string(dec.Kind), start)
		setRateHeaders(w, dec.Limit, dec.Remaining, dec.ResetUnixSec)
		writeError(w, http.StatusForbidden, "prompt_blocked", "prompt blocked by policy", dec.Reason)
		return
	}

	// Allow: all in-memory checks are done and no locks are held before
	// the round-trip starts.
	res, err := h.forwarder.Forward(r.Context(), body, r.Header)
	if err != nil {
		h.metrics.UpstreamFailures.Inc()
		h.observe("upstream_unreachable", start)
		// opaque by design: callers learn the category, not upstream internals
		writeError(w, http.StatusBadGateway, "upstream_unreachable", "could not reach upstream", "")
		return
	}

	h.observe(string(dec.Kind), start)
	setRateHeaders(w, dec.Limit, dec.Remaining, dec.ResetUnixSec)
	if ct := res.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}

func (h *Handler) observe(decision string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveRequest(decision, start)
	}
}

// retryAfterSeconds rounds up so a client that sleeps exactly this long
// lands outside the window. Never zero on a deny.
func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

func setRateHeaders(w http.ResponseWriter, limit, remaining int, resetUnixSec int64) {
	if limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetUnixSec, 10))
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, msg, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Code: code, Message: msg, Reason: reason}})
}
