// Package identity resolves the client identity used to bucket
// rate-limit state.
package identity

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxKey int

const keyClient ctxKey = 0

// Resolver extracts a stable client key from a request. The default is
// the IP portion of RemoteAddr. Proxy headers are spoofable by direct
// callers, so X-Forwarded-For / X-Real-IP are honored only when the
// operator has a trusted proxy in front and says so.
type Resolver struct {
	trustProxyHeaders bool
}

func NewResolver(trustProxyHeaders bool) *Resolver {
	return &Resolver{trustProxyHeaders: trustProxyHeaders}
}

// ClientID returns the rate-limit key for r.
func (rs *Resolver) ClientID(r *http.Request) string {
	if rs.trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if first, _, ok := strings.Cut(xff, ","); ok {
				return strings.TrimSpace(first)
			}
			return strings.TrimSpace(xff)
		}
		if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
			return rip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithClientID injects the resolved identity into context.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyClient, id)
}

// ClientIDFrom extracts the resolved identity from context (if present).
func ClientIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(keyClient)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// Middleware resolves the identity once per request and stores it in
// context for the handler chain.
func (rs *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithClientID(r.Context(), rs.ClientID(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
