package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIDFromRemoteAddr(t *testing.T) {
	rs := NewResolver(false)

	r := httptest.NewRequest(http.MethodPost, "/v1/infer", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	if got := rs.ClientID(r); got != "203.0.113.7" {
		t.Fatalf("ClientID = %q, want the IP without the port", got)
	}
}

func TestProxyHeadersIgnoredByDefault(t *testing.T) {
	rs := NewResolver(false)

	r := httptest.NewRequest(http.MethodPost, "/v1/infer", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	if got := rs.ClientID(r); got != "203.0.113.7" {
		t.Fatalf("spoofable headers must be ignored without trust_proxy_headers, got %q", got)
	}
}

func TestProxyHeadersWhenTrusted(t *testing.T) {
	rs := NewResolver(true)

	r := httptest.NewRequest(http.MethodPost, "/v1/infer", nil)
	r.RemoteAddr = "10.0.0.2:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	if got := rs.ClientID(r); got != "198.51.100.1" {
		t.Fatalf("want first X-Forwarded-For entry, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	if got := rs.ClientID(r); got != "198.51.100.2" {
		t.Fatalf("want X-Real-IP fallback, got %q", got)
	}

	r.Header.Del("X-Real-IP")
	if got := rs.ClientID(r); got != "10.0.0.2" {
		t.Fatalf("want RemoteAddr fallback, got %q", got)
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	rs := NewResolver(false)

	var got string
	h := rs.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClientIDFrom(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/v1/infer", nil)
	r.RemoteAddr = "203.0.113.9:1111"
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got != "203.0.113.9" {
		t.Fatalf("context identity = %q", got)
	}
}
