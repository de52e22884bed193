package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(write(t, `
upstream:
  url: "http://localhost:9000/v1/chat/completions"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Limits.Requests != 10 {
		t.Fatalf("limit = %d", cfg.Limits.Requests)
	}
	if cfg.Limits.Window() != time.Minute {
		t.Fatalf("window = %v", cfg.Limits.Window())
	}
	if cfg.Limits.Backend != "memory" {
		t.Fatalf("backend = %q", cfg.Limits.Backend)
	}
	if cfg.Upstream.Timeout() != 30*time.Second {
		t.Fatalf("upstream timeout = %v", cfg.Upstream.Timeout())
	}
	if cfg.Observability.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.Observability.LogLevel)
	}
	if cfg.Observability.PrometheusPath != "/metrics" {
		t.Fatalf("prometheus path = %q", cfg.Observability.PrometheusPath)
	}
	if cfg.Server.MaxBody() != 1<<20 {
		t.Fatalf("max body = %d", cfg.Server.MaxBody())
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(write(t, `
server:
  addr: ":9090"
  max_body_bytes: 2048
  trust_proxy_headers: true
upstream:
  url: "http://model:8000/infer"
  timeout_ms: 1500
  forward_headers: ["X-Org-ID"]
limits:
  requests: 3
  window_ms: 5000
  backend: redis
redis:
  addr: "localhost:6379"
filter:
  disable_builtin: true
  rules:
    - id: "codename"
      pattern: 'secret-project'
      reason: "internal codename"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Server.TrustProxyHeaders {
		t.Fatal("trust_proxy_headers not parsed")
	}
	if cfg.Upstream.Timeout() != 1500*time.Millisecond {
		t.Fatalf("timeout = %v", cfg.Upstream.Timeout())
	}
	if len(cfg.Upstream.ForwardHeaders) != 1 || cfg.Upstream.ForwardHeaders[0] != "X-Org-ID" {
		t.Fatalf("forward_headers = %v", cfg.Upstream.ForwardHeaders)
	}
	if cfg.Limits.Window() != 5*time.Second {
		t.Fatalf("window = %v", cfg.Limits.Window())
	}
	if !cfg.Filter.DisableBuiltin || len(cfg.Filter.Rules) != 1 {
		t.Fatalf("filter section not parsed: %+v", cfg.Filter)
	}
}

func TestLoadRejectsMissingUpstream(t *testing.T) {
	if _, err := Load(write(t, `server: {addr: ":8080"}`)); err == nil {
		t.Fatal("missing upstream.url must fail")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(write(t, `
upstream: {url: "http://x"}
limits: {backend: "dynamo"}
`))
	if err == nil {
		t.Fatal("unknown backend must fail")
	}
}

func TestLoadRejectsRedisBackendWithoutAddr(t *testing.T) {
	_, err := Load(write(t, `
upstream: {url: "http://x"}
limits: {backend: "redis"}
`))
	if err == nil {
		t.Fatal("redis backend without addr must fail")
	}
}

func TestLoadRejectsIncompleteRule(t *testing.T) {
	_, err := Load(write(t, `
upstream: {url: "http://x"}
filter:
  rules:
    - id: "no-pattern"
`))
	if err == nil {
		t.Fatal("rule without pattern must fail")
	}
}
