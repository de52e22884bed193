package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr              string `yaml:"addr"`
	ReadTimeoutMS     int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS    int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS     int    `yaml:"idle_timeout_ms"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	TrustProxyHeaders bool   `yaml:"trust_proxy_headers"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

type Upstream struct {
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
	// ForwardHeaders extends the built-in pass-through allow-list
	// (Authorization, Content-Type, Accept, X-Request-ID).
	ForwardHeaders []string `yaml:"forward_headers"`
}

type Limits struct {
	Requests int    `yaml:"requests"`
	WindowMS int    `yaml:"window_ms"`
	Backend  string `yaml:"backend"` // "memory" (default) or "redis"
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Rule struct {
	ID      string `yaml:"id"`
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
}

type Filter struct {
	DisableBuiltin bool   `yaml:"disable_builtin"`
	Rules          []Rule `yaml:"rules"`
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Upstream      Upstream      `yaml:"upstream"`
	Limits        Limits        `yaml:"limits"`
	Redis         Redis         `yaml:"redis"`
	Filter        Filter        `yaml:"filter"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (s Server) MaxBody() int64 {
	if s.MaxBodyBytes == 0 {
		return 1 << 20
	}
	return s.MaxBodyBytes
} // default 1MB, prompts are small

func (u Upstream) Timeout() time.Duration {
	if u.TimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

func (l Limits) Window() time.Duration {
	if l.WindowMS <= 0 {
		return time.Minute
	}
	return time.Duration(l.WindowMS) * time.Millisecond
}

func Load(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Root
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Upstream.URL == "" {
		return nil, fmt.Errorf("config: upstream.url is required")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	if cfg.Limits.Requests <= 0 {
		cfg.Limits.Requests = 10
	}
	if cfg.Limits.Backend == "" {
		cfg.Limits.Backend = "memory"
	}
	if cfg.Limits.Backend != "memory" && cfg.Limits.Backend != "redis" {
		return nil, fmt.Errorf("config: unknown limits.backend %q", cfg.Limits.Backend)
	}
	if cfg.Limits.Backend == "redis" && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("config: redis.addr is required with limits.backend=redis")
	}
	for _, r := range cfg.Filter.Rules {
		if r.ID == "" || r.Pattern == "" {
			return nil, fmt.Errorf("config: filter rules need both id and pattern")
		}
	}

	return &cfg, nil
}
