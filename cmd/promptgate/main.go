package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/filter"
	"github.com/promptgate/promptgate/internal/gateway"
	"github.com/promptgate/promptgate/internal/identity"
	"github.com/promptgate/promptgate/internal/obs"
	"github.com/promptgate/promptgate/internal/policy"
	"github.com/promptgate/promptgate/internal/proxy"
	"github.com/promptgate/promptgate/internal/ratelimit"
	"github.com/promptgate/promptgate/internal/ratelimit/memory"
	rlredis "github.com/promptgate/promptgate/internal/ratelimit/redis"
)

func main() {

	cfg, err := config.Load("./config.yaml")

	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)
	logger.Info().Msg("Setup logger")

	// ruleset: a pattern that fails to compile refuses to start rather
	// than running with partial policy
	var specs []filter.Spec
	if !cfg.Filter.DisableBuiltin {
		specs = filter.Builtin()
	}
	for _, r := range cfg.Filter.Rules {
		specs = append(specs, filter.Spec{ID: r.ID, Pattern: r.Pattern, Reason: r.Reason})
	}
	rules, err := filter.Compile(specs)
	if err != nil {
		log.Fatalf("compile rules: %v", err)
	}
	logger.Info().Int("rules", rules.Len()).Msg("ruleset compiled")

	// limiter backend
	pol := ratelimit.Policy{Limit: cfg.Limits.Requests, Window: cfg.Limits.Window()}
	var limiter ratelimit.Limiter
	switch cfg.Limits.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = rlredis.New(client, pol)
	default:
		limiter = memory.New(pol)
	}
	defer limiter.Close()

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	engine := policy.NewEngine(limiter, rules, logger)
	forwarder := proxy.New(cfg.Upstream.URL, cfg.Upstream.Timeout(), cfg.Upstream.ForwardHeaders)
	handler := gateway.NewHandler(engine, forwarder, metrics)
	resolver := identity.NewResolver(cfg.Server.TrustProxyHeaders)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("v.0.1.0"))
	})

	mux.Handle(cfg.Observability.PrometheusPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /v1/infer", handler.Infer)

	chained := gateway.Chain(
		mux,
		obs.Logger(logger),
		gateway.BodyLimit(int(cfg.Server.MaxBody())),
		resolver.Middleware(),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           chained,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
		ReadTimeout:       cfg.Server.ReadTimeout(),
	}

	// start
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	log.Printf("bye")
}
