// cmd/edge-router/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storegate/internal/dispatch"
	"storegate/internal/invalidate"
	"storegate/internal/metrics"
	"storegate/internal/proxy"
	"storegate/pkg/config"
	"storegate/pkg/db"
	"storegate/pkg/hostname"
	"storegate/pkg/logger"
	"storegate/pkg/middleware"
	"storegate/pkg/routes"
	"storegate/pkg/session"
	"storegate/pkg/tenantcache"
	"storegate/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, "edge-router")
	defer log.Sync()

	// Misconfigured routing would silently misroute every tenant; refuse to start.
	if errs := cfg.EdgeErrors(); len(errs) > 0 {
		log.Fatalw("invalid configuration", "errors", strings.Join(errs, "; "))
	}

	rules, err := routes.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatalw("routing rules", "err", err)
	}

	upstream, err := proxy.New(cfg.UpstreamURL, log)
	if err != nil {
		log.Fatalw("upstream", "err", err)
	}

	cache := tenantcache.New(cfg.CacheTTL)
	dispatcher := dispatch.New(dispatch.Deps{
		Log:          log,
		Classifier:   routes.NewClassifier(rules),
		Resolver:     hostname.NewResolver(cfg.PlatformDomains),
		Cache:        cache,
		Directory:    tenants.NewDirectoryClient(cfg.LookupURL, cfg.LookupTimeout, log),
		Sessions:     session.NewValidator(cfg),
		Metrics:      metrics.NewEdgeMetrics(prometheus.DefaultRegisterer),
		LoginPath:    cfg.LoginPath,
		NotFoundPath: cfg.NotFoundPath,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if rdb := db.MustRedis(cfg, log); rdb != nil {
		invalidate.Run(ctx, rdb, cache, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing("storegate-edge"))
	r.Use(middleware.SecurityHeaders(cfg.Env))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	// Everything else runs the dispatcher and lands on the upstream proxy.
	r.Handle("/*", dispatcher.Middleware()(upstream))

	srv := &http.Server{Addr: cfg.EdgeAddr, Handler: r}
	go func() {
		log.Infow("edge-router listening", "addr", cfg.EdgeAddr, "platform_domains", cfg.PlatformDomains)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	fmt.Println("edge-router stopped")
}
