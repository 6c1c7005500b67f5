// cmd/directory-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storegate/internal/directory"
	"storegate/pkg/config"
	"storegate/pkg/db"
	"storegate/pkg/logger"
	"storegate/pkg/middleware"
	"storegate/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, "directory-service")
	defer log.Sync()

	pool := db.MustConnect(cfg, log)

	var prov tenants.Provider
	if pool != nil {
		prov = tenants.NewPostgresProvider(pool, log)
		if err := tenants.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		if err := tenants.SeedFromEnv(context.Background(), pool, os.Getenv("TENANT_SEED_JSON")); err != nil {
			log.Warnw("seed", "err", err)
		}
	} else {
		log.Warnw("DATABASE_URL not set, using in-memory tenant provider for dev")
		prov = tenants.NewMemoryProviderFromEnv(log)
	}

	rdb := db.MustRedis(cfg, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing("storegate-directory"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	directory.NewHandler(log, prov, rdb, cfg.PlatformDomains).RegisterRoutes(r)

	srv := &http.Server{Addr: cfg.DirectoryAddr, Handler: r}
	go func() {
		log.Infow("directory-service listening", "addr", cfg.DirectoryAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("directory-service stopped")
}
