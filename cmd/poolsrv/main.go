// Command poolsrv is a reference application wiring pkg/pool around a
// real driver (go-mssqldb), a metrics backend (Prometheus), and a
// cross-instance observability layer (Redis). It loads one or more
// named pools from a YAML file, exposes their occupancy on /metrics and
// a Checkout/Release probe per pool on /health, and shuts everything
// down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evoila/genpool/internal/config"
	"github.com/evoila/genpool/internal/coordinator"
	"github.com/evoila/genpool/internal/health"
	"github.com/evoila/genpool/pkg/drivers/mssql"
	"github.com/evoila/genpool/pkg/pool"
	poolmetrics "github.com/evoila/genpool/pkg/pool/metrics"
)

var configPath = flag.String("config", "configs/poolsrv.yaml", "Path to configuration file")

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[main] starting poolsrv")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] failed to load configuration: %v", err)
	}
	log.Printf("[main] configuration loaded: %d pools, instance=%s", len(cfg.Pools), cfg.Server.InstanceID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pools := make(map[string]*pool.Pool[*sql.DB], len(cfg.Pools))
	for _, spec := range cfg.Pools {
		mgr := mssql.NewManager(spec.MSSQLConfig())
		recorder := poolmetrics.NewPrometheus(spec.ID)

		p, err := pool.New[*sql.DB](ctx, spec.PoolConfig(), mgr,
			pool.WithName[*sql.DB](spec.ID),
			pool.WithRecorder[*sql.DB](recorder),
		)
		if err != nil {
			log.Fatalf("[main] initializing pool %s: %v", spec.ID, err)
		}
		pools[spec.ID] = p
		log.Printf("[main] pool %s ready: %s (max=%d, initial=%d)",
			spec.ID, spec.MSSQLConfig().Addr(), spec.MaxSize, spec.InitialSize)
	}

	defer func() {
		for id, p := range pools {
			if err := p.Shutdown(); err != nil {
				log.Printf("[main] shutting down pool %s: %v", id, err)
			}
		}
	}()

	// ─── Cross-instance observability (best-effort; never fatal) ──────
	var reporter *coordinator.Reporter
	reporter, err = coordinator.NewReporter(ctx, cfg.Redis, cfg.Server.InstanceID)
	if err != nil {
		log.Printf("[main] coordinator disabled: %v", err)
	} else {
		for id, p := range pools {
			reporter.Register(id, p)
		}
		reporter.Start(ctx)
		defer reporter.Stop()
	}

	// ─── Metrics ───────────────────────────────────────────────────────
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[main] metrics listening on :%d/metrics", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[main] metrics server error: %v", err)
		}
	}()

	// ─── Health ─────────────────────────────────────────────────────────
	checker := health.NewChecker(cfg.Server.InstanceID)
	for id, p := range pools {
		id, p := id, p
		checker.Register(health.Probe{
			Name: "pool-" + id,
			Check: func(ctx context.Context) error {
				lease, err := p.Checkout(ctx)
				if err != nil {
					return err
				}
				lease.Release()
				return nil
			},
		})
	}
	healthServer := checker.ServeHTTP(cfg.Server.HealthPort)

	<-ctx.Done()
	log.Println("[main] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] health server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] metrics server shutdown: %v", err)
	}

	log.Println("[main] stopped")
}
