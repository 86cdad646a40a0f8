// Package main is the entry point for the precious-metals Index Engine
// daemon: it ingests spot quotes, computes the composite index, and
// publishes it to the on-chain oracle on a cron-driven tick.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/preciousmetals/indexd/internal/clients/goldapi"
	"github.com/preciousmetals/indexd/internal/clients/oracle"
	"github.com/preciousmetals/indexd/internal/config"
	"github.com/preciousmetals/indexd/internal/engine"
	"github.com/preciousmetals/indexd/internal/health"
	"github.com/preciousmetals/indexd/internal/scheduler"
	"github.com/preciousmetals/indexd/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	log.Info().Msg("Starting Index Engine")

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	oracleClient, err := oracle.NewClient(bootCtx, cfg.RPCURL, cfg.OracleAddress, cfg.OracleABIPath, cfg.PrivateKey, log)
	bootCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct oracle client")
	}

	priceSource := goldapi.NewClient(cfg.QuoteAPIKey, log)
	gate := engine.NewPublicationGate(cfg.PublishHoursUTC, cfg.DiscoveryPhase)
	idx := engine.New(log, priceSource, oracleClient, gate)

	sched := scheduler.New(log)
	if err := sched.AddJob(cronEverySeconds(cfg.UpdateInterval), idx); err != nil {
		log.Fatal().Err(err).Msg("Failed to register tick job")
	}
	sched.Start()
	log.Info().Dur("interval", cfg.UpdateInterval).Msg("Scheduler started")

	monitor := health.NewMonitor()
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: statusMux(idx, monitor),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start status server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Status server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Status server forced to shutdown")
	}

	log.Info().Msg("Index Engine stopped")
}

// cronEverySeconds renders a duration as a robfig/cron "@every" spec.
func cronEverySeconds(d time.Duration) string {
	return "@every " + d.String()
}

// statusMux serves the daemon's two read-only operational endpoints:
// a liveness probe and a snapshot of engine + process state.
func statusMux(idx *engine.Engine, monitor *health.Monitor) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		response := struct {
			Engine engine.Status   `json:"engine"`
			Host   health.Snapshot `json:"host"`
		}{
			Engine: idx.Status(),
			Host:   monitor.Sample(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	return mux
}
