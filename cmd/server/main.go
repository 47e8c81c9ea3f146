/*
main.go - Application entry point

PURPOSE:
  Starts the reconciliation server: loads settings and rules, publishes a
  first cycle from the configured exports when there are any, schedules
  reloads and serves the read-only API.

STARTUP SEQUENCE:
  1. Load settings (reconcile.yaml, RECON_* environment)
  2. Build the logger
  3. Load the rule document, or fall back to the built-in Q2 2025 rules
  4. Create engine, cycle store and API handler
  5. Initial reload when source files are configured
  6. Start the reload schedule when one is configured
  7. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reload schedule (waits for a running reload)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Exit

ENVIRONMENT:
  RECON_CONFIG                   Settings file path
  RECON_SERVER_PORT              HTTP port (default 8080)
  RECON_RULES_PATH               YAML rule document
  RECON_SOURCES_BILLING          Billing export (.csv or .xlsx)
  RECON_SOURCES_PAYROLL          Payroll export (.csv or .xlsx)
  RECON_SOURCES_RELOAD_SCHEDULE  Cron spec, e.g. "@every 15m"
  RECON_LOG_LEVEL                debug, info, warn, error
  RECON_LOG_FORMAT               json or console

SEE ALSO:
  - config/config.go: Settings
  - api/server.go: Router configuration
  - api/scheduler.go: Scheduled reloads
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/reconcile-engine/api"
	"github.com/warp/reconcile-engine/config"
	"github.com/warp/reconcile-engine/factory"
	"github.com/warp/reconcile-engine/metrics"
	"github.com/warp/reconcile-engine/rules"
	"github.com/warp/reconcile-engine/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	rs := rules.Default()
	if cfg.Rules.Path != "" {
		rs, err = factory.LoadRuleSet(cfg.Rules.Path)
		if err != nil {
			logger.Fatal("failed to load rules", zap.String("path", cfg.Rules.Path), zap.Error(err))
		}
	}

	engine, err := metrics.NewEngine(rs, metrics.WithLogger(logger))
	if err != nil {
		logger.Fatal("invalid rule set", zap.Error(err))
	}
	logger.Info("rules loaded", zap.String("rule_set", rs.Name))

	handler := api.NewHandler(engine, store.NewMemory(store.DefaultHistory), cfg.Sources, logger)

	if cfg.Sources.Configured() {
		if _, err := handler.Reload(context.Background()); err != nil {
			logger.Warn("initial load failed", zap.Error(err))
		}
	}

	var scheduler *api.ReloadScheduler
	if cfg.Sources.ReloadSchedule != "" {
		scheduler, err = api.NewReloadScheduler(handler, cfg.Sources.ReloadSchedule, logger)
		if err != nil {
			logger.Fatal("invalid reload schedule", zap.Error(err))
		}
		scheduler.Start()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handler, cfg.CORS.AllowedOrigins),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(c config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
