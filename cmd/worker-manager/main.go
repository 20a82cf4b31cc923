// cmd/worker-manager/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sales-script-workers/internal/api"
	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/config"
	"sales-script-workers/internal/common/database"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/generation"
	"sales-script-workers/internal/profile"
	"sales-script-workers/internal/scripting"

	ecp "sales-script-workers/internal/workers/client/extract-client-profile"
	lsc "sales-script-workers/internal/workers/catalog/load-script-catalog"
	cs "sales-script-workers/internal/workers/scripts/compose-script"
	fc "sales-script-workers/internal/workers/scripts/format-conditions"
	gs "sales-script-workers/internal/workers/scripts/generate-scripts"
	sr "sales-script-workers/internal/workers/scripts/select-rules"
)

func main() {
	bootLog := logger.New("info", "console")
	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Redis (generation guard) ---
	redis := database.NewRedis(cfg.Database.Redis)
	defer redis.Close()
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, log, "redis connection", func(ctx context.Context) error {
		return redis.Ping(ctx)
	})
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	// --- Generation pipeline ---
	matcher, err := scripting.NewMatcher(cfg.Matching.Mode, cfg.Matching.EmptyTriggerPolicy)
	if err != nil {
		zapLog.Fatal("invalid matching config", zap.Error(err))
	}
	loader := catalog.NewLoader(cfg.Catalog, cfg.Matching.DefaultRuleKey, nil, log)
	guard := generation.NewGuard(redis, config.GetDuration(cfg.Generation.SessionTTL))
	coordinator := generation.NewCoordinator(generation.NewFlight(), guard)
	pipeline := generation.NewPipeline(coordinator, loader, matcher, generation.PipelineConfigFrom(cfg), obs, log)

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()

	registry := camunda.NewRegistry(zeebe.Zeebe(), log)
	registerWorkers(registry, cfg, loader, pipeline, obs, log)
	zapLog.Info("workers registered", zap.Strings("taskTypes", registry.TaskTypes()))

	// --- HTTP: health, metrics and the generate endpoint ---
	ready := func(ctx context.Context) error {
		if err := redis.Ping(ctx); err != nil {
			return err
		}
		return zeebe.HealthCheck(ctx)
	}
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewServer(pipeline, ready, log).Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !api.IsServerClosed(err) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	registry.Close()

	zapLog.Info("Worker manager stopped")
}

func registerWorkers(
	registry *camunda.Registry,
	cfg *config.Config,
	loader *catalog.Loader,
	pipeline *generation.Pipeline,
	obs *observability.Observability,
	log logger.Logger,
) {
	workerTimeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}
	aliases := cfg.Catalog.AliasMap()

	registry.Register(ecp.TaskType, config.GetWorkerConfig(cfg, ecp.TaskType),
		ecp.NewHandler(&ecp.Config{Selectors: profile.DefaultSelectors, Timeout: workerTimeout(ecp.TaskType)}, obs, log))

	registry.Register(lsc.TaskType, config.GetWorkerConfig(cfg, lsc.TaskType),
		lsc.NewHandler(&lsc.Config{Aliases: aliases, Timeout: workerTimeout(lsc.TaskType)}, loader, obs, log))

	selectRules, err := sr.NewHandler(&sr.Config{
		Mode:               cfg.Matching.Mode,
		EmptyTriggerPolicy: cfg.Matching.EmptyTriggerPolicy,
		MaxRules:           cfg.Composer.MaxScripts,
		Timeout:            workerTimeout(sr.TaskType),
	}, obs, log)
	if err != nil {
		log.Error("select-rules worker not started", map[string]interface{}{"error": err.Error()})
	} else {
		registry.Register(sr.TaskType, config.GetWorkerConfig(cfg, sr.TaskType), selectRules)
	}

	registry.Register(fc.TaskType, config.GetWorkerConfig(cfg, fc.TaskType),
		fc.NewHandler(&fc.Config{Aliases: aliases, Timeout: workerTimeout(fc.TaskType)}, obs, log))

	registry.Register(cs.TaskType, config.GetWorkerConfig(cfg, cs.TaskType),
		cs.NewHandler(&cs.Config{
			Aliases:            aliases,
			ExcludeUsedPhrases: cfg.Composer.ExcludeUsedPhrases,
			Timeout:            workerTimeout(cs.TaskType),
		}, obs, log))

	registry.Register(gs.TaskType, config.GetWorkerConfig(cfg, gs.TaskType),
		gs.NewHandler(&gs.Config{SessionFromProcess: true, Timeout: workerTimeout(gs.TaskType)}, pipeline, obs, log))
}
