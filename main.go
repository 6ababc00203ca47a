// File: servicehub/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicehub/config"
	"servicehub/cron"
	"servicehub/database"
	"servicehub/handlers"
	"servicehub/routes"
	"servicehub/services/ranking"
	"servicehub/services/recommendation"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	reader, closeStore, err := database.OpenSnapshot(cfg, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to open %s snapshot store: %v", cfg.DataStore, err)
	}
	defer closeStore()

	var cache *recommendation.Cache
	var cachePinger utils.Pinger
	if ttl := cfg.CacheTTL(); ttl > 0 {
		client := utils.GetCacheClient()
		cache = recommendation.NewCache(client, ttl, logger)
		cachePinger = utils.RedisPinger{Client: client}
	}

	artifacts := ranking.NewStore(cfg.ModelDir)
	scorer, manifest, err := recommendation.SelectScorer(cfg.Ranker, artifacts, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: ranker %q unavailable: %v", cfg.Ranker, err)
	}

	recService := recommendation.NewService(reader, scorer, cache, logger, recommendation.Options{
		DefaultTopN: cfg.DefaultTopN,
		MaxTopN:     cfg.MaxTopN,
	})
	logger.Info("Recommendation service ready", zap.String("ranker", recService.RankerName()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	utils.StartHealthMonitor(ctx, reader, cachePinger, recService.RankerName(), 30*time.Second)

	if cfg.RetrainEnabled {
		job := &ranking.Job{
			Reader: reader,
			Store:  artifacts,
			Params: ranking.ParamsFromConfig(cfg),
			Logger: logger,
		}
		worker, err := cron.InitRetrainWorker(job, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize retrain worker: %v", err)
		}
		defer worker.Shutdown()
	}

	recHandler := handlers.NewRecommendationHandler(recService, manifest, logger)
	handlerBundle := &handlers.HandlerBundle{
		GetRecommendationsHandler: recHandler.GetRecommendationsHandler,
		GetModelInfoHandler:       recHandler.GetModelInfoHandler,
		HealthHandler:             handlers.HealthHandler,
		MetricsHandler:            gin.WrapH(promhttp.Handler()),
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, handlerBundle, cfg.MaxRequestsPerMin, logger)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
