package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"media-proxy/config"
	"media-proxy/di"
	"media-proxy/job"
	"media-proxy/rest"
	"media-proxy/utils/logger"
)

func main() {
	log := logger.InitLogger()
	log.Info("Starting media-proxy")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		panic(err)
	}

	registry := prometheus.NewRegistry()
	container, err := di.NewApplicationComponents(cfg, registry)
	if err != nil {
		log.Error("Failed to initialize components", "error", err)
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := job.NewJobScheduler()
	scheduler.Add(job.Job{
		Name:     "memory-cache-janitor",
		Interval: cfg.Cache.JanitorInterval,
		Timeout:  cfg.Cache.JanitorTimeout,
		Fn:       job.MemoryCacheJanitorJob(container.VariantCache),
	})
	scheduler.Add(job.Job{
		Name:     "disk-cache-janitor",
		Interval: cfg.Cache.JanitorInterval,
		Timeout:  cfg.Cache.JanitorTimeout,
		Fn:       job.DiskCacheJanitorJob(container.OriginStore, cfg.Cache.DiskMaxAge),
	})
	scheduler.Start(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout
	rest.RegisterRoutes(e, container, registry)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("Error starting server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	scheduler.Shutdown()
	log.Info("Stopped")
}
