// cmd/queryd/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"barquery/internal/cache"
	"barquery/internal/common/config"
	"barquery/internal/common/database"
	"barquery/internal/common/httpx"
	"barquery/internal/common/logger"
	"barquery/internal/common/observability"
	"barquery/internal/nlp"
	"barquery/internal/provider"
	"barquery/internal/server"
	"barquery/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting query service", map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
		"provider":    cfg.AI.Provider,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	httpClient := httpx.NewClient(time.Duration(cfg.AI.RequestTimeout) * time.Second)

	var providers []provider.Provider
	if cfg.AI.OpenAI.Enabled() {
		providers = append(providers, provider.NewOpenAIClient(cfg.AI.OpenAI, httpClient))
	}
	if cfg.AI.Anthropic.Enabled() {
		providers = append(providers, provider.NewAnthropicClient(cfg.AI.Anthropic, httpClient))
	}
	if len(providers) == 0 {
		log.Error("no provider credentials configured", nil)
		os.Exit(1)
	}

	orch := provider.NewOrchestrator(cfg.AI, providers, log)

	var answers *cache.AnswerCache
	if cfg.Cache.Enabled {
		redisClient, err := database.NewRedis(cfg.Redis)
		if err != nil {
			log.WithError(err).Error("failed to create redis client", nil)
			os.Exit(1)
		}
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("redis unreachable, answer cache disabled", nil)
		} else {
			answers = cache.NewAnswerCache(redisClient, time.Duration(cfg.Cache.TTLSeconds)*time.Second, log)
			log.Info("answer cache enabled", map[string]interface{}{"ttlSeconds": cfg.Cache.TTLSeconds})
		}
		cancel()
	}

	svc := service.New(nlp.NewAnalyzer(), orch, answers, obs, log)

	mux := http.NewServeMux()
	server.New(svc, log).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed", nil)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete", nil)
	}
	log.Info("stopped", nil)
}
