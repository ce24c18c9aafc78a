// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"somaai-backend/internal/config"
	"somaai-backend/internal/domain/ports/adapter"
	aiAdapters "somaai-backend/internal/infra/adapters/ai"
	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/logging"
	"somaai-backend/internal/infra/memstore"
	"somaai-backend/internal/infra/metrics"
	"somaai-backend/internal/infra/tokens"
	"somaai-backend/internal/infra/web"
	"somaai-backend/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI backend)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- In-memory state ----
	sessions := memstore.NewSessionStore(cfg.Session.TTL, cfg.Session.SweepInterval, logger)
	limiter := memstore.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	cache := memstore.NewResponseCache(cfg.Cache.TTL, cfg.Cache.MaxSize)

	// ---- Content ----
	contentStore, err := content.NewStore(content.LocalesFS, cfg.Content.DataDir, cfg.Languages, logger)
	if err != nil {
		log.Fatalf("content: %v", err)
	}

	// ---- AI adapter (OpenRouter + optional Gemini behind a multi-adapter) ----
	var ai adapter.CompletionAdapter
	if cfg.Runtime.Dev {
		ai = aiAdapters.NewNoopAdapter()
		logger.Info().Msg("AI adapter: noop (dev)")
	} else {
		byProvider := make(map[string]adapter.CompletionAdapter)
		if cfg.AI.OpenRouterKeyPrimary != "" {
			or, err := aiAdapters.NewOpenRouterAdapter(cfg.AI.OpenRouterBaseURL,
				cfg.AI.OpenRouterKeyPrimary, cfg.AI.OpenRouterKeySecondary)
			if err != nil {
				log.Fatalf("openrouter adapter: %v", err)
			}
			byProvider["openrouter"] = or
			logger.Info().Str("base", cfg.AI.OpenRouterBaseURL).Msg("AI adapter: OpenRouter")
		}
		if cfg.AI.GeminiKey != "" {
			gem, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey)
			if err != nil {
				log.Fatalf("gemini adapter: %v", err)
			}
			byProvider["gemini"] = gem
			logger.Info().Msg("AI adapter: Gemini")
		}
		if len(byProvider) == 0 {
			log.Fatalf("no AI provider configured: set ai.openrouter_key_primary or ai.gemini_key in %s", *cfgPath)
		}
		ai = aiAdapters.NewMultiAdapter("openrouter", byProvider, nil)
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	routerUC := usecase.NewRouterUseCase(ai, cache, contentStore, tokens.NewEstimator(), cfg.AI, logger)
	sessionUC := usecase.NewSessionUseCase(sessions, contentStore, cfg, logger)
	chatUC := usecase.NewChatUseCase(sessions, limiter, routerUC, contentStore, cfg, logger)
	lessonUC := usecase.NewLessonUseCase(sessions, routerUC, logger)

	// ---- HTTP server ----
	srv := web.NewServer(sessionUC, chatUC, lessonUC, contentStore, limiter,
		cfg.Languages, cfg.Server.AdminAPIKey, logger)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// FAQ/glossary hot reload; a missing data dir is not fatal.
		if err := contentStore.Watch(ctx.Done()); err != nil {
			logger.Warn().Err(err).Msg("content watcher stopped")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}
}
