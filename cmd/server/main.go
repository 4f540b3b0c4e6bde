package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/analytics"
	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/internal/gateway"
	"github.com/no-bike/software-aibot/internal/platform/logger"
	"github.com/no-bike/software-aibot/internal/platform/otel"
	"github.com/no-bike/software-aibot/internal/server"
	"github.com/no-bike/software-aibot/internal/store/cache"
	"github.com/no-bike/software-aibot/internal/store/sqlite"

	// Import providers to trigger init() registration
	_ "github.com/no-bike/software-aibot/internal/llm/custom"
	_ "github.com/no-bike/software-aibot/internal/llm/deepseek"
	_ "github.com/no-bike/software-aibot/internal/llm/moonshot"
	_ "github.com/no-bike/software-aibot/internal/llm/qwen"
	_ "github.com/no-bike/software-aibot/internal/llm/spark"
)

const serviceName = "software-aibot"

func main() {
	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	shutdownTracer, err := otel.InitTracer(serviceName, log, os.Stdout)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database", zap.String("dsn", cfg.Database.DSN), zap.Error(err))
	}
	defer func() {
		_ = repo.Close()
	}()

	var cacheSvc cache.CacheService = cache.Noop{}
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			cacheSvc = redisCache
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingestor := analytics.NewIngestor(log, repo)
	ingestor.Start(ctx)
	defer ingestor.Stop()

	service := gateway.NewService(log, cacheSvc)
	registered := gateway.BootstrapProviders(ctx, service, cfg.Providers, log)
	log.Info("providers registered", zap.Int("count", registered))

	engine := buildFusionEngine(log, cfg)
	multiChat := gateway.NewMultiChat(log, service, engine, repo, ingestor)

	srv := server.New(cfg, log, service, multiChat, engine, repo)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // streaming responses hold the connection open
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// buildFusionEngine assembles the fusion pipeline. The ranker and fuser
// sidecars are wrapped in lazy resources so their model weights only load on
// first use; the summarizer is a plain HTTP client and needs no warmup.
func buildFusionEngine(log *zap.Logger, cfg *config.Config) *fusion.Engine {
	fc := cfg.Fusion

	ranker := fusion.NewResource(func(ctx context.Context) (fusion.Ranker, error) {
		if fc.RankerURL == "" {
			return nil, fmt.Errorf("ranker_url not configured")
		}
		r := fusion.NewPairRanker(fc.RankerURL, fc.StageTimeout)
		if err := r.Warmup(ctx); err != nil {
			return nil, err
		}
		return r, nil
	})

	fuser := fusion.NewResource(func(ctx context.Context) (fusion.Fuser, error) {
		if fc.FuserURL == "" {
			return nil, fmt.Errorf("fuser_url not configured")
		}
		f := fusion.NewGenFuser(fc.FuserURL, fc.StageTimeout)
		if err := f.Warmup(ctx); err != nil {
			return nil, err
		}
		return f, nil
	})

	var summarizer fusion.Summarizer
	if fc.SummarizerAPIKey != "" {
		summarizer = fusion.NewChatSummarizer(fc.SummarizerBaseURL, fc.SummarizerAPIKey, fc.SummarizerModel, fc.SummarizerTimeout)
	} else {
		log.Warn("summarizer api key missing, Chinese fusion will fall back to concatenation")
	}

	return fusion.NewEngine(log, ranker, fuser, summarizer, fusion.Options{
		DefaultTopK:  fc.DefaultTopK,
		StageTimeout: fc.StageTimeout,
		FuseOptions: fusion.FuseOptions{
			MaxLength:          fc.FuserMaxLength,
			CandidateMaxLength: fc.FuserCandidateMaxLength,
		},
	})
}
