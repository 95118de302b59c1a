package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"emailwise/backend/internal/config"
	"emailwise/backend/internal/db"
	"emailwise/backend/internal/handlers"
	"emailwise/backend/internal/history"
	"emailwise/backend/internal/llm"
	"emailwise/backend/internal/middleware"
	"emailwise/backend/internal/realtime"
	"emailwise/backend/internal/router"
)

func main() {
	envErr := godotenv.Load()
	cfg, cfgErr := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "emailwise").Logger()
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}
	if cfgErr != nil {
		logger.Fatal().Err(cfgErr).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var usage llm.UsageRecorder
	var historyStore *history.Store
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		store, err := db.New(connectCtx, cfg.DatabaseURL)
		if err == nil {
			err = store.Migrate(connectCtx)
		}
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer store.Close()
		historyStore = history.NewStore(store)
		usage = historyStore
	} else {
		logger.Warn().Msg("DATABASE_URL not set, history disabled")
	}

	factory := llm.NewFactory(logger)
	provider := factory.CreateProvider(&llm.ProviderConfig{
		ProviderName: cfg.LLMProvider,
		APIKey:       cfg.APIKey(),
		ModelName:    cfg.LLMModel,
		BaseURL:      cfg.LLMBaseURL,
		Timeout:      cfg.RequestTimeout,
	})
	analyzer := llm.NewAnalyzer(provider, usage, cfg.MaxContentLength, logger)
	logger.Info().Str("provider", provider.Name()).Str("mode", analyzer.Mode()).Msg("analyzer ready")

	hub := realtime.NewHub()
	api := handlers.NewAPI(analyzer, logger, cfg.RequestTimeout)
	api.Hub = hub
	if historyStore != nil {
		api.History = historyStore
	}

	if cfg.RedisURL != "" {
		queue, err := llm.NewQueue(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		defer queue.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := queue.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Msg("redis not reachable yet, worker will retry")
		}
		cancel()
		api.Queue = queue

		worker := &llm.Worker{
			Queue:     queue,
			Analyzer:  analyzer,
			Hub:       hub,
			Log:       logger,
			BatchSize: cfg.WorkerBatchSize,
			Timeout:   cfg.RequestTimeout,
		}
		if historyStore != nil {
			worker.History = historyStore
		}
		go worker.Start(ctx)
	} else {
		logger.Warn().Msg("REDIS_URL not set, batch analysis disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	rt := router.New(api, limiter, cfg.FrontendOrigin, hub)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logging(logger, rt),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
