package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/engine"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/http/handlers"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/http/httpapi"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/infra"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/jobstore"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/scheduler"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	var store domain.JobStore
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pg := jobstore.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare job table")
		}
		store = pg
		logger.Info().Msg("job records persisted in postgres")
	} else {
		store = jobstore.NewMemory()
		logger.Info().Msg("job records kept in memory")
	}

	eng := engine.NewFFmpeg(cfg.FFmpegPath, logger)
	if err := eng.Probe(ctx); err != nil {
		logger.Warn().Err(err).Msg("ffmpeg probe failed, stage execution will error")
	}

	sched := scheduler.New(scheduler.Config{
		Workers:        cfg.WorkerCount,
		QueueCapacity:  cfg.QueueCapacity,
		StageTimeout:   cfg.StageTimeout,
		LivenessWindow: cfg.LivenessWindow,
		Retention:      cfg.Retention,
	}, store, blobs, eng, logger)

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("scheduler stopped with error")
		}
	}()

	app := handlers.NewApp(store, blobs, sched, logger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, logger, cfg.RateLimitPerMin)
	server := infra.NewServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
