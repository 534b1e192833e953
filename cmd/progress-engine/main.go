package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/progress-engine/internal/api"
	"github.com/terra-clan/progress-engine/internal/certification"
	"github.com/terra-clan/progress-engine/internal/config"
	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/events"
	"github.com/terra-clan/progress-engine/internal/health"
	"github.com/terra-clan/progress-engine/internal/leaderboard"
	"github.com/terra-clan/progress-engine/internal/metrics"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/storage"
	"github.com/terra-clan/progress-engine/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting progress-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"redis", cfg.Redis.Enabled,
	)

	// Load curriculum
	var registry *curriculum.Registry
	if cfg.Curriculum.File != "" {
		registry, err = curriculum.LoadFromFile(cfg.Curriculum.File)
	} else {
		registry, err = curriculum.LoadDefault()
	}
	if err != nil {
		slog.Error("failed to load curriculum", "file", cfg.Curriculum.File, "error", err)
		os.Exit(1)
	}

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	checks := health.NewRegistry()

	// Storage
	var (
		repo        storage.Repository
		submissions storage.SubmissionStore
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		mem := storage.NewMemoryStore()
		if cfg.Admin.ApiKey != "" {
			mem.AddClient(&models.ApiClient{
				ID:          1,
				Name:        "admin",
				ApiKey:      cfg.Admin.ApiKey,
				IsActive:    true,
				CreatedAt:   time.Now().UTC(),
				Permissions: []string{"*"},
			})
		}
		repo, submissions = mem, mem
		slog.Warn("using in-memory storage, data is lost on restart")

	default:
		slog.Info("running database migrations")
		if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, migrations.FS, migrations.ProgressDir); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		if err := storage.MigrateFromDSN(initCtx, cfg.Submissions.DSN, migrations.FS, migrations.SubmissionsDir); err != nil {
			slog.Error("failed to run submissions migrations", "error", err)
			os.Exit(1)
		}

		pg, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:      cfg.Database.DSN,
			MaxConns: int32(cfg.Database.MaxConns),
			MinConns: int32(cfg.Database.MinConns),
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected successfully")

		subs, err := storage.NewSQLSubmissionStore(initCtx, cfg.Submissions.DSN)
		if err != nil {
			slog.Error("failed to connect submissions database", "error", err)
			os.Exit(1)
		}

		repo, submissions = pg, subs
		checks.Register("submissions", subs)
	}
	checks.Register(cfg.Storage.Driver, repo)

	// Leaderboard and live events
	var (
		board leaderboard.Board
		bus   events.Bus
	)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(initCtx).Err(); err != nil {
			slog.Error("failed to connect to redis", "address", cfg.Redis.Address, "error", err)
			os.Exit(1)
		}
		board = leaderboard.NewRedisBoard(redisClient)
		bus = events.NewRedisBus(redisClient)
		checks.Register("redis", health.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	} else {
		board = leaderboard.NewMemoryBoard()
		bus = events.NewHub()
	}

	slog.Info("readiness checks registered", "dependencies", checks.List())

	m := metrics.New()

	progressService := progress.NewService(registry, repo, progress.Options{
		Board:              board,
		Events:             bus,
		Metrics:            m,
		MaxConflictRetries: cfg.Progress.MaxConflictRetries,
		StrictModules:      cfg.Progress.StrictModules,
	})
	certService := certification.NewService(registry, repo, submissions, bus, m)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start leaderboard rebuild worker
	rebuilder := leaderboard.NewRebuilder(registry, repo, board, cfg.Leaderboard.RebuildInterval)
	rebuilder.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Dependencies{
		Registry:      registry,
		Progress:      progressService,
		Certification: certService,
		Board:         board,
		Events:        bus,
		Clients:       repo,
		Health:        checks,
		Metrics:       m,
	})
	httpServer := &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := bus.Close(); err != nil {
		slog.Error("event bus close error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := submissions.Close(); err != nil {
		slog.Error("submissions store close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("progress-engine stopped")
}
