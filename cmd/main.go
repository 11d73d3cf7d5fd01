package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/arena/config"
	"github.com/Dosada05/arena/db"
	"github.com/Dosada05/arena/handlers"
	"github.com/Dosada05/arena/matchmaking"
	"github.com/Dosada05/arena/realtime"
	"github.com/Dosada05/arena/repositories"
	api "github.com/Dosada05/arena/routes"
	"github.com/Dosada05/arena/services"
	"github.com/Dosada05/arena/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Tournament archiving is optional; without R2 credentials finished
	// brackets are only logged.
	var archive matchmaking.Archiver
	if cfg.R2AccountID != "" {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archive = storage.NewTournamentArchive(uploader)
		logger.Info("tournament archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("connection registry started")

	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	queueRepo := repositories.NewPostgresQueueRepository(dbConn)
	logger.Info("repositories initialized")

	settings := matchmaking.Settings{
		InitialEloRange: cfg.InitialEloRange,
		EloRangeStep:    cfg.EloRangeStep,
		SearchInterval:  cfg.SearchInterval,
		MaxWaitTime:     cfg.MaxWaitTime,
		CooldownBase:    cfg.CooldownBase,
		CooldownStep:    cfg.CooldownStep,
		CooldownMax:     cfg.CooldownMax,
	}

	queues := matchmaking.NewQueueSet()
	rankedEngine := matchmaking.NewRankedEngine(settings, queues, gameRepo, hub, logger)
	tournamentEngine := matchmaking.NewTournamentEngine(queues, gameRepo, queueRepo, hub, archive, logger)
	matchmaker := services.NewMatchmaker(hub, rankedEngine, tournamentEngine, ratingRepo, logger)
	logger.Info("matchmaking engines initialized")

	webSocketHandler := handlers.NewWebSocketHandler(hub, matchmaker, logger)
	matchHandler := handlers.NewMatchHandler(matchmaker, gameRepo, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, webSocketHandler, matchHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				return fmt.Errorf("graceful shutdown failed: %w (force close also failed: %v)", err, closeErr)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
