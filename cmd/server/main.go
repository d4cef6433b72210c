// Package main is the entry point for the case-opening economy API.
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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kazino-api/internal/catalog"
	"kazino-api/internal/config"
	"kazino-api/internal/drop"
	"kazino-api/internal/feed"
	"kazino-api/internal/handler"
	"kazino-api/internal/pkg/db"
	"kazino-api/internal/pkg/lock"
	"kazino-api/internal/repository"
	"kazino-api/internal/service"
	"kazino-api/internal/upgrade"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Local .env is optional; container deployments set the environment
	// directly.
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded environment from .env")
	}

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	itemRepo := repository.NewItemRepository(dbPool.Pool)
	giveawayRepo := repository.NewGiveawayRepository(dbPool.Pool)

	// Engines and shared state
	store := catalog.NewStore(cfg.Catalog.Path)
	roller := drop.NewRoller()
	engine := upgrade.NewEngine()
	userLock := lock.NewUserLock()
	liveFeed := feed.New(cfg.Feed.Capacity)

	// Services
	accountService := service.NewAccountService(userRepo, itemRepo, cfg.Economy)
	caseService := service.NewCaseService(dbPool.Pool, userRepo, itemRepo, store, roller, userLock, liveFeed)
	inventoryService := service.NewInventoryService(dbPool.Pool, userRepo, itemRepo, userLock)
	upgradeService := service.NewUpgradeService(dbPool.Pool, userRepo, itemRepo, store, engine, roller, userLock, liveFeed)
	giveawayService := service.NewGiveawayService(dbPool.Pool, userRepo, giveawayRepo, store, userLock)

	// Synthetic feed activity
	generator := feed.NewGenerator(liveFeed, store, roller, cfg.Feed.MinInterval, cfg.Feed.MaxInterval)
	go generator.Run(ctx)

	router := handler.NewRouter(handler.Dependencies{
		Pool:      dbPool,
		Catalog:   store,
		Feed:      liveFeed,
		Accounts:  accountService,
		Cases:     caseService,
		Inventory: inventoryService,
		Upgrades:  upgradeService,
		Giveaways: giveawayService,
	})

	// No WriteTimeout: the feed websocket holds its connection open.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server is starting...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	cancel()
	log.Info().Msg("Server stopped gracefully")
}
