package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pedilo/storefront/internal/catalog"
	"github.com/pedilo/storefront/internal/config"
	"github.com/pedilo/storefront/internal/db"
	storefrontHttp "github.com/pedilo/storefront/internal/handler/http"
	"github.com/pedilo/storefront/internal/order"
	"github.com/pedilo/storefront/internal/promotion"
	"github.com/pedilo/storefront/internal/transport"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	setupLogger(cfg.App)
	log.Info().Str("env", cfg.App.Env).Msg("Starting checkout-service...")

	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(cfg.Postgres); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Str("path", cfg.Postgres.MigrationsPath).Msg("Migrations applied")
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	postgres, err := db.New(connectCtx, cfg.Postgres)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	catalogRepository := catalog.NewRepository(postgres.SQL)
	catalogSvc := catalog.NewService(catalogRepository)
	promotionRepository := promotion.NewRepository(postgres.Pool)
	promotionSvc := promotion.NewService(promotionRepository, nil)
	orderRepository := order.NewRepository(postgres.Pool)
	orderSvc := order.NewService(orderRepository, catalogRepository, promotionSvc,
		order.WithCodeAttempts(cfg.Checkout.OrderCodeAttempts))
	orderHandler := storefrontHttp.NewOrderHandler(orderSvc, catalogSvc)

	router := transport.NewRouter(orderHandler, postgres.Pool)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopCh

	log.Info().Stringer("signal", sig).Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	postgres.Close()

	log.Info().Msg("Checkout-service stopped gracefully.")
}

func setupLogger(app config.AppConfig) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stdout)
	switch app.Env {
	case "dev", "development", "local":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = logger.With().Timestamp().Str("service", app.Name).Logger()
}
