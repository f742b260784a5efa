package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"capriccio/internal/auth"
	"capriccio/internal/catalog"
	"capriccio/internal/checkout"
	"capriccio/internal/config"
	"capriccio/internal/database"
	"capriccio/internal/events"
	"capriccio/internal/feed"
	"capriccio/internal/handler"
	"capriccio/internal/metrics"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/router"
	"capriccio/internal/service"
	"capriccio/internal/session"
	"capriccio/internal/upload"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting capriccio API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var warnings []string

	// Storage: PostgreSQL when configured, offline repositories otherwise.
	backend := "postgres"
	var repos repository.Repositories
	if cfg.Database.Enabled() {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, pool, logger, "up"); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		repos = repository.New(pool, logger)
	} else {
		backend = "offline"
		warnings = append(warnings, model.ErrBackendUnavailable.Message)
		logger.Warn().Msg("database credentials missing, running without a backend")
		repos = repository.NewOffline(logger)
	}

	// Sessions and the change feed share one Redis client.
	redisClient, err := session.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	sessions := session.NewStore(redisClient, cfg.Redis.KeyPrefix, cfg.Store.CartTTL, logger)

	hub := feed.NewHub(feed.NewRedisBroker(redisClient, cfg.Redis.KeyPrefix), logger)
	go func() {
		if err := hub.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("change feed stopped")
		}
	}()

	products := catalog.NewStore(cfg.Store.FeaturedCount, logger)
	products.Start(hub, repos.Products)
	defer products.Stop()

	// Integrations.
	publisher := events.NewNop()
	if cfg.Messaging.AMQPURL != "" {
		amqpPublisher, err := events.Dial(cfg.Messaging.AMQPURL, cfg.Messaging.Queue, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("message broker unavailable, order events disabled")
			warnings = append(warnings, "order events disabled: message broker unavailable")
		} else {
			publisher = amqpPublisher
		}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close order publisher")
		}
	}()

	uploader, err := upload.New(ctx, cfg.Upload, cfg.S3, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("s3 uploads unavailable, using cloudinary only")
		warnings = append(warnings, "image uploads limited to cloudinary")
		uploader = upload.NewCloudinaryUploader(
			cfg.Upload.CloudinaryCloudName,
			cfg.Upload.CloudinaryPreset,
			&http.Client{Timeout: 60 * time.Second},
			logger,
		)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	tokens, err := auth.NewTokens(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize tokens: %w", err)
	}

	assembler := checkout.NewAssembler(checkout.Config{
		WhatsAppNumber: cfg.Store.WhatsAppNumber,
		PickupAddress:  cfg.Store.PickupAddress,
		Location:       cfg.Store.Location(),
		LeadTime:       cfg.Store.ReservationLeadTime,
	})

	// Services.
	authService := service.NewAuthService(repos.Users, tokens, sessions, cfg.Auth, logger)
	cartService := service.NewCartService(sessions, products, m, logger)
	checkoutService := service.NewCheckoutService(sessions, products, repos.Orders, repos.Products, assembler, publisher, hub, m, logger)
	productService := service.NewProductService(repos.Products, repos.Reviews, products, uploader, hub, logger)
	orderService := service.NewOrderService(repos.Orders, sessions, hub, cfg.Store.ConfirmationTTL, logger)
	reviewService := service.NewReviewService(repos.Reviews, products, hub, logger)
	favoriteService := service.NewFavoriteService(sessions, products, logger)

	// HTTP.
	streamer := handler.NewStreamer(hub, m, logger)
	mux := router.New(router.Handlers{
		Status:   handler.NewStatusHandler(backend, warnings, products, logger),
		Auth:     handler.NewAuthHandler(authService, logger),
		Cart:     handler.NewCartHandler(cartService, checkoutService, logger),
		Favorite: handler.NewFavoriteHandler(favoriteService, logger),
		Product:  handler.NewProductHandler(productService, streamer, cfg.Upload.MaxBytes, logger),
		Review:   handler.NewReviewHandler(reviewService, streamer, logger),
		Order:    handler.NewOrderHandler(orderService, streamer, cfg.Store.TopProducts, logger),
	}, authService, router.Options{
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
	}, logger)

	// Request contexts end with ctx so open streams close on shutdown.
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("backend", backend).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		cancel()
		return shutdownServer(server, cfg.Server.ShutdownTimeout, logger)
	}
}

func shutdownServer(server *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server gracefully")
		if closeErr := server.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close server")
		}
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info().Msg("server shutdown completed")
	return nil
}
