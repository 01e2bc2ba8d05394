package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/auth"
	"github.com/fairyhunter13/court-booking-flow/internal/backend"
	"github.com/fairyhunter13/court-booking-flow/internal/config"
	"github.com/fairyhunter13/court-booking-flow/internal/handler"
	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
	"github.com/fairyhunter13/court-booking-flow/internal/repository"
	"github.com/fairyhunter13/court-booking-flow/internal/service"
	"github.com/fairyhunter13/court-booking-flow/internal/validator"
	"github.com/fairyhunter13/court-booking-flow/pkg/database"
)

const flowCleanupInterval = time.Minute

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend client: the caller's bearer token wins, BACKEND_TOKEN is the fallback.
	client := backend.NewClient(
		cfg.Backend.BaseURL,
		auth.ContextTokenSource{Fallback: auth.StaticToken(cfg.Backend.Token)},
		cfg.Backend.Timeout,
	)

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, list caching disabled")
			_ = rdb.Close()
			rdb = nil
		} else {
			client.UseRedisCache(rdb, cfg.Redis.CouponCacheTTL)
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.CouponCacheTTL).Msg("list caching enabled")
		}
	}

	// Receipt ledger is optional; without it confirmed bookings are only logged.
	var (
		pool         *pgxpool.Pool
		receiptRepo  *repository.ReceiptRepository
		receiptStore service.ReceiptRecorder
		receiptList  handler.ReceiptLister
		dbPinger     handler.Pinger
	)
	if cfg.DB.Enabled {
		pool, err = database.NewPool(ctx, cfg.DB.DSN(), 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		receiptRepo = repository.NewReceiptRepository(pool)
		receiptStore, receiptList, dbPinger = receiptRepo, receiptRepo, pool
	}

	flows := service.NewFlowStore(service.FlowDeps{
		Slots:     client,
		Coupons:   service.NewCouponValidator(client),
		Submitter: service.NewBookingSubmitter(client),
		Receipts:  receiptStore,
	}, cfg.Server.FlowTTL())
	go flows.RunCleanup(ctx, flowCleanupInterval)

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Court Booking Flow",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	app.Get("/health", handler.NewHealthHandler(client, dbPinger).Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", handler.BearerToken())
	handler.NewCatalogHandler(client, receiptList).Register(api)
	handler.NewFlowHandler(flows, validate).Register(api)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("backend", cfg.Backend.BaseURL).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Waits for in-flight requests, including submissions.
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	cancel()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	if pool != nil {
		log.Info().Msg("closing database connections...")
		pool.Close()
	}
	log.Info().Int("open_flows", flows.Len()).Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
