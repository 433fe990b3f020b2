package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"bookstore-service/internal/api"
	"bookstore-service/internal/config"
	"bookstore-service/internal/consumer"
	"bookstore-service/internal/logger"
	"bookstore-service/internal/metrics"
	"bookstore-service/internal/repository"
	"bookstore-service/internal/service"
	"bookstore-service/migrations"
)

func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				log.Info().Msgf("Connected to DB %s", cfg.Name)
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s:%s)", i+1, cfg.Name, cfg.Host, cfg.Port)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.Name, cfg.Host, cfg.Port, err)
}

func main() {
	cfg, err := config.LoadOrEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(ctx, 3, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	kafkaWriter := config.NewKafkaWriter(cfg.Kafka)
	defer kafkaWriter.Close()
	kafkaReader := config.NewKafkaReader(cfg.Kafka)
	defer kafkaReader.Close()

	// Services
	bookService := service.NewBookService(repository.NewBookRepository(db), rdb, kafkaWriter, cfg.Cache.TTL)
	blogService := service.NewBlogService(repository.NewBlogRepository(db))
	userService := service.NewUserService(repository.NewUserRepository(db), rdb, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	pricingService := service.NewPricingService(bookService, rdb, cfg.Pricing.SessionTTL)
	uploadService := service.NewUploadService(cfg.Uploads.Dir, "/uploads", cfg.Uploads.MaxBytes, cfg.Uploads.ThumbWidth, cfg.Uploads.ThumbHeight)

	if err := userService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	// consumer
	bookConsumer := consumer.NewConsumer(kafkaReader, bookService)
	consumerDone := bookConsumer.Run(ctx)

	// cache re-warm
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Cache.WarmupSpec, func() {
		n, err := bookService.PreWarmCache(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled cache warm-up failed")
			return
		}
		log.Info().Msgf("Scheduled cache warm-up loaded %d books", n)
	})
	if err != nil {
		log.Fatal().Err(err).Msgf("Invalid cache warm-up schedule %q", cfg.Cache.WarmupSpec)
	}
	scheduler.Start()

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Server.RateLimit),
				Burst:     cfg.Server.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	// Middleware
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "Idempotent-Key"},
	}))
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// Routes
	api.Register(e, api.Handlers{
		Books:   api.NewBookHandler(bookService),
		Blogs:   api.NewBlogHandler(blogService),
		Users:   api.NewUserHandler(userService),
		Pricing: api.NewPricingHandler(pricingService),
		Uploads: api.NewUploadHandler(uploadService),
	}, api.JWT(cfg.Auth.JWTSecret), api.AdminOnly(userService))
	e.Static("/uploads", uploadService.Dir())
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
	<-consumerDone
	bookService.WaitWarmup()
}
