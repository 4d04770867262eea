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

	"ticketing/api/routes"
	"ticketing/internal/bookings"
	"ticketing/internal/expiry"
	"ticketing/internal/notifications"
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/database"
	"ticketing/internal/shared/middleware"
	"ticketing/internal/shows"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
	"ticketing/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Rebuild once the gin mode is known so release mode logs JSON.
	appLogger = logger.New()
	logger.SetDefault(appLogger)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("Server exited gracefully")
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	publisher, err := newPublisher(cfg, appLogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	showRepo := shows.NewRepository(db.PostgreSQL)
	bookingRepo := bookings.NewRepository(db.PostgreSQL, cfg.Database.StatementTimeout)

	appRouter := routes.NewRouter(cfg, db, showRepo, bookingRepo)
	appRouter.SetLogger(appLogger)
	appRouter.SetPublisher(publisher)
	appRouter.SetCacheService(cache.NewService(db.Redis))

	engine := setupEngine(cfg, db, appLogger)
	appRouter.SetupRoutes(engine)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", Version),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Expiry.Enabled {
		var locker expiry.Locker
		if cfg.Expiry.LockEnabled && db.Redis != nil {
			locker = expiry.NewRedisLocker(db.Redis)
		}
		sweeper := expiry.NewSweeper(bookingRepo, publisher, appLogger)
		jobs := expiry.NewJobProcessor(sweeper, locker, expiry.JobConfigFrom(cfg.Expiry), appLogger)
		g.Go(func() error {
			return jobs.Run(gctx)
		})
	} else {
		appLogger.Info("Booking expiry job disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newPublisher(cfg *config.Config, appLogger *logger.Logger) (notifications.Publisher, error) {
	if !cfg.Kafka.Enabled {
		appLogger.Info("Kafka disabled: booking events go to the log")
		return notifications.NewLogPublisher(appLogger), nil
	}

	publisher, err := notifications.NewKafkaPublisher(cfg.Kafka, appLogger)
	if err != nil {
		return nil, err
	}
	appLogger.Info("Kafka booking event publisher ready",
		slog.Any("brokers", cfg.Kafka.Brokers),
		slog.String("topic", cfg.Kafka.BookingTopic),
	)
	return publisher, nil
}

func setupEngine(cfg *config.Config, db *database.DB, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		middleware.Recovery(appLogger),
		middleware.CORS(),
	)

	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter := ratelimit.NewRateLimiter(db.Redis, &ratelimit.Config{
			Enabled:             cfg.RateLimit.Enabled,
			WindowDuration:      cfg.RateLimit.WindowDuration,
			DefaultRequests:     cfg.RateLimit.DefaultRequests,
			PublicRequests:      cfg.RateLimit.PublicRequests,
			ReservationRequests: cfg.RateLimit.ReservationRequests,
			AdminRequests:       cfg.RateLimit.AdminRequests,
			HealthRequests:      cfg.RateLimit.HealthRequests,
			WhitelistedIPs:      cfg.RateLimit.WhitelistedIPs,
		})
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("reservation_requests", cfg.RateLimit.ReservationRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	return engine
}
