package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/concert-seat-reservation/internal/config"
	"github.com/iliyamo/concert-seat-reservation/internal/database"
	"github.com/iliyamo/concert-seat-reservation/internal/handler"
	"github.com/iliyamo/concert-seat-reservation/internal/middleware"
	"github.com/iliyamo/concert-seat-reservation/internal/queue"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
	"github.com/iliyamo/concert-seat-reservation/internal/repository/memory"
	"github.com/iliyamo/concert-seat-reservation/internal/router"
	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	cfg := config.Load()

	logger := log.New("concert-api")
	logger.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","file":"${short_file}","line":"${line}"}`)
	logger.SetLevel(cfg.Level())

	stores, db, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	var publisher service.EventPublisher
	if cfg.EventsEnabled {
		publisher = queue.NewPublisher(cfg.RabbitURL, logger)
	}

	avail := service.NewAvailabilityService(stores, logger)
	holds := service.NewHoldService(stores, avail, cfg.HoldTTL, logger)
	reservations := service.NewReservationService(stores, publisher, cfg.MaxSeats, logger)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	health := &handler.HealthHandler{}
	if db != nil {
		health.DB = db
	}
	router.Register(e, router.Handlers{
		Health:       health,
		Concerts:     &handler.ConcertHandler{Availability: avail},
		Holds:        &handler.HoldHandler{Holds: holds},
		Reservations: &handler.ReservationHandler{Reservations: reservations},
	},
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HoldSweepInterval > 0 {
		go service.NewSweeper(stores.Holds, cfg.HoldSweepInterval, logger).Start(ctx)
	}
	if cfg.ConsumerEnabled {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Dir: cfg.EventLogDir, Logger: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("reservation consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Errorf("http server: %v", err)
		stop()
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http server shutdown: %v", err)
	}
	logger.Info("server stopped")
}

// openStores builds the storage backend selected by STORE_DRIVER.  The
// returned *sql.DB is nil for the memory driver.
func openStores(cfg config.Config, logger *log.Logger) (service.Stores, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := memory.New()
		if cfg.SeedDemo {
			ids := memory.SeedDemo(mem, time.Now(), 5, 10)
			logger.Infof("seeded %d demo concerts", len(ids))
		}
		return service.Stores{
			Concerts:     mem.Concerts(),
			Seats:        mem.Seats(),
			Holds:        mem.Holds(),
			Reservations: mem.Reservations(),
		}, nil, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return service.Stores{}, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return service.Stores{}, nil, err
		}
		logger.Info("migrations applied")
	}
	return service.Stores{
		Concerts:     repository.NewConcertRepo(db),
		Seats:        repository.NewSeatRepo(db),
		Holds:        repository.NewSeatHoldRepo(db),
		Reservations: repository.NewReservationRepo(db),
	}, db, nil
}
