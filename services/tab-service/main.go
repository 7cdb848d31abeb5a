package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/api"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/client"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/config"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/logging"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/orders"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/patterns"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reports"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reservations"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/snapshot"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	configPath := flag.String("config", os.Getenv("TABS_CONFIG"), "path to the YAML config file")
	healthcheck := flag.Bool("healthcheck", false, "probe /health of a running instance and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	if *healthcheck {
		os.Exit(probe(cfg))
	}

	logger := logging.Setup(cfg.App.Name, cfg.App.LogLevel, cfg.App.LogFile)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Invalid timezone: ", err)
	}

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to open persistence backend: ", err)
	}
	defer closeBackend()

	orderStore, reservationStore := buildStores(cfg, backend, loc, logger)
	reservationStore.Start()

	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(orderStore, reservationStore, reports.NewService(orderStore))
	router := api.NewRouter(handler, api.RouterConfig{
		Service:     cfg.App.Name,
		MaxInFlight: cfg.HTTP.MaxInFlight,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.WithFields(log.Fields{
			"addr":     cfg.App.HTTPAddr,
			"backend":  cfg.Persistence.Backend,
			"timezone": loc.String(),
		}).Info("Tab Service starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), patterns.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	reservationStore.Stop()
}

// openBackend selects where snapshots live. The returned func releases it.
func openBackend(cfg config.Config) (snapshot.Backend, func(), error) {
	switch cfg.Persistence.Backend {
	case config.BackendFile:
		b, err := snapshot.NewFileBackend(cfg.Persistence.Dir)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), patterns.DefaultTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the snapshotters degrade on their own if redis stays down
			log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("Redis not reachable at startup")
		}
		return snapshot.NewRedisBackend(rdb), func() { _ = rdb.Close() }, nil

	default:
		return snapshot.NewMemoryBackend(), func() {}, nil
	}
}

// buildStores loads both collections and wires order changes into the reservation watchdog.
func buildStores(cfg config.Config, backend snapshot.Backend, loc *time.Location, logger *log.Entry) (*orders.Store, *reservations.Store) {
	opts := snapshot.Options{
		MaxFailures: cfg.Persistence.MaxFailures,
		Logger:      logger.WithField("component", "snapshot"),
	}
	orderSnapshots := snapshot.New[models.Order](backend, snapshot.Key(cfg.Persistence.Namespace, "orders"), opts)
	reservationSnapshots := snapshot.New[models.Reservation](backend, snapshot.Key(cfg.Persistence.Namespace, "reservations"), opts)

	orderStore := orders.NewStore(orderSnapshots,
		orders.WithLocation(loc),
		orders.WithLogger(logger.WithField("component", "orders")),
	)
	reservationStore := reservations.NewStore(orderStore, reservationSnapshots,
		reservations.WithLocation(loc),
		reservations.WithGracePeriod(cfg.Reservations.GracePeriod),
		reservations.WithCheckInterval(cfg.Reservations.CheckInterval),
		reservations.WithLogger(logger.WithField("component", "reservations")),
	)
	orderStore.Subscribe(reservationStore.Kick)

	logger.WithFields(log.Fields{
		"orders_key":       orderSnapshots.Key(),
		"reservations_key": reservationSnapshots.Key(),
	}).Info("Snapshots wired")

	return orderStore, reservationStore
}

// probe is the container health check: exit 0 when /health answers
func probe(cfg config.Config) int {
	addr := cfg.App.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	c := client.New(client.Config{BaseURL: "http://" + addr, MaxFailures: 1})
	ctx, cancel := context.WithTimeout(context.Background(), patterns.DefaultTimeout)
	defer cancel()

	if err := c.Health(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		return 1
	}
	return 0
}
