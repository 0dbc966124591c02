package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carsound-ops/api/internal/config"
	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/carsound-ops/api/internal/lock"
	"github.com/carsound-ops/api/internal/notify"
	"github.com/carsound-ops/api/internal/router"
	"github.com/carsound-ops/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	config.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	var locker lock.Locker = lock.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable, locks disabled")
		} else {
			locker = lock.NewRedisLocker(rdb, "carsound:")
			log.WithField("addr", cfg.RedisAddr).Info("redis locks enabled")
		}
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notifier = notify.NewSlack(cfg.SlackBotToken, cfg.SlackChannel)
		log.WithField("channel", cfg.SlackChannel).Info("slack closing notifications enabled")
	}

	hub := ws.NewHub(enum.TopicSales, enum.TopicLedger)
	hub.Restrict(enum.TopicLedger, enum.UserRoleAdmin)
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, database.New(pool), pool, hub, locker, notifier),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
