// Package cli implements opsctl, the back-office command line for the
// incentive ledger.
package cli

import (
	"context"
	"fmt"

	"github.com/carsound-ops/api/internal/config"
	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/lock"
	"github.com/carsound-ops/api/internal/notify"
	"github.com/carsound-ops/api/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// app holds the services a command needs. It is built per invocation.
type app struct {
	cfg     *config.Config
	reports *service.ReportService
	payouts *service.PayoutService
	closing *service.ClosingService
}

// withApp loads config, connects to the database and runs fn. Commands that
// need no database do not call it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.SetupLogging(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var locker lock.Locker = lock.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "carsound:")
	}
	var notifier notify.Notifier = notify.Noop{}
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notifier = notify.NewSlack(cfg.SlackBotToken, cfg.SlackChannel)
	}

	rates := incentive.Rates{
		FlatRate:           cfg.FlatRate,
		PerCarRate:         cfg.PerCarRate,
		DefaultSupervisors: cfg.DefaultSupervisors,
	}
	queries := database.New(pool)
	reports := service.NewReportService(queries, cfg.BusinessTZ)

	a := &app{
		cfg:     cfg,
		reports: reports,
		payouts: service.NewPayoutService(reports, queries, rates),
		closing: service.NewClosingService(
			pool,
			func(db database.DBTX) service.ClosingStore {
				return database.New(db)
			},
			locker,
			notifier,
			nil,
			cfg.BusinessTZ,
		),
	}
	return fn(ctx, a)
}
