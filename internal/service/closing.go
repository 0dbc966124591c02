package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/lock"
	"github.com/carsound-ops/api/internal/notify"
	"github.com/jackc/pgx/v5/pgtype"
	log "github.com/sirupsen/logrus"
)

const (
	closeLockPrefix = "incentives:close:"
	closeLockTTL    = 30 * time.Second
)

// ClosingStore defines the DB methods needed to close a day.
// Satisfied by *database.Queries (and its WithTx variant).
type ClosingStore interface {
	ListUnpaidIncentives(ctx context.Context, arg database.ListUnpaidIncentivesParams) ([]database.IncentiveLedgerRow, error)
	MarkIncentivesPaid(ctx context.Context, arg database.MarkIncentivesPaidParams) (int64, error)
}

type NewClosingStore func(db database.DBTX) ClosingStore

type ClosingResult struct {
	Day        string           `json:"day"`
	RowsClosed int64            `json:"rows_closed"`
	Totals     incentive.Totals `json:"totals"`
}

// ClosingService marks a day's incentives paid. Closing is irreversible and
// closing an already closed day is a no-op.
type ClosingService struct {
	pool     TxBeginner
	newStore NewClosingStore
	locker   lock.Locker
	notifier notify.Notifier
	events   EventPublisher
	loc      *time.Location
}

func NewClosingService(pool TxBeginner, newStore NewClosingStore, locker lock.Locker, notifier notify.Notifier, events EventPublisher, loc *time.Location) *ClosingService {
	if locker == nil {
		locker = lock.Noop{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ClosingService{
		pool:     pool,
		newStore: newStore,
		locker:   locker,
		notifier: notifier,
		events:   publisherOrNoop(events),
		loc:      loc,
	}
}

func (s *ClosingService) Close(ctx context.Context, day, closedBy string) (*ClosingResult, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return nil, ErrDayRequired
	}
	from, to, err := incentive.DayBounds(day, s.loc)
	if err != nil {
		return nil, err
	}

	lease, err := s.locker.Obtain(ctx, closeLockPrefix+day, closeLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return nil, ErrBusy
		}
		return nil, err
	}
	defer lease.Release(ctx) //nolint:errcheck

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.ListUnpaidIncentives(ctx, database.ListUnpaidIncentivesParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list unpaid incentives: %w", err)
	}
	totals := incentive.ComputeTotals(entriesFromRows(rows))

	n, err := store.MarkIncentivesPaid(ctx, database.MarkIncentivesPaidParams{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("mark incentives paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	result := &ClosingResult{Day: day, RowsClosed: n, Totals: totals}
	if n == 0 {
		log.WithField("day", day).Info("day already closed")
		return result, nil
	}

	log.WithFields(log.Fields{"day": day, "count": n, "grand_total": totals.GrandTotal}).Info("day closed")
	if err := s.notifier.DayClosed(ctx, notify.ClosingSummary{
		Day:        day,
		RowsClosed: n,
		GrandTotal: totals.GrandTotal,
		ClosedBy:   closedBy,
	}); err != nil {
		log.WithError(err).WithField("day", day).Warn("closing notification failed")
	}
	s.events.Publish(enum.TopicLedger, enum.EventDayClosed, result)
	return result, nil
}
