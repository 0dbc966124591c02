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
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	log "github.com/sirupsen/logrus"
)

const (
	assignLockKey = "incentives:assign"
	assignLockTTL = 15 * time.Second

	defaultRetroDetails = "Manual entry"
)

// Reasons a sale in a transfer request was left untouched.
const (
	SkipNoTechnicians = "no_technicians"
	SkipZeroTotal     = "zero_total"
	SkipNotConfirmed  = "not_confirmed"
	SkipNotFound      = "not_found"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AssignmentStore defines the DB methods needed to write the incentive ledger.
// Satisfied by *database.Queries (and its WithTx variant).
type AssignmentStore interface {
	CreateSaleOperation(ctx context.Context, arg database.CreateSaleOperationParams) (database.SaleOperation, error)
	GetSaleOperationForUpdate(ctx context.Context, id uuid.UUID) (database.SaleOperation, error)
	UpdateSaleOperationStatus(ctx context.Context, arg database.UpdateSaleOperationStatusParams) (database.SaleOperation, error)
	CreateTechnicianIncentive(ctx context.Context, arg database.CreateTechnicianIncentiveParams) (database.TechnicianIncentive, error)
	CreateIncentiveTechnician(ctx context.Context, arg database.CreateIncentiveTechnicianParams) error
	GetTechnicianIncentive(ctx context.Context, id uuid.UUID) (database.TechnicianIncentive, error)
	DeleteUnpaidTechnicianIncentive(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	UpdateIncentiveExtra(ctx context.Context, arg database.UpdateIncentiveExtraParams) (database.TechnicianIncentive, error)
	ListTechnicians(ctx context.Context) ([]database.Technician, error)
}

// NewAssignmentStore creates an AssignmentStore from a DBTX (pool or tx).
type NewAssignmentStore func(db database.DBTX) AssignmentStore

// TransferItem is one sale in a bulk transfer. Standard defaults to true.
type TransferItem struct {
	SaleID      string
	Technicians []string
	Standard    *bool
	Additional  string
	Notes       string
}

type TransferRequest struct {
	Items []TransferItem
}

type TransferredSale struct {
	SaleID      uuid.UUID `json:"sale_id"`
	IncentiveID uuid.UUID `json:"incentive_id"`
	Amount      int64     `json:"amount"`
	Technicians []string  `json:"technicians"`
}

type SkippedSale struct {
	SaleID uuid.UUID `json:"sale_id"`
	Reason string    `json:"reason"`
}

type TransferResult struct {
	Transferred []TransferredSale `json:"transferred"`
	Skipped     []SkippedSale     `json:"skipped"`
}

// RetroactiveRequest records an incentive for a past day. Incentive defaults
// to the flat rate.
type RetroactiveRequest struct {
	Day         string
	CarType     string
	Details     string
	AmountTotal string
	Technicians []string
	Incentive   string
	Notes       string
}

type RetroactiveResult struct {
	Sale      database.SaleOperation       `json:"sale"`
	Incentive database.TechnicianIncentive `json:"incentive"`
}

// AssignmentService writes the incentive ledger. Every ledger write and the
// matching sale status change commit together.
type AssignmentService struct {
	pool     TxBeginner
	newStore NewAssignmentStore
	locker   lock.Locker
	events   EventPublisher
	rates    incentive.Rates
	loc      *time.Location
}

func NewAssignmentService(pool TxBeginner, newStore NewAssignmentStore, locker lock.Locker, events EventPublisher, rates incentive.Rates, loc *time.Location) *AssignmentService {
	if locker == nil {
		locker = lock.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AssignmentService{
		pool:     pool,
		newStore: newStore,
		locker:   locker,
		events:   publisherOrNoop(events),
		rates:    rates,
		loc:      loc,
	}
}

type preparedItem struct {
	saleID     uuid.UUID
	names      []string
	standard   bool
	additional int64
	notes      string
}

// Transfer assigns technicians to a batch of confirmed sales. Sales with no
// technicians, a zero total, or that are no longer confirmed are skipped and
// stay where they are.
func (s *AssignmentService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyTransfer
	}

	items := make([]preparedItem, 0, len(req.Items))
	seen := make(map[uuid.UUID]struct{}, len(req.Items))
	for i, it := range req.Items {
		saleID, err := uuid.Parse(it.SaleID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidSaleID)
		}
		if _, dup := seen[saleID]; dup {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrDuplicateSale)
		}
		seen[saleID] = struct{}{}

		var additional int64
		if strings.TrimSpace(it.Additional) != "" {
			additional, err = incentive.ParseAmount(it.Additional)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, err)
			}
		}
		standard := true
		if it.Standard != nil {
			standard = *it.Standard
		}
		items = append(items, preparedItem{
			saleID:     saleID,
			names:      incentive.SplitNames(it.Technicians),
			standard:   standard,
			additional: additional,
			notes:      strings.TrimSpace(it.Notes),
		})
	}

	lease, err := s.obtain(ctx, assignLockKey)
	if err != nil {
		return nil, err
	}
	defer lease.Release(ctx) //nolint:errcheck

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	directory, err := s.directoryIndex(ctx, store)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{Transferred: []TransferredSale{}, Skipped: []SkippedSale{}}
	for _, it := range items {
		if len(it.names) == 0 {
			result.Skipped = append(result.Skipped, SkippedSale{SaleID: it.saleID, Reason: SkipNoTechnicians})
			continue
		}
		amount := incentive.Amount(s.rates.FlatRate, it.standard, it.additional)
		if amount == 0 {
			result.Skipped = append(result.Skipped, SkippedSale{SaleID: it.saleID, Reason: SkipZeroTotal})
			continue
		}

		sale, err := store.GetSaleOperationForUpdate(ctx, it.saleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				result.Skipped = append(result.Skipped, SkippedSale{SaleID: it.saleID, Reason: SkipNotFound})
				continue
			}
			return nil, fmt.Errorf("lock sale %s: %w", it.saleID, err)
		}
		if sale.Status != enum.SaleStatusConfirmed {
			result.Skipped = append(result.Skipped, SkippedSale{SaleID: it.saleID, Reason: SkipNotConfirmed})
			continue
		}

		inc, err := s.writeIncentive(ctx, store, directory, sale, it, amount)
		if err != nil {
			return nil, err
		}
		if _, err := store.UpdateSaleOperationStatus(ctx, database.UpdateSaleOperationStatusParams{
			ID:         sale.ID,
			FromStatus: enum.SaleStatusConfirmed,
			ToStatus:   enum.SaleStatusReviewed,
		}); err != nil {
			return nil, fmt.Errorf("mark sale %s reviewed: %w", sale.ID, err)
		}

		result.Transferred = append(result.Transferred, TransferredSale{
			SaleID:      sale.ID,
			IncentiveID: inc.ID,
			Amount:      inc.Amount,
			Technicians: it.names,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	log.WithFields(log.Fields{
		"transferred": len(result.Transferred),
		"skipped":     len(result.Skipped),
	}).Info("incentives transferred")
	if len(result.Transferred) > 0 {
		s.events.Publish(enum.TopicLedger, enum.EventIncentiveTransferred, result)
	}
	return result, nil
}

func (s *AssignmentService) writeIncentive(ctx context.Context, store AssignmentStore, directory map[string]uuid.UUID, sale database.SaleOperation, it preparedItem, amount int64) (database.TechnicianIncentive, error) {
	notes := pgtype.Text{}
	if it.notes != "" {
		notes = pgtype.Text{String: it.notes, Valid: true}
	}

	inc, err := store.CreateTechnicianIncentive(ctx, database.CreateTechnicianIncentiveParams{
		SaleID:           sale.ID,
		IsStandard:       it.standard,
		AdditionalAmount: it.additional,
		Amount:           amount,
		FlatRate:         s.rates.FlatRate,
		Notes:            notes,
		CreatedAt:        sale.CreatedAt,
	})
	if err != nil {
		if isSaleIncentiveConflict(err) {
			return database.TechnicianIncentive{}, fmt.Errorf("sale %s: %w", sale.ID, ErrAlreadyAssigned)
		}
		return database.TechnicianIncentive{}, fmt.Errorf("create incentive: %w", err)
	}

	for pos, name := range it.names {
		techID := pgtype.UUID{}
		if id, ok := directory[strings.ToLower(name)]; ok {
			techID = pgtype.UUID{Bytes: id, Valid: true}
		}
		if err := store.CreateIncentiveTechnician(ctx, database.CreateIncentiveTechnicianParams{
			IncentiveID:    inc.ID,
			Position:       int32(pos),
			TechnicianName: name,
			TechnicianID:   techID,
		}); err != nil {
			return database.TechnicianIncentive{}, fmt.Errorf("add technician %q: %w", name, err)
		}
	}
	return inc, nil
}

// DeleteIncentive rolls an assignment back: the ledger row goes and the sale
// returns to confirmed so it can be assigned again.
func (s *AssignmentService) DeleteIncentive(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	inc, err := store.GetTechnicianIncentive(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrIncentiveNotFound
		}
		return fmt.Errorf("get incentive: %w", err)
	}
	if inc.IsPaid {
		return ErrAlreadyPaid
	}

	saleID, err := store.DeleteUnpaidTechnicianIncentive(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyPaid
		}
		return fmt.Errorf("delete incentive: %w", err)
	}

	if _, err := store.UpdateSaleOperationStatus(ctx, database.UpdateSaleOperationStatusParams{
		ID:         saleID,
		FromStatus: enum.SaleStatusReviewed,
		ToStatus:   enum.SaleStatusConfirmed,
	}); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("revert sale %s: %w", saleID, err)
		}
		log.WithFields(log.Fields{"incentive_id": id, "sale_id": saleID}).
			Warn("deleted incentive whose sale was not reviewed")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	log.WithFields(log.Fields{"incentive_id": id, "sale_id": saleID}).Info("incentive deleted")
	s.events.Publish(enum.TopicLedger, enum.EventIncentiveDeleted, map[string]string{
		"id":      id.String(),
		"sale_id": saleID.String(),
	})
	return nil
}

// AddExtra puts an additional amount on top of a flat-rate incentive.
func (s *AssignmentService) AddExtra(ctx context.Context, id uuid.UUID, extra string) (database.TechnicianIncentive, error) {
	amount, err := incentive.ParseAmount(extra)
	if err != nil || amount <= 0 {
		return database.TechnicianIncentive{}, ErrInvalidExtra
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.TechnicianIncentive{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	inc, err := store.GetTechnicianIncentive(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.TechnicianIncentive{}, ErrIncentiveNotFound
		}
		return database.TechnicianIncentive{}, fmt.Errorf("get incentive: %w", err)
	}
	if inc.IsPaid {
		return database.TechnicianIncentive{}, ErrAlreadyPaid
	}
	if !inc.IsStandard {
		return database.TechnicianIncentive{}, ErrNotStandard
	}

	updated, err := store.UpdateIncentiveExtra(ctx, database.UpdateIncentiveExtraParams{
		ID:               id,
		AdditionalAmount: amount,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.TechnicianIncentive{}, ErrAlreadyPaid
		}
		return database.TechnicianIncentive{}, fmt.Errorf("update extra: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.TechnicianIncentive{}, fmt.Errorf("commit tx: %w", err)
	}

	s.events.Publish(enum.TopicLedger, enum.EventIncentiveExtra, updated)
	return updated, nil
}

// CreateRetroactive writes a reviewed sale and its incentive stamped at noon
// of a past business day.
func (s *AssignmentService) CreateRetroactive(ctx context.Context, req RetroactiveRequest) (*RetroactiveResult, error) {
	if strings.TrimSpace(req.Day) == "" {
		return nil, ErrDayRequired
	}
	stamp, err := incentive.NoonOf(strings.TrimSpace(req.Day), s.loc)
	if err != nil {
		return nil, err
	}
	carType := strings.TrimSpace(req.CarType)
	if carType == "" {
		return nil, ErrCarTypeRequired
	}
	total, err := incentive.ParseAmount(req.AmountTotal)
	if err != nil || total <= 0 {
		return nil, ErrInvalidTotal
	}
	names := incentive.SplitNames(req.Technicians)
	if len(names) == 0 {
		return nil, ErrNoTechnicians
	}
	amount := s.rates.FlatRate
	if strings.TrimSpace(req.Incentive) != "" {
		amount, err = incentive.ParseAmount(req.Incentive)
		if err != nil || amount <= 0 {
			return nil, ErrInvalidIncentive
		}
	}
	standard, additional := incentive.SplitRetroactive(s.rates.FlatRate, amount)

	details := strings.TrimSpace(req.Details)
	if details == "" {
		details = defaultRetroDetails
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	directory, err := s.directoryIndex(ctx, store)
	if err != nil {
		return nil, err
	}

	sale, err := store.CreateSaleOperation(ctx, database.CreateSaleOperationParams{
		CarType:     carType,
		Details:     details,
		AmountTotal: total,
		Status:      enum.SaleStatusReviewed,
		CreatedAt:   pgtype.Timestamptz{Time: stamp, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create retroactive sale: %w", err)
	}

	inc, err := s.writeIncentive(ctx, store, directory, sale, preparedItem{
		saleID:     sale.ID,
		names:      names,
		standard:   standard,
		additional: additional,
		notes:      strings.TrimSpace(req.Notes),
	}, amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	log.WithFields(log.Fields{"sale_id": sale.ID, "day": req.Day, "amount": amount}).Info("retroactive incentive recorded")
	result := &RetroactiveResult{Sale: sale, Incentive: inc}
	s.events.Publish(enum.TopicLedger, enum.EventIncentiveRetroactive, result)
	return result, nil
}

func (s *AssignmentService) obtain(ctx context.Context, key string) (lock.Lease, error) {
	lease, err := s.locker.Obtain(ctx, key, assignLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return nil, ErrBusy
		}
		return nil, err
	}
	return lease, nil
}

// directoryIndex maps lower-cased directory names to technician ids.
func (s *AssignmentService) directoryIndex(ctx context.Context, store AssignmentStore) (map[string]uuid.UUID, error) {
	techs, err := store.ListTechnicians(ctx)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	index := make(map[string]uuid.UUID, len(techs))
	for _, t := range techs {
		index[strings.ToLower(strings.TrimSpace(t.Name))] = t.ID
	}
	return index, nil
}
