package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	log "github.com/sirupsen/logrus"
)

// SaleStore defines the DB methods needed for intake and confirmation.
// Satisfied by *database.Queries.
type SaleStore interface {
	CreateSaleOperation(ctx context.Context, arg database.CreateSaleOperationParams) (database.SaleOperation, error)
	GetSaleOperation(ctx context.Context, id uuid.UUID) (database.SaleOperation, error)
	ListSaleOperationsByStatus(ctx context.Context, status string) ([]database.SaleOperation, error)
	UpdateSaleOperationStatus(ctx context.Context, arg database.UpdateSaleOperationStatusParams) (database.SaleOperation, error)
	UpdateSaleOperationDetails(ctx context.Context, arg database.UpdateSaleOperationDetailsParams) (database.SaleOperation, error)
	DeleteUnpaidSaleOperation(ctx context.Context, id uuid.UUID) (int64, error)
}

// CreateSaleRequest is the raw intake input. AmountTotal is a whole number string.
type CreateSaleRequest struct {
	CarType     string
	Details     string
	AmountTotal string
	Salesperson string
}

type UpdateSaleRequest struct {
	CarType     string
	Details     string
	AmountTotal string
}

// SalesService runs a sale through intake and the confirmation gate.
type SalesService struct {
	store  SaleStore
	events EventPublisher
}

func NewSalesService(store SaleStore, events EventPublisher) *SalesService {
	return &SalesService{store: store, events: publisherOrNoop(events)}
}

// Create records a new sale in pending.
func (s *SalesService) Create(ctx context.Context, req CreateSaleRequest) (database.SaleOperation, error) {
	carType, details, total, err := validateSaleFields(req.CarType, req.Details, req.AmountTotal)
	if err != nil {
		return database.SaleOperation{}, err
	}

	sale, err := s.store.CreateSaleOperation(ctx, database.CreateSaleOperationParams{
		CarType:     carType,
		Details:     details,
		AmountTotal: total,
		Salesperson: strings.TrimSpace(req.Salesperson),
		Status:      enum.SaleStatusPending,
		CreatedAt:   pgtype.Timestamptz{},
	})
	if err != nil {
		return database.SaleOperation{}, fmt.Errorf("create sale: %w", err)
	}

	log.WithFields(log.Fields{"sale_id": sale.ID, "amount_total": sale.AmountTotal}).Info("sale recorded")
	s.events.Publish(enum.TopicSales, enum.EventSaleCreated, sale)
	return sale, nil
}

// List returns the sales in one status, newest first.
func (s *SalesService) List(ctx context.Context, status string) ([]database.SaleOperation, error) {
	if !enum.ValidSaleStatus(status) {
		return nil, ErrInvalidStatus
	}
	sales, err := s.store.ListSaleOperationsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// Confirm moves a pending sale to confirmed once the cash has been received.
func (s *SalesService) Confirm(ctx context.Context, id uuid.UUID) (database.SaleOperation, error) {
	sale, err := s.store.UpdateSaleOperationStatus(ctx, database.UpdateSaleOperationStatusParams{
		ID:         id,
		FromStatus: enum.SaleStatusPending,
		ToStatus:   enum.SaleStatusConfirmed,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.SaleOperation{}, s.explainMiss(ctx, id)
		}
		return database.SaleOperation{}, fmt.Errorf("confirm sale: %w", err)
	}

	log.WithField("sale_id", sale.ID).Info("sale confirmed")
	s.events.Publish(enum.TopicSales, enum.EventSaleConfirmed, sale)
	return sale, nil
}

// Update edits a sale that has not been assigned yet.
func (s *SalesService) Update(ctx context.Context, id uuid.UUID, req UpdateSaleRequest) (database.SaleOperation, error) {
	carType, details, total, err := validateSaleFields(req.CarType, req.Details, req.AmountTotal)
	if err != nil {
		return database.SaleOperation{}, err
	}

	sale, err := s.store.UpdateSaleOperationDetails(ctx, database.UpdateSaleOperationDetailsParams{
		ID:          id,
		CarType:     carType,
		Details:     details,
		AmountTotal: total,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.SaleOperation{}, s.explainMiss(ctx, id)
		}
		return database.SaleOperation{}, fmt.Errorf("update sale: %w", err)
	}

	s.events.Publish(enum.TopicSales, enum.EventSaleUpdated, sale)
	return sale, nil
}

// Delete removes a sale and its unpaid incentive. Paid history is kept.
func (s *SalesService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.store.DeleteUnpaidSaleOperation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if n == 0 {
		if _, err := s.store.GetSaleOperation(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSaleNotFound
			}
			return fmt.Errorf("get sale: %w", err)
		}
		return ErrAlreadyPaid
	}

	log.WithField("sale_id", id).Warn("sale deleted")
	s.events.Publish(enum.TopicSales, enum.EventSaleDeleted, map[string]string{"id": id.String()})
	return nil
}

// explainMiss turns a conditional update that matched nothing into either
// not-found or a rejected transition.
func (s *SalesService) explainMiss(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetSaleOperation(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSaleNotFound
		}
		return fmt.Errorf("get sale: %w", err)
	}
	return ErrInvalidTransition
}

func validateSaleFields(carType, details, amountTotal string) (string, string, int64, error) {
	carType = strings.TrimSpace(carType)
	if carType == "" {
		return "", "", 0, ErrCarTypeRequired
	}
	total, err := incentive.ParseAmount(amountTotal)
	if err != nil || total <= 0 {
		return "", "", 0, ErrInvalidTotal
	}
	return carType, strings.TrimSpace(details), total, nil
}
