package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/lock"
	"github.com/carsound-ops/api/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr == nil {
		m.committed = true
	}
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// memLedger is an in-memory stand-in for the three ledger tables. It
// implements SaleStore, AssignmentStore, ReportStore and ClosingStore.
type memLedger struct {
	mu          sync.Mutex
	sales       map[uuid.UUID]database.SaleOperation
	incentives  map[uuid.UUID]database.TechnicianIncentive
	names       map[uuid.UUID][]database.IncentiveTechnician
	technicians []database.Technician
	failCreate  error
}

func newMemLedger() *memLedger {
	return &memLedger{
		sales:      map[uuid.UUID]database.SaleOperation{},
		incentives: map[uuid.UUID]database.TechnicianIncentive{},
		names:      map[uuid.UUID][]database.IncentiveTechnician{},
	}
}

func (m *memLedger) addSale(status string, createdAt time.Time) database.SaleOperation {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := database.SaleOperation{
		ID:          uuid.New(),
		CarType:     "Sedan",
		Details:     "X",
		AmountTotal: 6000,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	m.sales[s.ID] = s
	return s
}

func (m *memLedger) CreateSaleOperation(ctx context.Context, arg database.CreateSaleOperationParams) (database.SaleOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := time.Now()
	if arg.CreatedAt.Valid {
		created = arg.CreatedAt.Time
	}
	s := database.SaleOperation{
		ID:          uuid.New(),
		CarType:     arg.CarType,
		Details:     arg.Details,
		AmountTotal: arg.AmountTotal,
		Salesperson: arg.Salesperson,
		Status:      arg.Status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	m.sales[s.ID] = s
	return s, nil
}

func (m *memLedger) GetSaleOperation(ctx context.Context, id uuid.UUID) (database.SaleOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return database.SaleOperation{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memLedger) GetSaleOperationForUpdate(ctx context.Context, id uuid.UUID) (database.SaleOperation, error) {
	return m.GetSaleOperation(ctx, id)
}

func (m *memLedger) ListSaleOperationsByStatus(ctx context.Context, status string) ([]database.SaleOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []database.SaleOperation{}
	for _, s := range m.sales {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memLedger) UpdateSaleOperationStatus(ctx context.Context, arg database.UpdateSaleOperationStatusParams) (database.SaleOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[arg.ID]
	if !ok || s.Status != arg.FromStatus {
		return database.SaleOperation{}, pgx.ErrNoRows
	}
	s.Status = arg.ToStatus
	m.sales[arg.ID] = s
	return s, nil
}

func (m *memLedger) UpdateSaleOperationDetails(ctx context.Context, arg database.UpdateSaleOperationDetailsParams) (database.SaleOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[arg.ID]
	if !ok || s.Status == "reviewed" {
		return database.SaleOperation{}, pgx.ErrNoRows
	}
	s.CarType, s.Details, s.AmountTotal = arg.CarType, arg.Details, arg.AmountTotal
	m.sales[arg.ID] = s
	return s, nil
}

func (m *memLedger) DeleteUnpaidSaleOperation(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[id]; !ok {
		return 0, nil
	}
	for iid, inc := range m.incentives {
		if inc.SaleID == id {
			if inc.IsPaid {
				return 0, nil
			}
			delete(m.incentives, iid)
			delete(m.names, iid)
		}
	}
	delete(m.sales, id)
	return 1, nil
}

func (m *memLedger) ListReviewedSalesWithoutIncentive(ctx context.Context) ([]database.SaleOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []database.SaleOperation{}
	for _, s := range m.sales {
		if s.Status != "reviewed" {
			continue
		}
		found := false
		for _, inc := range m.incentives {
			if inc.SaleID == s.ID {
				found = true
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memLedger) CreateTechnicianIncentive(ctx context.Context, arg database.CreateTechnicianIncentiveParams) (database.TechnicianIncentive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return database.TechnicianIncentive{}, m.failCreate
	}
	for _, inc := range m.incentives {
		if inc.SaleID == arg.SaleID {
			return database.TechnicianIncentive{}, &pgconn.PgError{Code: "23505", ConstraintName: "technician_incentives_sale_id_key"}
		}
	}
	inc := database.TechnicianIncentive{
		ID:               uuid.New(),
		SaleID:           arg.SaleID,
		IsStandard:       arg.IsStandard,
		AdditionalAmount: arg.AdditionalAmount,
		Amount:           arg.Amount,
		FlatRate:         arg.FlatRate,
		Notes:            arg.Notes,
		CreatedAt:        arg.CreatedAt,
	}
	m.incentives[inc.ID] = inc
	return inc, nil
}

func (m *memLedger) CreateIncentiveTechnician(ctx context.Context, arg database.CreateIncentiveTechnicianParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[arg.IncentiveID] = append(m.names[arg.IncentiveID], database.IncentiveTechnician{
		IncentiveID:    arg.IncentiveID,
		Position:       arg.Position,
		TechnicianName: arg.TechnicianName,
		TechnicianID:   arg.TechnicianID,
	})
	return nil
}

func (m *memLedger) GetTechnicianIncentive(ctx context.Context, id uuid.UUID) (database.TechnicianIncentive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incentives[id]
	if !ok {
		return database.TechnicianIncentive{}, pgx.ErrNoRows
	}
	return inc, nil
}

func (m *memLedger) DeleteUnpaidTechnicianIncentive(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incentives[id]
	if !ok || inc.IsPaid {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.incentives, id)
	delete(m.names, id)
	return inc.SaleID, nil
}

func (m *memLedger) UpdateIncentiveExtra(ctx context.Context, arg database.UpdateIncentiveExtraParams) (database.TechnicianIncentive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incentives[arg.ID]
	if !ok || inc.IsPaid || !inc.IsStandard {
		return database.TechnicianIncentive{}, pgx.ErrNoRows
	}
	inc.AdditionalAmount = arg.AdditionalAmount
	inc.Amount = inc.FlatRate + arg.AdditionalAmount
	m.incentives[arg.ID] = inc
	return inc, nil
}

func (m *memLedger) ListTechnicians(ctx context.Context) ([]database.Technician, error) {
	return m.technicians, nil
}

func (m *memLedger) ledgerRows(keep func(database.TechnicianIncentive, database.SaleOperation) bool) []database.IncentiveLedgerRow {
	out := []database.IncentiveLedgerRow{}
	for _, inc := range m.incentives {
		sale := m.sales[inc.SaleID]
		if !keep(inc, sale) {
			continue
		}
		names := []string{}
		for _, n := range m.names[inc.ID] {
			names = append(names, n.TechnicianName)
		}
		out = append(out, database.IncentiveLedgerRow{
			ID:               inc.ID,
			SaleID:           inc.SaleID,
			IsStandard:       inc.IsStandard,
			AdditionalAmount: inc.AdditionalAmount,
			Amount:           inc.Amount,
			FlatRate:         inc.FlatRate,
			Notes:            inc.Notes,
			IsPaid:           inc.IsPaid,
			CreatedAt:        inc.CreatedAt,
			CarType:          sale.CarType,
			Details:          sale.Details,
			AmountTotal:      sale.AmountTotal,
			SaleStatus:       sale.Status,
			TechnicianNames:  names,
		})
	}
	return out
}

func (m *memLedger) ListUnpaidIncentives(ctx context.Context, arg database.ListUnpaidIncentivesParams) ([]database.IncentiveLedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerRows(func(inc database.TechnicianIncentive, _ database.SaleOperation) bool {
		if inc.IsPaid {
			return false
		}
		if arg.From.Valid && inc.CreatedAt.Before(arg.From.Time) {
			return false
		}
		if arg.To.Valid && !inc.CreatedAt.Before(arg.To.Time) {
			return false
		}
		return true
	}), nil
}

func (m *memLedger) ListIncentivesBySale(ctx context.Context, saleID uuid.UUID) ([]database.IncentiveLedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerRows(func(inc database.TechnicianIncentive, _ database.SaleOperation) bool {
		return inc.SaleID == saleID
	}), nil
}

func (m *memLedger) ListIncentivesWithUnreviewedSale(ctx context.Context) ([]database.IncentiveLedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerRows(func(_ database.TechnicianIncentive, s database.SaleOperation) bool {
		return s.Status != "reviewed"
	}), nil
}

func (m *memLedger) MarkIncentivesPaid(ctx context.Context, arg database.MarkIncentivesPaidParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, inc := range m.incentives {
		if inc.IsPaid || inc.CreatedAt.Before(arg.From) || !inc.CreatedAt.Before(arg.To) {
			continue
		}
		inc.IsPaid = true
		m.incentives[id] = inc
		n++
	}
	return n, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(topic, eventType string, payload interface{}) {
	p.events = append(p.events, topic+":"+eventType)
}

// busyLocker never grants a lease.
type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string, time.Duration) (lock.Lease, error) {
	return nil, lock.ErrNotObtained
}

// recordingNotifier captures closing summaries.
type recordingNotifier struct {
	sent []notify.ClosingSummary
	err  error
}

func (n *recordingNotifier) DayClosed(ctx context.Context, s notify.ClosingSummary) error {
	n.sent = append(n.sent, s)
	return n.err
}

var errStore = errors.New("connection reset")
