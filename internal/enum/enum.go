package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	SaleStatusPending   = "pending"
	SaleStatusConfirmed = "confirmed"
	SaleStatusReviewed  = "reviewed"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

// Directory roles. A NULL role in the technicians table reads as technician.
const (
	StaffRoleTechnician = "technician"
	StaffRolePrep       = "prep"
	StaffRoleSales      = "sales"
)

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
	UserRoleSales   = "SALES"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	ReportViewSale      = "sale"
	ReportViewSignature = "signature"
)

const (
	TopicSales  = "sales"
	TopicLedger = "ledger"
)

const (
	EventSaleCreated          = "sale.created"
	EventSaleConfirmed        = "sale.confirmed"
	EventSaleUpdated          = "sale.updated"
	EventSaleDeleted          = "sale.deleted"
	EventIncentiveTransferred = "incentive.transferred"
	EventIncentiveDeleted     = "incentive.deleted"
	EventIncentiveExtra       = "incentive.extra"
	EventIncentiveRetroactive = "incentive.retroactive"
	EventDayClosed            = "day.closed"
)

func ValidSaleStatus(s string) bool {
	switch s {
	case SaleStatusPending, SaleStatusConfirmed, SaleStatusReviewed:
		return true
	}
	return false
}

func ValidStaffRole(s string) bool {
	switch s {
	case StaffRoleTechnician, StaffRolePrep, StaffRoleSales:
		return true
	}
	return false
}

func ValidUserRole(s string) bool {
	switch s {
	case UserRoleAdmin, UserRoleCashier, UserRoleSales:
		return true
	}
	return false
}
