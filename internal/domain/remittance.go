package domain

import "time"

// RemittanceStatus is the lifecycle state of a cash remittance batch.
// RemittanceOverdue is never persisted: it is a derived display state
// computed by the ledger while the stored status remains pending.
type RemittanceStatus string

const (
	RemittancePending    RemittanceStatus = "pending"
	RemittanceProcessing RemittanceStatus = "processing"
	RemittanceCompleted  RemittanceStatus = "completed"
	RemittanceFailed     RemittanceStatus = "failed"
	RemittanceOverdue    RemittanceStatus = "overdue"
)

// CashBalance is the per-driver cash position. Invariant: NextRemittanceDue
// is strictly after LastRemittanceDate.
type CashBalance struct {
	DriverID           string
	CurrentBalance     float64
	PendingRemittance  float64
	LastRemittanceDate time.Time
	NextRemittanceDue  time.Time
	UpdatedAt          time.Time
}

// CashRemittance is a batch of collected cash awaiting settlement.
type CashRemittance struct {
	ID             string
	DriverID       string
	Amount         float64
	Status         RemittanceStatus
	TransactionRef string
	FailureReason  string
	EarningIDs     []string // contributing earnings-record ids
	CreatedAt      time.Time
	ProcessedAt    time.Time
	CompletedAt    time.Time
}
