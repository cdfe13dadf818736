package repository

import (
	"context"
	"time"

	"courier/internal/domain"
)

// BalanceRepository defines the persistence operations for per-driver cash
// balances.
type BalanceRepository interface {
	// GetByDriverID retrieves the driver's cash balance.
	GetByDriverID(ctx context.Context, driverID string) (*domain.CashBalance, error)

	// ApplyCashCollection adds a collected cash amount to the driver's
	// balance and pending remittance.
	ApplyCashCollection(ctx context.Context, driverID string, amount float64, at time.Time) error

	// MarkRemitted records a settled remittance: clears the remitted amount
	// and advances the remittance window.
	MarkRemitted(ctx context.Context, driverID string, amount float64, at, nextDue time.Time) error
}

// RemittanceRepository defines the persistence operations for cash
// remittance batches. Only stored statuses are ever written; derived display
// states never reach this layer.
type RemittanceRepository interface {
	// Create persists a new remittance batch.
	Create(ctx context.Context, rem *domain.CashRemittance) error

	// GetByID retrieves a remittance batch by ID.
	GetByID(ctx context.Context, id string) (*domain.CashRemittance, error)

	// ListByDriverID retrieves a driver's remittance batches, newest first.
	ListByDriverID(ctx context.Context, driverID string) ([]*domain.CashRemittance, error)

	// MarkProcessing moves a pending batch to processing.
	MarkProcessing(ctx context.Context, id string, at time.Time) error

	// MarkCompleted records a successful settlement with its transaction
	// reference.
	MarkCompleted(ctx context.Context, id, transactionRef string, at time.Time) error

	// MarkFailed records a failed settlement with its reason.
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
}
