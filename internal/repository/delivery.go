package repository

import (
	"context"
	"time"

	"courier/internal/domain"
)

// DeliveryRepository defines the persistence operations for deliveries.
// The store is authoritative: reads return the raw status token untouched so
// the caller can normalize it, and writes carry the canonical wire value.
type DeliveryRepository interface {
	// GetByID retrieves a delivery by ID, stops included for multi-stop
	// deliveries.
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)

	// GetActiveByDriverID retrieves the driver's current non-terminal
	// delivery. Returns ErrNotFound when the driver has none.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Delivery, error)

	// ListByDriverID retrieves a driver's deliveries, newest first.
	ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Delivery, error)

	// UpdateStatus writes a canonical wire status for a delivery.
	UpdateStatus(ctx context.Context, id string, status domain.DeliveryStatus, updatedAt time.Time) error

	// UpdateStopStatus writes a per-stop status for a multi-stop delivery
	// and advances current_stop_index when the stop completes.
	UpdateStopStatus(ctx context.Context, deliveryID string, stopIndex int, status domain.StopStatus) error

	// SubmitProof persists a proof-of-delivery payload.
	SubmitProof(ctx context.Context, proof *domain.ProofOfDelivery) error
}
