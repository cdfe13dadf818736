package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for driver position operations.
type LocationStoreInterface interface {
	UpdatePosition(ctx context.Context, driverID string, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverPosition, error)
	RemovePosition(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for per-delivery transition locks.
type LockStoreInterface interface {
	AcquireDeliveryLock(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
	ReleaseDeliveryLock(ctx context.Context, deliveryID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
