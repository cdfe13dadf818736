package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore holds ephemeral read-mostly copies of store entities. The
// backing store stays authoritative; these entries exist purely to absorb
// UI refresh ticks and expire quickly.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	DeliveryCacheTTL = 10 * time.Second // status changes during a transition round-trip
	BalanceCacheTTL  = 60 * time.Second // balance moves only on collection/settlement
)

// Key prefixes
const (
	deliveryCachePrefix = "cache:delivery:"
	balanceCachePrefix  = "cache:balance:"
)

// CachedDelivery is the read-mostly slice of a delivery record the driver UI
// refreshes on.
type CachedDelivery struct {
	ID          string  `json:"id"`
	DriverID    string  `json:"driver_id"`
	Status      string  `json:"status"`
	TotalPrice  float64 `json:"total_price"`
	IsMultiStop bool    `json:"is_multi_stop"`
	StopIndex   int     `json:"current_stop_index"`
}

// CachedBalance is the read-mostly slice of a driver's cash balance.
type CachedBalance struct {
	DriverID          string  `json:"driver_id"`
	CurrentBalance    float64 `json:"current_balance"`
	PendingRemittance float64 `json:"pending_remittance"`
	NextRemittanceDue int64   `json:"next_remittance_due_unix"`
}

// GetDelivery retrieves a delivery from cache. A cache miss returns nil, nil.
func (s *CacheStore) GetDelivery(ctx context.Context, deliveryID string) (*CachedDelivery, error) {
	data, err := s.client.Get(ctx, deliveryCachePrefix+deliveryID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var d CachedDelivery
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetDelivery stores a delivery in cache.
func (s *CacheStore) SetDelivery(ctx context.Context, d *CachedDelivery) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, deliveryCachePrefix+d.ID, data, DeliveryCacheTTL).Err()
}

// InvalidateDelivery removes a delivery from cache. Called after every
// confirmed transition so stale optimistic state cannot be served.
func (s *CacheStore) InvalidateDelivery(ctx context.Context, deliveryID string) error {
	return s.client.Del(ctx, deliveryCachePrefix+deliveryID).Err()
}

// GetBalance retrieves a driver's balance from cache. A miss returns nil, nil.
func (s *CacheStore) GetBalance(ctx context.Context, driverID string) (*CachedBalance, error) {
	data, err := s.client.Get(ctx, balanceCachePrefix+driverID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var b CachedBalance
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// SetBalance stores a driver's balance in cache.
func (s *CacheStore) SetBalance(ctx context.Context, b *CachedBalance) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, balanceCachePrefix+b.DriverID, data, BalanceCacheTTL).Err()
}

// InvalidateBalance removes a driver's balance from cache.
func (s *CacheStore) InvalidateBalance(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, balanceCachePrefix+driverID).Err()
}
