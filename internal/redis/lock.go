package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. Transition locks enforce
// the single-writer discipline per delivery id: while one transition is in
// flight no second request for the same delivery may be issued, and locking
// per id keeps unrelated deliveries from serializing each other.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireDeliveryLock attempts to acquire the transition lock for a delivery.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDeliveryLock(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:delivery:%s", deliveryID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseDeliveryLock releases the transition lock for a delivery.
func (s *LockStore) ReleaseDeliveryLock(ctx context.Context, deliveryID string) error {
	key := fmt.Sprintf("lock:delivery:%s", deliveryID)

	return s.client.Del(ctx, key).Err()
}
