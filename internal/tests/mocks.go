package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"courier/internal/domain"
	"courier/internal/redis"
	"courier/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DELIVERY REPOSITORY
// ──────────────────────────────────────────────

// MockDeliveryRepository is a mock implementation of DeliveryRepository.
type MockDeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]*domain.Delivery
	proofs     []*domain.ProofOfDelivery

	// Counters for verification
	GetByIDCallCount      int32
	UpdateStatusCallCount int32
	SubmitProofCallCount  int32

	// Error injection. *ErrorTimes limits how many calls fail before the
	// injected error clears; 0 means every call fails.
	GetByIDError           error
	GetByIDErrorTimes      int32
	UpdateStatusError      error
	UpdateStatusErrorTimes int32
	SubmitProofError       error
}

// NewMockDeliveryRepository creates a new mock delivery repository.
func NewMockDeliveryRepository() *MockDeliveryRepository {
	return &MockDeliveryRepository{
		deliveries: make(map[string]*domain.Delivery),
	}
}

// AddDelivery adds a delivery to the mock repository.
func (m *MockDeliveryRepository) AddDelivery(delivery *domain.Delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[delivery.ID] = delivery
}

// takeError consumes one injected failure. A zero times value means the
// error persists for every call; a positive value fails that many calls and
// then clears.
func (m *MockDeliveryRepository) takeError(errp *error, times *int32) error {
	err := *errp
	if err == nil {
		return nil
	}
	if *times > 0 {
		*times--
		if *times == 0 {
			*errp = nil
		}
	}
	return err
}

func (m *MockDeliveryRepository) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if err := m.takeError(&m.GetByIDError, &m.GetByIDErrorTimes); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	delivery, ok := m.deliveries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *delivery
	return &copy, nil
}

func (m *MockDeliveryRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.deliveries {
		if d.DriverID == driverID && !d.Status.IsTerminal() {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDeliveryRepository) ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Delivery
	for _, d := range m.deliveries {
		if d.DriverID == driverID {
			copy := *d
			out = append(out, &copy)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockDeliveryRepository) UpdateStatus(ctx context.Context, id string, status domain.DeliveryStatus, updatedAt time.Time) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if err := m.takeError(&m.UpdateStatusError, &m.UpdateStatusErrorTimes); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delivery, ok := m.deliveries[id]
	if !ok {
		return repository.ErrNotFound
	}
	delivery.RawStatus = string(status)
	delivery.Status = status
	delivery.UpdatedAt = updatedAt
	return nil
}

func (m *MockDeliveryRepository) UpdateStopStatus(ctx context.Context, deliveryID string, stopIndex int, status domain.StopStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delivery, ok := m.deliveries[deliveryID]
	if !ok {
		return repository.ErrNotFound
	}
	if stopIndex < 0 || stopIndex >= len(delivery.Stops) {
		return repository.ErrNotFound
	}
	delivery.Stops[stopIndex].Status = status
	if status == domain.StopStatusCompleted && stopIndex == delivery.CurrentStopIndex {
		delivery.CurrentStopIndex++
	}
	return nil
}

func (m *MockDeliveryRepository) SubmitProof(ctx context.Context, proof *domain.ProofOfDelivery) error {
	atomic.AddInt32(&m.SubmitProofCallCount, 1)
	if m.SubmitProofError != nil {
		return m.SubmitProofError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proofs = append(m.proofs, proof)
	return nil
}

// Proofs returns all submitted proofs.
func (m *MockDeliveryRepository) Proofs() []*domain.ProofOfDelivery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.ProofOfDelivery(nil), m.proofs...)
}

// ──────────────────────────────────────────────
// MOCK BALANCE REPOSITORY
// ──────────────────────────────────────────────

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[string]*domain.CashBalance

	ApplyCashCollectionCallCount int32
	MarkRemittedCallCount        int32

	GetError          error
	MarkRemittedError error
}

// NewMockBalanceRepository creates a new mock balance repository.
func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[string]*domain.CashBalance),
	}
}

// AddBalance adds a balance to the mock repository.
func (m *MockBalanceRepository) AddBalance(balance *domain.CashBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balance.DriverID] = balance
}

func (m *MockBalanceRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.CashBalance, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance, ok := m.balances[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *balance
	return &copy, nil
}

func (m *MockBalanceRepository) ApplyCashCollection(ctx context.Context, driverID string, amount float64, at time.Time) error {
	atomic.AddInt32(&m.ApplyCashCollectionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[driverID]
	if !ok {
		balance = &domain.CashBalance{DriverID: driverID, NextRemittanceDue: at.Add(24 * time.Hour)}
		m.balances[driverID] = balance
	}
	balance.CurrentBalance += amount
	balance.PendingRemittance += amount
	balance.UpdatedAt = at
	return nil
}

func (m *MockBalanceRepository) MarkRemitted(ctx context.Context, driverID string, amount float64, at, nextDue time.Time) error {
	atomic.AddInt32(&m.MarkRemittedCallCount, 1)
	if m.MarkRemittedError != nil {
		return m.MarkRemittedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[driverID]
	if !ok {
		return repository.ErrNotFound
	}
	balance.PendingRemittance -= amount
	if balance.PendingRemittance < 0 {
		balance.PendingRemittance = 0
	}
	balance.LastRemittanceDate = at
	balance.NextRemittanceDue = nextDue
	balance.UpdatedAt = at
	return nil
}

// ──────────────────────────────────────────────
// MOCK REMITTANCE REPOSITORY
// ──────────────────────────────────────────────

// MockRemittanceRepository is a mock implementation of RemittanceRepository.
type MockRemittanceRepository struct {
	mu          sync.RWMutex
	remittances map[string]*domain.CashRemittance

	CreateCallCount         int32
	MarkProcessingCallCount int32
	MarkCompletedCallCount  int32
	MarkFailedCallCount     int32

	CreateError         error
	MarkProcessingError error
}

// NewMockRemittanceRepository creates a new mock remittance repository.
func NewMockRemittanceRepository() *MockRemittanceRepository {
	return &MockRemittanceRepository{
		remittances: make(map[string]*domain.CashRemittance),
	}
}

// AddRemittance adds a remittance to the mock repository.
func (m *MockRemittanceRepository) AddRemittance(rem *domain.CashRemittance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remittances[rem.ID] = rem
}

func (m *MockRemittanceRepository) Create(ctx context.Context, rem *domain.CashRemittance) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remittances[rem.ID] = rem
	return nil
}

func (m *MockRemittanceRepository) GetByID(ctx context.Context, id string) (*domain.CashRemittance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rem, ok := m.remittances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rem
	return &copy, nil
}

func (m *MockRemittanceRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.CashRemittance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CashRemittance
	for _, rem := range m.remittances {
		if rem.DriverID == driverID {
			copy := *rem
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *MockRemittanceRepository) MarkProcessing(ctx context.Context, id string, at time.Time) error {
	atomic.AddInt32(&m.MarkProcessingCallCount, 1)
	if m.MarkProcessingError != nil {
		return m.MarkProcessingError
	}
	return m.setStatus(id, domain.RemittanceProcessing, func(rem *domain.CashRemittance) {
		rem.ProcessedAt = at
	})
}

func (m *MockRemittanceRepository) MarkCompleted(ctx context.Context, id, transactionRef string, at time.Time) error {
	atomic.AddInt32(&m.MarkCompletedCallCount, 1)
	return m.setStatus(id, domain.RemittanceCompleted, func(rem *domain.CashRemittance) {
		rem.TransactionRef = transactionRef
		rem.CompletedAt = at
	})
}

func (m *MockRemittanceRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	atomic.AddInt32(&m.MarkFailedCallCount, 1)
	return m.setStatus(id, domain.RemittanceFailed, func(rem *domain.CashRemittance) {
		rem.FailureReason = reason
		rem.CompletedAt = at
	})
}

func (m *MockRemittanceRepository) setStatus(id string, status domain.RemittanceStatus, apply func(*domain.CashRemittance)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.remittances[id]
	if !ok {
		return repository.ErrNotFound
	}
	rem.Status = status
	apply(rem)
	return nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	CreateCallCount       int32
	UpdateStatusCallCount int32

	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	positions map[string][2]float64

	UpdatePositionCallCount int32

	UpdatePositionError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		positions: make(map[string][2]float64),
	}
}

func (m *MockLocationStore) UpdatePosition(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdatePositionCallCount, 1)
	if m.UpdatePositionError != nil {
		return m.UpdatePositionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[driverID] = [2]float64{lat, lng}
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverPosition, error) {
	return nil, nil
}

func (m *MockLocationStore) RemovePosition(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, driverID)
	return nil
}

// Position returns the stored position for a driver.
func (m *MockLocationStore) Position(driverID string) ([2]float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[driverID]
	return pos, ok
}

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireCallCount int32

	AcquireError error
	// HeldByOther simulates another process holding every lock.
	HeldByOther bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireDeliveryLock(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.HeldByOther {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[deliveryID] {
		return false, nil
	}
	m.locks[deliveryID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseDeliveryLock(ctx context.Context, deliveryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, deliveryID)
	return nil
}
