package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courier/internal/domain"
	"courier/internal/ledger"
	"courier/internal/redis"
	"courier/internal/repository"
)

// SettlementGateway is the external collaborator that settles a remittance
// batch. Only it may move a batch out of pending; the ledger's derived
// overdue state never reaches it.
type SettlementGateway interface {
	Settle(ctx context.Context, rem *domain.CashRemittance) (transactionRef string, err error)
}

// MockSettlementGateway is a mock implementation of SettlementGateway.
type MockSettlementGateway struct{}

// NewMockSettlementGateway creates a new mock settlement gateway.
func NewMockSettlementGateway() *MockSettlementGateway {
	return &MockSettlementGateway{}
}

// Settle simulates a settlement. Always succeeds.
func (g *MockSettlementGateway) Settle(ctx context.Context, rem *domain.CashRemittance) (string, error) {
	return "txn-" + rem.ID, nil
}

// RemittanceService handles the driver's cash-remittance flow: balance
// summaries, batch listing with effective statuses, batch creation, and
// settlement processing.
type RemittanceService struct {
	balanceRepo    repository.BalanceRepository
	remittanceRepo repository.RemittanceRepository
	ledger         *ledger.Ledger
	gateway        SettlementGateway
	notifier       *NotificationService
	cache          *redis.CacheStore
	remitWindow    time.Duration
	now            func() time.Time
}

// NewRemittanceService creates a new RemittanceService. remitWindow is the
// period granted until the next remittance after a settlement; cache may be
// nil to read the balance from the store on every call.
func NewRemittanceService(
	balanceRepo repository.BalanceRepository,
	remittanceRepo repository.RemittanceRepository,
	l *ledger.Ledger,
	gateway SettlementGateway,
	notifier *NotificationService,
	cache *redis.CacheStore,
	remitWindow time.Duration,
) *RemittanceService {
	if remitWindow <= 0 {
		remitWindow = 24 * time.Hour
	}
	return &RemittanceService{
		balanceRepo:    balanceRepo,
		remittanceRepo: remittanceRepo,
		ledger:         l,
		gateway:        gateway,
		notifier:       notifier,
		cache:          cache,
		remitWindow:    remitWindow,
		now:            time.Now,
	}
}

// BalanceSummary is the driver's cash position with its derived temporal
// state resolved at a single instant.
type BalanceSummary struct {
	Balance         *domain.CashBalance
	Overdue         bool
	HoursUntilDue   int
	MinutesUntilDue int
}

// GetBalanceSummary loads the driver's balance and derives due state. Safe
// to call on every UI refresh tick: the derivation is pure.
func (s *RemittanceService) GetBalanceSummary(ctx context.Context, driverID string) (*BalanceSummary, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	balance, err := s.loadBalance(ctx, driverID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &BalanceSummary{
		Balance:         balance,
		Overdue:         ledger.IsRemittanceOverdue(balance, now),
		HoursUntilDue:   ledger.HoursUntilDue(balance, now),
		MinutesUntilDue: ledger.MinutesUntilDue(balance, now),
	}

	if summary.Overdue && s.notifier != nil {
		_ = s.notifier.NotifyRemittanceDue(ctx, driverID, balance.PendingRemittance)
	}

	return summary, nil
}

// loadBalance reads the balance through the short-TTL cache. The cached
// slice carries only what the summary derivation needs; any cache fault
// falls back to the store.
func (s *RemittanceService) loadBalance(ctx context.Context, driverID string) (*domain.CashBalance, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBalance(ctx, driverID); err == nil && cached != nil {
			return &domain.CashBalance{
				DriverID:          cached.DriverID,
				CurrentBalance:    cached.CurrentBalance,
				PendingRemittance: cached.PendingRemittance,
				NextRemittanceDue: time.Unix(cached.NextRemittanceDue, 0),
			}, nil
		}
	}

	balance, err := s.balanceRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetBalance(ctx, &redis.CachedBalance{
			DriverID:          balance.DriverID,
			CurrentBalance:    balance.CurrentBalance,
			PendingRemittance: balance.PendingRemittance,
			NextRemittanceDue: balance.NextRemittanceDue.Unix(),
		})
	}
	return balance, nil
}

// RemittanceView pairs a stored batch with its effective display status.
// Effective is derived and informational; only Stored may ever be persisted.
type RemittanceView struct {
	Remittance *domain.CashRemittance
	Effective  domain.RemittanceStatus
}

// ListRemittances returns the driver's batches with effective statuses
// resolved at now.
func (s *RemittanceService) ListRemittances(ctx context.Context, driverID string) ([]RemittanceView, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	remittances, err := s.remittanceRepo.ListByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]RemittanceView, 0, len(remittances))
	for _, rem := range remittances {
		views = append(views, RemittanceView{
			Remittance: rem,
			Effective:  s.ledger.EffectiveStatus(rem, now),
		})
	}
	return views, nil
}

// CreateRemittanceRequest contains the parameters for opening a batch.
type CreateRemittanceRequest struct {
	DriverID   string
	Amount     float64
	EarningIDs []string
}

// CreateRemittance opens a pending batch of collected cash for settlement.
func (s *RemittanceService) CreateRemittance(ctx context.Context, req CreateRemittanceRequest) (*domain.CashRemittance, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	rem := &domain.CashRemittance{
		ID:         uuid.New().String(),
		DriverID:   req.DriverID,
		Amount:     req.Amount,
		Status:     domain.RemittancePending,
		EarningIDs: req.EarningIDs,
		CreatedAt:  s.now(),
	}

	if err := s.remittanceRepo.Create(ctx, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

// ProcessRemittance runs a pending batch through settlement: pending ->
// processing -> completed or failed. Reprocessing a completed batch returns
// it unchanged (idempotent); any other non-pending state is rejected.
func (s *RemittanceService) ProcessRemittance(ctx context.Context, remittanceID string) (*domain.CashRemittance, error) {
	if remittanceID == "" {
		return nil, ErrInvalidRemittanceID
	}

	rem, err := s.remittanceRepo.GetByID(ctx, remittanceID)
	if err != nil {
		return nil, err
	}

	switch rem.Status {
	case domain.RemittanceCompleted:
		return rem, nil
	case domain.RemittancePending:
		// proceed
	default:
		return nil, ErrRemittanceNotSettleable
	}

	now := s.now()
	if err := s.remittanceRepo.MarkProcessing(ctx, rem.ID, now); err != nil {
		return nil, err
	}
	rem.Status = domain.RemittanceProcessing
	rem.ProcessedAt = now

	ref, settleErr := s.gateway.Settle(ctx, rem)
	completedAt := s.now()

	if settleErr != nil {
		if err := s.remittanceRepo.MarkFailed(ctx, rem.ID, settleErr.Error(), completedAt); err != nil {
			return nil, err
		}
		rem.Status = domain.RemittanceFailed
		rem.FailureReason = settleErr.Error()
		rem.CompletedAt = completedAt

		if s.notifier != nil {
			_ = s.notifier.NotifyRemittanceFailed(ctx, rem)
		}
		return rem, nil
	}

	if err := s.remittanceRepo.MarkCompleted(ctx, rem.ID, ref, completedAt); err != nil {
		return nil, err
	}
	rem.Status = domain.RemittanceCompleted
	rem.TransactionRef = ref
	rem.CompletedAt = completedAt

	if err := s.balanceRepo.MarkRemitted(ctx, rem.DriverID, rem.Amount, completedAt, completedAt.Add(s.remitWindow)); err != nil &&
		err != repository.ErrNotFound {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateBalance(ctx, rem.DriverID)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyRemittanceSettled(ctx, rem)
	}
	return rem, nil
}
