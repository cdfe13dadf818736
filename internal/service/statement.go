package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courier/internal/domain"
	"courier/internal/ledger"
	"courier/internal/repository"
	"courier/internal/status"
)

// EarningsStatement is the driver's payout breakdown for one completed
// delivery.
type EarningsStatement struct {
	ID             string
	DeliveryID     string
	DriverID       string
	TotalPrice     float64
	CommissionRate float64
	// RateFromFallback marks a statement computed with the configured
	// fallback rate because the live rate lookup was unavailable.
	RateFromFallback bool
	DriverEarnings   float64
	PaymentMethod    domain.PaymentMethod
	CashCollected    bool
	CreatedAt        time.Time
}

// StatementService generates earnings statements for completed deliveries
// and feeds cash collections into the remittance balance.
type StatementService struct {
	ledger      *ledger.Ledger
	balanceRepo repository.BalanceRepository
	notifier    *NotificationService
	vehicles    repository.DriverRepository
}

// NewStatementService creates a new StatementService.
func NewStatementService(
	l *ledger.Ledger,
	balanceRepo repository.BalanceRepository,
	driverRepo repository.DriverRepository,
	notifier *NotificationService,
) *StatementService {
	return &StatementService{
		ledger:      l,
		balanceRepo: balanceRepo,
		vehicles:    driverRepo,
		notifier:    notifier,
	}
}

// GenerateStatement computes the driver payout for a delivered delivery.
// Cash deliveries also add the collected amount to the driver's balance and
// pending remittance.
func (s *StatementService) GenerateStatement(ctx context.Context, delivery *domain.Delivery) (*EarningsStatement, error) {
	if delivery == nil || delivery.ID == "" {
		return nil, ErrInvalidDeliveryID
	}
	if delivery.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	current, _ := status.Normalize(delivery.RawStatus)
	if current != domain.StatusDelivered {
		return nil, ErrDeliveryTerminal
	}

	rc := ledger.RateContext{
		DriverID:    delivery.DriverID,
		CompletedAt: delivery.CompletedAt,
	}
	if s.vehicles != nil {
		if driver, err := s.vehicles.GetByID(ctx, delivery.DriverID); err == nil {
			rc.Vehicle = driver.Vehicle
		}
	}

	earnings := s.ledger.EarningsFor(ctx, delivery.TotalPrice, rc)

	statement := &EarningsStatement{
		ID:               uuid.New().String(),
		DeliveryID:       delivery.ID,
		DriverID:         delivery.DriverID,
		TotalPrice:       delivery.TotalPrice,
		CommissionRate:   earnings.Rate,
		RateFromFallback: earnings.FromFallback,
		DriverEarnings:   earnings.Amount,
		PaymentMethod:    delivery.PaymentMethod,
		CreatedAt:        time.Now(),
	}

	if delivery.PaymentMethod.RequiresRemittance() && s.balanceRepo != nil {
		if err := s.balanceRepo.ApplyCashCollection(ctx, delivery.DriverID, delivery.TotalPrice, statement.CreatedAt); err != nil {
			return nil, err
		}
		statement.CashCollected = true
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyStatementReady(ctx, statement)
	}

	return statement, nil
}
