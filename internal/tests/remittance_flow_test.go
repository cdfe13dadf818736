package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"courier/internal/domain"
	"courier/internal/ledger"
	"courier/internal/service"
)

// failingGateway simulates a settlement rail rejection.
type failingGateway struct{}

func (failingGateway) Settle(ctx context.Context, rem *domain.CashRemittance) (string, error) {
	return "", errors.New("settlement rail rejected the batch")
}

func newRemittanceService(
	balanceRepo *MockBalanceRepository,
	remittanceRepo *MockRemittanceRepository,
	gateway service.SettlementGateway,
) *service.RemittanceService {
	l := ledger.New(24*time.Hour, nil, 0.16)
	return service.NewRemittanceService(
		balanceRepo,
		remittanceRepo,
		l,
		gateway,
		service.NewNotificationService(),
		nil,
		24*time.Hour,
	)
}

func TestGetBalanceSummaryOverdue(t *testing.T) {
	balanceRepo := NewMockBalanceRepository()
	balanceRepo.AddBalance(&domain.CashBalance{
		DriverID:          "driver-1",
		CurrentBalance:    1500,
		PendingRemittance: 1500,
		NextRemittanceDue: time.Now().Add(-time.Hour),
	})

	svc := newRemittanceService(balanceRepo, NewMockRemittanceRepository(), service.NewMockSettlementGateway())

	summary, err := svc.GetBalanceSummary(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("GetBalanceSummary failed: %v", err)
	}
	if !summary.Overdue {
		t.Error("expected overdue an hour past the deadline")
	}
	if summary.HoursUntilDue != 0 || summary.MinutesUntilDue != 0 {
		t.Errorf("expected countdown clamped to zero, got %dh %dm", summary.HoursUntilDue, summary.MinutesUntilDue)
	}
}

func TestGetBalanceSummaryCountdownFloors(t *testing.T) {
	balanceRepo := NewMockBalanceRepository()
	balanceRepo.AddBalance(&domain.CashBalance{
		DriverID:          "driver-1",
		NextRemittanceDue: time.Now().Add(2*time.Hour + 45*time.Minute),
	})

	svc := newRemittanceService(balanceRepo, NewMockRemittanceRepository(), service.NewMockSettlementGateway())

	summary, err := svc.GetBalanceSummary(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("GetBalanceSummary failed: %v", err)
	}
	if summary.Overdue {
		t.Error("expected not overdue before the deadline")
	}
	if summary.HoursUntilDue != 2 {
		t.Errorf("expected 2 whole hours, got %d", summary.HoursUntilDue)
	}
	if summary.MinutesUntilDue != 164 && summary.MinutesUntilDue != 165 {
		t.Errorf("expected ~165 whole minutes, got %d", summary.MinutesUntilDue)
	}
}

func TestProcessRemittanceSettles(t *testing.T) {
	balanceRepo := NewMockBalanceRepository()
	balanceRepo.AddBalance(&domain.CashBalance{
		DriverID:          "driver-1",
		CurrentBalance:    2000,
		PendingRemittance: 2000,
		NextRemittanceDue: time.Now().Add(-time.Hour),
	})
	remittanceRepo := NewMockRemittanceRepository()

	svc := newRemittanceService(balanceRepo, remittanceRepo, service.NewMockSettlementGateway())

	rem, err := svc.CreateRemittance(context.Background(), service.CreateRemittanceRequest{
		DriverID: "driver-1",
		Amount:   2000,
	})
	if err != nil {
		t.Fatalf("CreateRemittance failed: %v", err)
	}
	if rem.Status != domain.RemittancePending {
		t.Fatalf("expected pending batch, got %s", rem.Status)
	}

	settled, err := svc.ProcessRemittance(context.Background(), rem.ID)
	if err != nil {
		t.Fatalf("ProcessRemittance failed: %v", err)
	}
	if settled.Status != domain.RemittanceCompleted {
		t.Errorf("expected completed, got %s", settled.Status)
	}
	if settled.TransactionRef != "txn-"+rem.ID {
		t.Errorf("expected gateway transaction ref, got %q", settled.TransactionRef)
	}
	if got := remittanceRepo.MarkProcessingCallCount; got != 1 {
		t.Errorf("expected batch to pass through processing, got %d calls", got)
	}

	balance, _ := balanceRepo.GetByDriverID(context.Background(), "driver-1")
	if balance.PendingRemittance != 0 {
		t.Errorf("expected pending remittance cleared, got %.2f", balance.PendingRemittance)
	}
	if !balance.NextRemittanceDue.After(time.Now()) {
		t.Error("expected the remittance window to advance past now")
	}
}

func TestProcessRemittanceFailureRecordsReason(t *testing.T) {
	balanceRepo := NewMockBalanceRepository()
	remittanceRepo := NewMockRemittanceRepository()
	remittanceRepo.AddRemittance(&domain.CashRemittance{
		ID:        "rem-1",
		DriverID:  "driver-1",
		Amount:    900,
		Status:    domain.RemittancePending,
		CreatedAt: time.Now(),
	})

	svc := newRemittanceService(balanceRepo, remittanceRepo, failingGateway{})

	rem, err := svc.ProcessRemittance(context.Background(), "rem-1")
	if err != nil {
		t.Fatalf("a settlement failure is an outcome, not an error: %v", err)
	}
	if rem.Status != domain.RemittanceFailed {
		t.Errorf("expected failed, got %s", rem.Status)
	}
	if rem.FailureReason == "" {
		t.Error("expected the rail's reason to be recorded")
	}
	if got := balanceRepo.MarkRemittedCallCount; got != 0 {
		t.Errorf("expected balance untouched on failure, got %d calls", got)
	}
}

func TestProcessRemittanceIdempotentWhenCompleted(t *testing.T) {
	remittanceRepo := NewMockRemittanceRepository()
	remittanceRepo.AddRemittance(&domain.CashRemittance{
		ID:             "rem-1",
		DriverID:       "driver-1",
		Amount:         900,
		Status:         domain.RemittanceCompleted,
		TransactionRef: "txn-rem-1",
	})

	svc := newRemittanceService(NewMockBalanceRepository(), remittanceRepo, service.NewMockSettlementGateway())

	rem, err := svc.ProcessRemittance(context.Background(), "rem-1")
	if err != nil {
		t.Fatalf("reprocessing a completed batch must be a no-op: %v", err)
	}
	if rem.TransactionRef != "txn-rem-1" {
		t.Errorf("expected the original transaction ref, got %q", rem.TransactionRef)
	}
	if got := remittanceRepo.MarkProcessingCallCount; got != 0 {
		t.Errorf("expected no reprocessing, got %d calls", got)
	}
}

func TestProcessRemittanceRejectsProcessingState(t *testing.T) {
	remittanceRepo := NewMockRemittanceRepository()
	remittanceRepo.AddRemittance(&domain.CashRemittance{
		ID:       "rem-1",
		DriverID: "driver-1",
		Amount:   900,
		Status:   domain.RemittanceProcessing,
	})

	svc := newRemittanceService(NewMockBalanceRepository(), remittanceRepo, service.NewMockSettlementGateway())

	if _, err := svc.ProcessRemittance(context.Background(), "rem-1"); !errors.Is(err, service.ErrRemittanceNotSettleable) {
		t.Errorf("expected ErrRemittanceNotSettleable, got %v", err)
	}
}

func TestListRemittancesDerivesOverdueDisplay(t *testing.T) {
	remittanceRepo := NewMockRemittanceRepository()
	remittanceRepo.AddRemittance(&domain.CashRemittance{
		ID:        "rem-old",
		DriverID:  "driver-1",
		Amount:    500,
		Status:    domain.RemittancePending,
		CreatedAt: time.Now().Add(-25 * time.Hour),
	})
	remittanceRepo.AddRemittance(&domain.CashRemittance{
		ID:        "rem-new",
		DriverID:  "driver-1",
		Amount:    300,
		Status:    domain.RemittancePending,
		CreatedAt: time.Now().Add(-time.Hour),
	})

	svc := newRemittanceService(NewMockBalanceRepository(), remittanceRepo, service.NewMockSettlementGateway())

	views, err := svc.ListRemittances(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("ListRemittances failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(views))
	}

	byID := make(map[string]service.RemittanceView, len(views))
	for _, v := range views {
		byID[v.Remittance.ID] = v
	}

	old := byID["rem-old"]
	if old.Effective != domain.RemittanceOverdue {
		t.Errorf("expected aged pending batch to display overdue, got %s", old.Effective)
	}
	if old.Remittance.Status != domain.RemittancePending {
		t.Errorf("stored status must stay pending, got %s", old.Remittance.Status)
	}
	if fresh := byID["rem-new"]; fresh.Effective != domain.RemittancePending {
		t.Errorf("expected fresh batch to display pending, got %s", fresh.Effective)
	}
}

func TestGenerateStatementCashDelivery(t *testing.T) {
	balanceRepo := NewMockBalanceRepository()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{
		ID:      "driver-1",
		Name:    "Ramon",
		Vehicle: domain.VehicleMotorcycle,
	})

	l := ledger.New(24*time.Hour, nil, 0.16)
	svc := service.NewStatementService(l, balanceRepo, driverRepo, service.NewNotificationService())

	statement, err := svc.GenerateStatement(context.Background(), &domain.Delivery{
		ID:            "delivery-1",
		DriverID:      "driver-1",
		RawStatus:     "delivered",
		TotalPrice:    1000,
		PaymentMethod: domain.PaymentMethodCash,
		CompletedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("GenerateStatement failed: %v", err)
	}
	if statement.DriverEarnings != 840 {
		t.Errorf("expected 840 at the 16%% fallback rate, got %.2f", statement.DriverEarnings)
	}
	if !statement.RateFromFallback {
		t.Error("expected fallback flag with no live rate source")
	}
	if !statement.CashCollected {
		t.Error("expected cash delivery to feed the remittance balance")
	}

	balance, err := balanceRepo.GetByDriverID(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("expected a balance after cash collection: %v", err)
	}
	if balance.PendingRemittance != 1000 {
		t.Errorf("expected the full collected amount pending, got %.2f", balance.PendingRemittance)
	}
}

func TestGenerateStatementRejectsUndelivered(t *testing.T) {
	l := ledger.New(24*time.Hour, nil, 0.16)
	svc := service.NewStatementService(l, NewMockBalanceRepository(), NewMockDriverRepository(), service.NewNotificationService())

	_, err := svc.GenerateStatement(context.Background(), &domain.Delivery{
		ID:            "delivery-1",
		DriverID:      "driver-1",
		RawStatus:     "going_to_destination",
		TotalPrice:    1000,
		PaymentMethod: domain.PaymentMethodCard,
	})
	if !errors.Is(err, service.ErrDeliveryTerminal) {
		t.Errorf("expected rejection for an undelivered delivery, got %v", err)
	}
}
