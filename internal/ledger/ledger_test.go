package ledger

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"courier/internal/domain"
)

var baseTime = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func TestIsRemittanceOverdue(t *testing.T) {
	t.Parallel()

	balance := &domain.CashBalance{
		DriverID:           "driver-1",
		LastRemittanceDate: baseTime.Add(-48 * time.Hour),
		NextRemittanceDue:  baseTime.Add(-time.Hour),
	}

	if !IsRemittanceOverdue(balance, baseTime) {
		t.Error("deadline one hour in the past should be overdue")
	}
	if HoursUntilDue(balance, baseTime) != 0 {
		t.Errorf("HoursUntilDue past deadline = %d, want 0", HoursUntilDue(balance, baseTime))
	}
	if MinutesUntilDue(balance, baseTime) != 0 {
		t.Errorf("MinutesUntilDue past deadline = %d, want 0", MinutesUntilDue(balance, baseTime))
	}
}

func TestHoursAndMinutesUntilDue_FloorWholeUnits(t *testing.T) {
	t.Parallel()

	balance := &domain.CashBalance{
		NextRemittanceDue: baseTime.Add(2*time.Hour + 45*time.Minute),
	}

	if got := HoursUntilDue(balance, baseTime); got != 2 {
		t.Errorf("HoursUntilDue = %d, want 2", got)
	}
	if got := MinutesUntilDue(balance, baseTime); got != 165 {
		t.Errorf("MinutesUntilDue = %d, want 165", got)
	}

	// Exactly at the deadline is not overdue yet but nothing remains.
	atDeadline := &domain.CashBalance{NextRemittanceDue: baseTime}
	if IsRemittanceOverdue(atDeadline, baseTime) {
		t.Error("exactly at the deadline should not be overdue")
	}
	if got := MinutesUntilDue(atDeadline, baseTime); got != 0 {
		t.Errorf("MinutesUntilDue at deadline = %d, want 0", got)
	}
}

func TestEffectiveStatus_AgedPendingDisplaysOverdue(t *testing.T) {
	t.Parallel()

	rem := &domain.CashRemittance{
		ID:        "rem-1",
		Status:    domain.RemittancePending,
		CreatedAt: baseTime.Add(-25 * time.Hour),
	}

	if got := EffectiveStatus(rem, baseTime, DefaultOverdueAfter); got != domain.RemittanceOverdue {
		t.Errorf("EffectiveStatus = %q, want overdue", got)
	}

	// The stored status never changes: effective overdue is display-only.
	if rem.Status != domain.RemittancePending {
		t.Errorf("stored status mutated to %q", rem.Status)
	}
}

func TestEffectiveStatus_FreshPendingStaysPending(t *testing.T) {
	t.Parallel()

	rem := &domain.CashRemittance{
		Status:    domain.RemittancePending,
		CreatedAt: baseTime.Add(-23 * time.Hour),
	}
	if got := EffectiveStatus(rem, baseTime, DefaultOverdueAfter); got != domain.RemittancePending {
		t.Errorf("EffectiveStatus = %q, want pending", got)
	}
}

func TestEffectiveStatus_NonPendingIsNeverDerived(t *testing.T) {
	t.Parallel()

	for _, stored := range []domain.RemittanceStatus{
		domain.RemittanceProcessing,
		domain.RemittanceCompleted,
		domain.RemittanceFailed,
	} {
		rem := &domain.CashRemittance{
			Status:    stored,
			CreatedAt: baseTime.Add(-100 * time.Hour),
		}
		if got := EffectiveStatus(rem, baseTime, DefaultOverdueAfter); got != stored {
			t.Errorf("EffectiveStatus(%q) = %q, want stored status unchanged", stored, got)
		}
	}
}

func TestDriverEarnings(t *testing.T) {
	t.Parallel()

	if got := DriverEarnings(1000.0, 0.16); math.Abs(got-840.0) > 1e-9 {
		t.Errorf("DriverEarnings(1000, 0.16) = %v, want 840", got)
	}
	if got := DriverEarnings(0, 0.16); got != 0 {
		t.Errorf("DriverEarnings(0, 0.16) = %v, want 0", got)
	}
}

// stubRateSource returns a fixed rate or error.
type stubRateSource struct {
	rate float64
	err  error
}

func (s *stubRateSource) RateFor(ctx context.Context, rc RateContext) (float64, error) {
	return s.rate, s.err
}

func TestLedgerEarningsFor_LiveRate(t *testing.T) {
	t.Parallel()

	l := New(DefaultOverdueAfter, &stubRateSource{rate: 0.20}, 0.16)

	got := l.EarningsFor(context.Background(), 500, RateContext{DriverID: "driver-1"})
	if got.FromFallback {
		t.Error("live lookup succeeded but earnings flagged as fallback")
	}
	if got.Rate != 0.20 {
		t.Errorf("rate = %v, want live 0.20", got.Rate)
	}
	if math.Abs(got.Amount-400) > 1e-9 {
		t.Errorf("amount = %v, want 400", got.Amount)
	}
}

func TestLedgerEarningsFor_FallbackOnLookupFailure(t *testing.T) {
	t.Parallel()

	l := New(DefaultOverdueAfter, &stubRateSource{err: errors.New("rate service down")}, 0.16)

	got := l.EarningsFor(context.Background(), 1000, RateContext{DriverID: "driver-1"})
	if !got.FromFallback {
		t.Error("lookup failed but earnings not flagged as fallback")
	}
	if got.Rate != 0.16 {
		t.Errorf("rate = %v, want fallback 0.16", got.Rate)
	}
	if math.Abs(got.Amount-840) > 1e-9 {
		t.Errorf("amount = %v, want 840", got.Amount)
	}
}

func TestLedgerEarningsFor_NilSourceUsesFallback(t *testing.T) {
	t.Parallel()

	l := New(0, nil, 0.16)
	if got := l.EarningsFor(context.Background(), 100, RateContext{}); !got.FromFallback {
		t.Error("nil rate source must use the fallback rate")
	}
}
