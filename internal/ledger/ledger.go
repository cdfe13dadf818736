// Package ledger derives point-in-time remittance state from persisted
// timestamps. Every predicate is a pure function of (record, now): callers
// may recompute on every read without locking or caching.
package ledger

import (
	"context"
	"time"

	"courier/internal/domain"
)

// DefaultOverdueAfter is how long a pending remittance may age before it
// displays as overdue.
const DefaultOverdueAfter = 24 * time.Hour

// IsRemittanceOverdue reports whether the driver's next remittance deadline
// has passed.
func IsRemittanceOverdue(balance *domain.CashBalance, now time.Time) bool {
	return now.After(balance.NextRemittanceDue)
}

// HoursUntilDue returns the whole hours remaining until the next remittance
// deadline, never negative.
func HoursUntilDue(balance *domain.CashBalance, now time.Time) int {
	remaining := balance.NextRemittanceDue.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Hour)
}

// MinutesUntilDue returns the whole minutes remaining until the next
// remittance deadline, never negative.
func MinutesUntilDue(balance *domain.CashBalance, now time.Time) int {
	remaining := balance.NextRemittanceDue.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Minute)
}

// EffectiveStatus returns the display status of a remittance batch at now.
//
// A stored pending batch older than overdueAfter displays as overdue; the
// persisted status stays pending until the settlement collaborator moves it.
// The effective value is informational and must never be written back.
func EffectiveStatus(rem *domain.CashRemittance, now time.Time, overdueAfter time.Duration) domain.RemittanceStatus {
	if overdueAfter <= 0 {
		overdueAfter = DefaultOverdueAfter
	}
	if rem.Status == domain.RemittancePending && now.Sub(rem.CreatedAt) > overdueAfter {
		return domain.RemittanceOverdue
	}
	return rem.Status
}

// DriverEarnings returns the driver's share of a delivery's total price at
// the given commission rate.
func DriverEarnings(totalPrice, commissionRate float64) float64 {
	return totalPrice * (1 - commissionRate)
}

// RateContext identifies the policy inputs a rate lookup may consider.
type RateContext struct {
	DriverID    string
	Vehicle     domain.VehicleType
	CompletedAt time.Time
}

// RateSource looks up the live commission rate for a delivery. Rates are
// dynamic per business, vehicle, and time policy; a lookup failure is
// expected operation and callers fall back to a configured rate.
type RateSource interface {
	RateFor(ctx context.Context, rc RateContext) (float64, error)
}

// Earnings is a computed driver payout. FromFallback distinguishes a payout
// computed from the configured fallback rate from one computed from a live
// rate lookup.
type Earnings struct {
	Amount       float64
	Rate         float64
	FromFallback bool
}

// Ledger evaluates remittance predicates and earnings with injected policy:
// the overdue horizon, a live rate source, and the fallback commission rate.
type Ledger struct {
	OverdueAfter time.Duration
	Rates        RateSource
	FallbackRate float64
}

// New creates a Ledger. A nil rates source means every earnings computation
// uses the fallback rate.
func New(overdueAfter time.Duration, rates RateSource, fallbackRate float64) *Ledger {
	if overdueAfter <= 0 {
		overdueAfter = DefaultOverdueAfter
	}
	return &Ledger{
		OverdueAfter: overdueAfter,
		Rates:        rates,
		FallbackRate: fallbackRate,
	}
}

// EffectiveStatus applies the ledger's overdue horizon.
func (l *Ledger) EffectiveStatus(rem *domain.CashRemittance, now time.Time) domain.RemittanceStatus {
	return EffectiveStatus(rem, now, l.OverdueAfter)
}

// EarningsFor computes the driver payout for a completed delivery, trying the
// live rate source first and falling back to the configured rate when the
// lookup is unavailable.
func (l *Ledger) EarningsFor(ctx context.Context, totalPrice float64, rc RateContext) Earnings {
	if l.Rates != nil {
		if rate, err := l.Rates.RateFor(ctx, rc); err == nil {
			return Earnings{
				Amount: DriverEarnings(totalPrice, rate),
				Rate:   rate,
			}
		}
	}

	return Earnings{
		Amount:       DriverEarnings(totalPrice, l.FallbackRate),
		Rate:         l.FallbackRate,
		FromFallback: true,
	}
}
