package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"courier/internal/domain"
	"courier/internal/redis"
	"courier/internal/repository"
	"courier/internal/status"
)

const transitionLockTTL = 30 * time.Second

// RetryPolicy bounds the retry of transient store faults during a transition
// round-trip. The request is idempotent (it carries the target canonical
// state, not a delta), so retrying cannot apply it twice.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy returns the default transition retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
	}
}

// sessionEnder tears down per-delivery background state. Implemented by
// TrackingService; split out so the transition path has no compile-time
// dependency on tracking internals.
type sessionEnder interface {
	EndSession(deliveryID string)
}

// TransitionService orchestrates status transitions against the
// authoritative store under a single-writer-per-delivery discipline.
type TransitionService struct {
	deliveryRepo repository.DeliveryRepository
	lockStore    redis.LockStoreInterface
	cacheStore   *redis.CacheStore
	notifier     *NotificationService
	tracking     sessionEnder
	retry        RetryPolicy

	// inflight guards against a second transition request for the same
	// delivery before the first resolves. The redis lock covers other
	// processes; this map covers this one.
	mu       sync.Mutex
	inflight map[string]domain.DeliveryStatus
}

// NewTransitionService creates a new TransitionService.
func NewTransitionService(
	deliveryRepo repository.DeliveryRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	notifier *NotificationService,
	retry RetryPolicy,
) *TransitionService {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &TransitionService{
		deliveryRepo: deliveryRepo,
		lockStore:    lockStore,
		cacheStore:   cacheStore,
		notifier:     notifier,
		retry:        retry,
		inflight:     make(map[string]domain.DeliveryStatus),
	}
}

// SetSessionEnder wires the tracking teardown hook. Called once during
// startup; not safe to call concurrently with transitions.
func (s *TransitionService) SetSessionEnder(t sessionEnder) {
	s.tracking = t
}

// TransitionRequest contains the parameters for a status transition.
type TransitionRequest struct {
	DeliveryID string
	Target     domain.DeliveryStatus
}

// TransitionResult reports the outcome of a transition round-trip.
//
// Confirmed is the store-confirmed canonical status after the call: the
// target on success, the last-known-good status on failure. Callers showing
// the target optimistically must revert their display to Confirmed when Err
// is non-nil.
type TransitionResult struct {
	DeliveryID  string
	Confirmed   domain.DeliveryStatus
	Attempts    int
	ActionLabel string
}

// InFlight reports the optimistic target of an unresolved transition for the
// delivery, if any.
func (s *TransitionService) InFlight(deliveryID string) (domain.DeliveryStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.inflight[deliveryID]
	return target, ok
}

// Transition validates and applies a status transition.
//
// Exactly one transition per delivery may be in flight: a concurrent request
// fails fast with ErrTransitionInFlight (in-process) or ErrDeliveryLocked
// (another process holds the redis lock). Transient store faults are retried
// with bounded backoff; validation failures are surfaced immediately and
// must not be retried by the caller.
func (s *TransitionService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if req.DeliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}

	s.mu.Lock()
	if _, busy := s.inflight[req.DeliveryID]; busy {
		s.mu.Unlock()
		return nil, ErrTransitionInFlight
	}
	s.inflight[req.DeliveryID] = req.Target
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, req.DeliveryID)
		s.mu.Unlock()
	}()

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireDeliveryLock(ctx, req.DeliveryID, transitionLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrDeliveryLocked
		}
		defer func() { _ = s.lockStore.ReleaseDeliveryLock(ctx, req.DeliveryID) }()
	}

	delivery, attempts, err := s.loadWithRetry(ctx, req.DeliveryID)
	if err != nil {
		return nil, err
	}

	current, diag := status.Normalize(delivery.RawStatus)
	if diag != nil {
		s.notifier.ReportDiagnostic(ctx, delivery.ID, diag)
	}

	if err := status.ValidateTransition(current, req.Target); err != nil {
		// Caller error: surface, never retry.
		return &TransitionResult{
			DeliveryID:  req.DeliveryID,
			Confirmed:   current,
			Attempts:    attempts,
			ActionLabel: status.ActionLabel(current),
		}, err
	}

	writeAttempts, err := s.writeWithRetry(ctx, req.DeliveryID, req.Target)
	attempts += writeAttempts
	if err != nil {
		// Round-trip exhausted: report the last-confirmed state so the
		// caller can revert its optimistic display.
		return &TransitionResult{
			DeliveryID:  req.DeliveryID,
			Confirmed:   current,
			Attempts:    attempts,
			ActionLabel: status.ActionLabel(current),
		}, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateDelivery(ctx, req.DeliveryID)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyStatusChanged(ctx, delivery, current, req.Target)
	}

	// Terminal states cancel all background work for the delivery.
	if req.Target.IsTerminal() && s.tracking != nil {
		s.tracking.EndSession(req.DeliveryID)
	}

	return &TransitionResult{
		DeliveryID:  req.DeliveryID,
		Confirmed:   req.Target,
		Attempts:    attempts,
		ActionLabel: status.ActionLabel(req.Target),
	}, nil
}

// GetDelivery loads a delivery with its status normalized.
func (s *TransitionService) GetDelivery(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	if deliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	delivery.Status, _ = status.Normalize(delivery.RawStatus)
	return delivery, nil
}

// SubmitProof validates and persists a proof-of-delivery payload. For
// multi-stop deliveries it also completes the stop it belongs to.
func (s *TransitionService) SubmitProof(ctx context.Context, proof *domain.ProofOfDelivery) error {
	if proof == nil || proof.DeliveryID == "" {
		return ErrInvalidDeliveryID
	}
	if proof.PhotoURL == "" && proof.SignatureURL == "" {
		return ErrProofIncomplete
	}
	if proof.CompletedAt.IsZero() {
		proof.CompletedAt = time.Now()
	}

	if err := s.deliveryRepo.SubmitProof(ctx, proof); err != nil {
		return err
	}

	if proof.StopIndex >= 0 {
		return s.deliveryRepo.UpdateStopStatus(ctx, proof.DeliveryID, proof.StopIndex, domain.StopStatusCompleted)
	}
	return nil
}

func (s *TransitionService) loadWithRetry(ctx context.Context, deliveryID string) (*domain.Delivery, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
		if err == nil {
			return delivery, attempt, nil
		}
		if !errors.Is(err, repository.ErrUnavailable) {
			return nil, attempt, err
		}
		lastErr = err
		if err := s.backoff(ctx, attempt); err != nil {
			return nil, attempt, err
		}
	}
	return nil, s.retry.MaxAttempts, lastErr
}

func (s *TransitionService) writeWithRetry(ctx context.Context, deliveryID string, target domain.DeliveryStatus) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		err := s.deliveryRepo.UpdateStatus(ctx, deliveryID, target, time.Now())
		if err == nil {
			return attempt, nil
		}
		if !errors.Is(err, repository.ErrUnavailable) {
			return attempt, err
		}
		lastErr = err
		if err := s.backoff(ctx, attempt); err != nil {
			return attempt, err
		}
	}
	return s.retry.MaxAttempts, lastErr
}

// backoff sleeps for attempt*BaseBackoff, honoring context cancellation.
func (s *TransitionService) backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * s.retry.BaseBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
