package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"courier/internal/domain"
	"courier/internal/repository"
	"courier/internal/service"
	"courier/internal/status"
)

func newTransitionService(deliveryRepo *MockDeliveryRepository, lockStore *MockLockStore) *service.TransitionService {
	return service.NewTransitionService(
		deliveryRepo,
		lockStore,
		nil,
		service.NewNotificationService(),
		service.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond},
	)
}

func TestTransitionConfirmsTarget(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		DriverID:  "driver-1",
		RawStatus: "pending",
	})

	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	result, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusDriverAssigned,
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if result.Confirmed != domain.StatusDriverAssigned {
		t.Errorf("expected confirmed driver_assigned, got %s", result.Confirmed)
	}
	if result.ActionLabel != "Navigate to Pickup" {
		t.Errorf("expected action label 'Navigate to Pickup', got %q", result.ActionLabel)
	}

	stored, _ := deliveryRepo.GetByID(context.Background(), "delivery-1")
	if stored.RawStatus != "driver_assigned" {
		t.Errorf("expected stored wire value driver_assigned, got %q", stored.RawStatus)
	}
}

func TestTransitionNormalizesLegacyStoredStatus(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		DriverID:  "driver-1",
		RawStatus: "pickupArrived", // legacy camelCase token
	})

	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	result, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusPackageCollected,
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if result.Confirmed != domain.StatusPackageCollected {
		t.Errorf("expected confirmed package_collected, got %s", result.Confirmed)
	}

	stored, _ := deliveryRepo.GetByID(context.Background(), "delivery-1")
	if stored.RawStatus != "package_collected" {
		t.Errorf("expected canonical wire value written back, got %q", stored.RawStatus)
	}
}

func TestTransitionInvalidIsSurfacedNotRetried(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		RawStatus: "pending",
	})

	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	result, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusDelivered,
	})

	var invalid *status.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if result == nil || result.Confirmed != domain.StatusPending {
		t.Errorf("expected revert state pending, got %+v", result)
	}
	if got := deliveryRepo.UpdateStatusCallCount; got != 0 {
		t.Errorf("expected no write for invalid transition, got %d", got)
	}
	if got := deliveryRepo.GetByIDCallCount; got != 1 {
		t.Errorf("expected a single load, got %d", got)
	}
}

func TestTransitionRetriesTransientWriteFailure(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		RawStatus: "going_to_destination",
	})
	deliveryRepo.UpdateStatusError = repository.ErrUnavailable
	deliveryRepo.UpdateStatusErrorTimes = 1

	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	result, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusAtDestination,
	})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if result.Confirmed != domain.StatusAtDestination {
		t.Errorf("expected confirmed at_destination, got %s", result.Confirmed)
	}
	if got := deliveryRepo.UpdateStatusCallCount; got != 2 {
		t.Errorf("expected 2 write attempts, got %d", got)
	}
}

func TestTransitionExhaustedRetriesRevertToLastConfirmed(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		RawStatus: "going_to_pickup",
	})
	deliveryRepo.UpdateStatusError = repository.ErrUnavailable // never clears

	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	result, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusPickupArrived,
	})
	if !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after exhaustion, got %v", err)
	}
	if result == nil || result.Confirmed != domain.StatusGoingToPickup {
		t.Errorf("expected revert state going_to_pickup, got %+v", result)
	}
	if got := deliveryRepo.UpdateStatusCallCount; got != 3 {
		t.Errorf("expected MaxAttempts write attempts, got %d", got)
	}
}

func TestTransitionRejectedWhenLockHeldByOtherProcess(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		RawStatus: "pending",
	})
	lockStore := NewMockLockStore()
	lockStore.HeldByOther = true

	svc := newTransitionService(deliveryRepo, lockStore)

	_, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusDriverAssigned,
	})
	if !errors.Is(err, service.ErrDeliveryLocked) {
		t.Fatalf("expected ErrDeliveryLocked, got %v", err)
	}
	if got := deliveryRepo.GetByIDCallCount; got != 0 {
		t.Errorf("expected no load while locked, got %d", got)
	}
}

func TestTransitionTerminalTargetEndsTrackingSession(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	delivery := &domain.Delivery{
		ID:          "delivery-1",
		DriverID:    "driver-1",
		RawStatus:   "at_destination",
		PickupLat:   14.5995,
		PickupLng:   120.9842,
		DeliveryLat: 14.6095,
		DeliveryLng: 120.9842,
	}
	deliveryRepo.AddDelivery(delivery)

	tracking := service.NewTrackingService(
		NewMockLocationStore(),
		stubRouteProvider{},
		service.NewNotificationService(),
		service.DefaultTrackingConfig(),
	)
	if err := tracking.StartSession(context.Background(), delivery); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	svc := newTransitionService(deliveryRepo, NewMockLockStore())
	svc.SetSessionEnder(tracking)

	_, err := svc.Transition(context.Background(), service.TransitionRequest{
		DeliveryID: "delivery-1",
		Target:     domain.StatusDelivered,
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if tracking.HasSession("delivery-1") {
		t.Error("expected tracking session to be torn down after terminal transition")
	}
}

func TestSubmitProofRequiresPhotoOrSignature(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	err := svc.SubmitProof(context.Background(), &domain.ProofOfDelivery{
		DeliveryID: "delivery-1",
		StopIndex:  -1,
	})
	if !errors.Is(err, service.ErrProofIncomplete) {
		t.Fatalf("expected ErrProofIncomplete, got %v", err)
	}
	if got := deliveryRepo.SubmitProofCallCount; got != 0 {
		t.Errorf("expected no persist for incomplete proof, got %d", got)
	}
}

func TestSubmitProofCompletesMultiStop(t *testing.T) {
	deliveryRepo := NewMockDeliveryRepository()
	deliveryRepo.AddDelivery(&domain.Delivery{
		ID:          "delivery-1",
		RawStatus:   "at_destination",
		IsMultiStop: true,
		TotalStops:  2,
		Stops: []domain.DeliveryStop{
			{DeliveryID: "delivery-1", Index: 0, Role: domain.StopRoleDropoff, Status: domain.StopStatusInProgress},
			{DeliveryID: "delivery-1", Index: 1, Role: domain.StopRoleDropoff, Status: domain.StopStatusPending},
		},
	})

	svc := newTransitionService(deliveryRepo, NewMockLockStore())

	err := svc.SubmitProof(context.Background(), &domain.ProofOfDelivery{
		DeliveryID: "delivery-1",
		StopIndex:  0,
		PhotoURL:   "https://cdn.example.com/pod/1.jpg",
	})
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}

	stored, _ := deliveryRepo.GetByID(context.Background(), "delivery-1")
	if stored.Stops[0].Status != domain.StopStatusCompleted {
		t.Errorf("expected stop 0 completed, got %s", stored.Stops[0].Status)
	}
	if stored.CurrentStopIndex != 1 {
		t.Errorf("expected current stop advanced to 1, got %d", stored.CurrentStopIndex)
	}
}
