package service

import (
	"context"

	"courier/internal/domain"
	"courier/internal/redis"
	"courier/internal/repository"
)

// DriverService handles driver presence and profile operations.
type DriverService struct {
	locationStore redis.LocationStoreInterface
	driverRepo    repository.DriverRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	locationStore redis.LocationStoreInterface,
	driverRepo repository.DriverRepository,
) *DriverService {
	return &DriverService{
		locationStore: locationStore,
		driverRepo:    driverRepo,
	}
}

// UpdatePositionRequest contains the parameters for updating driver position.
type UpdatePositionRequest struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// UpdatePosition records a driver's position in Redis and sets them ONLINE.
func (s *DriverService) UpdatePosition(ctx context.Context, req UpdatePositionRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}

	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	if err := s.locationStore.UpdatePosition(ctx, req.DriverID, req.Lat, req.Lng); err != nil {
		return err
	}

	err := s.driverRepo.UpdateStatus(ctx, req.DriverID, domain.DriverStatusOnline)
	if err != nil && err != repository.ErrNotFound {
		return err
	}

	return nil
}

// SetDriverOffline sets a driver as offline and clears their position.
func (s *DriverService) SetDriverOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOffline); err != nil {
		return err
	}

	return s.locationStore.RemovePosition(ctx, driverID)
}

// FindNearbyDrivers returns online drivers within radiusKm of a point,
// nearest first. Used by ops tooling to eyeball coverage around a pickup.
func (s *DriverService) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverPosition, error) {
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		radiusKm = 5
	}
	return s.locationStore.FindNearbyDrivers(ctx, lat, lng, radiusKm)
}

// GetDriver retrieves a driver profile.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}
