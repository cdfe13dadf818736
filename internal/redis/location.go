package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const driverPositionKey = "drivers:positions"

// DriverPosition represents a driver's last reported position.
type DriverPosition struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// LocationStore handles driver position operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdatePosition stores a driver's position using GEOADD.
func (s *LocationStore) UpdatePosition(ctx context.Context, driverID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, driverPositionKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyDrivers returns driver positions within the given radius (in kilometers).
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverPosition, error) {
	results, err := s.client.GeoRadius(ctx, driverPositionKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	positions := make([]DriverPosition, 0, len(results))
	for _, r := range results {
		positions = append(positions, DriverPosition{
			DriverID: r.Name,
			Lat:      r.Latitude,
			Lng:      r.Longitude,
		})
	}

	return positions, nil
}

// RemovePosition removes a driver's position from the geo index.
func (s *LocationStore) RemovePosition(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverPositionKey, driverID).Err()
}
