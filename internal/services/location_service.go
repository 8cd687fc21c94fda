package services

import (
	"context"
	"fmt"
	"time"

	"poolride/internal/utils"
	"poolride/pkg/cache"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverLocation struct {
	DriverID  primitive.ObjectID `json:"driver_id"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type LocationService interface {
	SetDriverLocation(ctx context.Context, driverID primitive.ObjectID, latitude, longitude float64) error
	GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*DriverLocation, error)
}

// locationService keeps each driver's last-known position in redis with a
// short TTL, so stale positions age out instead of being served forever.
type locationService struct {
	cache *cache.RedisCache
}

func NewLocationService(redisCache *cache.RedisCache) LocationService {
	return &locationService{cache: redisCache}
}

func (s *locationService) SetDriverLocation(ctx context.Context, driverID primitive.ObjectID, latitude, longitude float64) error {
	location := &DriverLocation{
		DriverID:  driverID,
		Latitude:  latitude,
		Longitude: longitude,
		UpdatedAt: time.Now(),
	}

	key := utils.CacheLocationPrefix + driverID.Hex()
	if err := s.cache.Set(ctx, key, location, utils.DriverLocationExpiry); err != nil {
		return fmt.Errorf("failed to store driver location: %w", err)
	}

	return nil
}

func (s *locationService) GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*DriverLocation, error) {
	var location DriverLocation
	key := utils.CacheLocationPrefix + driverID.Hex()
	if err := s.cache.Get(ctx, key, &location); err != nil {
		return nil, fmt.Errorf("driver location not available: %w", err)
	}

	return &location, nil
}
