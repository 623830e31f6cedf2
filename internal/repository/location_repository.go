package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/redis"
	redisv9 "github.com/redis/go-redis/v9"
)

// LocationRepository stores the last position reported by a visitor.
type LocationRepository interface {
	GetLocation(ctx context.Context) (model.Coordinates, error)
	SaveLocation(ctx context.Context, coords model.Coordinates) error
}

type locationRepository struct {
	redisClient *redisv9.Client
}

func NewLocationRepository() LocationRepository {
	return &locationRepository{redisClient: redis.GetClient()}
}

func locationKey() string {
	return redis.Key(redis.PrefixLocation, "current")
}

// GetLocation returns the stored position, or the configured default when none was reported yet.
// A Redis failure also yields the default so the page keeps rendering.
func (r *locationRepository) GetLocation(ctx context.Context) (model.Coordinates, error) {
	var coords model.Coordinates
	err := redis.GetJSON(ctx, r.redisClient, locationKey(), &coords)
	if err == nil {
		return coords, nil
	}
	if !errors.Is(err, redisv9.Nil) {
		config.GetLogger().Warnw("Reading stored location failed, using default", "error", err)
	}
	lat, lon := config.GetDefaultLocation()
	return model.Coordinates{Lat: lat, Lon: lon}, nil
}

func (r *locationRepository) SaveLocation(ctx context.Context, coords model.Coordinates) error {
	if err := coords.Validate(); err != nil {
		return err
	}
	if err := redis.SetJSON(ctx, r.redisClient, locationKey(), coords, 0); err != nil {
		return fmt.Errorf("saving location: %w", err)
	}
	return nil
}
