package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/redis"
	json "github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
)

// ISSRepository defines the interface for ISS position access
type ISSRepository interface {
	GetPosition(ctx context.Context) (*model.ISSPosition, error)
}

type issRepository struct {
	redisClient *redisv9.Client
	httpClient  *http.Client
	now         func() time.Time
}

// NewISSRepository creates a repository reading the open-notify API, with a TLE fallback when configured.
func NewISSRepository(httpClient ...*http.Client) ISSRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &issRepository{
		redisClient: redis.GetClient(),
		httpClient:  client,
		now:         time.Now,
	}
}

// GetPosition returns the cached position if it is younger than iss.cache_ttl,
// otherwise asks the API, and propagates the configured TLE if the API fails.
func (r *issRepository) GetPosition(ctx context.Context) (*model.ISSPosition, error) {
	key := redis.Key(redis.PrefixISS, "now")

	var cached model.ISSPosition
	if err := redis.GetJSON(ctx, r.redisClient, key, &cached); err == nil {
		cached.Cached = true
		return &cached, nil
	}

	pos, apiErr := r.fetchFromExternalAPI(ctx)
	if apiErr != nil {
		line1, line2 := config.GetISSTLE()
		if line1 == "" || line2 == "" {
			return nil, fmt.Errorf("%w: %v", ErrISSUnavailable, apiErr)
		}
		var tleErr error
		pos, tleErr = propagateTLE(line1, line2, r.now())
		if tleErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrISSUnavailable, errors.Join(apiErr, tleErr))
		}
		config.GetLogger().Warnw("ISS API failed, using TLE propagation", "error", apiErr)
	}

	_ = redis.SetJSON(ctx, r.redisClient, key, pos, config.GetISSCacheTTL())
	return pos, nil
}

func (r *issRepository) fetchFromExternalAPI(ctx context.Context) (*model.ISSPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.GetISSApiUrl(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrExternalAPI, resp.StatusCode)
	}

	var data model.OpenNotifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	lat, err := strconv.ParseFloat(data.ISSPosition.Latitude, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q", ErrExternalAPI, data.ISSPosition.Latitude)
	}
	lon, err := strconv.ParseFloat(data.ISSPosition.Longitude, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q", ErrExternalAPI, data.ISSPosition.Longitude)
	}

	ts := r.now().UTC()
	if data.Timestamp > 0 {
		ts = time.Unix(data.Timestamp, 0).UTC()
	}
	return &model.ISSPosition{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: ts,
		Source:    model.SourceAPI,
	}, nil
}
