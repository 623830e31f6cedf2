package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/redis"
	json "github.com/goccy/go-json"
	"github.com/nathan-osman/go-sunrise"
	redisv9 "github.com/redis/go-redis/v9"
)

// SunRepository defines the interface for sunrise/sunset access
type SunRepository interface {
	GetSunTimes(ctx context.Context, coords model.Coordinates, day time.Time) (*model.SunTimes, error)
}

type sunRepository struct {
	redisClient *redisv9.Client
	httpClient  *http.Client
}

// NewSunRepository creates a repository backed by api.sunrise-sunset.org,
// computing the times locally when the API cannot be reached.
func NewSunRepository(httpClient ...*http.Client) SunRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &sunRepository{
		redisClient: redis.GetClient(),
		httpClient:  client,
	}
}

// GetSunTimes returns sunrise and sunset for the calendar date of day in the configured timezone.
func (r *sunRepository) GetSunTimes(ctx context.Context, coords model.Coordinates, day time.Time) (*model.SunTimes, error) {
	loc := config.GetTimezone()
	date := day.In(loc)
	key := coordKey(redis.PrefixSun, coords, date.Format(time.DateOnly))

	var cached model.SunTimes
	if err := redis.GetJSON(ctx, r.redisClient, key, &cached); err == nil {
		cached.Cached = true
		return &cached, nil
	}

	times, err := r.fetchFromExternalAPI(ctx, coords, date, loc)
	if err != nil {
		config.GetLogger().Warnw("Sunrise-sunset API failed, computing locally", "error", err)
		times, err = computeSunTimes(coords, date, loc)
		if err != nil {
			return nil, err
		}
	}

	_ = redis.SetJSON(ctx, r.redisClient, key, times, config.GetSunCacheTTL())
	return times, nil
}

func (r *sunRepository) fetchFromExternalAPI(ctx context.Context, coords model.Coordinates, date time.Time, loc *time.Location) (*model.SunTimes, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("date", date.Format(time.DateOnly))
	params.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.GetSunApiUrl()+"?"+params.Encode(), nil)
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

	var data model.SunriseSunsetResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	if data.Status != "OK" {
		return nil, fmt.Errorf("%w: status %q", ErrExternalAPI, data.Status)
	}

	sunriseAt, err := time.Parse(time.RFC3339, data.Results.Sunrise)
	if err != nil {
		return nil, fmt.Errorf("%w: sunrise %q", ErrExternalAPI, data.Results.Sunrise)
	}
	sunsetAt, err := time.Parse(time.RFC3339, data.Results.Sunset)
	if err != nil {
		return nil, fmt.Errorf("%w: sunset %q", ErrExternalAPI, data.Results.Sunset)
	}

	times := model.NewSunTimes(sunriseAt, sunsetAt, loc, model.SourceAPI)
	return &times, nil
}

// computeSunTimes is the offline fallback. Polar day and night have no events.
func computeSunTimes(coords model.Coordinates, date time.Time, loc *time.Location) (*model.SunTimes, error) {
	rise, set := sunrise.SunriseSunset(coords.Lat, coords.Lon, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return nil, ErrNoSunEvents
	}
	times := model.NewSunTimes(rise, set, loc, model.SourceComputed)
	return &times, nil
}
