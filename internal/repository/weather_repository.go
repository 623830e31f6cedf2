package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/redis"
	json "github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
)

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	GetWeather(ctx context.Context, coords model.Coordinates) (*model.Weather, error)
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	redisClient *redisv9.Client
	httpClient  *http.Client
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		redisClient: redis.GetClient(),
		httpClient:  client,
	}
}

// GetWeather retrieves weather data, checking cache first, then external API
func (r *weatherRepository) GetWeather(ctx context.Context, coords model.Coordinates) (*model.Weather, error) {
	if cached, err := r.getFromCache(ctx, coords); err == nil {
		return cached, nil
	}

	weather, err := r.fetchFromExternalAPI(ctx, coords)
	if err != nil {
		return nil, err
	}

	r.cacheWeather(ctx, coords, weather)

	return weather, nil
}

// coordKey rounds to two decimals (about 1 km) so nearby visitors share a cache entry.
func coordKey(prefix string, coords model.Coordinates, extra ...string) string {
	parts := []string{
		prefix,
		strconv.FormatFloat(coords.Lat, 'f', 2, 64),
		strconv.FormatFloat(coords.Lon, 'f', 2, 64),
	}
	return redis.Key(append(parts, extra...)...)
}

func (r *weatherRepository) getFromCache(ctx context.Context, coords model.Coordinates) (*model.Weather, error) {
	var weather model.Weather
	if err := redis.GetJSON(ctx, r.redisClient, coordKey(redis.PrefixWeather, coords), &weather); err != nil {
		return nil, err
	}
	weather.Cached = true
	return &weather, nil
}

// fetchFromExternalAPI retrieves the current condition from OpenWeatherMap
func (r *weatherRepository) fetchFromExternalAPI(ctx context.Context, coords model.Coordinates) (*model.Weather, error) {
	apiKey := config.GetOpenWeatherMapAPIKey()
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("units", config.GetOpenWeatherUnits())
	params.Set("APPID", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.GetOpenWeatherApiUrl()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrLocationNotFound
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("%w: status %d", ErrExternalAPI, resp.StatusCode)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	if len(data.Weather) == 0 {
		return nil, fmt.Errorf("%w: no weather conditions in response", ErrExternalAPI)
	}

	return &model.Weather{
		ID:          data.Weather[0].ID,
		Description: data.Weather[0].Description,
		Temperature: data.Main.Temp,
		Location:    data.Name,
	}, nil
}

func (r *weatherRepository) cacheWeather(ctx context.Context, coords model.Coordinates, weather *model.Weather) {
	_ = redis.SetJSON(ctx, r.redisClient, coordKey(redis.PrefixWeather, coords), weather, config.GetCacheExpirationDuration())
}
