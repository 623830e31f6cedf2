package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/advisor"
	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/metrics"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/repository"
)

// ISSFinderServiceInterface is what the HTTP handlers and the CLI depend on.
type ISSFinderServiceInterface interface {
	PageData(ctx context.Context) (*model.PageData, error)
	UpdateLocation(ctx context.Context, coords model.Coordinates) error
	RefreshISSPosition(ctx context.Context) (*model.ISSPosition, error)
	GoLookStatus(ctx context.Context) (*model.GoLookStatus, error)
}

// ISSFinderService combines the upstream repositories into page data and advice.
type ISSFinderService struct {
	ISSRepo      repository.ISSRepository
	WeatherRepo  repository.WeatherRepository
	SunRepo      repository.SunRepository
	LocationRepo repository.LocationRepository
	Metrics      *metrics.Collector
	Now          func() time.Time
}

// NewISSFinderService wires the default repositories. collector may be nil.
func NewISSFinderService(collector *metrics.Collector) *ISSFinderService {
	return &ISSFinderService{
		ISSRepo:      repository.NewISSRepository(),
		WeatherRepo:  repository.NewWeatherRepository(),
		SunRepo:      repository.NewSunRepository(),
		LocationRepo: repository.NewLocationRepository(),
		Metrics:      collector,
		Now:          time.Now,
	}
}

func (s *ISSFinderService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// PageData gathers everything the page shows. Weather failures degrade to
// UnavailableWeather; ISS, sun and location failures are returned.
func (s *ISSFinderService) PageData(ctx context.Context) (*model.PageData, error) {
	loc := config.GetTimezone()
	now := s.now().In(loc)

	visitor, err := s.location(ctx)
	if err != nil {
		return nil, err
	}
	iss, err := s.RefreshISSPosition(ctx)
	if err != nil {
		return nil, err
	}
	sun, err := s.sunTimes(ctx, visitor, now)
	if err != nil {
		return nil, err
	}
	weather := s.weather(ctx, visitor)

	tolerance := config.GetOverheadTolerance()
	status := advisor.Evaluate(advisor.Snapshot{
		Visitor:   &visitor,
		ISS:       *iss,
		Weather:   weather,
		Sun:       *sun,
		Tolerance: tolerance,
	}, now)

	return &model.PageData{
		Visitor:     visitor,
		ISS:         *iss,
		Weather:     weather,
		Sun:         *sun,
		Status:      status,
		Tolerance:   tolerance,
		Timezone:    loc.String(),
		GeneratedAt: now,
	}, nil
}

// GoLookStatus evaluates the advice for the stored visitor location.
func (s *ISSFinderService) GoLookStatus(ctx context.Context) (*model.GoLookStatus, error) {
	data, err := s.PageData(ctx)
	if err != nil {
		return nil, err
	}
	return &data.Status, nil
}

func (s *ISSFinderService) UpdateLocation(ctx context.Context, coords model.Coordinates) error {
	if err := coords.Validate(); err != nil {
		return err
	}
	start := time.Now()
	err := s.LocationRepo.SaveLocation(ctx, coords)
	s.Metrics.ObserveUpstream(metrics.SourceLocation, start, err)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	s.Metrics.IncLocationUpdates()
	config.GetLogger().Infow("Visitor location updated", "lat", coords.Lat, "lon", coords.Lon)
	return nil
}

func (s *ISSFinderService) RefreshISSPosition(ctx context.Context) (*model.ISSPosition, error) {
	start := time.Now()
	pos, err := s.ISSRepo.GetPosition(ctx)
	s.Metrics.ObserveUpstream(metrics.SourceISS, start, err)
	if err != nil {
		return nil, fmt.Errorf("refresh ISS position: %w", err)
	}
	return pos, nil
}

func (s *ISSFinderService) location(ctx context.Context) (model.Coordinates, error) {
	start := time.Now()
	coords, err := s.LocationRepo.GetLocation(ctx)
	s.Metrics.ObserveUpstream(metrics.SourceLocation, start, err)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("load location: %w", err)
	}
	return coords, nil
}

func (s *ISSFinderService) sunTimes(ctx context.Context, coords model.Coordinates, day time.Time) (*model.SunTimes, error) {
	start := time.Now()
	sun, err := s.SunRepo.GetSunTimes(ctx, coords, day)
	s.Metrics.ObserveUpstream(metrics.SourceSun, start, err)
	if err != nil {
		return nil, fmt.Errorf("sun times: %w", err)
	}
	return sun, nil
}

func (s *ISSFinderService) weather(ctx context.Context, coords model.Coordinates) model.Weather {
	start := time.Now()
	weather, err := s.WeatherRepo.GetWeather(ctx, coords)
	s.Metrics.ObserveUpstream(metrics.SourceWeather, start, err)
	if err != nil {
		config.GetLogger().Warnw("Weather lookup failed", "error", err)
		return model.UnavailableWeather()
	}
	return *weather
}
