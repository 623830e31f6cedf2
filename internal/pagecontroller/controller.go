// Package pagecontroller drives the ISS Finder page: the clock, the
// visitor's position, the ISS refresh and the go-look-up advisory.
package pagecontroller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/advisor"
	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
)

// ErrGeolocationUnsupported is returned by GetLocation when no Geolocator is available.
var ErrGeolocationUnsupported = errors.New("geolocation is not supported")

const (
	geolocationUnsupportedText = "Geolocation is not supported by this browser."
	dateTimeLayout             = "01/02/2006, 15:04:05"
)

// Environment holds the values the server injects into the page.
type Environment struct {
	Weather   model.Weather
	Sun       model.SunTimes
	ISS       model.ISSPosition
	Tolerance float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithGeolocator enables position reporting.
func WithGeolocator(g Geolocator) Option {
	return func(c *Controller) { c.geo = g }
}

// WithLocation sets the zone the clock and the night check use.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.location = loc }
}

// WithEnvironment seeds the injected values.
func WithEnvironment(env Environment) Option {
	return func(c *Controller) { c.env = env }
}

// Controller owns the page state. Its methods are safe for concurrent use.
type Controller struct {
	display  Display
	geo      Geolocator
	client   *Client
	location *time.Location

	mu      sync.RWMutex
	visitor *model.Coordinates
	env     Environment

	clockOnce sync.Once
}

func New(display Display, client *Client, opts ...Option) *Controller {
	c := &Controller{
		display:  display,
		client:   client,
		location: time.Local,
		env:      Environment{Tolerance: advisor.DefaultTolerance},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateDateTime renders now into the clock element.
func (c *Controller) UpdateDateTime(now time.Time) {
	c.display.SetText(ElementDateTime, now.In(c.zone()).Format(dateTimeLayout))
}

// RunClock updates the clock every second until ctx is done. Only the
// first call starts a clock; later calls return immediately.
func (c *Controller) RunClock(ctx context.Context) {
	started := false
	c.clockOnce.Do(func() { started = true })
	if !started {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	c.UpdateDateTime(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.UpdateDateTime(now)
		}
	}
}

// GetLocation requests one position fix and reports it.
func (c *Controller) GetLocation(ctx context.Context) error {
	if c.geo == nil {
		c.display.SetText(ElementYourPos, geolocationUnsupportedText)
		return ErrGeolocationUnsupported
	}
	pos, err := c.geo.CurrentPosition(ctx)
	if err != nil {
		config.GetLogger().Warnw("Geolocation failed", "error", err)
		return fmt.Errorf("get location: %w", err)
	}
	return c.ShowPosition(ctx, pos)
}

// ShowPosition stores and renders pos, then forwards it to the server.
func (c *Controller) ShowPosition(ctx context.Context, pos model.Coordinates) error {
	c.mu.Lock()
	c.visitor = &model.Coordinates{Lat: pos.Lat, Lon: pos.Lon}
	c.mu.Unlock()

	c.display.SetText(ElementYourPos, fmt.Sprintf("Your Position is LAT: %s  LONG: %s", formatCoord(pos.Lat), formatCoord(pos.Lon)))
	return c.SendLocationToServer(ctx, pos.Lat, pos.Lon)
}

func (c *Controller) SendLocationToServer(ctx context.Context, lat, lon float64) error {
	resp, err := c.client.UpdateLocation(ctx, model.Coordinates{Lat: lat, Lon: lon})
	if err != nil {
		config.GetLogger().Errorw("Sending location failed", "error", err)
		c.display.SetText(ElementFetchStatus, "Could not send your location to the server.")
		return fmt.Errorf("send location: %w", err)
	}
	c.display.SetText(ElementFetchStatus, "")
	config.GetLogger().Infow("Location sent", "status", resp.Status)
	return nil
}

// RefreshISSPosition fetches and renders the current ISS position.
func (c *Controller) RefreshISSPosition(ctx context.Context) error {
	pos, err := c.client.RefreshISSPosition(ctx)
	if err != nil {
		config.GetLogger().Errorw("Refreshing ISS position failed", "error", err)
		c.display.SetText(ElementFetchStatus, "Could not refresh the ISS position.")
		return fmt.Errorf("refresh ISS position: %w", err)
	}

	c.mu.Lock()
	c.env.ISS.Latitude = pos.Latitude
	c.env.ISS.Longitude = pos.Longitude
	c.mu.Unlock()

	c.display.SetText(ElementFetchStatus, "")
	c.renderISS(pos.Latitude, pos.Longitude)
	return nil
}

// LoadPageData replaces the environment with the server's current values.
func (c *Controller) LoadPageData(ctx context.Context) error {
	data, err := c.client.PageData(ctx)
	if err != nil {
		config.GetLogger().Errorw("Loading page data failed", "error", err)
		c.display.SetText(ElementFetchStatus, "Could not load data from the server.")
		return fmt.Errorf("load page data: %w", err)
	}

	c.SetEnvironment(Environment{
		Weather:   data.Weather,
		Sun:       data.Sun,
		ISS:       data.ISS,
		Tolerance: data.Tolerance,
	})
	if loc, err := time.LoadLocation(data.Timezone); err == nil && data.Timezone != "" {
		c.mu.Lock()
		c.location = loc
		c.mu.Unlock()
	}
	c.display.SetText(ElementFetchStatus, "")
	c.renderISS(data.ISS.Latitude, data.ISS.Longitude)
	return nil
}

// UpdateGoLookStatus evaluates the current state and renders the advisory.
func (c *Controller) UpdateGoLookStatus(now time.Time) model.GoLookStatus {
	c.mu.RLock()
	snapshot := advisor.Snapshot{
		ISS:       c.env.ISS,
		Weather:   c.env.Weather,
		Sun:       c.env.Sun,
		Tolerance: c.env.Tolerance,
	}
	if c.visitor != nil {
		v := *c.visitor
		snapshot.Visitor = &v
	}
	loc := c.location
	c.mu.RUnlock()

	status := advisor.Evaluate(snapshot, now.In(loc))
	c.display.SetHTML(ElementGoLookStatus, status.Message)
	return status
}

// Run mirrors the page lifecycle: load, report position, advise, then keep
// the clock ticking and refresh the ISS every interval until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	if err := c.LoadPageData(ctx); err != nil {
		return err
	}
	if err := c.GetLocation(ctx); err != nil && !errors.Is(err, ErrGeolocationUnsupported) {
		config.GetLogger().Warnw("Position not reported", "error", err)
	}
	c.UpdateGoLookStatus(time.Now())

	go c.RunClock(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := c.RefreshISSPosition(ctx); err == nil {
				c.UpdateGoLookStatus(now)
			}
		}
	}
}

// SetEnvironment replaces the injected values.
func (c *Controller) SetEnvironment(env Environment) {
	if env.Tolerance <= 0 {
		env.Tolerance = advisor.DefaultTolerance
	}
	c.mu.Lock()
	c.env = env
	c.mu.Unlock()
}

// Visitor returns the last reported position, if any.
func (c *Controller) Visitor() (model.Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.visitor == nil {
		return model.Coordinates{}, false
	}
	return *c.visitor, true
}

func (c *Controller) Environment() Environment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.env
}

func (c *Controller) zone() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location
}

func (c *Controller) renderISS(lat, lon float64) {
	c.display.SetText(ElementISSPos, fmt.Sprintf("ISS Position is LAT: %s   LONG: %s", formatCoord(lat), formatCoord(lon)))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
