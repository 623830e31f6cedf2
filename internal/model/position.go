package model

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is an observer position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate rejects latitudes outside [-90, 90], longitudes outside [-180, 180] and non-finite values.
func (c Coordinates) Validate() error {
	if !finite(c.Lat) || !finite(c.Lon) {
		return ErrInvalidCoordinates
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

const (
	SourceAPI      = "api"
	SourceTLE      = "tle"
	SourceComputed = "computed"
)

// ISSPosition is the sub-satellite point of the ISS.
type ISSPosition struct {
	Latitude  float64   `json:"iss_latitude"`
	Longitude float64   `json:"iss_longitude"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Cached    bool      `json:"cached"`
}

// SunTimes describes the local day/night boundary. Hours are in the configured timezone.
type SunTimes struct {
	SunriseHour  int       `json:"sunrise_hour"`
	SunsetHour   int       `json:"sunset_hour"`
	SunsetMinute int       `json:"sunset_minute"`
	Sunrise      time.Time `json:"sunrise"`
	Sunset       time.Time `json:"sunset"`
	Source       string    `json:"source"`
	Cached       bool      `json:"cached"`
}

// NewSunTimes derives the hour fields from sunrise and sunset converted into loc.
func NewSunTimes(sunrise, sunset time.Time, loc *time.Location, source string) SunTimes {
	sr := sunrise.In(loc)
	ss := sunset.In(loc)
	return SunTimes{
		SunriseHour:  sr.Hour(),
		SunsetHour:   ss.Hour(),
		SunsetMinute: ss.Minute(),
		Sunrise:      sr,
		Sunset:       ss,
		Source:       source,
	}
}
