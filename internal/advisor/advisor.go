// Package advisor decides whether the ISS is worth looking for.
//
// Every function here is pure: callers pass an immutable Snapshot and the
// current time, so the advice can be computed on the server, in the terminal
// controller, or in tests without any shared state.
package advisor

import (
	"html/template"
	"math"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/model"
)

// DefaultTolerance is the half-width in degrees of the overhead box.
const DefaultTolerance = 5.0

// OpenWeatherMap condition codes counted as a clear sky.
const (
	WeatherClear     = 800
	WeatherFewClouds = 801
)

// Snapshot is the state the advice is computed from.
// Visitor is nil until the visitor's position is known.
type Snapshot struct {
	Visitor   *model.Coordinates
	ISS       model.ISSPosition
	Weather   model.Weather
	Sun       model.SunTimes
	Tolerance float64
}

// IsClear reports whether the weather code is clear sky or few clouds.
func IsClear(weatherID int) bool {
	return weatherID == WeatherClear || weatherID == WeatherFewClouds
}

// IsNight reports whether hour falls at or after sunset or at or before sunrise.
func IsNight(hour int, sun model.SunTimes) bool {
	return hour >= sun.SunsetHour || hour <= sun.SunriseHour
}

// IsISSOverhead reports whether the ISS lies within tolerance degrees of the
// visitor on both axes. A non-positive tolerance means DefaultTolerance.
func IsISSOverhead(visitor *model.Coordinates, iss model.ISSPosition, tolerance float64) bool {
	if visitor == nil {
		return false
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return math.Abs(visitor.Lat-iss.Latitude) <= tolerance &&
		math.Abs(visitor.Lon-iss.Longitude) <= tolerance
}

// Evaluate picks the advisory for s at now. now should already be in the
// timezone the sun hours were computed in.
func Evaluate(s Snapshot, now time.Time) model.GoLookStatus {
	desc := template.HTMLEscapeString(s.Weather.Description)
	night := IsNight(now.Hour(), s.Sun)
	clearSky := IsClear(s.Weather.ID)
	overhead := IsISSOverhead(s.Visitor, s.ISS, s.Tolerance)

	status := model.GoLookStatus{Night: night, Clear: clearSky, Overhead: overhead}
	if !night {
		status.Kind = model.StatusWaitForNight
		status.Headline = "Wait for Nighttime."
		status.Message = "The weather is <i>" + desc + "</i>, and its <b>Daytime!</b> You won't see the ISS yet. Wait for Nighttime."
		return status
	}

	switch {
	case overhead && clearSky:
		status.Kind = model.StatusGoLookUp
		status.Headline = "Go Look Up!"
		status.Message = "ISS is overhead and the weather is <i>" + desc + "</i>. Go Look Up!"
	case overhead:
		status.Kind = model.StatusNotTonight
		status.Headline = "Not Tonight!"
		status.Message = "ISS is overhead but the weather is <i>" + desc + "</i>. Not Tonight!"
	case clearSky:
		status.Kind = model.StatusCheckBackLater
		status.Headline = "Check Back Later!"
		status.Message = "ISS is not overhead but the weather is <i>" + desc + "</i>, at least. Check Back Later!"
	default:
		status.Kind = model.StatusNotTonight
		status.Headline = "Not Tonight!"
		status.Message = "ISS is not overhead and the weather is <i>" + desc + "</i>. Not Tonight!"
	}
	return status
}
