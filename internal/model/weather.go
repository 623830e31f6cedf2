package model

// Weather is the current condition at the observer's position.
// ID follows the OpenWeatherMap condition codes (800 clear, 801 few clouds).
type Weather struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	Location    string  `json:"location"`
	Cached      bool    `json:"cached"`
}

// UnavailableWeather stands in when the weather provider cannot be reached.
func UnavailableWeather() Weather {
	return Weather{ID: 0, Description: "unavailable"}
}
