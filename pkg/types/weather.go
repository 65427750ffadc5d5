package types

import "time"

// WeatherSnapshot is one live reading of current conditions. It is fetched
// fresh per evaluation and never persisted.
type WeatherSnapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperatureC"`
	CloudCoverPct int       `json:"cloudCoverPct"` // 0-100
	WindSpeedKPH  float64   `json:"windSpeedKPH"`
	WeatherCode   int       `json:"weatherCode"` // WMO code

	// Optional fields, absent when the source doesn't report them.
	HumidityPct         *int     `json:"humidityPct,omitempty"`
	SunshineDurationSec *float64 `json:"sunshineDurationSec,omitempty"`
	UVIndexMax          *float64 `json:"uvIndexMax,omitempty"`
}

// HistoricalHour is one hour of archived weather, the subset of fields the
// production model consumes.
type HistoricalHour struct {
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperatureC"`
	CloudCoverPct int       `json:"cloudCoverPct"`
}

// Coordinates is a geographic location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WMO weather code groups used by the alert rules.
const (
	WeatherCodeShowersMin = 80 // 80-99: showers, thunderstorms
	WeatherCodeDrizzleMin = 51 // 51-79: drizzle, rain, snow
)
