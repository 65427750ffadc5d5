package types

import "time"

// SeriesGranularity identifies which time series a ProductionSeries holds.
type SeriesGranularity string

const (
	GranularityToday SeriesGranularity = "today" // hourly points for the current day
	GranularityWeek  SeriesGranularity = "week"  // daily points over the trailing 7 days
	GranularityMonth SeriesGranularity = "month" // weekly points over the trailing 4 weeks
)

// ProductionPoint is one labeled bucket of estimated energy.
type ProductionPoint struct {
	Label     string  `json:"label"`
	EnergyKWH float64 `json:"energyKWH"`
}

// ProductionSeries is an ordered series of estimated production, recomputed
// from scratch on every request.
type ProductionSeries struct {
	Granularity SeriesGranularity `json:"granularity"`
	Points      []ProductionPoint `json:"points"`
	TotalKWH    float64           `json:"totalKWH"`
}

// ProductionReport is the full derived dashboard state for one evaluation.
type ProductionReport struct {
	GeneratedAt time.Time `json:"generatedAt"`

	CurrentOutputKW float64 `json:"currentOutputKW"`
	TodayTotalKWH   float64 `json:"todayTotalKWH"`
	WeekTotalKWH    float64 `json:"weekTotalKWH"`
	MonthTotalKWH   float64 `json:"monthTotalKWH"`

	// EfficiencyPct is the display-only proxy round((100-cloudCover)*0.85),
	// not the orientation efficiency used inside the production math.
	EfficiencyPct int `json:"efficiencyPct"`

	Today ProductionSeries `json:"today"`
	Week  ProductionSeries `json:"week"`
	Month ProductionSeries `json:"month"`

	// Fallback is true when weather or geolocation failed and the report
	// holds the documented default values instead of live estimates.
	Fallback bool `json:"fallback,omitempty"`
}

// Rate is the electricity price used for cost-savings estimates.
type Rate struct {
	PerKWH   float64 `json:"perKWH"`
	Currency string  `json:"currency"`
}
