package types

import "time"

// CO2PerKWH is the grid carbon intensity (kg CO2 per kWh) used for the
// offset estimate.
const CO2PerKWH = 0.82

// SavingsReport is the response type for the savings endpoint.
type SavingsReport struct {
	Timestamp time.Time `json:"timestamp"`

	Rate Rate `json:"rate"`

	MonthlyEnergyKWH float64 `json:"monthlyEnergyKWH"`
	MonthlySavings   float64 `json:"monthlySavings"`
	DailyAverage     float64 `json:"dailyAverage"`     // MonthlySavings / 30
	YearlyProjection float64 `json:"yearlyProjection"` // MonthlySavings * 12
	CO2OffsetKg      float64 `json:"co2OffsetKg"`      // MonthlyEnergyKWH * CO2PerKWH
}
