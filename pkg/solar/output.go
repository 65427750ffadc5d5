package solar

import (
	"math"

	"github.com/sungauge/sungauge/pkg/types"
)

const (
	// Generation window: no output before 6AM or after 6PM.
	daylightStartHour = 6
	daylightEndHour   = 18

	// Solar noon and the half-width of the cosine falloff around it.
	solarNoonHour      = 12.5
	solarHalfWindowHrs = 6.5

	// Full cloud cover still leaves diffuse irradiance.
	cloudFactorFloor = 0.1

	// Panels derate linearly above 25C.
	tempOptimumC      = 25.0
	tempDeratePerDegC = 0.004

	// Inverter, wiring and soiling losses.
	systemLossFactor = 0.85
)

// TimeEfficiency is the time-of-day falloff: 1.0 at solar noon, cosine decay
// to zero at the edges of the daylight window.
func TimeEfficiency(hour int) float64 {
	if hour < daylightStartHour || hour > daylightEndHour {
		return 0
	}
	frac := math.Abs(float64(hour)-solarNoonHour) / solarHalfWindowHrs
	return math.Max(0, math.Cos(frac*math.Pi/2))
}

// CloudFactor scales output by cloud cover, floored at 10% for diffuse light
// under full overcast.
func CloudFactor(cloudCoverPct int) float64 {
	return math.Max(cloudFactorFloor, float64(100-cloudCoverPct)/100)
}

// TempDerate models the linear efficiency loss of panels above 25C. At or
// below the optimum it is 1.0.
func TempDerate(temperatureC float64) float64 {
	if temperatureC <= tempOptimumC {
		return 1
	}
	return 1 - tempDeratePerDegC*(temperatureC-tempOptimumC)
}

// HourlyOutput estimates the energy a panel produces during one hour under
// the given weather, in kWh. It is pure: no validation, no side effects, and
// every input has a defined non-negative result.
func HourlyOutput(capacityKW float64, hour int, w types.WeatherSnapshot, tiltDeg, azimuthDeg, latitudeDeg float64) float64 {
	timeEff := TimeEfficiency(hour)
	if timeEff == 0 {
		return 0
	}

	out := capacityKW *
		timeEff *
		CloudFactor(w.CloudCoverPct) *
		TempDerate(w.TemperatureC) *
		Efficiency(azimuthDeg, tiltDeg, latitudeDeg) *
		systemLossFactor

	return math.Max(0, out)
}
