package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sungauge/sungauge/pkg/solar"
	"github.com/sungauge/sungauge/pkg/types"
)

// Rule thresholds. Each rule fires independently; ordering of emitted alerts
// is rule-declaration order.
const (
	cloudExcellentUnderPct = 30
	cloudModerateUnderPct  = 60

	extremeHeatOverC = 38.0
	heatNoteOverC    = 35.0
	heatLossPerDegC  = 0.4

	windInspectOverKPH = 50.0
	windCoolingOverKPH = 30.0

	orientationTiltSlackDeg    = 10.0
	orientationAzimuthSlackDeg = 30.0

	uvExtremeIndex = 11.0
)

// Evaluator turns one weather reading plus the day's production estimate into
// zero or more categorized alerts. It is deterministic and stateless; the
// daily-replace policy in storage is what makes repeated runs idempotent.
type Evaluator struct {
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate runs every rule against the inputs. Rules are not mutually
// exclusive apart from the production-outlook tiers, where exactly one fires.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	w types.WeatherSnapshot,
	cfg types.PanelConfig,
	estimatedDailyKWH float64,
	maxDailyKWH float64,
	rate types.Rate,
	now time.Time,
) []types.Alert {
	slog.DebugContext(ctx, "alert evaluation started",
		slog.Int("cloudCoverPct", w.CloudCoverPct),
		slog.Float64("temperatureC", w.TemperatureC),
		slog.Float64("windSpeedKPH", w.WindSpeedKPH),
		slog.Int("weatherCode", w.WeatherCode),
		slog.Float64("estimatedDailyKWH", estimatedDailyKWH),
	)

	lat := cfg.LatitudeDeg
	if lat == 0 {
		lat = solar.DefaultLatitude
	}

	var out []types.Alert
	add := func(t types.AlertType, sev types.AlertSeverity, title, message string) {
		out = append(out, types.Alert{
			Type:      t,
			Severity:  sev,
			Title:     title,
			Message:   message,
			CreatedAt: now,
		})
	}

	// Rule 1: production outlook, exactly one tier.
	efficiencyPct := solar.DisplayEfficiencyPct(w.CloudCoverPct)
	savings := estimatedDailyKWH * rate.PerKWH
	switch {
	case w.CloudCoverPct < cloudExcellentUnderPct:
		add(types.AlertTypeProduction, types.SeverityInfo,
			"Excellent Production Expected",
			fmt.Sprintf("Clear skies ahead. Expected output today: %.1f kWh at %d%% efficiency, saving about %.2f %s.",
				estimatedDailyKWH, efficiencyPct, savings, rate.Currency))
	case w.CloudCoverPct < cloudModerateUnderPct:
		add(types.AlertTypeProduction, types.SeverityInfo,
			"Moderate Production Expected",
			fmt.Sprintf("Partly cloudy conditions. Expected output today: %.1f kWh at %d%% efficiency, saving about %.2f %s.",
				estimatedDailyKWH, efficiencyPct, savings, rate.Currency))
	default:
		ofClearSky := 0
		if maxDailyKWH > 0 {
			ofClearSky = int(math.Round(estimatedDailyKWH / maxDailyKWH * 100))
		}
		add(types.AlertTypeProduction, types.SeverityWarning,
			"Reduced Production Expected",
			fmt.Sprintf("Heavy cloud cover (%d%%). Expected output today: %.1f kWh (%d%% of clear-sky) at %d%% efficiency, saving about %.2f %s.",
				w.CloudCoverPct, estimatedDailyKWH, ofClearSky, efficiencyPct, savings, rate.Currency))
	}

	// Rule 2: severe weather by WMO code.
	switch {
	case w.WeatherCode >= types.WeatherCodeShowersMin:
		add(types.AlertTypeWeather, types.SeverityCritical,
			"Severe Weather Alert",
			"Showers or thunderstorms detected. Production will be significantly impacted; system monitoring for potential issues.")
	case w.WeatherCode >= types.WeatherCodeDrizzleMin:
		add(types.AlertTypeWeather, types.SeverityWarning,
			"Precipitation Expected",
			"Rain or drizzle detected. Expect reduced production while precipitation lasts.")
	}

	// Rule 3: panel temperature derate.
	if w.TemperatureC > heatNoteOverC {
		lossPct := int(math.Round((w.TemperatureC - 25) * heatLossPerDegC))
		if w.TemperatureC > extremeHeatOverC {
			add(types.AlertTypePerformance, types.SeverityWarning,
				"Extreme Heat Warning",
				fmt.Sprintf("Temperature is %.1f°C. Panel efficiency reduced by roughly %d%% due to heat.", w.TemperatureC, lossPct))
		} else {
			add(types.AlertTypePerformance, types.SeverityInfo,
				"High Temperature Note",
				fmt.Sprintf("Temperature is %.1f°C. Expect a minor efficiency loss of about %d%%.", w.TemperatureC, lossPct))
		}
	}

	// Rule 4: wind.
	if w.WindSpeedKPH > windInspectOverKPH {
		add(types.AlertTypeMaintenance, types.SeverityCritical,
			"Strong Wind Alert",
			fmt.Sprintf("Wind speed %.0f km/h. Inspect panel mounting and connections once the wind subsides.", w.WindSpeedKPH))
	} else if w.WindSpeedKPH > windCoolingOverKPH {
		add(types.AlertTypePerformance, types.SeverityInfo,
			"Breezy Conditions",
			fmt.Sprintf("Wind speed %.0f km/h is helping keep panels cool, slightly improving output.", w.WindSpeedKPH))
	}

	// Rule 5: orientation tip against the latitude optimum.
	optTilt := solar.OptimalTilt(lat)
	optAzimuth := solar.OptimalAzimuth(lat)
	if math.Abs(cfg.TiltDeg-optTilt) > orientationTiltSlackDeg ||
		solar.AzimuthDistance(cfg.AzimuthDeg, optAzimuth) > orientationAzimuthSlackDeg {
		current := solar.Efficiency(cfg.AzimuthDeg, cfg.TiltDeg, lat)
		best := solar.Efficiency(optAzimuth, optTilt, lat)
		gainPct := int(math.Round((best/current - 1) * 100))
		add(types.AlertTypeOptimization, types.SeverityInfo,
			"Panel Orientation Tip",
			fmt.Sprintf("Re-orienting to %.0f° azimuth and %.0f° tilt could raise output by about %d%%.", optAzimuth, optTilt, gainPct))
	}

	// Rule 6: extreme UV.
	if w.UVIndexMax != nil && *w.UVIndexMax >= uvExtremeIndex {
		add(types.AlertTypeWeather, types.SeverityInfo,
			"Extreme UV Index",
			fmt.Sprintf("UV index of %.0f today. Strong irradiance; take care during any panel maintenance.", *w.UVIndexMax))
	}

	slog.DebugContext(ctx, "alert evaluation finished", slog.Int("alerts", len(out)))
	return out
}
