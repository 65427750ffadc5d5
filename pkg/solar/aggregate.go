package solar

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sungauge/sungauge/pkg/location"
	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/types"
	"github.com/sungauge/sungauge/pkg/weather"
)

// Documented defaults served when weather or geolocation is unavailable.
// Stale-looking but plausible numbers beat an error page on a dashboard.
const (
	fallbackCurrentKW     = 3.2
	fallbackTodayKWH      = 24.5
	fallbackEfficiencyPct = 75
)

// historyLookbackDays covers the four trailing week buckets of the month
// series.
const historyLookbackDays = 28

// Evaluation bundles everything one dashboard pass derives from a single
// weather reading.
type Evaluation struct {
	Report      types.ProductionReport
	Weather     types.WeatherSnapshot
	Coordinates types.Coordinates

	// ProjectedDailyKWH is the full-day estimate under the current snapshot,
	// including daylight hours that haven't happened yet.
	ProjectedDailyKWH float64
	// MaxDailyKWH is the clear-sky (0% cloud, 25C) full-day estimate for the
	// same configuration.
	MaxDailyKWH float64
}

// Aggregator composes the hourly output model over time ranges using an
// injected weather source and locator, so tests can run it against fakes.
type Aggregator struct {
	weather weather.Source
	locator location.Locator

	now func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(src weather.Source, loc location.Locator) *Aggregator {
	return &Aggregator{
		weather: src,
		locator: loc,
		now:     time.Now,
	}
}

// Evaluate runs one full estimation pass. It is total: external fetch
// failures are logged and degrade to the documented fallback values, never to
// an error. Two calls with identical weather and config produce identical
// results.
func (a *Aggregator) Evaluate(ctx context.Context, cfg types.PanelConfig) Evaluation {
	now := a.now()

	coords, err := a.locator.Locate(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "geolocation failed, using fallback report", slog.Any("error", err))
		return fallbackEvaluation(now)
	}

	lat := cfg.LatitudeDeg
	if lat == 0 {
		lat = coords.Latitude
	}

	snap, err := a.weather.Current(ctx, coords)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "current weather fetch failed, using fallback report", slog.Any("error", err))
		return fallbackEvaluation(now)
	}

	today, currentKW, todayTotal, projected := BuildTodaySeries(cfg, snap, now, lat)

	report := types.ProductionReport{
		GeneratedAt:     now,
		CurrentOutputKW: currentKW,
		TodayTotalKWH:   todayTotal,
		EfficiencyPct:   DisplayEfficiencyPct(snap.CloudCoverPct),
		Today:           today,
	}

	// Week and month need archive data; a history failure degrades those two
	// series only, the live portion of the report stays.
	history, err := a.weather.History(ctx, coords, now.AddDate(0, 0, -historyLookbackDays), now)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "historical weather fetch failed, week/month series omitted", slog.Any("error", err))
		report.Week = types.ProductionSeries{Granularity: types.GranularityWeek}
		report.Month = types.ProductionSeries{Granularity: types.GranularityMonth}
	} else {
		report.Week, report.Month = BuildHistorySeries(cfg, history, now, lat)
		report.WeekTotalKWH = report.Week.TotalKWH
		report.MonthTotalKWH = report.Month.TotalKWH
	}

	log.Ctx(ctx).DebugContext(ctx, "evaluation complete",
		slog.Float64("currentOutputKW", report.CurrentOutputKW),
		slog.Float64("todayTotalKWH", report.TodayTotalKWH),
		slog.Float64("monthTotalKWH", report.MonthTotalKWH),
		slog.Int("cloudCoverPct", snap.CloudCoverPct),
	)

	return Evaluation{
		Report:            report,
		Weather:           snap,
		Coordinates:       coords,
		ProjectedDailyKWH: projected,
		MaxDailyKWH:       MaxDailyOutput(cfg.CapacityKW, cfg.TiltDeg, cfg.AzimuthDeg, lat),
	}
}

// BuildTodaySeries produces the hourly series for the current day. Hours up
// to now use the live snapshot; remaining daylight hours are projected with
// the same reading (a documented approximation, not an hour-by-hour
// forecast). It returns the series, the current instantaneous output, the
// total generated so far, and the projected full-day total.
func BuildTodaySeries(cfg types.PanelConfig, snap types.WeatherSnapshot, now time.Time, latitudeDeg float64) (types.ProductionSeries, float64, float64, float64) {
	series := types.ProductionSeries{Granularity: types.GranularityToday}

	currentHour := now.Hour()
	var sofar, projected float64
	for h := daylightStartHour; h <= daylightEndHour; h++ {
		out := HourlyOutput(cfg.CapacityKW, h, snap, cfg.TiltDeg, cfg.AzimuthDeg, latitudeDeg)
		projected += out
		if h <= currentHour {
			sofar += out
		}
		series.Points = append(series.Points, types.ProductionPoint{
			Label:     hourLabel(h),
			EnergyKWH: round2(out),
		})
	}
	series.TotalKWH = round1(sofar)

	currentKW := HourlyOutput(cfg.CapacityKW, currentHour, snap, cfg.TiltDeg, cfg.AzimuthDeg, latitudeDeg)
	return series, round2(currentKW), round1(sofar), projected
}

// BuildHistorySeries buckets archived hourly weather into the trailing-week
// daily series and the trailing-month weekly series. Each historical hour is
// computed with that hour's weather but the currently configured orientation.
func BuildHistorySeries(cfg types.PanelConfig, history []types.HistoricalHour, now time.Time, latitudeDeg float64) (types.ProductionSeries, types.ProductionSeries) {
	week := types.ProductionSeries{Granularity: types.GranularityWeek}
	month := types.ProductionSeries{Granularity: types.GranularityMonth}

	// kWh per UTC calendar day. Keyed by date string, not time.Time: archive
	// timestamps and now can carry different Locations and time.Time map keys
	// compare the Location pointer too.
	daily := make(map[string]float64)
	for _, h := range history {
		if h.Timestamp.After(now) {
			continue
		}
		snap := types.WeatherSnapshot{
			TemperatureC:  h.TemperatureC,
			CloudCoverPct: h.CloudCoverPct,
		}
		out := HourlyOutput(cfg.CapacityKW, h.Timestamp.Hour(), snap, cfg.TiltDeg, cfg.AzimuthDeg, latitudeDeg)
		daily[dayKey(h.Timestamp)] += out
	}

	today := truncateDay(now.UTC())

	// Trailing 7 calendar days, oldest first.
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		kwh := daily[dayKey(day)]
		week.Points = append(week.Points, types.ProductionPoint{
			Label:     day.Format("Mon"),
			EnergyKWH: round2(kwh),
		})
		week.TotalKWH += kwh
	}
	week.TotalKWH = round1(week.TotalKWH)

	// Four trailing 7-day spans, not calendar weeks. Week 1 is the oldest.
	for i := 3; i >= 0; i-- {
		var kwh float64
		for d := 0; d < 7; d++ {
			kwh += daily[dayKey(today.AddDate(0, 0, -(i*7 + d)))]
		}
		month.Points = append(month.Points, types.ProductionPoint{
			Label:     fmt.Sprintf("Week %d", 4-i),
			EnergyKWH: round2(kwh),
		})
		month.TotalKWH += kwh
	}
	month.TotalKWH = round1(month.TotalKWH)

	return week, month
}

// MaxDailyOutput is the clear-sky full-day estimate: 0% cloud at the optimum
// temperature, summed over the daylight window.
func MaxDailyOutput(capacityKW, tiltDeg, azimuthDeg, latitudeDeg float64) float64 {
	clear := types.WeatherSnapshot{TemperatureC: tempOptimumC, CloudCoverPct: 0}
	var total float64
	for h := daylightStartHour; h <= daylightEndHour; h++ {
		total += HourlyOutput(capacityKW, h, clear, tiltDeg, azimuthDeg, latitudeDeg)
	}
	return total
}

// DisplayEfficiencyPct is the surfaced "efficiency" metric, a simplified
// cloud-cover proxy for display only. It is distinct from Efficiency and is
// never fed back into the production math.
func DisplayEfficiencyPct(cloudCoverPct int) int {
	return int(math.Round(float64(100-cloudCoverPct) * 0.85))
}

func fallbackEvaluation(now time.Time) Evaluation {
	return Evaluation{
		Report: types.ProductionReport{
			GeneratedAt:     now,
			CurrentOutputKW: fallbackCurrentKW,
			TodayTotalKWH:   fallbackTodayKWH,
			EfficiencyPct:   fallbackEfficiencyPct,
			Today:           types.ProductionSeries{Granularity: types.GranularityToday},
			Week:            types.ProductionSeries{Granularity: types.GranularityWeek},
			Month:           types.ProductionSeries{Granularity: types.GranularityMonth},
			Fallback:        true,
		},
	}
}

func hourLabel(h int) string {
	return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("3PM")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
