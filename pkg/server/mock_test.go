package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sungauge/sungauge/pkg/alerts"
	"github.com/sungauge/sungauge/pkg/rates"
	"github.com/sungauge/sungauge/pkg/solar"
	"github.com/sungauge/sungauge/pkg/storage"
	"github.com/sungauge/sungauge/pkg/types"
)

type mockWeather struct {
	snap    types.WeatherSnapshot
	history []types.HistoricalHour

	currentErr error
	historyErr error
}

func (m *mockWeather) Current(ctx context.Context, coords types.Coordinates) (types.WeatherSnapshot, error) {
	return m.snap, m.currentErr
}

func (m *mockWeather) History(ctx context.Context, coords types.Coordinates, start, end time.Time) ([]types.HistoricalHour, error) {
	return m.history, m.historyErr
}

type mockLocator struct {
	coords types.Coordinates
	err    error
}

func (m *mockLocator) Locate(ctx context.Context) (types.Coordinates, error) {
	return m.coords, m.err
}

type mockRearmer struct {
	calls atomic.Int32
}

func (m *mockRearmer) Rearm() {
	m.calls.Add(1)
}

func testCoords() types.Coordinates {
	return types.Coordinates{Latitude: 19.12, Longitude: 72.89}
}

func testSnapshot() types.WeatherSnapshot {
	return types.WeatherSnapshot{
		Timestamp:     time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC),
		TemperatureC:  30,
		CloudCoverPct: 20,
		WindSpeedKPH:  12,
	}
}

func testHistory() []types.HistoricalHour {
	day := time.Now().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	var hh []types.HistoricalHour
	for h := 0; h < 24; h++ {
		hh = append(hh, types.HistoricalHour{
			Timestamp:     day.Add(time.Duration(h) * time.Hour),
			TemperatureC:  28,
			CloudCoverPct: 30,
		})
	}
	return hh
}

func newTestServer(db storage.Database, src *mockWeather, loc *mockLocator, rearmer Rearmer) *Server {
	return &Server{
		storage:      db,
		aggregator:   solar.NewAggregator(src, loc),
		evaluator:    alerts.NewEvaluator(),
		rates:        rates.Static(rates.DefaultRate),
		rearmer:      rearmer,
		bypassAuth:   true,
		bypassUserID: "default",
		serverName:   "sungauge",
	}
}
