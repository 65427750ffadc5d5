package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sungauge/sungauge/pkg/storage/storagemock"
	"github.com/sungauge/sungauge/pkg/types"
)

func TestSavings(t *testing.T) {
	t.Run("ComputedFromMonthTotal", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetPanelConfig", mock.Anything, "default").
			Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)

		srv := newTestServer(db,
			&mockWeather{snap: testSnapshot(), history: testHistory()},
			&mockLocator{coords: testCoords()}, nil)

		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/savings", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var report types.SavingsReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

		assert.Equal(t, "INR", report.Rate.Currency)
		assert.Equal(t, 8.50, report.Rate.PerKWH)
		assert.InDelta(t, report.MonthlyEnergyKWH*8.50, report.MonthlySavings, 0.01)
		assert.InDelta(t, report.MonthlySavings/30, report.DailyAverage, 0.01)
		assert.InDelta(t, report.MonthlySavings*12, report.YearlyProjection, 0.1)
		assert.InDelta(t, report.MonthlyEnergyKWH*types.CO2PerKWH, report.CO2OffsetKg, 0.01)
	})

	t.Run("WeatherUnavailable", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetPanelConfig", mock.Anything, "default").
			Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)

		srv := newTestServer(db,
			&mockWeather{currentErr: errors.New("api down")},
			&mockLocator{coords: testCoords()}, nil)

		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/savings", nil))
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
