package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sungauge/sungauge/pkg/storage/storagemock"
	"github.com/sungauge/sungauge/pkg/types"
)

func TestListAlerts(t *testing.T) {
	stored := []types.Alert{
		{Type: types.AlertTypeWeather, Severity: types.SeverityCritical, Title: "Severe Weather Alert", CreatedAt: time.Now()},
		{Type: types.AlertTypeProduction, Severity: types.SeverityInfo, Title: "Excellent Production Expected", CreatedAt: time.Now()},
	}

	t.Run("DefaultLimit", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetAlerts", mock.Anything, "default", defaultAlertLimit).
			Return(stored, nil)

		srv := newTestServer(db, &mockWeather{}, &mockLocator{}, nil)
		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []types.Alert
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Severe Weather Alert", got[0].Title)
		db.AssertExpectations(t)
	})

	t.Run("ExplicitLimit", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetAlerts", mock.Anything, "default", 20).
			Return([]types.Alert(nil), nil)

		srv := newTestServer(db, &mockWeather{}, &mockLocator{}, nil)
		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts?limit=20", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String(), "no alerts serializes as an empty array")
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		srv := newTestServer(db, &mockWeather{}, &mockLocator{}, nil)

		for _, raw := range []string{"abc", "0", "-3"} {
			rec := httptest.NewRecorder()
			srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts?limit="+raw, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", raw)
		}
	})

	t.Run("StorageError", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetAlerts", mock.Anything, "default", defaultAlertLimit).
			Return([]types.Alert(nil), errors.New("firestore unavailable"))

		srv := newTestServer(db, &mockWeather{}, &mockLocator{}, nil)
		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGenerateAlerts(t *testing.T) {
	t.Run("StoresAndReturns", func(t *testing.T) {
		var stored []types.Alert
		db := new(storagemock.MockDatabase)
		db.On("GetPanelConfig", mock.Anything, "default").
			Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)
		db.On("ReplaceDayAlerts", mock.Anything, "default", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				stored = args.Get(3).([]types.Alert)
			}).
			Return(nil)
		db.On("PurgeAlertsBefore", mock.Anything, "default", mock.Anything).
			Return(nil)

		srv := newTestServer(db,
			&mockWeather{snap: testSnapshot(), history: testHistory()},
			&mockLocator{coords: testCoords()}, nil)

		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/generate", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var returned []types.Alert
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &returned))
		require.NotEmpty(t, returned, "the production tier always fires")
		assert.Len(t, returned, len(stored))
		db.AssertExpectations(t)
	})

	t.Run("WeatherUnavailable", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetPanelConfig", mock.Anything, "default").
			Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)

		srv := newTestServer(db,
			&mockWeather{currentErr: errors.New("api down")},
			&mockLocator{coords: testCoords()}, nil)

		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/generate", nil))

		require.Equal(t, http.StatusBadGateway, rec.Code)
		db.AssertNotCalled(t, "ReplaceDayAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StorageError", func(t *testing.T) {
		db := new(storagemock.MockDatabase)
		db.On("GetPanelConfig", mock.Anything, "default").
			Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)
		db.On("ReplaceDayAlerts", mock.Anything, "default", mock.Anything, mock.Anything).
			Return(errors.New("firestore unavailable"))

		srv := newTestServer(db,
			&mockWeather{snap: testSnapshot(), history: testHistory()},
			&mockLocator{coords: testCoords()}, nil)

		rec := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/generate", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
