package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sungauge/sungauge/pkg/types"
)

func testOpenMeteo(forecastURL, archiveURL string) *OpenMeteo {
	return &OpenMeteo{
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		client:      &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "openmeteo-test",
		}),
	}
}

var testCoords = types.Coordinates{Latitude: 19.12, Longitude: 72.89}

func TestOpenMeteoCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "19.1200", q.Get("latitude"))
		assert.Equal(t, "72.8900", q.Get("longitude"))
		assert.Contains(t, q.Get("current"), "cloud_cover")
		assert.Equal(t, "1", q.Get("forecast_days"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current": {
				"time": "2026-08-26T14:00",
				"temperature_2m": 31.4,
				"relative_humidity_2m": 68,
				"cloud_cover": 25,
				"wind_speed_10m": 14.2,
				"weather_code": 2
			},
			"daily": {
				"uv_index_max": [11.2],
				"sunshine_duration": [39600.5]
			}
		}`))
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	snap, err := o.Current(context.Background(), testCoords)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC), snap.Timestamp)
	assert.Equal(t, 31.4, snap.TemperatureC)
	assert.Equal(t, 25, snap.CloudCoverPct)
	assert.Equal(t, 14.2, snap.WindSpeedKPH)
	assert.Equal(t, 2, snap.WeatherCode)
	require.NotNil(t, snap.HumidityPct)
	assert.Equal(t, 68, *snap.HumidityPct)
	require.NotNil(t, snap.UVIndexMax)
	assert.Equal(t, 11.2, *snap.UVIndexMax)
	require.NotNil(t, snap.SunshineDurationSec)
	assert.Equal(t, 39600.5, *snap.SunshineDurationSec)
}

func TestOpenMeteoCurrentMissingDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current": {"time": "2026-08-26T14:00", "temperature_2m": 28, "cloud_cover": 90, "wind_speed_10m": 5, "weather_code": 61}}`))
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	snap, err := o.Current(context.Background(), testCoords)
	require.NoError(t, err)
	assert.Nil(t, snap.HumidityPct)
	assert.Nil(t, snap.UVIndexMax)
	assert.Nil(t, snap.SunshineDurationSec)
}

func TestOpenMeteoHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-08-19", q.Get("start_date"))
		assert.Equal(t, "2026-08-26", q.Get("end_date"))
		assert.Equal(t, "temperature_2m,cloud_cover", q.Get("hourly"))

		w.Write([]byte(`{
			"hourly": {
				"time": ["2026-08-19T00:00", "2026-08-19T01:00", "2026-08-19T02:00"],
				"temperature_2m": [27.1, null, 26.8],
				"cloud_cover": [80, 75, null]
			}
		}`))
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	start := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	hours, err := o.History(context.Background(), testCoords, start, end)
	require.NoError(t, err)

	// hours with null temperature or cloud cover are dropped
	require.Len(t, hours, 1)
	assert.Equal(t, start, hours[0].Timestamp)
	assert.Equal(t, 27.1, hours[0].TemperatureC)
	assert.Equal(t, 80, hours[0].CloudCoverPct)
}

func TestOpenMeteoRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"current": {"time": "2026-08-26T14:00", "temperature_2m": 28, "cloud_cover": 50, "wind_speed_10m": 5, "weather_code": 3}}`))
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	snap, err := o.Current(context.Background(), testCoords)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 50, snap.CloudCoverPct)
}

func TestOpenMeteoGivesUpAfterRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	_, err := o.Current(context.Background(), testCoords)
	require.Error(t, err)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, 3, calls)
}

func TestOpenMeteoBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	// default breaker settings trip after 5 consecutive failures
	for i := 0; i < 3; i++ {
		_, err := o.Current(context.Background(), testCoords)
		require.Error(t, err)
	}

	_, err := o.Current(context.Background(), testCoords)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestOpenMeteoUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	o := testOpenMeteo(srv.URL, srv.URL)

	_, err := o.Current(context.Background(), testCoords)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected status code: 400")
}
