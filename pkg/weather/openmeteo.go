package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/sony/gobreaker"
	"github.com/sungauge/sungauge/pkg/common"
	"github.com/sungauge/sungauge/pkg/types"
)

const (
	openMeteoRetries      = 2
	openMeteoRetryBackoff = 500 * time.Millisecond

	// archive hourly timestamps come without a zone offset
	openMeteoHourLayout = "2006-01-02T15:04"
)

var (
	errServerError = errors.New("weather api server error")
	errRateLimited = errors.New("weather api rate limited")
)

// OpenMeteo is a Source backed by the Open-Meteo forecast and archive APIs.
// Both endpoints sit behind one circuit breaker so a flapping upstream stops
// being hammered by the 15-minute refresh cycle.
type OpenMeteo struct {
	forecastURL string
	archiveURL  string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
}

// configuredOpenMeteo sets up the Open-Meteo source. It registers flags for
// configuration.
func configuredOpenMeteo() *OpenMeteo {
	forecastURL := lflag.String("openmeteo-forecast-url", "https://api.open-meteo.com/v1/forecast", "Open-Meteo forecast API base URL")
	archiveURL := lflag.String("openmeteo-archive-url", "https://archive-api.open-meteo.com/v1/archive", "Open-Meteo archive API base URL")
	timeout := lflag.Duration("openmeteo-timeout", 10*time.Second, "Timeout for Open-Meteo requests")

	o := &OpenMeteo{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openmeteo",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}

	lflag.Do(func() {
		o.forecastURL = *forecastURL
		o.archiveURL = *archiveURL
		o.client = common.HTTPClient(*timeout)
	})

	return o
}

// Current fetches live conditions from the forecast endpoint.
func (o *OpenMeteo) Current(ctx context.Context, coords types.Coordinates) (types.WeatherSnapshot, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
	values.Set("current", "temperature_2m,relative_humidity_2m,cloud_cover,wind_speed_10m,weather_code")
	values.Set("daily", "uv_index_max,sunshine_duration")
	values.Set("forecast_days", "1")
	values.Set("timezone", "auto")

	var payload struct {
		Current struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			Humidity    *int    `json:"relative_humidity_2m"`
			CloudCover  int     `json:"cloud_cover"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
		Daily struct {
			UVIndexMax       []float64 `json:"uv_index_max"`
			SunshineDuration []float64 `json:"sunshine_duration"`
		} `json:"daily"`
	}

	if err := o.getJSON(ctx, o.forecastURL+"?"+values.Encode(), &payload); err != nil {
		return types.WeatherSnapshot{}, err
	}

	ts, err := time.Parse(openMeteoHourLayout, payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	snap := types.WeatherSnapshot{
		Timestamp:     ts,
		TemperatureC:  payload.Current.Temperature,
		CloudCoverPct: payload.Current.CloudCover,
		WindSpeedKPH:  payload.Current.WindSpeed,
		WeatherCode:   payload.Current.WeatherCode,
		HumidityPct:   payload.Current.Humidity,
	}
	if len(payload.Daily.UVIndexMax) > 0 {
		uv := payload.Daily.UVIndexMax[0]
		snap.UVIndexMax = &uv
	}
	if len(payload.Daily.SunshineDuration) > 0 {
		sd := payload.Daily.SunshineDuration[0]
		snap.SunshineDurationSec = &sd
	}
	return snap, nil
}

// History fetches hourly temperature and cloud cover from the archive
// endpoint. Hours with missing values are skipped.
func (o *OpenMeteo) History(ctx context.Context, coords types.Coordinates, start, end time.Time) ([]types.HistoricalHour, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
	values.Set("start_date", start.Format("2006-01-02"))
	values.Set("end_date", end.Format("2006-01-02"))
	values.Set("hourly", "temperature_2m,cloud_cover")
	values.Set("timezone", "auto")

	var payload struct {
		Hourly struct {
			Time        []string   `json:"time"`
			Temperature []*float64 `json:"temperature_2m"`
			CloudCover  []*int     `json:"cloud_cover"`
		} `json:"hourly"`
	}

	if err := o.getJSON(ctx, o.archiveURL+"?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	hours := make([]types.HistoricalHour, 0, len(payload.Hourly.Time))
	for i, raw := range payload.Hourly.Time {
		if i >= len(payload.Hourly.Temperature) || i >= len(payload.Hourly.CloudCover) {
			break
		}
		if payload.Hourly.Temperature[i] == nil || payload.Hourly.CloudCover[i] == nil {
			continue
		}
		ts, err := time.Parse(openMeteoHourLayout, raw)
		if err != nil {
			continue
		}
		hours = append(hours, types.HistoricalHour{
			Timestamp:     ts,
			TemperatureC:  *payload.Hourly.Temperature[i],
			CloudCoverPct: *payload.Hourly.CloudCover[i],
		})
	}
	return hours, nil
}

// getJSON executes a GET through the circuit breaker with a small bounded
// retry, decoding the body into out.
func (o *OpenMeteo) getJSON(ctx context.Context, u string, out any) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := o.breaker.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return nil, err
			}
			resp, err := o.client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			}
			return nil, json.NewDecoder(resp.Body).Decode(out)
		})
		if err == nil {
			return nil
		}

		// an open breaker won't recover within this request
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("weather api circuit open: %w", err)
		}

		lastErr = err
		if attempt >= openMeteoRetries {
			return lastErr
		}

		timer := time.NewTimer(openMeteoRetryBackoff << attempt)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
