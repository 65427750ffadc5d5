package weather

import (
	"context"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/types"
)

// Source provides current conditions and archived hourly weather for a
// location. Implementations may fail per call; callers are expected to
// degrade to fallback values rather than surface the error.
type Source interface {
	// Current returns a live reading for the coordinates.
	Current(ctx context.Context, coords types.Coordinates) (types.WeatherSnapshot, error)

	// History returns hourly observations between start and end, inclusive.
	History(ctx context.Context, coords types.Coordinates, start, end time.Time) ([]types.HistoricalHour, error)
}

// Configured sets up the weather source based on flags.
func Configured() Source {
	provider := lflag.String("weather-provider", "openmeteo", "Weather source to use (available: openmeteo)")

	var s struct{ Source }

	om := configuredOpenMeteo()

	lflag.Do(func() {
		switch *provider {
		case "openmeteo":
			s.Source = om
		default:
			panic("unknown weather provider: " + *provider)
		}
	})

	return &s
}
