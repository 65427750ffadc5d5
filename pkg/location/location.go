package location

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/types"
)

// Default site coordinates (Mumbai) used when nothing is configured.
var defaultCoordinates = types.Coordinates{Latitude: 19.12, Longitude: 72.89}

// Locator resolves the site's geographic position. Locate may fail; callers
// retry on the next evaluation rather than blocking.
type Locator interface {
	Locate(ctx context.Context) (types.Coordinates, error)
}

// Configured sets up the Locator based on flags. Explicit coordinates win
// over a geocoded city; with neither, the default site is used.
func Configured() Locator {
	lat := lflag.String("site-latitude", "", "Site latitude in degrees")
	lon := lflag.String("site-longitude", "", "Site longitude in degrees")
	city := lflag.String("site-city", "", "City to geocode into site coordinates")
	country := lflag.String("site-country", "", "Country for --site-city")
	apiKey := lflag.String("geocoder-api-key", "", "Google Geocoding API key for --site-city")

	var l struct{ Locator }

	lflag.Do(func() {
		switch {
		case *lat != "" && *lon != "":
			latDeg, err := strconv.ParseFloat(*lat, 64)
			if err != nil {
				panic(fmt.Sprintf("invalid site-latitude: %v", err))
			}
			lonDeg, err := strconv.ParseFloat(*lon, 64)
			if err != nil {
				panic(fmt.Sprintf("invalid site-longitude: %v", err))
			}
			l.Locator = Static(types.Coordinates{Latitude: latDeg, Longitude: lonDeg})
		case *city != "":
			geocoder.ApiKey = *apiKey
			l.Locator = &Geocoded{address: geocoder.Address{City: *city, Country: *country}}
		default:
			l.Locator = Static(defaultCoordinates)
		}
	})

	return &l
}

// Static is a Locator pinned to fixed coordinates.
type Static types.Coordinates

func (s Static) Locate(context.Context) (types.Coordinates, error) {
	return types.Coordinates(s), nil
}

// Geocoded resolves an address once and caches the result. A failed lookup
// is retried on the next Locate call.
type Geocoded struct {
	address geocoder.Address

	mu     sync.Mutex
	cached *types.Coordinates
}

func (g *Geocoded) Locate(ctx context.Context) (types.Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cached != nil {
		return *g.cached, nil
	}

	loc, err := geocoder.Geocoding(g.address)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("failed to geocode site address: %w", err)
	}

	coords := types.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}
	g.cached = &coords
	return coords, nil
}
