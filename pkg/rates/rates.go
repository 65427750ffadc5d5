package rates

import (
	"context"
	"fmt"
	"strconv"

	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/types"
)

// DefaultRate is the grid price assumed when no rate is configured for the
// site (Mumbai residential tariff).
var DefaultRate = types.Rate{PerKWH: 8.50, Currency: "INR"}

// Lookup resolves the electricity rate used for cost-savings estimates.
type Lookup interface {
	Rate(ctx context.Context, coords types.Coordinates) (types.Rate, error)
}

// Configured sets up the rate lookup based on flags.
func Configured() Lookup {
	perKWH := lflag.String("rate-per-kwh", "", "Electricity rate per kWh (defaults to the Mumbai tariff)")
	currency := lflag.String("rate-currency", DefaultRate.Currency, "Currency code for --rate-per-kwh")

	var l struct{ Lookup }

	lflag.Do(func() {
		if *perKWH == "" {
			l.Lookup = Static(DefaultRate)
			return
		}
		rate, err := strconv.ParseFloat(*perKWH, 64)
		if err != nil || rate <= 0 {
			panic(fmt.Sprintf("invalid rate-per-kwh: %s", *perKWH))
		}
		l.Lookup = Static(types.Rate{PerKWH: rate, Currency: *currency})
	})

	return &l
}

// Static is a Lookup pinned to one rate regardless of location.
type Static types.Rate

func (s Static) Rate(context.Context, types.Coordinates) (types.Rate, error) {
	return types.Rate(s), nil
}
