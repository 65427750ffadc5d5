package rates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sungauge/sungauge/pkg/types"
)

func TestStatic(t *testing.T) {
	l := Static(types.Rate{PerKWH: 0.12, Currency: "USD"})

	rate, err := l.Rate(context.Background(), types.Coordinates{Latitude: 40, Longitude: -88})
	require.NoError(t, err)
	assert.Equal(t, 0.12, rate.PerKWH)
	assert.Equal(t, "USD", rate.Currency)
}

func TestDefaultRate(t *testing.T) {
	assert.Equal(t, 8.50, DefaultRate.PerKWH)
	assert.Equal(t, "INR", DefaultRate.Currency)
}
