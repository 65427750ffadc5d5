package server

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/rates"
	"github.com/sungauge/sungauge/pkg/types"
)

const daysPerMonthApprox = 30

// handleSavings reports the cost savings and CO2 offset implied by the
// trailing month of estimated production at the site's electricity rate.
func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.getUserID(r)

	cfg, _, err := s.getConfigWithMigration(ctx, userID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get panel config", slog.Any("error", err))
		writeJSONError(w, "failed to get panel config", http.StatusInternalServerError)
		return
	}

	ev := s.aggregator.Evaluate(ctx, cfg)
	if ev.Report.Fallback {
		writeJSONError(w, "weather currently unavailable", http.StatusBadGateway)
		return
	}

	rate, err := s.rates.Rate(ctx, ev.Coordinates)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "rate lookup failed, using default", slog.Any("error", err))
		rate = rates.DefaultRate
	}

	monthKWH := ev.Report.MonthTotalKWH
	monthly := monthKWH * rate.PerKWH

	report := types.SavingsReport{
		Timestamp:        time.Now(),
		Rate:             rate,
		MonthlyEnergyKWH: monthKWH,
		MonthlySavings:   round2(monthly),
		DailyAverage:     round2(monthly / daysPerMonthApprox),
		YearlyProjection: round2(monthly * 12),
		CO2OffsetKg:      round2(monthKWH * types.CO2PerKWH),
	}

	writeJSON(w, report)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
