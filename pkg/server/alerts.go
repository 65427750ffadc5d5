package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/rates"
	"github.com/sungauge/sungauge/pkg/types"
)

const defaultAlertLimit = 5

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.getUserID(r)

	limit := defaultAlertLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	alerts, err := s.storage.GetAlerts(ctx, userID, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get alerts", slog.Any("error", err))
		writeJSONError(w, "failed to get alerts", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []types.Alert{}
	}

	writeJSON(w, alerts)
}

// handleGenerateAlerts runs the alert rules against current conditions and
// replaces today's stored alerts with the result. The background refresh does
// the same on its schedule; this endpoint exists so the dashboard can force a
// regeneration.
func (s *Server) handleGenerateAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.getUserID(r)
	now := time.Now()

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

	generated := s.evaluator.Evaluate(ctx, ev.Weather, cfg, ev.ProjectedDailyKWH, ev.MaxDailyKWH, rate, now)

	if err := s.storage.ReplaceDayAlerts(ctx, userID, now, generated); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to store alerts", slog.Any("error", err))
		writeJSONError(w, "failed to store alerts", http.StatusInternalServerError)
		return
	}
	if err := s.storage.PurgeAlertsBefore(ctx, userID, now.Add(-types.AlertRetention)); err != nil {
		// purge failures don't invalidate the generated alerts
		log.Ctx(ctx).ErrorContext(ctx, "failed to purge expired alerts", slog.Any("error", err))
	}

	if generated == nil {
		generated = []types.Alert{}
	}
	writeJSON(w, generated)
}
