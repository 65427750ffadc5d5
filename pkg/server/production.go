package server

import (
	"log/slog"
	"net/http"

	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/types"
)

// WeatherRes is the response type for GetWeather.
type WeatherRes struct {
	Weather     types.WeatherSnapshot `json:"weather"`
	Coordinates types.Coordinates     `json:"coordinates"`
}

func (s *Server) handleProduction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.getUserID(r)

	cfg, _, err := s.getConfigWithMigration(ctx, userID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get panel config", slog.Any("error", err))
		writeJSONError(w, "failed to get panel config", http.StatusInternalServerError)
		return
	}

	ev := s.aggregator.Evaluate(ctx, cfg)

	switch r.URL.Query().Get("range") {
	case "":
		writeJSON(w, ev.Report)
	case string(types.GranularityToday):
		writeJSON(w, ev.Report.Today)
	case string(types.GranularityWeek):
		writeJSON(w, ev.Report.Week)
	case string(types.GranularityMonth):
		writeJSON(w, ev.Report.Month)
	default:
		writeJSONError(w, "invalid range, expected today, week or month", http.StatusBadRequest)
	}
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, WeatherRes{Weather: ev.Weather, Coordinates: ev.Coordinates})
}
