package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/storage"
	"github.com/sungauge/sungauge/pkg/types"
)

// seeds the firestore emulator with a panel config and a week of alerts so
// the dashboard has something to show during development.
func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	lflag.Configure()

	ctx := context.Background()
	const userID = "default"

	log.Ctx(ctx).InfoContext(ctx, "seeding mock data")

	cfg := types.PanelConfig{
		CapacityKW: 5,
		AzimuthDeg: 180,
		TiltDeg:    19,
	}
	if err := s.SetPanelConfig(ctx, userID, cfg, types.CurrentPanelConfigVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed panel config", "error", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	for d := 6; d >= 0; d-- {
		day := now.AddDate(0, 0, -d)
		created := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())

		cloud := rng.Intn(100)
		temp := 26 + rng.Float64()*12

		var alerts []types.Alert
		switch {
		case cloud < 30:
			alerts = append(alerts, types.Alert{
				Type:      types.AlertTypeProduction,
				Severity:  types.SeverityInfo,
				Title:     "Excellent Production Expected",
				Message:   fmt.Sprintf("Clear skies ahead. Expected output today: %.1f kWh.", 20+rng.Float64()*6),
				CreatedAt: created,
			})
		case cloud < 60:
			alerts = append(alerts, types.Alert{
				Type:      types.AlertTypeProduction,
				Severity:  types.SeverityInfo,
				Title:     "Moderate Production Expected",
				Message:   fmt.Sprintf("Partly cloudy conditions. Expected output today: %.1f kWh.", 12+rng.Float64()*6),
				CreatedAt: created,
			})
		default:
			alerts = append(alerts, types.Alert{
				Type:      types.AlertTypeProduction,
				Severity:  types.SeverityWarning,
				Title:     "Reduced Production Expected",
				Message:   fmt.Sprintf("Heavy cloud cover (%d%%). Expected output today: %.1f kWh.", cloud, 4+rng.Float64()*5),
				CreatedAt: created,
			})
		}

		if temp > 35 {
			alerts = append(alerts, types.Alert{
				Type:      types.AlertTypePerformance,
				Severity:  types.SeverityInfo,
				Title:     "High Temperature Note",
				Message:   fmt.Sprintf("Temperature is %.1f°C. Expect a minor efficiency loss.", temp),
				CreatedAt: created.Add(time.Minute),
			})
		}

		if err := s.ReplaceDayAlerts(ctx, userID, created, alerts); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed alerts", "error", err, "day", created.Format("2006-01-02"))
			os.Exit(1)
		}
	}

	log.Ctx(ctx).InfoContext(ctx, "seeding complete")
	if err := s.Close(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
	}
}
