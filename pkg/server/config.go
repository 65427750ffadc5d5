package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/storage"
	"github.com/sungauge/sungauge/pkg/types"
)

// ConfigRes is the response type for GetConfig.
type ConfigRes struct {
	Config types.PanelConfig `json:"config"`
	// SetupComplete is false when the defaults are being served because the
	// user never saved a config.
	SetupComplete bool `json:"setupComplete"`
}

// getConfigWithMigration loads the user's panel config, upgrading stored
// configs written by older versions. A missing config falls back to the
// defaults without error; callers distinguish via the bool.
func (s *Server) getConfigWithMigration(ctx context.Context, userID string) (types.PanelConfig, bool, error) {
	cfg, version, err := s.storage.GetPanelConfig(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrConfigNotFound) {
			return types.DefaultPanelConfig(), false, nil
		}
		return types.PanelConfig{}, false, err
	}

	if version < types.CurrentPanelConfigVersion {
		log.Ctx(ctx).InfoContext(ctx, "migrating panel config", slog.Int("oldVersion", version), slog.Int("newVersion", types.CurrentPanelConfigVersion))
		migrated, changed, err := types.MigratePanelConfig(cfg, version)
		if err != nil {
			// serve the stored config as-is (best effort)
			log.Ctx(ctx).ErrorContext(ctx, "failed to migrate panel config", slog.Int("currentVersion", version), slog.Any("error", err))
		} else if changed {
			cfg = migrated
			if err := s.storage.SetPanelConfig(ctx, userID, cfg, types.CurrentPanelConfigVersion); err != nil {
				// serve the migrated config even if the save failed
				log.Ctx(ctx).ErrorContext(ctx, "failed to save migrated panel config", slog.Any("error", err))
			}
		}
	}

	return cfg, true, nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.getUserID(r)

	cfg, setupComplete, err := s.getConfigWithMigration(ctx, userID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get panel config", slog.Any("error", err))
		writeJSONError(w, "failed to get panel config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, ConfigRes{Config: cfg, SetupComplete: setupComplete})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.getUserID(r)

	var cfg types.PanelConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// invalid configs never reach storage
	if err := cfg.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.SetPanelConfig(ctx, userID, cfg, types.CurrentPanelConfigVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save panel config", slog.Any("error", err))
		writeJSONError(w, "failed to save panel config", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "panel config updated",
		slog.Float64("capacityKW", cfg.CapacityKW),
		slog.Float64("azimuthDeg", cfg.AzimuthDeg),
		slog.Float64("tiltDeg", cfg.TiltDeg),
	)

	// the pending refresh timer was computed against the old orientation
	if s.rearmer != nil {
		s.rearmer.Rearm()
	}

	writeJSON(w, ConfigRes{Config: cfg, SetupComplete: true})
}
