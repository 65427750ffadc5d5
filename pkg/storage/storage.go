package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/types"
)

// ErrConfigNotFound is returned when a user has not completed initial setup.
var ErrConfigNotFound = errors.New("panel config not found")

// Database defines the interface for the persisted panel configuration and
// the alert log. Everything else the dashboard shows is recomputed per
// request and never stored.
type Database interface {
	// Panel configuration, keyed by user identity.
	GetPanelConfig(ctx context.Context, userID string) (types.PanelConfig, int, error)
	SetPanelConfig(ctx context.Context, userID string, cfg types.PanelConfig, version int) error

	// Alert log.
	// ReplaceDayAlerts deletes any alerts created on the given day and
	// inserts the new set, making generation safely repeatable within a day.
	ReplaceDayAlerts(ctx context.Context, userID string, day time.Time, alerts []types.Alert) error
	// PurgeAlertsBefore removes alerts created before the cutoff.
	PurgeAlertsBefore(ctx context.Context, userID string, cutoff time.Time) error
	// GetAlerts returns the most recent alerts, newest first.
	GetAlerts(ctx context.Context, userID string, limit int) ([]types.Alert, error)

	// Lifecycle
	Close() error
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
