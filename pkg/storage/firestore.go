package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/sungauge/sungauge/pkg/log"
	"github.com/sungauge/sungauge/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Panel configs and the alert log live under per-user documents.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider. It registers flags for
// configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client. This must be called before using
// the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) userCollection(userID, name string) (*firestore.CollectionRef, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	return f.client.Collection("users").Doc(userID).Collection(name), nil
}

// GetPanelConfig retrieves the user's panel configuration from the
// "config/panel" document. ErrConfigNotFound means setup hasn't happened yet.
func (f *FirestoreProvider) GetPanelConfig(ctx context.Context, userID string) (types.PanelConfig, int, error) {
	coll, err := f.userCollection(userID, "config")
	if err != nil {
		return types.PanelConfig{}, 0, err
	}
	doc, err := coll.Doc("panel").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.PanelConfig{}, 0, ErrConfigNotFound
		}
		return types.PanelConfig{}, 0, fmt.Errorf("failed to fetch panel config doc: %w", err)
	}

	// Read version if available (default 0)
	var version int
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			version = int(vInt)
		}
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "panel config doc missing json", slog.String("userID", userID))
		return types.PanelConfig{}, 0, fmt.Errorf("panel config document missing 'json' field: %w", err)
	}

	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "panel config doc json not string", slog.String("userID", userID))
		return types.PanelConfig{}, 0, fmt.Errorf("panel config 'json' field is not a string")
	}

	var c types.PanelConfig
	if err := json.Unmarshal([]byte(jsonStr), &c); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal panel config json", slog.String("userID", userID), slog.Any("err", err))
		return types.PanelConfig{}, 0, fmt.Errorf("failed to unmarshal panel config json: %w", err)
	}
	return c, version, nil
}

// SetPanelConfig saves the user's panel configuration to the "config/panel"
// document. It stores the config as a JSON string for portability.
func (f *FirestoreProvider) SetPanelConfig(ctx context.Context, userID string, cfg types.PanelConfig, version int) error {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal panel config: %w", err)
	}

	coll, err := f.userCollection(userID, "config")
	if err != nil {
		return err
	}
	_, err = coll.Doc("panel").Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": version,
	})
	if err != nil {
		return fmt.Errorf("failed to save panel config: %w", err)
	}
	return nil
}

// ReplaceDayAlerts deletes the alerts created on the given calendar day and
// inserts the new set. Document IDs are the RFC3339 creation timestamp plus a
// sequence suffix counting down, so the descending read in GetAlerts returns
// a single run's alerts in rule order.
func (f *FirestoreProvider) ReplaceDayAlerts(ctx context.Context, userID string, day time.Time, alerts []types.Alert) error {
	coll, err := f.userCollection(userID, "alerts")
	if err != nil {
		return err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	if err := f.deleteAlertRange(ctx, coll, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return fmt.Errorf("failed to delete same-day alerts: %w", err)
	}

	for i, a := range alerts {
		jsonBytes, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}
		docID := fmt.Sprintf("%s-%02d", a.CreatedAt.UTC().Format(time.RFC3339), len(alerts)-1-i)
		_, err = coll.Doc(docID).Set(ctx, map[string]interface{}{
			"json":      string(jsonBytes),
			"createdAt": a.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}
	return nil
}

// PurgeAlertsBefore removes alerts created before the cutoff.
func (f *FirestoreProvider) PurgeAlertsBefore(ctx context.Context, userID string, cutoff time.Time) error {
	coll, err := f.userCollection(userID, "alerts")
	if err != nil {
		return err
	}
	return f.deleteAlertRange(ctx, coll, time.Time{}, cutoff)
}

// deleteAlertRange removes alert docs with createdAt in [start, end). A zero
// start means unbounded.
func (f *FirestoreProvider) deleteAlertRange(ctx context.Context, coll *firestore.CollectionRef, start, end time.Time) error {
	q := coll.Where("createdAt", "<", end)
	if !start.IsZero() {
		q = q.Where("createdAt", ">=", start)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("error iterating alerts for delete: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete alert %s: %w", doc.Ref.ID, err)
		}
	}
	return nil
}

// GetAlerts retrieves the most recent alerts, newest first.
func (f *FirestoreProvider) GetAlerts(ctx context.Context, userID string, limit int) ([]types.Alert, error) {
	coll, err := f.userCollection(userID, "alerts")
	if err != nil {
		return nil, err
	}
	iter := coll.
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var alerts []types.Alert
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating alerts: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "alert doc missing json", slog.String("alertID", doc.Ref.ID), slog.String("userID", userID), slog.Any("err", err))
			return nil, fmt.Errorf("alert document %s missing 'json' field: %w", doc.Ref.ID, err)
		}

		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "alert doc json not string", slog.String("alertID", doc.Ref.ID), slog.String("userID", userID))
			return nil, fmt.Errorf("alert document %s 'json' field is not string", doc.Ref.ID)
		}

		var a types.Alert
		if err := json.Unmarshal([]byte(jsonStr), &a); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal alert", slog.String("alertID", doc.Ref.ID), slog.String("userID", userID), slog.Any("err", err))
			return nil, fmt.Errorf("failed to unmarshal alert (id=%s): %w", doc.Ref.ID, err)
		}
		a.ID = doc.Ref.ID
		alerts = append(alerts, a)
	}
	return alerts, nil
}
