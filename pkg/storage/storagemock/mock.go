package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/sungauge/sungauge/pkg/storage"
	"github.com/sungauge/sungauge/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetPanelConfig(ctx context.Context, userID string) (types.PanelConfig, int, error) {
	args := m.Called(ctx, userID)
	if len(args) > 0 {
		return args.Get(0).(types.PanelConfig), args.Int(1), args.Error(2)
	}
	return types.PanelConfig{}, 0, nil
}

func (m *MockDatabase) SetPanelConfig(ctx context.Context, userID string, cfg types.PanelConfig, version int) error {
	args := m.Called(ctx, userID, cfg, version)
	return args.Error(0)
}

func (m *MockDatabase) ReplaceDayAlerts(ctx context.Context, userID string, day time.Time, alerts []types.Alert) error {
	args := m.Called(ctx, userID, day, alerts)
	return args.Error(0)
}

func (m *MockDatabase) PurgeAlertsBefore(ctx context.Context, userID string, cutoff time.Time) error {
	args := m.Called(ctx, userID, cutoff)
	return args.Error(0)
}

func (m *MockDatabase) GetAlerts(ctx context.Context, userID string, limit int) ([]types.Alert, error) {
	args := m.Called(ctx, userID, limit)
	if len(args) > 0 {
		return args.Get(0).([]types.Alert), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
