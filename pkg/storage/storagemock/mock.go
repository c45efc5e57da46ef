// Package storagemock provides a testify mock of the storage.Database
// interface for use in server and pipeline tests.
package storagemock

import (
	"context"

	"github.com/chargecost/chargecost/pkg/storage"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SaveRun(ctx context.Context, run types.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDatabase) GetRun(ctx context.Context, id string) (types.Run, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Run), args.Error(1)
}

func (m *MockDatabase) GetLatestRun(ctx context.Context) (types.Run, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Run), args.Error(1)
}

func (m *MockDatabase) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Run), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
