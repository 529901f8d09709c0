package testkit

import (
	"context"
	"math/rand/v2"

	"github.com/stretchr/testify/mock"

	"fiddler/domain/core"
	"fiddler/domain/run"
	"fiddler/ports"
)

// MockRNG is a testify mock of ports.RNGPort.
type MockRNG struct {
	mock.Mock
}

var _ ports.RNGPort = (*MockRNG)(nil)

func (m *MockRNG) Seed() int64 {
	return m.Called().Get(0).(int64)
}

func (m *MockRNG) Reseed(verbose bool) int64 {
	return m.Called(verbose).Get(0).(int64)
}

func (m *MockRNG) SetSeed(seed int64) {
	m.Called(seed)
}

func (m *MockRNG) Stream(slot, attempt int) rand.Source {
	return m.Called(slot, attempt).Get(0).(rand.Source)
}

// MockArchive is a testify mock of ports.RunArchive.
type MockArchive struct {
	mock.Mock
}

var _ ports.RunArchive = (*MockArchive)(nil)

func (m *MockArchive) Save(ctx context.Context, manifest *run.Manifest) error {
	return m.Called(ctx, manifest).Error(0)
}

func (m *MockArchive) Get(ctx context.Context, id core.RunID) (*run.Manifest, error) {
	args := m.Called(ctx, id)
	manifest, _ := args.Get(0).(*run.Manifest)
	return manifest, args.Error(1)
}

func (m *MockArchive) List(ctx context.Context, limit int) ([]*run.Manifest, error) {
	args := m.Called(ctx, limit)
	manifests, _ := args.Get(0).([]*run.Manifest)
	return manifests, args.Error(1)
}
