package ports

import (
	"context"

	"fiddler/domain/core"
	"fiddler/domain/run"
)

// RunArchive persists run manifests so runs can be listed and replayed
type RunArchive interface {
	Save(ctx context.Context, m *run.Manifest) error
	Get(ctx context.Context, id core.RunID) (*run.Manifest, error)
	List(ctx context.Context, limit int) ([]*run.Manifest, error)
}
