package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiddler/domain/core"
	"fiddler/domain/run"
	"fiddler/internal/generator"
	"fiddler/internal/testkit"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite3", ":memory:", testkit.Logger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func manifest(t *testing.T, seed int64, created time.Time) *run.Manifest {
	t.Helper()
	p := testkit.QuietParams()
	p.NTraces = 3
	p.TraceLength = 20
	res, err := generator.New(generator.WithLogger(testkit.Logger(t))).Generate(context.Background(),
		generator.Request{Params: p, RNG: testkit.Streams(t)})
	require.NoError(t, err)
	m, err := run.NewManifest(p, seed, 1, res.Table)
	require.NoError(t, err)
	m.CreatedAt = core.NewTimestamp(created)
	return m
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	m := manifest(t, 11, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, store.Save(ctx, m))

	got, err := store.Get(ctx, m.RunID)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, m.TableHash, got.TableHash)
	assert.Equal(t, m.Fingerprint, got.Fingerprint)
	assert.Equal(t, m.LabelCounts, got.LabelCounts)
	assert.Equal(t, m.Params.Hash(), got.Params.Hash())
	assert.True(t, m.CreatedAt.Time().Equal(got.CreatedAt.Time()))
}

func TestSaveRejectsDuplicatesAndIncompleteManifests(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	m := manifest(t, 11, time.Now())

	require.NoError(t, store.Save(ctx, m))
	assert.Error(t, store.Save(ctx, m))

	incomplete := *m
	incomplete.TableHash = ""
	assert.Error(t, store.Save(ctx, &incomplete))
}

func TestGetMissingRun(t *testing.T) {
	_, err := openMemory(t).Get(context.Background(), core.NewRunID())
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []core.RunID
	for i := 0; i < 3; i++ {
		m := manifest(t, int64(i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Save(ctx, m))
		ids = append(ids, m.RunID)
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []core.RunID{ids[2], ids[1], ids[0]}, []core.RunID{all[0].RunID, all[1].RunID, all[2].RunID})

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFindByFingerprint(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	a := manifest(t, 5, time.Now())
	b := manifest(t, 5, time.Now().Add(time.Second))
	c := manifest(t, 6, time.Now())
	for _, m := range []*run.Manifest{a, b, c} {
		require.NoError(t, store.Save(ctx, m))
	}

	same, err := store.FindByFingerprint(ctx, a.Fingerprint.Fingerprint)
	require.NoError(t, err)
	require.Len(t, same, 2)
	assert.Equal(t, a.RunID, same[0].RunID)
	assert.Equal(t, b.RunID, same[1].RunID)
}
