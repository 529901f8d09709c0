package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"FIDDLER_OUT_DIR", "FIDDLER_WORKERS", "FIDDLER_SEED", "FIDDLER_PARAMS", "ARCHIVE_ENABLED", "ARCHIVE_DRIVER", "ARCHIVE_DSN", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./traces", cfg.Generation.OutDir)
	assert.Equal(t, 1, cfg.Generation.Workers)
	assert.Nil(t, cfg.Generation.Seed)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "sqlite3", cfg.Archive.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FIDDLER_WORKERS", "4")
	t.Setenv("FIDDLER_SEED", "42")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("ARCHIVE_DRIVER", "postgres")
	t.Setenv("ARCHIVE_DSN", "postgres://localhost/fiddler")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Generation.Workers)
	require.NotNil(t, cfg.Generation.Seed)
	assert.Equal(t, int64(42), *cfg.Generation.Seed)
	assert.Equal(t, "postgres", cfg.Archive.Driver)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("seed", func(t *testing.T) {
		t.Setenv("FIDDLER_SEED", "abc")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})
	t.Run("driver", func(t *testing.T) {
		t.Setenv("FIDDLER_SEED", "")
		t.Setenv("ARCHIVE_ENABLED", "1")
		t.Setenv("ARCHIVE_DRIVER", "mysql")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mysql")
	})
}

func TestDecodeParamsOverlaysDefaults(t *testing.T) {
	p, err := DecodeParams([]byte(`
n_traces: 50
state_means: [0.3, 0.7]
trans_prob: 0.05
noise: [0.02, 0.1]
d_lifetime: null
`))
	require.NoError(t, err)

	def := params.Default()
	assert.Equal(t, 50, p.NTraces)
	assert.Equal(t, def.TraceLength, p.TraceLength)
	assert.Equal(t, []float64{0.3, 0.7}, p.StateMeans.Values())
	assert.False(t, p.TransProb.IsRange())
	assert.True(t, p.Noise.IsRange())
	assert.Nil(t, p.DonorLifetime)
	assert.Equal(t, def.AcceptorLifetime, p.AcceptorLifetime)
}

func TestDecodeParamsRejects(t *testing.T) {
	_, err := DecodeParams([]byte("n_trace: 5\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = DecodeParams([]byte("noise: -0.5\n"))
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestDecodeParamsRejectsNonFinite(t *testing.T) {
	for _, preset := range []string{
		"noise: .nan\n",
		"noise: [0, .inf]\n",
		"blink_prob: 0.5\nblink_mean_duration: .inf\n",
		"min_state_diff: .nan\n",
		"acceptable_noise: .inf\n",
		"null_fret_value: -.inf\n",
		"d_lifetime: .inf\n",
		"state_means: [0.2, .nan]\n",
	} {
		_, err := DecodeParams([]byte(preset))
		require.Error(t, err, preset)
		assert.True(t, core.IsConfigurationError(err), preset)
	}
}

func TestLoadParamsFile(t *testing.T) {
	p, err := LoadParams("")
	require.NoError(t, err)
	assert.Equal(t, params.Default().NTraces, p.NTraces)

	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace_length: 300\nstate_means: random\n"), 0o644))
	p, err = LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 300, p.TraceLength)
	assert.True(t, p.StateMeans.IsRandom())

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
