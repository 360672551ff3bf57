package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/coarsening"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hpart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
contraction-limit: 64
objective: cut
rating-function: average
flow-enabled: false
seed: 42
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.ContractionLimit)
	assert.Equal(t, metrics.Cut, cfg.Objective)
	assert.Equal(t, coarsening.AverageRating, cfg.RatingFunction)
	assert.False(t, cfg.FlowEnabled)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.True(t, cfg.LPEnabled, "LPEnabled should fall back to its default when omitted")
}

func TestLoadFileRejectsUnknownObjective(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hpart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("objective: nonsense\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestDefaultsAreRunnable(t *testing.T) {
	d := Defaults()
	assert.Greater(t, d.ContractionLimit, 0)
	assert.Greater(t, d.MinShrinkFactor, 1.0)
}
