package context

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextReadAndPartition(t *testing.T) {
	dir := t.TempDir()
	hgrPath := filepath.Join(dir, "tiny.hgr")
	require.NoError(t, os.WriteFile(hgrPath, []byte("8 8 0\n1 2\n2 3\n3 4\n4 1\n5 6\n6 7\n7 8\n8 5\n"), 0o644))

	ctx, err := New()
	require.NoError(t, err)
	defer ctx.Close()

	ctx.InitializeThreadPool(1, false)

	hg, err := ctx.ReadHypergraphFromFile(hgrPath)
	require.NoError(t, err)
	assert.Equal(t, 8, hg.NumVertices())

	res, err := ctx.Partition(hg, 2, 0.1, 7, false)
	require.NoError(t, err)
	require.Len(t, res.Partition, 8)
	for _, b := range res.Partition {
		assert.GreaterOrEqual(t, int(b), 0)
		assert.Less(t, int(b), 2)
	}
}

func TestContextConfigureFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "hpart.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("contraction-limit: 32\nlog-level: debug\n"), 0o644))

	ctx, err := New()
	require.NoError(t, err)
	defer ctx.Close()

	require.NoError(t, ctx.ConfigureFromFile(cfgPath))
	assert.Equal(t, 32, ctx.cfg.ContractionLimit)
}
