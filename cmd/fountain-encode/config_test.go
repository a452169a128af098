package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fountaincodec/fountain/pkg/qr"
)

func TestLoadFileConfigEmptyPath(t *testing.T) {
	fc, err := loadFileConfig("")
	require.NoError(t, err)
	assert.Equal(t, fileConfig{}, fc)
}

func TestLoadFileConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carousel.yaml")
	contents := "chunk_size: 900\nanchor_every: 8\npixel_scale: 6\nqr_ecc: \"Q\"\ninterval_ms: 150\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	fc, err := loadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(900), fc.ChunkSize)
	assert.Equal(t, uint16(8), fc.AnchorEvery)
	assert.Equal(t, uint8(6), fc.PixelScale)
	assert.Equal(t, "Q", fc.QrEcc)
	assert.Equal(t, 150, fc.IntervalMs)
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	_, err := loadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFileConfigMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: [this is not a scalar"), 0o644))

	_, err := loadFileConfig(path)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, qr.LevelL, parseLevel("l"))
	assert.Equal(t, qr.LevelL, parseLevel("bogus"))
	assert.Equal(t, qr.LevelH, parseLevel("H"))
}
