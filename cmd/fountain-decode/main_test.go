package main

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadFramesDirectoryOfStills(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame-00000001.png"))
	writePNG(t, filepath.Join(dir, "frame-00000000.png"))
	writePNG(t, filepath.Join(dir, "notes.txt"))

	frames, err := loadFrames(dir)
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestLoadFramesSinglePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.png")
	writePNG(t, path)

	frames, err := loadFrames(path)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestLoadFramesAnimatedGIF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carousel.gif")

	palette := color.Palette{color.White, color.Black}
	g := &gif.GIF{}
	for i := 0; i < 3; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, g))
	require.NoError(t, f.Close())

	frames, err := loadFrames(path)
	require.NoError(t, err)
	assert.Len(t, frames, 3)
}

func TestLoadFramesMissingPath(t *testing.T) {
	_, err := loadFrames(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
