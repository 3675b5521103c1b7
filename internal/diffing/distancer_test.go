package diffing

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, width, height int, fill color.Color, overrides map[image.Point]color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	for point, c := range overrides {
		img.Set(point.X, point.Y, c)
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, img))
}

func TestPixelDistancerIdenticalImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 4, color.White, nil)
	writePNG(t, b, 4, 4, color.White, nil)

	distance, err := PixelDistancer{}.Distance(context.Background(), a, b)
	require.NoError(t, err)
	require.Zero(t, distance)
}

func TestPixelDistancerFractionOfDifferingPixels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 4, color.White, nil)
	writePNG(t, b, 4, 4, color.White, map[image.Point]color.Color{
		{X: 0, Y: 0}: color.Black,
	})

	distance, err := PixelDistancer{}.Distance(context.Background(), a, b)
	require.NoError(t, err)
	require.InDelta(t, 1.0/16.0, distance, 1e-9)
}

func TestPixelDistancerDimensionMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 4, color.White, nil)
	writePNG(t, b, 8, 4, color.White, nil)

	distance, err := PixelDistancer{}.Distance(context.Background(), a, b)
	require.NoError(t, err)
	require.Equal(t, 1.0, distance)
}

func TestPixelDistancerUnreadableImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a, 2, 2, color.White, nil)

	_, err := PixelDistancer{}.Distance(context.Background(), a, filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}
