// Package diffing computes per-test visual differences between a result set
// and its matched golden baseline.
package diffing

import (
	"context"
	"fmt"
	"image"
	"os"

	// Registers the PNG decoder for the in-process pixel backend.
	_ "image/png"
)

// DistanceNotComputed is the sentinel distance for a Difference whose
// distance could not be resolved. It must never appear in a persisted
// summary.
const DistanceNotComputed = -1

// Distancer measures the visual distance between two image files. Larger
// values mean more different; identical images score 0.
type Distancer interface {
	Distance(ctx context.Context, resultPath, goldenPath string) (float64, error)
}

// ArtifactRenderer materializes a visual difference image for a (result,
// golden) pair of image files.
type ArtifactRenderer interface {
	Render(ctx context.Context, resultPath, goldenPath, outPath string) (exitCode int, stdout, stderr string, err error)
}

// PixelDistancer compares images in-process and reports the fraction of
// differing pixels. Images with mismatched dimensions score 1.
type PixelDistancer struct{}

// Distance implements Distancer.
func (PixelDistancer) Distance(_ context.Context, resultPath, goldenPath string) (float64, error) {
	resultImg, err := loadImage(resultPath)
	if err != nil {
		return DistanceNotComputed, err
	}

	goldenImg, err := loadImage(goldenPath)
	if err != nil {
		return DistanceNotComputed, err
	}

	resultBounds := resultImg.Bounds()
	goldenBounds := goldenImg.Bounds()
	if resultBounds.Dx() != goldenBounds.Dx() || resultBounds.Dy() != goldenBounds.Dy() {
		return 1, nil
	}

	var differing int
	for y := 0; y < resultBounds.Dy(); y++ {
		for x := 0; x < resultBounds.Dx(); x++ {
			rr, rg, rb, ra := resultImg.At(resultBounds.Min.X+x, resultBounds.Min.Y+y).RGBA()
			gr, gg, gb, ga := goldenImg.At(goldenBounds.Min.X+x, goldenBounds.Min.Y+y).RGBA()
			if rr != gr || rg != gg || rb != gb || ra != ga {
				differing++
			}
		}
	}

	total := resultBounds.Dx() * resultBounds.Dy()
	if total == 0 {
		return 0, nil
	}

	return float64(differing) / float64(total), nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}

	return img, nil
}
