package imgio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeGrayPNG(t *testing.T, path string, w, h int, fill func(x, y int) uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %q: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %q: %v", path, err)
	}
}

func TestTileReaderGrayCachesByPathAndDownscale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "R00_C00.png")
	writeGrayPNG(t, path, 40, 20, func(x, y int) uint8 { return uint8(x + y) })

	r := NewTileReader(8)
	g1, err := r.Gray(path, 1)
	if err != nil {
		t.Fatalf("Gray: %v", err)
	}
	if b := g1.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("Gray bounds = %v, want 40x20", b)
	}
	if got := r.GrayLen(); got != 1 {
		t.Errorf("GrayLen = %d, want 1", got)
	}

	// Same path, same downscale: should hit the cache (same entry count).
	if _, err := r.Gray(path, 1); err != nil {
		t.Fatalf("Gray (cached): %v", err)
	}
	if got := r.GrayLen(); got != 1 {
		t.Errorf("GrayLen after repeat read = %d, want 1 (cache hit)", got)
	}

	// Same path, different downscale: distinct cache key.
	if _, err := r.Gray(path, 0.5); err != nil {
		t.Fatalf("Gray (downscaled): %v", err)
	}
	if got := r.GrayLen(); got != 2 {
		t.Errorf("GrayLen after downscaled read = %d, want 2", got)
	}
}

func TestTileReaderGrayDownscaleHalvesDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "R00_C00.png")
	writeGrayPNG(t, path, 40, 20, func(x, y int) uint8 { return uint8(x * 2) })

	r := NewTileReader(4)
	g, err := r.Gray(path, 0.5)
	if err != nil {
		t.Fatalf("Gray: %v", err)
	}
	if b := g.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("downscaled bounds = %v, want 20x10", b)
	}
}

func TestTileReaderColorCachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "R00_C00.png")
	writeGrayPNG(t, path, 10, 10, func(x, y int) uint8 { return 200 })

	r := NewTileReader(4)
	if _, err := r.Color(path); err != nil {
		t.Fatalf("Color: %v", err)
	}
	if _, err := r.Color(path); err != nil {
		t.Fatalf("Color (cached): %v", err)
	}
	if got := r.ColorLen(); got != 1 {
		t.Errorf("ColorLen = %d, want 1", got)
	}
}

func TestDownscaleGrayAveragesBlocks(t *testing.T) {
	// A 2x2 block of values 0, 10, 20, 30 averages to 15.
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(0, 0, color.Gray{Y: 0})
	src.SetGray(1, 0, color.Gray{Y: 10})
	src.SetGray(0, 1, color.Gray{Y: 20})
	src.SetGray(1, 1, color.Gray{Y: 30})

	dst := downscaleGray(src, 0.5)
	if b := dst.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("downscaleGray bounds = %v, want 1x1", b)
	}
	if got := dst.GrayAt(0, 0).Y; got != 15 {
		t.Errorf("downscaleGray average = %d, want 15", got)
	}
}

func TestDownscaleGrayNeverProducesZeroDimensions(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	dst := downscaleGray(src, 0.1)
	b := dst.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		t.Errorf("downscaleGray bounds = %v, want at least 1x1", b)
	}
}
