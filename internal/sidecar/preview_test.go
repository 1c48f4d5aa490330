package sidecar

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/imgio"
	"github.com/kelseym/tilestitch/internal/lattice"
)

func writeColorTile(t *testing.T, path string, w, h int, fill color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	if err := imgio.EncodePNG(path, img); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
}

func buildTestIndex(t *testing.T, dir string, w, h int) *grid.Index {
	t.Helper()
	writeColorTile(t, filepath.Join(dir, "R00_C00.png"), w, h, color.RGBA{R: 255, A: 255})
	writeColorTile(t, filepath.Join(dir, "R00_C01.png"), w, h, color.RGBA{G: 255, A: 255})
	idx, err := grid.Build(dir, imgio.DecodeShape)
	if err != nil {
		t.Fatalf("grid.Build: %v", err)
	}
	return idx
}

func TestPreviewProducesDownscaledComposite(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t, dir, 40, 20)
	positions := map[grid.Coord]lattice.Vec{
		{R: 0, C: 0}: {X: 0, Y: 0},
		{R: 0, C: 1}: {X: 40, Y: 0},
	}
	reader := imgio.NewTileReader(4)

	img, err := Preview(idx, positions, reader, 0.5)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 10 {
		t.Errorf("Preview bounds = %v, want 40x10 (full 80x20 scaled by 0.5)", b)
	}
}

func TestPreviewClampsTinyScaleToOnePixel(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t, dir, 40, 20)
	positions := map[grid.Coord]lattice.Vec{
		{R: 0, C: 0}: {X: 0, Y: 0},
		{R: 0, C: 1}: {X: 40, Y: 0},
	}
	reader := imgio.NewTileReader(4)

	img, err := Preview(idx, positions, reader, 0.001)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		t.Errorf("Preview bounds = %v, want at least 1x1", b)
	}
}

func TestBlitMemorySkipsTransparentPixels(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range dst.Pix {
		dst.Pix[i] = 0xff
	}
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	// (1,1) left fully transparent.

	blitMemory(dst, src, 0, 0)

	if got := dst.RGBAAt(0, 0); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("dst(0,0) = %+v, want opaque source pixel copied", got)
	}
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("dst(1,1) = %+v, want untouched white background", got)
	}
}
