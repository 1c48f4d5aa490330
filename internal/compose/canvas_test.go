package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/lattice"
)

func TestBoundsComputesUnionRectangle(t *testing.T) {
	g := grid.Grid{Rows: []int{0, 1}, Cols: []int{0, 1}}
	positions := map[grid.Coord]lattice.Vec{
		{R: 0, C: 0}: {X: 0, Y: 0},
		{R: 0, C: 1}: {X: 100, Y: 0},
		{R: 1, C: 0}: {X: 0, Y: 80},
		{R: 1, C: 1}: {X: 100, Y: 80},
	}
	shape := grid.Shape{W: 200, H: 150, Channels: 4}

	w, h, minX, minY, err := Bounds(positions, shape, g)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if w != 300 || h != 230 {
		t.Errorf("Bounds size = %dx%d, want 300x230", w, h)
	}
	if minX != 0 || minY != 0 {
		t.Errorf("Bounds origin = (%d,%d), want (0,0)", minX, minY)
	}
}

func TestBoundsRejectsDivergedSolve(t *testing.T) {
	g := grid.Grid{Rows: []int{0, 1}, Cols: []int{0, 1}}
	positions := map[grid.Coord]lattice.Vec{
		{R: 0, C: 0}: {X: 0, Y: 0},
		{R: 0, C: 1}: {X: 1_000_000, Y: 0},
		{R: 1, C: 0}: {X: 0, Y: 80},
		{R: 1, C: 1}: {X: 100, Y: 80},
	}
	shape := grid.Shape{W: 200, H: 150, Channels: 4}

	if _, _, _, _, err := Bounds(positions, shape, g); err == nil {
		t.Fatal("Bounds: expected an error for a wildly diverged solve")
	}
}

func TestCanvasSetAndCropBounds(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCanvas(dir, 50, 40)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	defer c.Close()

	c.Set(10, 5, 1, 2, 3, 255)
	c.Set(30, 20, 4, 5, 6, 255)

	if !c.Covered(10, 5) || !c.Covered(30, 20) {
		t.Error("expected both written pixels to be covered")
	}
	if c.Covered(0, 0) {
		t.Error("expected untouched pixel to be uncovered")
	}

	crop, ok := c.CropBounds()
	if !ok {
		t.Fatal("CropBounds: ok = false, want true")
	}
	want := image.Rect(10, 5, 31, 21)
	if crop != want {
		t.Errorf("CropBounds = %v, want %v", crop, want)
	}

	got := c.At(10, 5)
	want2 := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	if got != want2 {
		t.Errorf("At(10,5) = %+v, want %+v", got, want2)
	}
}

func TestCanvasUncoveredPixelIsWhite(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCanvas(dir, 10, 10)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	defer c.Close()

	want := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := c.At(3, 3); got != want {
		t.Errorf("At on uncovered pixel = %+v, want %+v", got, want)
	}
}

func TestBlitSkipsTransparentPixels(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCanvas(dir, 10, 10)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	defer c.Close()

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	// (1,1) left fully transparent.

	Blit(c, src, 0, 0)

	if !c.Covered(0, 0) {
		t.Error("expected opaque pixel to be covered")
	}
	if c.Covered(1, 1) {
		t.Error("expected transparent pixel to be left uncovered")
	}
}
