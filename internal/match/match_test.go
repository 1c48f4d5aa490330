package match

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/kelseym/tilestitch/internal/grid"
)

// texturedGray builds a deterministic, noise-like gray image so template
// matching has something to correlate against (a flat image has no usable
// peak by design).
func texturedGray(w, h int, seed int64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	r := rand.New(rand.NewSource(seed))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(r.Intn(256))})
		}
	}
	return img
}

// pairFromOffset builds src/dst tiles of size w×h from a shared textured
// canvas such that dst's canvas origin sits (dx, dy) away from src's — the
// offset matchTemplate is expected to recover.
func pairFromOffset(w, h, dx, dy int) (src, dst *image.Gray) {
	canvas := texturedGray(3*w, 3*h, 42)
	src = subImage(canvas, w, h, w, h)
	dst = subImage(canvas, w+dx, h+dy, w, h)
	return src, dst
}

func TestMatchTemplateRecoversKnownHorizontalOffset(t *testing.T) {
	w, h := 200, 150
	wantDX, wantDY := 100, 0 // dst sits to the right, per the dst-right-of-src convention
	src, dst := pairFromOffset(w, h, wantDX, wantDY)

	dx, dy, score, ok := matchTemplate(src, dst, HForward, 60)
	if !ok {
		t.Fatalf("matchTemplate: ok = false, score = %f", score)
	}
	if dx != wantDX || dy != wantDY {
		t.Errorf("matchTemplate = (%d, %d), want (%d, %d)", dx, dy, wantDX, wantDY)
	}
}

func TestMatchTemplateRecoversKnownVerticalOffset(t *testing.T) {
	// The vertical search area spans dst's full width (matching the
	// original tool's search_area slicing), which leaves no room for the
	// correlation to shift horizontally: only a zero horizontal offset is
	// recoverable in this branch, by construction.
	w, h := 150, 200
	wantDX, wantDY := 0, 120 // 40% vertical overlap of a 200px tile
	src, dst := pairFromOffset(w, h, wantDX, wantDY)

	dx, dy, score, ok := matchTemplate(src, dst, Vertical, 40)
	if !ok {
		t.Fatalf("matchTemplate: ok = false, score = %f", score)
	}
	if dx != wantDX || dy != wantDY {
		t.Errorf("matchTemplate = (%d, %d), want (%d, %d)", dx, dy, wantDX, wantDY)
	}
}

func TestMatchTemplateRejectsFlatTiles(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}
	if _, _, _, ok := matchTemplate(flat, flat, HForward, 60); ok {
		t.Error("matchTemplate: expected ok = false for a flat, featureless tile pair")
	}
}

func TestResolveRejectsBelowThreshold(t *testing.T) {
	w, h := 200, 150
	src, dst := pairFromOffset(w, h, 100, 0)
	job := Job{Src: grid.Coord{R: 0, C: 0}, Dst: grid.Coord{R: 0, C: 1}, Direction: HForward}

	_, ok := Resolve(job, src, dst, Options{
		OverlapHPct:       60,
		OverlapVPct:       40,
		NFeatures:         500,
		MinScoreThreshold: 10, // unreachable, forces rejection
	})
	if ok {
		t.Error("Resolve: expected rejection when min_score_threshold can't be cleared")
	}
}

func TestResolveAcceptsGoodTemplateMatch(t *testing.T) {
	w, h := 200, 150
	src, dst := pairFromOffset(w, h, 100, 0)
	job := Job{Src: grid.Coord{R: 0, C: 0}, Dst: grid.Coord{R: 0, C: 1}, Direction: HForward}

	m, ok := Resolve(job, src, dst, Options{
		OverlapHPct:       60,
		OverlapVPct:       40,
		NFeatures:         500,
		MinScoreThreshold: 0.5,
	})
	if !ok {
		t.Fatal("Resolve: expected acceptance for a strong synthetic match")
	}
	if m.DX != 100 || m.DY != 0 {
		t.Errorf("Resolve: offset = (%d, %d), want (100, 0)", m.DX, m.DY)
	}
}
