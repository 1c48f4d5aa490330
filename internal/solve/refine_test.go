package solve

import (
	"testing"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/lattice"
	"github.com/kelseym/tilestitch/internal/match"
)

func TestRefineConsistentMatchesRecoverLatticeSpacing(t *testing.T) {
	initial := map[grid.Coord]lattice.Vec{
		{R: 0, C: 0}: {X: 0, Y: 0},
		{R: 0, C: 1}: {X: 100, Y: 0},
		{R: 1, C: 0}: {X: 0, Y: 80},
		{R: 1, C: 1}: {X: 100, Y: 80},
	}
	matches := []match.Match{
		{Src: grid.Coord{0, 0}, Dst: grid.Coord{0, 1}, DX: 100, DY: 0, Score: 0.95, MatchCount: 0, TemplateVal: 0.95},
		{Src: grid.Coord{1, 0}, Dst: grid.Coord{1, 1}, DX: 100, DY: 0, Score: 0.95, MatchCount: 0, TemplateVal: 0.95},
		{Src: grid.Coord{0, 0}, Dst: grid.Coord{1, 0}, DX: 0, DY: 80, Score: 0.9, MatchCount: 0, TemplateVal: 0.9},
		{Src: grid.Coord{0, 1}, Dst: grid.Coord{1, 1}, DX: 0, DY: 80, Score: 0.9, MatchCount: 0, TemplateVal: 0.9},
	}

	out := Refine(initial, matches, Options{InitialPosWeight: 0.01, LSQRIter: 100})

	origin := out[grid.Coord{R: 0, C: 0}]
	if origin.X != 0 || origin.Y != 0 {
		t.Errorf("gauge-fixed origin = %+v, want (0,0)", origin)
	}

	right := out[grid.Coord{R: 0, C: 1}]
	if abs(float64(right.X-100)) > 1 {
		t.Errorf("positions[0,1].X = %d, want ~100", right.X)
	}

	below := out[grid.Coord{R: 1, C: 0}]
	if abs(float64(below.Y-80)) > 1 {
		t.Errorf("positions[1,0].Y = %d, want ~80", below.Y)
	}
}
