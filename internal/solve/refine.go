package solve

import (
	"math"
	"sort"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/lattice"
	"github.com/kelseym/tilestitch/internal/match"
)

// Options configures the global refinement.
type Options struct {
	InitialPosWeight float64
	LSQRIter         int
}

// Refine solves the weighted least-squares problem described in the
// component design: pair constraints from retained matches, grid-anchor
// regularization toward the initial lattice positions, and a gauge-fixing
// constraint pinning the first tile (by sorted (r,c) order) to the
// origin. Positions are rounded to the nearest integer on return.
func Refine(initial map[grid.Coord]lattice.Vec, matches []match.Match, opts Options) map[grid.Coord]lattice.Vec {
	coords := make([]grid.Coord, 0, len(initial))
	for k := range initial {
		coords = append(coords, k)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].R != coords[j].R {
			return coords[i].R < coords[j].R
		}
		return coords[i].C < coords[j].C
	})

	index := make(map[grid.Coord]int, len(coords))
	for i, c := range coords {
		index[c] = i
	}
	n := len(coords)

	var triplets []Triplet
	var b []float64
	row := 0

	addRow := func(cols []int, vals []float64, rhs float64) {
		for i, c := range cols {
			triplets = append(triplets, Triplet{Row: row, Col: c, Val: vals[i]})
		}
		b = append(b, rhs)
		row++
	}

	// (a) Pair constraints.
	for _, m := range matches {
		u, okU := index[m.Src]
		v, okV := index[m.Dst]
		if !okU || !okV {
			continue
		}
		w := pairWeight(m)
		addRow([]int{u * 2, v * 2}, []float64{-w, w}, w*float64(m.DX))
		addRow([]int{u*2 + 1, v*2 + 1}, []float64{-w, w}, w*float64(m.DY))
	}

	// (b) Grid-anchor regularization.
	lambda := opts.InitialPosWeight
	for _, c := range coords {
		idx := index[c]
		pos := initial[c]
		addRow([]int{idx * 2}, []float64{lambda}, lambda*float64(pos.X))
		addRow([]int{idx*2 + 1}, []float64{lambda}, lambda*float64(pos.Y))
	}

	// (c) Gauge fixing: pin the first tile to the origin.
	addRow([]int{0}, []float64{1}, 0)
	addRow([]int{1}, []float64{1}, 0)

	a := BuildCSR(row, n*2, triplets)

	x0 := make([]float64, n*2)
	for _, c := range coords {
		idx := index[c]
		pos := initial[c]
		x0[idx*2] = float64(pos.X)
		x0[idx*2+1] = float64(pos.Y)
	}

	iter := opts.LSQRIter
	if iter <= 0 {
		iter = 200
	}
	x := LSQR(a, b, x0, iter)

	out := make(map[grid.Coord]lattice.Vec, n)
	for _, c := range coords {
		idx := index[c]
		out[c] = lattice.Vec{
			X: int(math.Round(x[idx*2])),
			Y: int(math.Round(x[idx*2+1])),
		}
	}
	return out
}

// pairWeight computes the weight for a retained match: the squared score,
// scaled up by the log of the descriptor match count and by the template
// correlation value.
func pairWeight(m match.Match) float64 {
	w := m.Score * m.Score
	w *= 1 + 0.1*math.Log(float64(m.MatchCount+1))
	w *= 1 + 0.1*m.TemplateVal
	return w
}
