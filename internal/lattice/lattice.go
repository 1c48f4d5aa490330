// Package lattice implements the Initial Estimator stage: it partitions
// retained matches by direction, takes the component-wise median offset
// per direction, and assigns every tile a rigid-lattice position from it.
package lattice

import (
	"sort"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/match"
	"github.com/kelseym/tilestitch/internal/stitcherr"
)

// Vec is an integer 2D displacement or position.
type Vec struct{ X, Y int }

// Estimate partitions matches into horizontal and vertical groups, takes
// each group's component-wise integer median offset, and assigns every
// tile in g a lattice position from it. Returns a NoMatchError if either
// partition is empty.
func Estimate(g grid.Grid, matches []match.Match) (map[grid.Coord]Vec, Vec, Vec, error) {
	var hx, hy, vx, vy []int
	for _, m := range matches {
		if m.Direction.Horizontal() {
			hx = append(hx, m.DX)
			hy = append(hy, m.DY)
		} else {
			vx = append(vx, m.DX)
			vy = append(vy, m.DY)
		}
	}
	if len(hx) == 0 {
		return nil, Vec{}, Vec{}, stitcherr.NoMatch("no horizontal matches survived thresholding")
	}
	if len(vx) == 0 {
		return nil, Vec{}, Vec{}, stitcherr.NoMatch("no vertical matches survived thresholding")
	}

	hMed := Vec{X: medianInt(hx), Y: medianInt(hy)}
	vMed := Vec{X: medianInt(vx), Y: medianInt(vy)}

	positions := make(map[grid.Coord]Vec, len(g.Rows)*len(g.Cols))
	for i, r := range g.Rows {
		for j, c := range g.Cols {
			positions[grid.Coord{R: r, C: c}] = Vec{
				X: j*hMed.X + i*vMed.X,
				Y: j*hMed.Y + i*vMed.Y,
			}
		}
	}
	return positions, hMed, vMed, nil
}

// medianInt returns the integer median of xs; for an even count the mean
// of the two middle values is truncated toward zero (matching numpy.median's behavior for even-length inputs followed by
// int() truncation, as the original tool does).
func medianInt(xs []int) int {
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	// Go's integer division truncates toward zero, matching numpy's
	// float median of two ints followed by Python's int() truncation.
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
