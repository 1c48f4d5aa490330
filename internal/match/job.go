// Package match implements the Pairwise Matcher stage: it builds the
// neighbor job list in boustrophedon order and resolves each job to an
// integer offset via a template-match-then-feature-match hybrid.
package match

import "github.com/kelseym/tilestitch/internal/grid"

// Direction classifies a job by which neighbor relationship it tests.
type Direction int

const (
	HForward Direction = iota
	HBackward
	Vertical
)

func (d Direction) String() string {
	switch d {
	case HForward:
		return "h_forward"
	case HBackward:
		return "h_backward"
	default:
		return "v"
	}
}

func (d Direction) Horizontal() bool { return d == HForward || d == HBackward }

// Job is one neighbor pair to attempt to match.
type Job struct {
	Src, Dst  grid.Coord
	Direction Direction
}

// BuildJobs constructs the neighbor job list. The row parity (even/odd
// index into Rows) tags each horizontal job H_forward or H_backward to
// record which physical scan direction captured that row; regardless of
// the tag, the pair itself always runs from the column-wise earlier tile
// to its immediate right neighbor — dst sits to the right of src in
// canvas space for every horizontal job, forward or backward row alike.
// (The original tool's boustrophedon traversal only reorders which row
// finishes capturing first; it never swaps which tile is "source" for a
// given column pair.) inWindow, if non-nil, restricts jobs to those whose
// Src it accepts.
func BuildJobs(g grid.Grid, inWindow func(r, c int) bool) []Job {
	var jobs []Job
	rows, cols := g.Rows, g.Cols

	for ri, r := range rows {
		forward := ri%2 == 0
		dir := HForward
		if !forward {
			dir = HBackward
		}

		for ci := 0; ci+1 < len(cols); ci++ {
			jobs = appendIfInWindow(jobs, Job{
				Src:       grid.Coord{R: r, C: cols[ci]},
				Dst:       grid.Coord{R: r, C: cols[ci+1]},
				Direction: dir,
			}, inWindow)
		}

		if ri+1 < len(rows) {
			for _, c := range cols {
				jobs = appendIfInWindow(jobs, Job{
					Src:       grid.Coord{R: r, C: c},
					Dst:       grid.Coord{R: rows[ri+1], C: c},
					Direction: Vertical,
				}, inWindow)
			}
		}
	}
	return jobs
}

func appendIfInWindow(jobs []Job, j Job, inWindow func(r, c int) bool) []Job {
	if inWindow != nil && !inWindow(j.Src.R, j.Src.C) {
		return jobs
	}
	return append(jobs, j)
}
