package match

import (
	"image"
	"math"

	"github.com/kelseym/tilestitch/internal/grid"
)

// Match is a retained pairwise offset, keyed by the ordered (src, dst)
// pair it was computed for.
type Match struct {
	Src, Dst    grid.Coord
	DX, DY      int
	Score       float64
	Direction   Direction
	MatchCount  int
	TemplateVal float64
}

// EffectiveScore is the confidence scaled by the log of the inlier count,
// used to threshold matches (template-only matches have MatchCount == 0
// and contribute their raw score unscaled).
func (m Match) EffectiveScore() float64 {
	if m.MatchCount > 0 {
		return m.Score * math.Log(float64(m.MatchCount+1))
	}
	return m.Score
}

// Options configures a single job resolution attempt.
type Options struct {
	OverlapHPct, OverlapVPct int
	NFeatures                int
	MinScoreThreshold        float64
	// RANSACSeed makes feature-match sampling deterministic; pass a fixed
	// value to get byte-identical output across runs.
	RANSACSeed uint64
}

// Resolve attempts the template match first, falling back to feature
// matching when the template peak doesn't clear its hard-coded
// acceptance threshold. It returns ok=false if neither strategy produces
// a match whose effective score clears MinScoreThreshold.
func Resolve(job Job, src, dst *image.Gray, opts Options) (Match, bool) {
	overlapPct := opts.OverlapVPct
	if job.Direction.Horizontal() {
		overlapPct = opts.OverlapHPct
	}

	templateDX, templateDY, templateVal, ok := matchTemplate(src, dst, job.Direction, overlapPct)
	if ok {
		m := Match{
			Src: job.Src, Dst: job.Dst,
			DX: templateDX, DY: templateDY,
			Score:       templateVal,
			Direction:   job.Direction,
			MatchCount:  0,
			TemplateVal: templateVal,
		}
		if m.EffectiveScore() > opts.MinScoreThreshold {
			return m, true
		}
		return Match{}, false
	}

	dx, dy, score, matchCount, ok := matchFeatures(src, dst, opts.NFeatures, opts.RANSACSeed)
	if !ok {
		return Match{}, false
	}
	m := Match{
		Src: job.Src, Dst: job.Dst,
		DX: dx, DY: dy,
		Score:       score,
		Direction:   job.Direction,
		MatchCount:  matchCount,
		// Retain the sub-threshold template peak (0 if the template or
		// search area was empty, -1 if the template was flat) so the pair weight
		// formula's (1 + 0.1*TemplateVal) term reflects it.
		TemplateVal: templateVal,
	}
	if m.EffectiveScore() > opts.MinScoreThreshold {
		return m, true
	}
	return Match{}, false
}
