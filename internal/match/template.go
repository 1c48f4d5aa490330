package match

import (
	"image"
	"math"
)

// templatePeak is the location and score of the best normalized
// cross-correlation match.
type templatePeak struct {
	X, Y  int
	Value float64 // in [-1, 1]; higher is a better match
}

// overlapGeometry derives the edge/search fractions from a configured
// overlap percentage, per the spec's edge_pct/search_pct formulas.
func overlapGeometry(overlapPct int) (edgePct, searchPct float64) {
	ratio := float64(overlapPct) / 100.0
	edgePct = math.Min(ratio*0.4, 0.4)
	searchPct = math.Min(ratio*1.2, 0.9)
	return
}

// matchTemplate attempts a template match for one job. src and dst are
// grayscale tiles of identical shape. overlapPct is overlap_h_pct for
// horizontal jobs, overlap_v_pct for vertical jobs.
//
// Returns ok=false when the template or search area degenerates to
// nothing, or when the peak doesn't clear the hard-coded 0.8 acceptance
// threshold (see spec Open Question: this threshold is intentionally not
// user-configurable, unlike min_score_threshold).
func matchTemplate(src, dst *image.Gray, dir Direction, overlapPct int) (dx, dy int, score float64, ok bool) {
	const peakThreshold = 0.8

	edgePct, searchPct := overlapGeometry(overlapPct)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if dir.Horizontal() {
		edgeW := int(float64(w) * edgePct)
		searchW := int(float64(w) * searchPct)
		if edgeW < 1 || searchW < 1 {
			return 0, 0, 0, false
		}
		template := subImage(src, w-edgeW, 0, edgeW, h)
		search := subImage(dst, 0, 0, searchW, h)
		peak := bestNCCPeak(search, template)
		if peak.Value <= peakThreshold {
			return 0, 0, peak.Value, false
		}
		dx = (w - edgeW) - peak.X
		dy = -peak.Y
		return dx, dy, peak.Value, true
	}

	edgeH := int(float64(h) * edgePct)
	searchH := int(float64(h) * searchPct)
	if edgeH < 1 || searchH < 1 {
		return 0, 0, 0, false
	}
	template := subImage(src, 0, h-edgeH, w, edgeH)
	// Vertical search area spans the dst tile's full width. The template is
	// full width too, so the only horizontal position searched is 0 and
	// this branch always returns dx == 0; horizontal drift is not recovered.
	search := subImage(dst, 0, 0, w, searchH)
	peak := bestNCCPeak(search, template)
	if peak.Value <= peakThreshold {
		return 0, 0, peak.Value, false
	}
	dx = -peak.X
	dy = (h - edgeH) - peak.Y
	return dx, dy, peak.Value, true
}

// subImage extracts a rectangular region as a freshly-allocated *image.Gray
// so downstream correlation code can assume a tight stride.
func subImage(src *image.Gray, x, y, w, h int) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for dy := 0; dy < h; dy++ {
		sy := b.Min.Y + y + dy
		for dx := 0; dx < w; dx++ {
			sx := b.Min.X + x + dx
			out.SetGray(dx, dy, src.GrayAt(sx, sy))
		}
	}
	return out
}

// bestNCCPeak slides template over search and returns the location and
// value of the best zero-mean normalized cross-correlation, equivalent to
// OpenCV's TM_CCOEFF_NORMED.
func bestNCCPeak(search, template *image.Gray) templatePeak {
	sb, tb := search.Bounds(), template.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	tw, th := tb.Dx(), tb.Dy()

	if tw > sw || th > sh || tw == 0 || th == 0 {
		return templatePeak{Value: -1}
	}

	tMean := meanGray(template)
	tNorm := 0.0
	tCentered := make([]float64, tw*th)
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			v := float64(template.GrayAt(tb.Min.X+x, tb.Min.Y+y).Y) - tMean
			tCentered[y*tw+x] = v
			tNorm += v * v
		}
	}
	if tNorm == 0 {
		// A flat template has no texture to correlate against; report no
		// usable peak rather than a meaningless perfect score.
		return templatePeak{Value: -1}
	}

	best := templatePeak{Value: -math.MaxFloat64}
	for oy := 0; oy+th <= sh; oy++ {
		for ox := 0; ox+tw <= sw; ox++ {
			sMean := 0.0
			for y := 0; y < th; y++ {
				for x := 0; x < tw; x++ {
					sMean += float64(search.GrayAt(sb.Min.X+ox+x, sb.Min.Y+oy+y).Y)
				}
			}
			sMean /= float64(tw * th)

			var num, sNorm float64
			for y := 0; y < th; y++ {
				for x := 0; x < tw; x++ {
					sv := float64(search.GrayAt(sb.Min.X+ox+x, sb.Min.Y+oy+y).Y) - sMean
					num += sv * tCentered[y*tw+x]
					sNorm += sv * sv
				}
			}
			denom := math.Sqrt(sNorm * tNorm)
			var v float64
			if denom > 0 {
				v = num / denom
			}
			if v > best.Value {
				best = templatePeak{X: ox, Y: oy, Value: v}
			}
		}
	}
	return best
}

func meanGray(img *image.Gray) float64 {
	b := img.Bounds()
	sum := 0.0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(img.GrayAt(x, y).Y)
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}
