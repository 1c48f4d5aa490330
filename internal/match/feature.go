package match

import (
	"image"
	"math"
	"math/bits"
	"sort"
)

// keypoint is a detected corner with a binary descriptor, the Go
// standard-library stand-in for an ORB keypoint+descriptor pair (no
// computer-vision library is available in this module's dependency
// surface; the detector below is a Moravec-style corner response plus a
// BRIEF-style sampled binary descriptor, playing the same structural role
// as cv2.ORB_create in the tool this pipeline was distilled from).
type keypoint struct {
	X, Y       int
	descriptor [descriptorWords]uint64
}

const (
	descriptorBits  = 256
	descriptorWords = descriptorBits / 64
	patchRadius     = 15 // descriptor sampling patch half-size
)

// briefPattern is a fixed pseudo-random sampling pattern over a
// (2*patchRadius+1)^2 patch, generated once at init so every descriptor
// compares the same pixel pairs (mirroring BRIEF's fixed test pattern).
var briefPattern = generateBriefPattern(descriptorBits, patchRadius)

type pointPair struct{ ax, ay, bx, by int }

func generateBriefPattern(n, radius int) []pointPair {
	// A deterministic linear-congruential sequence keeps the pattern
	// stable across runs without depending on math/rand's global state.
	state := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		state = state*6364136223846793005 + 1442695040888963407
		return state
	}
	randOffset := func() int {
		v := next() >> 40 // 24 bits of entropy
		return int(v%uint64(2*radius+1)) - radius
	}
	pairs := make([]pointPair, n)
	for i := range pairs {
		pairs[i] = pointPair{randOffset(), randOffset(), randOffset(), randOffset()}
	}
	return pairs
}

// cornerResponse computes a Moravec-style corner strength at (x, y): the
// minimum sum of squared differences between the patch and its four
// axis-aligned shifted copies. High response means the patch looks
// different when shifted in every direction — a corner, not an edge or
// flat region.
func cornerResponse(img *image.Gray, x, y, radius int) int {
	b := img.Bounds()
	shifts := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	min := math.MaxInt64
	for _, s := range shifts {
		sum := 0
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				x0, y0 := clamp(x+dx, b.Min.X, b.Max.X-1), clamp(y+dy, b.Min.Y, b.Max.Y-1)
				x1, y1 := clamp(x+dx+s[0], b.Min.X, b.Max.X-1), clamp(y+dy+s[1], b.Min.Y, b.Max.Y-1)
				d := int(img.GrayAt(x0, y0).Y) - int(img.GrayAt(x1, y1).Y)
				sum += d * d
			}
		}
		if sum < min {
			min = sum
		}
	}
	return min
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// detectKeypoints finds up to maxFeatures corners with the strongest
// response, spaced at least one patch apart, and builds a binary
// descriptor for each.
func detectKeypoints(img *image.Gray, maxFeatures int) []keypoint {
	b := img.Bounds()
	const step = 1 // every pixel, so corners line up between tiles at any offset
	type candidate struct {
		x, y, response int
	}
	var candidates []candidate

	for y := b.Min.Y + patchRadius + 1; y < b.Max.Y-patchRadius-1; y += step {
		for x := b.Min.X + patchRadius + 1; x < b.Max.X-patchRadius-1; x += step {
			r := cornerResponse(img, x, y, 3)
			candidates = append(candidates, candidate{x, y, r})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].response > candidates[j].response })

	// taken marks pixels within one patch of an accepted keypoint.
	taken := make([]bool, b.Dx()*b.Dy())
	var kps []keypoint
	for _, c := range candidates {
		if len(kps) >= maxFeatures {
			break
		}
		if taken[(c.y-b.Min.Y)*b.Dx()+(c.x-b.Min.X)] {
			continue
		}
		for y := max(c.y-patchRadius, b.Min.Y); y <= min(c.y+patchRadius, b.Max.Y-1); y++ {
			for x := max(c.x-patchRadius, b.Min.X); x <= min(c.x+patchRadius, b.Max.X-1); x++ {
				taken[(y-b.Min.Y)*b.Dx()+(x-b.Min.X)] = true
			}
		}
		kps = append(kps, keypoint{X: c.x, Y: c.y, descriptor: describe(img, c.x, c.y)})
	}
	return kps
}

// describe builds a BRIEF-style binary descriptor at (x, y) by comparing
// intensities at the fixed briefPattern offsets.
func describe(img *image.Gray, x, y int) [descriptorWords]uint64 {
	var desc [descriptorWords]uint64
	b := img.Bounds()
	for i, p := range briefPattern {
		ax := clamp(x+p.ax, b.Min.X, b.Max.X-1)
		ay := clamp(y+p.ay, b.Min.Y, b.Max.Y-1)
		bx := clamp(x+p.bx, b.Min.X, b.Max.X-1)
		by := clamp(y+p.by, b.Min.Y, b.Max.Y-1)
		if img.GrayAt(ax, ay).Y < img.GrayAt(bx, by).Y {
			desc[i/64] |= 1 << uint(i%64)
		}
	}
	return desc
}

func hamming(a, b [descriptorWords]uint64) int {
	d := 0
	for i := range a {
		d += bits.OnesCount64(a[i] ^ b[i])
	}
	return d
}

// knnMatch is the Brute-force k=2 Hamming matcher: for each descriptor in
// kp1, find its two nearest neighbors in kp2.
type matchPair struct {
	iSrc, iDst int
	dist       int
}

func knnMatch(kp1, kp2 []keypoint) (best, second []matchPair) {
	best = make([]matchPair, len(kp1))
	second = make([]matchPair, len(kp1))
	for i, k1 := range kp1 {
		b0, b1 := matchPair{iSrc: i, dist: math.MaxInt32}, matchPair{iSrc: i, dist: math.MaxInt32}
		for j, k2 := range kp2 {
			d := hamming(k1.descriptor, k2.descriptor)
			if d < b0.dist {
				b1 = b0
				b0 = matchPair{iSrc: i, iDst: j, dist: d}
			} else if d < b1.dist {
				b1 = matchPair{iSrc: i, iDst: j, dist: d}
			}
		}
		best[i] = b0
		second[i] = b1
	}
	return best, second
}

// loweRatioMatches applies Lowe's ratio test (d1 < 0.75*d2) to the k=2
// brute-force matches, returning the surviving correspondences.
func loweRatioMatches(kp1, kp2 []keypoint) []matchPair {
	best, second := knnMatch(kp1, kp2)
	var good []matchPair
	for i := range best {
		if second[i].dist == 0 {
			continue
		}
		if float64(best[i].dist) < 0.75*float64(second[i].dist) {
			good = append(good, best[i])
		}
	}
	return good
}

// ransacThresholds escalate the inlier reprojection threshold, matching
// the {3.0, 6.0, 10.0} schedule the original relaxes through.
var ransacThresholds = []float64{3.0, 6.0, 10.0}

// estimateTranslation runs RANSAC over a 2-DoF (x, y) translation model —
// the rotation/scale terms a full affine estimator would fit are not
// modeled, per the spec's integer-translation-only scope — escalating the
// inlier threshold until at least 6 inliers are found.
//
// seed makes the sample selection deterministic across runs (scenario 6:
// identical input + config must produce byte-identical output).
func estimateTranslation(kp1, kp2 []keypoint, matches []matchPair, seed uint64) (dx, dy int, inlierFrac float64, ok bool) {
	if len(matches) < 6 {
		return 0, 0, 0, false
	}

	rng := newLCG(seed)
	const iterations = 200

	for _, thr := range ransacThresholds {
		bestInliers := 0
		var bestDx, bestDy float64

		for iter := 0; iter < iterations; iter++ {
			m := matches[rng.intn(len(matches))]
			cdx := float64(kp2[m.iDst].X - kp1[m.iSrc].X)
			cdy := float64(kp2[m.iDst].Y - kp1[m.iSrc].Y)

			inliers := 0
			for _, mm := range matches {
				ex := float64(kp2[mm.iDst].X-kp1[mm.iSrc].X) - cdx
				ey := float64(kp2[mm.iDst].Y-kp1[mm.iSrc].Y) - cdy
				if math.Hypot(ex, ey) <= thr {
					inliers++
				}
			}
			if inliers > bestInliers {
				bestInliers = inliers
				bestDx, bestDy = cdx, cdy
			}
		}

		if bestInliers >= 6 {
			// bestDx/bestDy is dst-minus-src in tile-local coordinates; the
			// canvas offset is the negation of that (kp1 - kp2), matching
			// the sign convention template.go's peak returns.
			return -int(math.Round(bestDx)), -int(math.Round(bestDy)), float64(bestInliers) / float64(len(matches)), true
		}
	}
	return 0, 0, 0, false
}

// lcg is a tiny deterministic PRNG so RANSAC sampling doesn't depend on
// math/rand's global seed (needed for byte-identical repeated runs).
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg { return &lcg{state: seed ^ 0x2545F4914F6CDD1D} }

func (r *lcg) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

func (r *lcg) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() >> 33 % uint64(n))
}

// matchFeatures is the feature-match fallback for one job. Returns
// ok=false if either tile has too few descriptors, too few ratio-test
// survivors, or RANSAC never reaches 6 inliers at any threshold.
//
// For a correspondence of the same physical feature, kp2_local =
// kp1_local - (dst_origin - src_origin), so the canvas offset (dst
// minus src, the convention template.go's peak returns) is kp1 - kp2,
// not kp2 - kp1. estimateTranslation negates its kp2-minus-kp1 samples
// before returning for this reason.
func matchFeatures(src, dst *image.Gray, nfeatures int, seed uint64) (dx, dy int, score float64, matchCount int, ok bool) {
	kp1 := detectKeypoints(src, nfeatures)
	kp2 := detectKeypoints(dst, nfeatures)
	if len(kp1) < 8 || len(kp2) < 8 {
		return 0, 0, 0, 0, false
	}

	good := loweRatioMatches(kp1, kp2)
	matchCount = len(good)
	if matchCount < 8 {
		return 0, 0, 0, matchCount, false
	}

	dx, dy, score, ok = estimateTranslation(kp1, kp2, good, seed)
	return dx, dy, score, matchCount, ok
}
