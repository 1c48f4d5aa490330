package sidecar

import (
	"image"
	"image/color"

	"github.com/kelseym/tilestitch/internal/match"
)

const (
	heatmapSize   = 512
	heatmapMargin = 32
	pointRadius   = 3
)

// Heatmap rasterizes a scatter plot of every retained match's (dx, dy)
// offset, colored by its effective score, onto a fixed-size canvas. It
// substitutes for the original tool's matplotlib scatter plot, which no
// library in this module's dependency surface replaces; returns false (and
// a nil image) if there is nothing to plot, matching the original's
// silent skip.
func Heatmap(matches []match.Match) (*image.RGBA, bool) {
	if len(matches) == 0 {
		return nil, false
	}

	minX, maxX := matches[0].DX, matches[0].DX
	minY, maxY := matches[0].DY, matches[0].DY
	maxScore := matches[0].EffectiveScore()
	for _, m := range matches[1:] {
		if m.DX < minX {
			minX = m.DX
		}
		if m.DX > maxX {
			maxX = m.DX
		}
		if m.DY < minY {
			minY = m.DY
		}
		if m.DY > maxY {
			maxY = m.DY
		}
		if s := m.EffectiveScore(); s > maxScore {
			maxScore = s
		}
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, heatmapSize, heatmapSize))
	fillWhite(img)
	drawAxes(img)

	plotW := heatmapSize - 2*heatmapMargin
	plotH := heatmapSize - 2*heatmapMargin

	for _, m := range matches {
		px := heatmapMargin + int(float64(m.DX-minX)/float64(maxX-minX)*float64(plotW))
		py := heatmapSize - heatmapMargin - int(float64(m.DY-minY)/float64(maxY-minY)*float64(plotH))
		intensity := m.EffectiveScore() / maxScore
		c := scoreColor(intensity)
		drawDot(img, px, py, c)
	}

	return img, true
}

func fillWhite(img *image.RGBA) {
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
}

func drawAxes(img *image.RGBA) {
	axis := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	for x := heatmapMargin; x < heatmapSize-heatmapMargin; x++ {
		img.Set(x, heatmapSize-heatmapMargin, axis)
	}
	for y := heatmapMargin; y < heatmapSize-heatmapMargin; y++ {
		img.Set(heatmapMargin, y, axis)
	}
}

// scoreColor maps a 0..1 confidence to a blue (low) to red (high) gradient.
func scoreColor(t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: uint8(255 * t),
		G: 0x20,
		B: uint8(255 * (1 - t)),
		A: 0xff,
	}
}

func drawDot(img *image.RGBA, cx, cy int, c color.RGBA) {
	b := img.Bounds()
	for dy := -pointRadius; dy <= pointRadius; dy++ {
		for dx := -pointRadius; dx <= pointRadius; dx++ {
			if dx*dx+dy*dy > pointRadius*pointRadius {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
				continue
			}
			img.Set(x, y, c)
		}
	}
}
