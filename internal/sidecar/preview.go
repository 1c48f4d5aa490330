// Package sidecar implements the two optional outputs the engine can
// produce alongside the final mosaic: a downscaled preview composited
// entirely in memory, and a scatter-plot heatmap of pairwise match offsets.
package sidecar

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/imgio"
	"github.com/kelseym/tilestitch/internal/lattice"
)

// Preview composites every tile at its solved position into a single
// in-memory RGBA image (unlike Render, which uses an out-of-core canvas),
// then downscales it by scale using a Catmull-Rom resampler. It is meant
// for human review of a stitch result without materializing the full
// mosaic, so it trades the memory-mapped backing store for simplicity.
func Preview(idx *grid.Index, positions map[grid.Coord]lattice.Vec, reader *imgio.TileReader, scale float64) (*image.RGBA, error) {
	minX, minY, maxX, maxY := bounds(positions, idx.Shape)
	w, h := maxX-minX, maxY-minY

	full := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range full.Pix {
		full.Pix[i] = 0xff
	}

	for _, coord := range idx.Tiles() {
		pos, ok := positions[coord]
		if !ok {
			continue
		}
		path := idx.Path(coord.R, coord.C)
		img, err := reader.Color(path)
		if err != nil {
			return nil, err
		}
		rgba := imgio.ToRGBA(img)
		blitMemory(full, rgba, pos.X-minX, pos.Y-minY)
	}

	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), full, full.Bounds(), draw.Over, nil)
	return scaled, nil
}

func bounds(positions map[grid.Coord]lattice.Vec, shape grid.Shape) (minX, minY, maxX, maxY int) {
	first := true
	for _, p := range positions {
		if first {
			minX, minY, maxX, maxY = p.X, p.Y, p.X+shape.W, p.Y+shape.H
			first = false
			continue
		}
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X+shape.W > maxX {
			maxX = p.X + shape.W
		}
		if p.Y+shape.H > maxY {
			maxY = p.Y + shape.H
		}
	}
	return
}

func blitMemory(dst, src *image.RGBA, originX, originY int) {
	b := src.Bounds()
	db := dst.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		dy := originY + (sy - b.Min.Y)
		if dy < db.Min.Y || dy >= db.Max.Y {
			continue
		}
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			dx := originX + (sx - b.Min.X)
			if dx < db.Min.X || dx >= db.Max.X {
				continue
			}
			si := src.PixOffset(sx, sy)
			if src.Pix[si+3] == 0 {
				continue
			}
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}
