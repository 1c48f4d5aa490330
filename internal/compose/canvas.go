// Package compose implements the Compositor stage: it places every tile at
// its solved position onto an out-of-core canvas, tracks which pixels were
// ever written, and emits the final cropped mosaic.
package compose

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/lattice"
	"github.com/kelseym/tilestitch/internal/stitcherr"
)

// maxCanvasFactor bounds the canvas against the naive grid-times-tile-shape
// size, catching a diverged solve (wildly separated positions) before it
// tries to allocate a multi-terabyte backing file.
const maxCanvasFactor = 1.5

// Canvas is a memory-mapped RGBA image plus a parallel coverage mask,
// backed by two temp files so arbitrarily large mosaics never need to fit
// in process memory at once.
type Canvas struct {
	W, H int

	pixPath, maskPath string
	pix, mask         []byte
	pixClose, maskClose func() error
}

// NewCanvas allocates a canvas of the given size, backed by temp files
// under dir. White-initializes the pixel buffer (matching the original
// tool's np.full(..., 255) canvas) and zero-initializes the coverage mask.
func NewCanvas(dir string, w, h int) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, stitcherr.Geometry("canvas dimensions must be positive, got %dx%d", w, h)
	}

	pixPath, err := tempPath(dir, "tilestitch-canvas-*.rgba")
	if err != nil {
		return nil, stitcherr.IO("creating canvas backing file: %v", err)
	}
	maskPath, err := tempPath(dir, "tilestitch-mask-*.bitmap")
	if err != nil {
		os.Remove(pixPath)
		return nil, stitcherr.IO("creating mask backing file: %v", err)
	}

	pixSize := w * h * 4
	pix, pixClose, err := mmapRW(pixPath, pixSize)
	if err != nil {
		os.Remove(pixPath)
		os.Remove(maskPath)
		return nil, stitcherr.IO("mapping canvas backing file: %v", err)
	}
	for i := range pix {
		pix[i] = 0xff
	}

	maskSize := w * h
	mask, maskClose, err := mmapRW(maskPath, maskSize)
	if err != nil {
		pixClose()
		os.Remove(pixPath)
		os.Remove(maskPath)
		return nil, stitcherr.IO("mapping mask backing file: %v", err)
	}

	return &Canvas{
		W: w, H: h,
		pixPath: pixPath, maskPath: maskPath,
		pix: pix, mask: mask,
		pixClose: pixClose, maskClose: maskClose,
	}, nil
}

// Bounds reports the canvas and placement rectangle the given solved
// positions and tile shape need, guarding against a diverged solve that
// would otherwise request a pathologically large allocation.
func Bounds(positions map[grid.Coord]lattice.Vec, shape grid.Shape, g grid.Grid) (w, h, minX, minY int, err error) {
	if len(positions) == 0 {
		return 0, 0, 0, 0, stitcherr.Geometry("no tile positions to render")
	}
	first := true
	var maxX, maxY int
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
	w = maxX - minX
	h = maxY - minY

	nominalW := len(g.Cols) * shape.W
	nominalH := len(g.Rows) * shape.H
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0, stitcherr.Geometry("computed canvas size is non-positive: %dx%d", w, h)
	}
	if float64(w) > maxCanvasFactor*float64(nominalW) || float64(h) > maxCanvasFactor*float64(nominalH) {
		return 0, 0, 0, 0, stitcherr.Geometry(
			"computed canvas %dx%d exceeds %.1fx the nominal grid size %dx%d; the global solve likely diverged",
			w, h, maxCanvasFactor, nominalW, nominalH)
	}
	return w, h, minX, minY, nil
}

// Set writes an RGBA pixel at (x, y) and marks it covered. Out-of-bounds
// writes are silently clipped.
func (c *Canvas) Set(x, y int, r, g, b, a uint8) {
	if x < 0 || x >= c.W || y < 0 || y >= c.H {
		return
	}
	i := (y*c.W + x) * 4
	c.pix[i], c.pix[i+1], c.pix[i+2], c.pix[i+3] = r, g, b, a
	c.mask[y*c.W+x] = 1
}

// Covered reports whether (x, y) was ever written.
func (c *Canvas) Covered(x, y int) bool {
	if x < 0 || x >= c.W || y < 0 || y >= c.H {
		return false
	}
	return c.mask[y*c.W+x] != 0
}

// CropBounds returns the bounding rectangle of every covered pixel, or
// false if nothing was ever written.
func (c *Canvas) CropBounds() (image.Rectangle, bool) {
	minX, minY := c.W, c.H
	maxX, maxY := -1, -1
	for y := 0; y < c.H; y++ {
		rowBase := y * c.W
		for x := 0; x < c.W; x++ {
			if c.mask[rowBase+x] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Image returns an *image.RGBA view of the full canvas backed by the
// mapped memory (no copy) cropped to r.
func (c *Canvas) Image(r image.Rectangle) *image.RGBA {
	full := &image.RGBA{
		Pix:    c.pix,
		Stride: c.W * 4,
		Rect:   image.Rect(0, 0, c.W, c.H),
	}
	return full.SubImage(r).(*image.RGBA)
}

// At returns the color at (x, y), honoring the coverage mask: uncovered
// pixels report as opaque white regardless of what the backing buffer
// happens to hold.
func (c *Canvas) At(x, y int) color.RGBA {
	if !c.Covered(x, y) {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	i := (y*c.W + x) * 4
	return color.RGBA{R: c.pix[i], G: c.pix[i+1], B: c.pix[i+2], A: c.pix[i+3]}
}

// Close unmaps and removes both backing files.
func (c *Canvas) Close() error {
	pixErr := c.pixClose()
	maskErr := c.maskClose()
	os.Remove(c.pixPath)
	os.Remove(c.maskPath)
	if pixErr != nil {
		return pixErr
	}
	return maskErr
}

func tempPath(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file %q: %w", path, err)
	}
	return path, nil
}
