package compose

import (
	"image"
	"image/color"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/imgio"
	"github.com/kelseym/tilestitch/internal/lattice"
	"github.com/kelseym/tilestitch/internal/status"
)

// Render places every tile in idx at its solved position onto an
// out-of-core canvas, crops to the union of covered pixels, and writes the
// result to outPath via imgio.EncodeImage (WebP for a .webp path, PNG
// otherwise). tmpDir holds the canvas and mask backing
// files, removed again before Render returns.
func Render(idx *grid.Index, positions map[grid.Coord]lattice.Vec, reader *imgio.TileReader, tmpDir, outPath string, sink status.Sink) error {
	w, h, minX, minY, err := Bounds(positions, idx.Shape, idx.Grid)
	if err != nil {
		return err
	}

	status.Statusf(sink, "allocating %dx%d canvas", w, h)
	canvas, err := NewCanvas(tmpDir, w, h)
	if err != nil {
		return err
	}
	defer canvas.Close()

	tiles := idx.Tiles()
	for i, coord := range tiles {
		pos, ok := positions[coord]
		if !ok {
			continue
		}
		path := idx.Path(coord.R, coord.C)
		img, err := reader.Color(path)
		if err != nil {
			return err
		}
		rgba := imgio.ToRGBA(img)
		Blit(canvas, rgba, pos.X-minX, pos.Y-minY)

		if len(tiles) > 0 {
			status.Progressf(sink, 50+int(float64(i+1)/float64(len(tiles))*50))
		}
	}

	crop, ok := canvas.CropBounds()
	if !ok {
		// No tile ever wrote a pixel to the canvas (every placed pixel was
		// fully transparent). Emit a 1x1 black pixel rather than failing the run.
		status.Statusf(sink, "no covered pixels, writing a 1x1 placeholder")
		blank := image.NewRGBA(image.Rect(0, 0, 1, 1))
		blank.Set(0, 0, color.RGBA{A: 255})
		return imgio.EncodeImage(outPath, blank)
	}

	status.Statusf(sink, "cropping to %dx%d and encoding", crop.Dx(), crop.Dy())
	cropped := canvas.Image(crop)
	return imgio.EncodeImage(outPath, cropped)
}

