// Package engine drives the five-stage stitching pipeline end to end:
// grid indexing, pairwise matching, initial estimation, global solving,
// and compositing, plus the optional preview and heatmap sidecars.
package engine

import (
	"os"

	"github.com/kelseym/tilestitch/internal/compose"
	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/imgio"
	"github.com/kelseym/tilestitch/internal/lattice"
	"github.com/kelseym/tilestitch/internal/match"
	"github.com/kelseym/tilestitch/internal/sidecar"
	"github.com/kelseym/tilestitch/internal/solve"
	"github.com/kelseym/tilestitch/internal/status"
	"github.com/kelseym/tilestitch/internal/stitchcfg"
	"github.com/kelseym/tilestitch/internal/stitcherr"
)

// Run executes the full pipeline: index inputDir, match neighboring tiles,
// estimate an initial lattice, refine it with a global solve, and write
// the composited mosaic to outPath. Sidecar outputs are written alongside
// if cfg enables them. Every event on sink precedes the next stage's
// first event; sink is closed when Run returns.
func Run(inputDir, outPath string, cfg stitchcfg.Config, sink status.Sink) error {
	defer close(sink)

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		status.Errorf(sink, "%v", err)
		return err
	}

	status.Statusf(sink, "indexing tiles in %s", inputDir)
	idx, err := grid.Build(inputDir, imgio.DecodeShape)
	if err != nil {
		status.Errorf(sink, "%v", err)
		return err
	}

	reader := imgio.NewTileReader(cfg.CacheMaxItems)

	windowed := windowedTiles(idx, cfg.StitchRange)
	if len(windowed) == 0 {
		err := stitcherr.Input("stitch_range selects no tiles")
		status.Errorf(sink, "%v", err)
		return err
	}

	var positions map[grid.Coord]lattice.Vec
	var matches []match.Match

	if len(windowed) == 1 {
		// A single-tile grid, or a stitch_range narrowed to one tile,
		// has no neighbor to match against: render that tile alone.
		status.Statusf(sink, "single tile selected, skipping matching")
		positions = map[grid.Coord]lattice.Vec{windowed[0]: {X: 0, Y: 0}}
	} else {
		status.Statusf(sink, "matching %d×%d grid", len(idx.Grid.Rows), len(idx.Grid.Cols))
		jobs := match.BuildJobs(idx.Grid, cfg.StitchRange.Contains)

		downscale := 1.0
		matches = make([]match.Match, 0, len(jobs))
		for i, job := range jobs {
			srcGray, err := reader.Gray(idx.Path(job.Src.R, job.Src.C), downscale)
			if err != nil {
				status.Errorf(sink, "%v", err)
				return err
			}
			dstGray, err := reader.Gray(idx.Path(job.Dst.R, job.Dst.C), downscale)
			if err != nil {
				status.Errorf(sink, "%v", err)
				return err
			}

			status.ProgressPairf(sink, status.TileCoord{R: job.Src.R, C: job.Src.C}, status.TileCoord{R: job.Dst.R, C: job.Dst.C})

			m, ok := match.Resolve(job, srcGray, dstGray, match.Options{
				OverlapHPct:       cfg.OverlapHPct,
				OverlapVPct:       cfg.OverlapVPct,
				NFeatures:         cfg.NFeatures,
				MinScoreThreshold: cfg.MinScoreThreshold,
				RANSACSeed:        uint64(job.Src.R)<<32 | uint64(uint32(job.Src.C)),
			})
			if ok {
				matches = append(matches, m)
			}

			if len(jobs) > 0 {
				status.Progressf(sink, int(float64(i+1)/float64(len(jobs))*50))
			}
		}

		status.Statusf(sink, "estimating initial positions from %d retained matches", len(matches))
		initial, _, _, err := lattice.Estimate(idx.Grid, matches)
		if err != nil {
			status.Errorf(sink, "%v", err)
			return err
		}

		status.Statusf(sink, "refining positions with a global solve")
		solved := solve.Refine(initial, matches, solve.Options{
			InitialPosWeight: cfg.InitialPosWeight,
			LSQRIter:         cfg.LSQRIter,
		})
		positions = restrictToWindow(solved, windowed)
	}

	tmpDir, err := os.MkdirTemp("", "tilestitch-*")
	if err != nil {
		status.Errorf(sink, "%v", err)
		return err
	}
	defer os.RemoveAll(tmpDir)

	status.Statusf(sink, "compositing final mosaic")
	if err := compose.Render(idx, positions, reader, tmpDir, outPath, sink); err != nil {
		status.Errorf(sink, "%v", err)
		return err
	}

	if cfg.GeneratePreview {
		if err := writePreview(idx, positions, reader, cfg, sink); err != nil {
			status.Errorf(sink, "%v", err)
			return err
		}
	}
	if cfg.GenerateHeatmap {
		writeHeatmap(matches, cfg, sink)
	}

	status.Donef(sink, "wrote %s", outPath)
	return nil
}

// windowedTiles returns every tile in idx whose coordinate falls inside
// rg (or every tile, if rg is nil), preserving grid.Index.Tiles' row/col
// order.
func windowedTiles(idx *grid.Index, rg *stitchcfg.Range) []grid.Coord {
	var out []grid.Coord
	for _, coord := range idx.Tiles() {
		if rg.Contains(coord.R, coord.C) {
			out = append(out, coord)
		}
	}
	return out
}

// restrictToWindow returns the subset of positions whose key appears in
// window, so a configured stitch_range narrows the render set the same
// way it narrowed the matching job list.
func restrictToWindow(positions map[grid.Coord]lattice.Vec, window []grid.Coord) map[grid.Coord]lattice.Vec {
	out := make(map[grid.Coord]lattice.Vec, len(window))
	for _, coord := range window {
		if pos, ok := positions[coord]; ok {
			out[coord] = pos
		}
	}
	return out
}

func writePreview(idx *grid.Index, positions map[grid.Coord]lattice.Vec, reader *imgio.TileReader, cfg stitchcfg.Config, sink status.Sink) error {
	status.Statusf(sink, "rendering preview")
	img, err := sidecar.Preview(idx, positions, reader, cfg.PreviewScale)
	if err != nil {
		return err
	}
	path := cfg.PreviewPath
	if path == "" {
		path = "preview.png"
	}
	return imgio.EncodeImage(path, img)
}

func writeHeatmap(matches []match.Match, cfg stitchcfg.Config, sink status.Sink) {
	img, ok := sidecar.Heatmap(matches)
	if !ok {
		status.Statusf(sink, "skipping heatmap: no matches to plot")
		return
	}
	path := cfg.HeatmapPath
	if path == "" {
		path = "heatmap.png"
	}
	if err := imgio.EncodeImage(path, img); err != nil {
		status.Statusf(sink, "skipping heatmap: %v", err)
		return
	}
	status.Statusf(sink, "wrote %s", path)
}
