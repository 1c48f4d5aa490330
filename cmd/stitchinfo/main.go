// Command stitchinfo inspects an input tile directory without running the
// full stitching pipeline: it reports grid dimensions, tile shape,
// estimated mosaic disk usage, and a quick pairwise-match summary using
// the default matcher configuration.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/imgio"
	"github.com/kelseym/tilestitch/internal/match"
	"github.com/kelseym/tilestitch/internal/stitchcfg"
)

func main() {
	skipMatch := flag.Bool("skip-match", false, "skip the pairwise-match summary (grid/shape info only)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stitchinfo [flags] <input-dir>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	dir := flag.Arg(0)

	idx, err := grid.Build(dir, imgio.DecodeShape)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rows := len(idx.Grid.Rows)
	cols := len(idx.Grid.Cols)
	tiles := rows * cols

	fmt.Printf("Input: %s\n", dir)
	fmt.Printf("Grid: %d rows x %d cols (%d tiles)\n", rows, cols, tiles)
	fmt.Printf("Row range: [%d, %d]\n", idx.Grid.MinR, idx.Grid.MaxR)
	fmt.Printf("Col range: [%d, %d]\n", idx.Grid.MinC, idx.Grid.MaxC)
	fmt.Printf("Tile shape: %d x %d, %d channel(s)\n", idx.Shape.W, idx.Shape.H, idx.Shape.Channels)

	nominalW := cols * idx.Shape.W
	nominalH := rows * idx.Shape.H
	rgbaBytes := int64(nominalW) * int64(nominalH) * 4
	fmt.Printf("Nominal canvas (no overlap removed): %d x %d (%s as RGBA)\n", nominalW, nominalH, humanSize(rgbaBytes))

	if *skipMatch {
		return
	}
	printMatchSummary(idx)
}

// printMatchSummary runs the pairwise matcher over every adjacent tile pair
// with the default configuration and reports how many were retained, for a
// quick "will this directory stitch well" signal before committing to the
// full pipeline.
func printMatchSummary(idx *grid.Index) {
	cfg := stitchcfg.Default()
	reader := imgio.NewTileReader(cfg.CacheMaxItems)
	jobs := match.BuildJobs(idx.Grid, nil)

	var retained int
	var scoreSum float64
	for _, job := range jobs {
		srcGray, err := reader.Gray(idx.Path(job.Src.R, job.Src.C), 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		dstGray, err := reader.Gray(idx.Path(job.Dst.R, job.Dst.C), 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		m, ok := match.Resolve(job, srcGray, dstGray, match.Options{
			OverlapHPct:       cfg.OverlapHPct,
			OverlapVPct:       cfg.OverlapVPct,
			NFeatures:         cfg.NFeatures,
			MinScoreThreshold: cfg.MinScoreThreshold,
			RANSACSeed:        uint64(job.Src.R)<<32 | uint64(uint32(job.Src.C)),
		})
		if ok {
			retained++
			scoreSum += m.EffectiveScore()
		}
	}

	fmt.Printf("Pairwise jobs: %d\n", len(jobs))
	if len(jobs) == 0 {
		return
	}
	fmt.Printf("Retained matches: %d (%.1f%%)\n", retained, 100*float64(retained)/float64(len(jobs)))
	if retained > 0 {
		fmt.Printf("Average retained score: %.3f\n", scoreSum/float64(retained))
	}
}

func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
