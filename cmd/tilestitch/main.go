// Command tilestitch stitches a grid of overlapping screenshot tiles,
// named R<row>_C<col>.<ext>, into a single mosaic image.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/kelseym/tilestitch/internal/engine"
	"github.com/kelseym/tilestitch/internal/status"
	"github.com/kelseym/tilestitch/internal/stitchcfg"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	d := stitchcfg.Default()

	var (
		minScore        float64
		previewScale    float64
		cacheMaxItems   int
		overlapH        int
		overlapV        int
		initialPosW     float64
		nfeatures       int
		lsqrIter        int
		stitchRange     string
		generatePreview bool
		generateHeatmap bool
		previewPath     string
		heatmapPath     string
		verbose         bool
		showVersion     bool
		cpuProfile      string
		memProfile      string
	)

	flag.Float64Var(&minScore, "min-score-threshold", d.MinScoreThreshold, "Minimum effective match score to retain a pairwise offset")
	flag.Float64Var(&previewScale, "preview-scale", d.PreviewScale, "Downscale factor for the preview sidecar image")
	flag.IntVar(&cacheMaxItems, "cache-max-items", d.CacheMaxItems, "Maximum entries held by each tile LRU cache")
	flag.IntVar(&overlapH, "overlap-h-pct", d.OverlapHPct, "Expected horizontal overlap between neighboring tiles, percent")
	flag.IntVar(&overlapV, "overlap-v-pct", d.OverlapVPct, "Expected vertical overlap between neighboring tiles, percent")
	flag.Float64Var(&initialPosW, "initial-pos-weight", d.InitialPosWeight, "Regularization weight pulling the global solve toward the lattice guess")
	flag.IntVar(&nfeatures, "nfeatures", d.NFeatures, "Maximum feature points per tile for the fallback feature matcher")
	flag.IntVar(&lsqrIter, "lsqr-iter", d.LSQRIter, "Maximum LSQR iterations for the global solve")
	flag.StringVar(&stitchRange, "stitch-range", "", "Restrict stitching to a sub-rectangle \"rmin,rmax,cmin,cmax\" (default: whole grid)")
	flag.BoolVar(&generatePreview, "preview", false, "Also write a downscaled preview image")
	flag.BoolVar(&generateHeatmap, "heatmap", false, "Also write a scatter-plot heatmap of match offsets")
	flag.StringVar(&previewPath, "preview-path", "preview.png", "Output path for the preview sidecar")
	flag.StringVar(&heatmapPath, "heatmap-path", "heatmap.png", "Output path for the heatmap sidecar")
	flag.BoolVar(&verbose, "verbose", false, "Verbose status output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilestitch [flags] <input-dir> <output.png>\n\n")
		fmt.Fprintf(os.Stderr, "Stitch a grid of R<row>_C<col>.<ext> tiles into one mosaic.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("tilestitch %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatalf("Creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				log.Fatalf("Creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("Writing memory profile: %v", err)
			}
		}()
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputDir, outputPath := args[0], args[1]

	outExt := strings.ToLower(filepath.Ext(outputPath))
	if outExt != ".png" && outExt != ".webp" {
		log.Fatal("Output file must have a .png or .webp extension")
	}

	rg, err := parseRange(stitchRange)
	if err != nil {
		log.Fatalf("Stitch range: %v", err)
	}

	cfg := stitchcfg.Config{
		MinScoreThreshold: minScore,
		StitchRange:       rg,
		PreviewScale:      previewScale,
		CacheMaxItems:     cacheMaxItems,
		OverlapHPct:       overlapH,
		OverlapVPct:       overlapV,
		InitialPosWeight:  initialPosW,
		NFeatures:         nfeatures,
		LSQRIter:          lsqrIter,
		GeneratePreview:   generatePreview,
		GenerateHeatmap:   generateHeatmap,
		PreviewPath:       previewPath,
		HeatmapPath:       heatmapPath,
		Verbose:           verbose,
	}

	fmt.Printf("tilestitch %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-20s %s\n", "Input:", inputDir)
	fmt.Printf("  %-20s %s\n", "Output:", outputPath)
	fmt.Printf("  %-20s %.2f\n", "Min score:", cfg.MinScoreThreshold)
	fmt.Printf("  %-20s %d%% / %d%%\n", "Overlap H/V:", cfg.OverlapHPct, cfg.OverlapVPct)
	if rg != nil {
		fmt.Printf("  %-20s rows [%d,%d] cols [%d,%d]\n", "Stitch range:", rg.RMin, rg.RMax, rg.CMin, rg.CMax)
	}

	start := time.Now()
	sink := status.NewSink(32)
	pb := newProgressBar()

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(inputDir, outputPath, cfg, sink)
	}()

	var lastErr error
	for ev := range sink {
		switch ev.Kind {
		case status.Status:
			if verbose {
				pb.finish()
				log.Printf("%s", ev.Message)
			}
		case status.Progress:
			pb.update(ev.Percent, "stitching")
		case status.ProgressPair:
			if verbose {
				pb.update(-1, fmt.Sprintf("matching (%d,%d)-(%d,%d)", ev.Pair[0].R, ev.Pair[0].C, ev.Pair[1].R, ev.Pair[1].C))
			}
		case status.Error:
			lastErr = fmt.Errorf("%s", ev.Message)
		case status.Done:
			pb.update(100, "done")
		}
	}
	pb.finish()

	if err := <-done; err != nil {
		log.Fatalf("Stitching failed: %v", err)
	}
	if lastErr != nil {
		log.Fatalf("Stitching failed: %v", lastErr)
	}

	fmt.Printf("Done in %v → %s\n", time.Since(start).Round(time.Millisecond), outputPath)
}

func parseRange(s string) (*stitchcfg.Range, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected \"rmin,rmax,cmin,cmax\", got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		vals[i] = v
	}
	return &stitchcfg.Range{RMin: vals[0], RMax: vals[1], CMin: vals[2], CMax: vals[3]}, nil
}
