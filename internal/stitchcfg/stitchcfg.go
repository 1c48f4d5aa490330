// Package stitchcfg holds the stitching engine's configuration record and
// its validation/defaulting logic, mirroring the Config/DiskTileStoreConfig
// pattern the teacher uses for its own pipeline stages.
package stitchcfg

import "github.com/kelseym/tilestitch/internal/stitcherr"

// Range restricts matching jobs and the render set to a sub-rectangle of
// the grid. A nil *Range means "the whole grid".
type Range struct {
	RMin, RMax, CMin, CMax int
}

// Contains reports whether (r, c) falls inside the range.
func (rg *Range) Contains(r, c int) bool {
	if rg == nil {
		return true
	}
	return r >= rg.RMin && r <= rg.RMax && c >= rg.CMin && c <= rg.CMax
}

// Config holds every tunable named in the external interface.
type Config struct {
	MinScoreThreshold float64
	StitchRange       *Range
	PreviewScale      float64
	CacheMaxItems     int
	OverlapHPct       int
	OverlapVPct       int
	InitialPosWeight  float64
	NFeatures         int
	LSQRIter          int
	GeneratePreview   bool
	GenerateHeatmap   bool
	PreviewPath       string
	HeatmapPath       string
	Verbose           bool
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		MinScoreThreshold: 0.75,
		PreviewScale:      0.25,
		CacheMaxItems:     128,
		OverlapHPct:       60,
		OverlapVPct:       40,
		InitialPosWeight:  0.01,
		NFeatures:         2000,
		LSQRIter:          200,
	}
}

// Normalize fills in zero-valued fields with their defaults. It is applied
// before Validate so a caller need only set the fields they care about.
// A field explicitly set to zero cannot be told apart from an unset one and
// is replaced by its default as well.
func (c *Config) Normalize() {
	d := Default()
	if c.MinScoreThreshold == 0 {
		c.MinScoreThreshold = d.MinScoreThreshold
	}
	if c.PreviewScale == 0 {
		c.PreviewScale = d.PreviewScale
	}
	if c.CacheMaxItems == 0 {
		c.CacheMaxItems = d.CacheMaxItems
	}
	if c.OverlapHPct == 0 {
		c.OverlapHPct = d.OverlapHPct
	}
	if c.OverlapVPct == 0 {
		c.OverlapVPct = d.OverlapVPct
	}
	if c.InitialPosWeight == 0 {
		c.InitialPosWeight = d.InitialPosWeight
	}
	if c.NFeatures == 0 {
		c.NFeatures = d.NFeatures
	}
	if c.LSQRIter == 0 {
		c.LSQRIter = d.LSQRIter
	}
}

// Validate checks configuration invariants, returning a ConfigurationError
// describing the first violation found.
func (c *Config) Validate() error {
	if c.OverlapHPct < 1 || c.OverlapHPct > 100 {
		return stitcherr.Configuration("overlap_h_pct must be in [1,100], got %d", c.OverlapHPct)
	}
	if c.OverlapVPct < 1 || c.OverlapVPct > 100 {
		return stitcherr.Configuration("overlap_v_pct must be in [1,100], got %d", c.OverlapVPct)
	}
	if c.CacheMaxItems < 0 {
		return stitcherr.Configuration("cache_max_items must be non-negative, got %d", c.CacheMaxItems)
	}
	if c.NFeatures < 0 {
		return stitcherr.Configuration("nfeatures must be non-negative, got %d", c.NFeatures)
	}
	if c.LSQRIter < 0 {
		return stitcherr.Configuration("lsqr_iter must be non-negative, got %d", c.LSQRIter)
	}
	if c.MinScoreThreshold < 0 {
		return stitcherr.Configuration("min_score_threshold must be non-negative, got %f", c.MinScoreThreshold)
	}
	if c.PreviewScale <= 0 {
		return stitcherr.Configuration("preview_scale must be positive, got %f", c.PreviewScale)
	}
	if c.StitchRange != nil {
		r := c.StitchRange
		if r.RMin > r.RMax || r.CMin > r.CMax {
			return stitcherr.Configuration("stitch_range is inverted: rows [%d,%d] cols [%d,%d]", r.RMin, r.RMax, r.CMin, r.CMax)
		}
	}
	return nil
}
