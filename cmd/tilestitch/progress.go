package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseym/tilestitch/internal/status"
)

// progressBar renders an in-place terminal progress bar driven by Progress
// events from the engine's status sink, rather than an atomic counter
// incremented by worker goroutines: the pipeline here is a single
// sequential stage chain, so percent complete is reported directly by the
// stage that knows it.
type progressBar struct {
	barWidth int
	start    time.Time
	lastLine string
	percent  int
}

func newProgressBar() *progressBar {
	return &progressBar{barWidth: 30, start: time.Now()}
}

// update redraws the bar at percent, or at the last known percent if
// percent is negative (used for label-only updates, e.g. which tile pair
// is currently being matched).
func (pb *progressBar) update(percent int, label string) {
	if percent < 0 {
		percent = pb.percent
	} else if percent > 100 {
		percent = 100
	}
	pb.percent = percent
	filled := pb.barWidth * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.barWidth-filled)
	elapsed := time.Since(pb.start).Truncate(time.Second)
	line := fmt.Sprintf("\r[%s] %3d%%  %-40s  %s\033[K", bar, percent, label, elapsed)
	fmt.Fprint(os.Stderr, line)
	pb.lastLine = line
}

func (pb *progressBar) finish() {
	if pb.lastLine != "" {
		fmt.Fprint(os.Stderr, "\n")
	}
}
