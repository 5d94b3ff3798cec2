package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"bookfetch/internal/workflow"
)

// progressScale converts fractional file progress into integer bar units.
const progressScale = 1000

// newProgressFactory builds one progress bar per book. Download workers
// report fractional deltas concurrently, so the accumulator is locked.
func newProgressFactory(out io.Writer) workflow.ProgressFactory {
	return func(title string, fileCount int) func(delta float64) {
		bar := progressbar.NewOptions64(int64(fileCount)*progressScale,
			progressbar.OptionSetDescription(title),
			progressbar.OptionSetWriter(out),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
		)

		var mu sync.Mutex
		var accumulated float64
		var reported int64
		return func(delta float64) {
			mu.Lock()
			defer mu.Unlock()
			accumulated += delta
			units := int64(accumulated * progressScale)
			if units > reported {
				bar.Add64(units - reported)
				reported = units
			}
		}
	}
}
