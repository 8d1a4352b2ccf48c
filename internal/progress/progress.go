// Package progress renders analysis progress on the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/panbanda/hoist/pkg/analyzer"
	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progress bar and feeds it from an analyzer.Tracker.
type Bar struct {
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	label  string
	writer io.Writer
	total  int
}

// NewBar creates a bar writing to stderr.
func NewBar(label string) *Bar {
	return NewBarWriter(label, os.Stderr)
}

// NewBarWriter creates a bar writing to w. The total is unknown until the
// first tick, so the bar starts as a spinner.
func NewBarWriter(label string, w io.Writer) *Bar {
	return &Bar{
		bar:    newBar(label, -1, w),
		label:  label,
		writer: w,
	}
}

func newBar(label string, total int, w io.Writer) *progressbar.ProgressBar {
	if total < 0 {
		return progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(20),
			progressbar.OptionSetDescription(label),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Tracker returns an analyzer.Tracker that drives this bar.
func (b *Bar) Tracker() *analyzer.Tracker {
	return analyzer.NewTracker(b.update)
}

// update resizes the bar when the tracker's total grows, then sets the
// current count. Safe for concurrent use.
func (b *Bar) update(done, total int, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if total != b.total && total > 0 {
		b.bar.ChangeMax(total)
		b.total = total
	}
	_ = b.bar.Set(done)
}

// Finish clears the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
	_ = b.bar.Clear()
}

// FinishError clears the bar and prints the error.
func (b *Bar) FinishError(err error) {
	b.Finish()
	fmt.Fprintf(b.writer, "  %s error: %v\n", b.label, err)
}
