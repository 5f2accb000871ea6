package renderer

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
)

// Progress reporter names accepted by NewProgressReporter
const (
	ProgressBar  = "bar"
	ProgressLog  = "log"
	ProgressNone = "none"
)

// ProgressReporter displays how many work rows are done. It is only fed
// from the reporting goroutine, never from workers.
type ProgressReporter interface {
	Start(total int)
	Update(done int)
	Finish()
}

// NewProgressReporter creates the reporter named kind. Unknown names
// report nothing.
func NewProgressReporter(kind string, out io.Writer, logger core.Logger) ProgressReporter {
	switch kind {
	case ProgressBar:
		return &BarReporter{out: out}
	case ProgressLog:
		return &LogReporter{logger: logger}
	default:
		return NopReporter{}
	}
}

// BarReporter draws a terminal progress bar
type BarReporter struct {
	out io.Writer
	bar *pb.ProgressBar
}

// Start implements ProgressReporter
func (br *BarReporter) Start(total int) {
	br.bar = pb.New(total)
	if br.out != nil {
		br.bar.SetWriter(br.out)
	}
	br.bar.Start()
}

// Update implements ProgressReporter
func (br *BarReporter) Update(done int) {
	br.bar.SetCurrent(int64(done))
}

// Finish implements ProgressReporter
func (br *BarReporter) Finish() {
	br.bar.Finish()
}

// LogReporter prints a line whenever another tenth of the rows is done
type LogReporter struct {
	logger core.Logger
	total  int
	last   int
}

// Start implements ProgressReporter
func (lr *LogReporter) Start(total int) {
	lr.total = total
	lr.last = 0
}

// Update implements ProgressReporter
func (lr *LogReporter) Update(done int) {
	step := max(lr.total/10, 1)
	if done == lr.last || (done-lr.last < step && done != lr.total) {
		return
	}
	lr.last = done
	lr.logger.Printf("%d of %d rows complete\n", done, lr.total)
}

// Finish implements ProgressReporter
func (lr *LogReporter) Finish() {}

// NopReporter discards progress
type NopReporter struct{}

func (NopReporter) Start(int)  {}
func (NopReporter) Update(int) {}
func (NopReporter) Finish()    {}

// progressTracker counts completed rows and forwards the count to a
// reporter from its own goroutine
type progressTracker struct {
	done     atomic.Int64
	total    int
	reporter ProgressReporter
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
}

func newProgressTracker(total int, reporter ProgressReporter) *progressTracker {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &progressTracker{
		total:    total,
		reporter: reporter,
		interval: 100 * time.Millisecond,
		stop:     make(chan struct{}),
	}
}

// start launches the reporting goroutine
func (pt *progressTracker) start() {
	pt.reporter.Start(pt.total)
	pt.wg.Add(1)
	go func() {
		defer pt.wg.Done()
		ticker := time.NewTicker(pt.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pt.reporter.Update(pt.completed())
			case <-pt.stop:
				pt.reporter.Update(pt.completed())
				pt.reporter.Finish()
				return
			}
		}
	}()
}

// rowDone is called by workers after finishing a row
func (pt *progressTracker) rowDone() {
	pt.done.Add(1)
}

func (pt *progressTracker) completed() int {
	return int(pt.done.Load())
}

// finish stops the reporting goroutine after a final update
func (pt *progressTracker) finish() {
	close(pt.stop)
	pt.wg.Wait()
}
