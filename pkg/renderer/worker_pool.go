package renderer

import (
	"runtime"
	"sync"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/integrator"
)

// RowTask represents one scanline of work for the worker pool
type RowTask struct {
	Row  int
	Seed int64 // Seed of the row's private random generator
}

// RowResult reports a finished row
type RowResult struct {
	Row      int
	WorkerID int
}

// WorkerPool renders rows in parallel. Row-local integrators write straight
// into the target screen, since rows never overlap. Scattering integrators
// get a private screen per worker, merged into the target on Stop.
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	target      *Screen
	scatters    bool
	wg          sync.WaitGroup
}

// Worker handles individual row tasks
type Worker struct {
	ID          int
	integrator  integrator.Integrator
	film        *Screen
	taskQueue   chan RowTask
	resultQueue chan RowResult
	progress    *progressTracker
}

// NewWorkerPool creates a worker pool for rows rows with the specified
// number of workers
func NewWorkerPool(integ integrator.Integrator, target *Screen, rows, numWorkers int, progress *progressTracker) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, rows),
		resultQueue: make(chan RowResult, rows),
		numWorkers:  numWorkers,
		target:      target,
		scatters:    integ.Scatters(),
	}

	for i := 0; i < numWorkers; i++ {
		film := target
		if wp.scatters {
			film = NewScreen(target.Width, target.Height)
		}
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			integrator:  integ,
			film:        film,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
			progress:    progress,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop waits for the queued rows to finish and merges private screens
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)

	if wp.scatters {
		for _, w := range wp.workers {
			wp.target.Merge(w.film)
		}
	}
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed row result
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		sampler := core.NewSeededSampler(task.Seed)
		w.integrator.RenderRow(task.Row, sampler, w.film)

		if w.progress != nil {
			w.progress.rowDone()
		}
		w.resultQueue <- RowResult{Row: task.Row, WorkerID: w.ID}
	}
}
