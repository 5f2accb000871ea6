package renderer

import (
	"fmt"
	"time"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/integrator"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for a render
type Config struct {
	Mode       string           // integrator.ModeCamera or integrator.ModeLight
	NumWorkers int              // Number of parallel workers (0 = use CPU count)
	Seed       int64            // Row r samples with a generator seeded Seed+r
	ToneMap    ToneMapConfig    // Applied by Render; an empty mode picks DefaultToneMapFor(Mode)
	Progress   ProgressReporter // nil reports nothing
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Mode:       integrator.ModeCamera,
		NumWorkers: 0,
		Seed:       1,
	}
}

// Renderer renders one scene with one integrator
type Renderer struct {
	scene  *scene.Scene
	config Config
	logger core.Logger
}

// NewRenderer checks the scene and configuration and creates a renderer
func NewRenderer(s *scene.Scene, config Config, logger core.Logger) (*Renderer, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	config.ToneMap = config.ToneMap.resolve(config.Mode)
	if err := config.ToneMap.Validate(); err != nil {
		return nil, err
	}
	if _, err := integrator.New(config.Mode, s); err != nil {
		return nil, err
	}
	if config.Progress == nil {
		config.Progress = NopReporter{}
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	return &Renderer{scene: s, config: config, logger: logger}, nil
}

// Scene returns the scene being rendered
func (r *Renderer) Scene() *scene.Scene {
	return r.scene
}

// RenderRaw renders every row and returns the unbounded screen
func (r *Renderer) RenderRaw() (*Screen, RenderStats) {
	cfg := r.scene.SamplingConfig
	// A fresh integrator per render keeps the counters per render
	integ, _ := integrator.New(r.config.Mode, r.scene)

	screen := NewScreen(cfg.Width, cfg.Height)
	rows := cfg.Height
	progress := newProgressTracker(rows, r.config.Progress)
	pool := NewWorkerPool(integ, screen, rows, r.config.NumWorkers, progress)

	r.logger.Printf("Rendering %q in %s mode: %dx%d, depth %d, using %d workers...\n",
		r.scene.Name, integ.Name(), cfg.Width, cfg.Height, cfg.MaxDepth, pool.GetNumWorkers())

	start := time.Now()
	progress.start()
	pool.Start()
	for y := 0; y < rows; y++ {
		pool.SubmitTask(RowTask{Row: y, Seed: r.config.Seed + int64(y)})
	}
	pool.Stop()

	completed := 0
	for {
		if _, ok := pool.GetResult(); !ok {
			break
		}
		completed++
	}
	progress.finish()

	stats := RenderStats{
		Mode:    integ.Name(),
		Width:   cfg.Width,
		Height:  cfg.Height,
		Rows:    completed,
		Workers: pool.GetNumWorkers(),
		Elapsed: time.Since(start),
	}
	stats.addCounters(integ.Counters().Snapshot())

	r.logger.Printf("Render completed in %v (%d rays, %.0f rays/s)\n",
		stats.Elapsed, stats.TotalRays(), stats.RaysPerSecond())

	return screen, stats
}

// Render renders the scene and tone maps the result into [0, 1]
func (r *Renderer) Render() (*Screen, RenderStats) {
	screen, stats := r.RenderRaw()
	screen.ToneMap(r.config.ToneMap)
	return screen, stats
}
