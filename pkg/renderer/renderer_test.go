package renderer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/integrator"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// wallScene creates a white wall at z=5 with a light of intensity 3 one unit
// in front of the point seen through the center of a 2x2 sensor
func wallScene(t *testing.T) *scene.Scene {
	t.Helper()
	sampling := scene.DefaultSamplingConfig()
	sampling.Width = 2
	sampling.Height = 2
	s := scene.NewScene("wall", sampling, geometry.DefaultCameraConfig())
	if _, err := s.AddTriangle(
		core.NewVec3(-10, -10, 5),
		core.NewVec3(30, -10, 5),
		core.NewVec3(-10, 30, 5),
		core.White,
	); err != nil {
		t.Fatal(err)
	}
	s.AddPointLight(core.NewVec3(0.5, 0.5, 4), core.White, 3)
	return s
}

// smallDefaultScene is the built-in default scene at a reduced resolution
func smallDefaultScene(size int) *scene.Scene {
	s := scene.NewDefaultScene()
	s.Configure(scene.MergeSamplingConfig(s.SamplingConfig, scene.SamplingConfig{
		Width:           size,
		Height:          size,
		IndirectSamples: 2,
		PhotonsPerRow:   20,
	}))
	return s
}

func TestNewRenderer_Errors(t *testing.T) {
	empty := scene.NewScene("empty", scene.DefaultSamplingConfig(), geometry.DefaultCameraConfig())

	tests := []struct {
		name   string
		scene  *scene.Scene
		config Config
	}{
		{"Scene without planes", empty, DefaultConfig()},
		{"Unknown mode", wallScene(t), Config{Mode: "bdpt", ToneMap: DefaultToneMapConfig()}},
		{"Bad tone map", wallScene(t), Config{Mode: integrator.ModeCamera, ToneMap: ToneMapConfig{Mode: "gamma"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRenderer(tt.scene, tt.config, nil); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRenderer_WallScenario(t *testing.T) {
	s := wallScene(t)
	r, err := NewRenderer(s, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	raw, stats := r.RenderRaw()

	if got := raw.Get(1, 1); got != core.NewVec3(3, 3, 3) {
		t.Errorf("Expected raw center color (3,3,3), got %v", got)
	}
	if stats.PrimaryRays != 4 || stats.Rows != 2 {
		t.Errorf("Expected 4 primary rays over 2 rows, got %d over %d", stats.PrimaryRays, stats.Rows)
	}

	// Exposure 1e7 maps 3 to 3e-7, which truncates to 0 in 8 bits
	raw.ToneMap(DefaultToneMapConfig())
	if got := raw.Get(1, 1).X; got < 2.9999e-7 || got > 3.0001e-7 {
		t.Errorf("Expected 3e-7 after exposure, got %v", got)
	}
	img := raw.ToImage()
	if px := img.RGBAAt(0, 1); px.R != 0 || px.G != 0 || px.B != 0 || px.A != 255 {
		t.Errorf("Expected opaque black pixel, got %v", px)
	}
}

func TestRenderer_CameraModeDeterministic(t *testing.T) {
	render := func(workers int) *Screen {
		config := DefaultConfig()
		config.NumWorkers = workers
		config.Seed = 42
		r, err := NewRenderer(smallDefaultScene(12), config, nil)
		if err != nil {
			t.Fatalf("NewRenderer failed: %v", err)
		}
		screen, _ := r.RenderRaw()
		return screen
	}

	a := render(4)
	b := render(4)
	c := render(1)
	for i := range a.Pixels {
		if a.Pixels[i] != b.Pixels[i] || a.Pixels[i] != c.Pixels[i] {
			t.Fatalf("Pixel %d differs between runs: %v %v %v", i, a.Pixels[i], b.Pixels[i], c.Pixels[i])
		}
	}
	if a.Max() == 0 {
		t.Error("Expected a lit image")
	}
}

func TestRenderer_LightMode(t *testing.T) {
	render := func(workers int) (*Screen, RenderStats) {
		config := DefaultConfig()
		config.Mode = integrator.ModeLight
		config.NumWorkers = workers
		config.Seed = 7
		r, err := NewRenderer(smallDefaultScene(12), config, nil)
		if err != nil {
			t.Fatalf("NewRenderer failed: %v", err)
		}
		return r.RenderRaw()
	}

	a, stats := render(1)
	b, _ := render(1)

	if stats.Mode != integrator.ModeLight {
		t.Errorf("Expected mode %s, got %s", integrator.ModeLight, stats.Mode)
	}
	if stats.Photons != 12*20 {
		t.Errorf("Expected %d photons, got %d", 12*20, stats.Photons)
	}
	if stats.PrimaryRays != 0 {
		t.Errorf("Expected no primary rays in light mode, got %d", stats.PrimaryRays)
	}
	for i := range a.Pixels {
		if a.Pixels[i] != b.Pixels[i] {
			t.Fatalf("Pixel %d differs between single-worker runs", i)
		}
	}

	// Several workers merge private screens; only the summation order changes
	c, _ := render(3)
	if d := a.Max() - c.Max(); d > 1e-9*a.Max() || d < -1e-9*a.Max() {
		t.Errorf("Expected the same image with several workers, max %v vs %v", a.Max(), c.Max())
	}
}

func TestRenderer_Render(t *testing.T) {
	config := DefaultConfig()
	config.ToneMap = ToneMapConfig{Mode: ToneMapMax}
	r, err := NewRenderer(smallDefaultScene(8), config, nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	screen, _ := r.Render()
	if got := screen.Max(); got != 1 {
		t.Errorf("Expected max 1 after tone mapping, got %v", got)
	}
	for i, c := range screen.Pixels {
		if c.X < 0 || c.Y < 0 || c.Z < 0 || c.MaxComponent() > 1 {
			t.Fatalf("Pixel %d out of range: %v", i, c)
		}
	}
}

func TestRenderer_LightModeDefaultsAreVisible(t *testing.T) {
	s := scene.NewDefaultScene()
	s.Configure(scene.MergeSamplingConfig(s.SamplingConfig, scene.SamplingConfig{Width: 32, Height: 32}))

	config := DefaultConfig()
	config.Mode = integrator.ModeLight
	r, err := NewRenderer(s, config, nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	screen, _ := r.Render()
	lit := 0
	for _, c := range screen.Pixels {
		if c.MaxComponent() >= 1.0/255 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("Expected visible pixels with the default light-mode tone map")
	}
	if got := screen.Max(); got != 1 {
		t.Errorf("Expected max 1 after the max tone map, got %v", got)
	}
}

func TestToneMapConfig_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		config   ToneMapConfig
		mode     string
		expected ToneMapConfig
	}{
		{"Camera default", ToneMapConfig{}, integrator.ModeCamera, DefaultToneMapConfig()},
		{"Light default", ToneMapConfig{}, integrator.ModeLight, ToneMapConfig{Mode: ToneMapMax}},
		{"Exposure kept", ToneMapConfig{Exposure: 50}, integrator.ModeCamera, ToneMapConfig{Mode: ToneMapExposure, Exposure: 50}},
		{"Explicit mode wins", ToneMapConfig{Mode: ToneMapExposure, Exposure: 3}, integrator.ModeLight, ToneMapConfig{Mode: ToneMapExposure, Exposure: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.resolve(tt.mode); got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

type recordingReporter struct {
	mu       sync.Mutex
	total    int
	updates  []int
	finished bool
}

func (rr *recordingReporter) Start(total int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.total = total
}

func (rr *recordingReporter) Update(done int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.updates = append(rr.updates, done)
}

func (rr *recordingReporter) Finish() {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.finished = true
}

func TestRenderer_ReportsProgress(t *testing.T) {
	reporter := &recordingReporter{}
	config := DefaultConfig()
	config.Progress = reporter
	r, err := NewRenderer(smallDefaultScene(6), config, nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	r.RenderRaw()

	if reporter.total != 6 {
		t.Errorf("Expected total 6 rows, got %d", reporter.total)
	}
	if !reporter.finished {
		t.Error("Expected reporter to be finished")
	}
	if n := len(reporter.updates); n == 0 || reporter.updates[n-1] != 6 {
		t.Errorf("Expected a final update of 6 rows, got %v", reporter.updates)
	}
	for i := 1; i < len(reporter.updates); i++ {
		if reporter.updates[i] < reporter.updates[i-1] {
			t.Errorf("Progress went backwards: %v", reporter.updates)
		}
	}
}

type bufferLogger struct {
	mu    sync.Mutex
	lines []string
}

func (bl *bufferLogger) Printf(format string, args ...interface{}) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.lines = append(bl.lines, fmt.Sprintf(format, args...))
}

func TestLogReporter(t *testing.T) {
	logger := &bufferLogger{}
	lr := NewProgressReporter(ProgressLog, nil, logger)

	lr.Start(20)
	for done := 0; done <= 20; done++ {
		lr.Update(done)
	}
	lr.Update(20)
	lr.Finish()

	// One line per two rows, no repeats
	if len(logger.lines) != 10 {
		t.Fatalf("Expected 10 lines, got %d: %v", len(logger.lines), logger.lines)
	}
	if last := logger.lines[len(logger.lines)-1]; !strings.HasPrefix(last, "20 of 20 rows complete") {
		t.Errorf("Expected final line for 20 rows, got %q", last)
	}
}

func TestNewProgressReporter(t *testing.T) {
	tests := []struct {
		kind     string
		expected string
	}{
		{ProgressBar, "*renderer.BarReporter"},
		{ProgressLog, "*renderer.LogReporter"},
		{ProgressNone, "renderer.NopReporter"},
		{"", "renderer.NopReporter"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got := fmt.Sprintf("%T", NewProgressReporter(tt.kind, nil, core.NopLogger{}))
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAnimate(t *testing.T) {
	r, err := NewRenderer(wallScene(t), Config{
		Mode:       integrator.ModeCamera,
		NumWorkers: 1,
		ToneMap:    ToneMapConfig{Mode: ToneMapExposure, Exposure: 100},
	}, nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	var centers []float64
	err = r.Animate(AnimationConfig{
		Frames: 3,
		Start:  core.Vec3{},
		Step:   core.NewVec3(0.5, 0, 0),
	}, func(frame int, screen *Screen, stats RenderStats) error {
		if frame != len(centers) {
			t.Errorf("Expected frame %d, got %d", len(centers), frame)
		}
		centers = append(centers, screen.Get(1, 1).X)
		return nil
	})
	if err != nil {
		t.Fatalf("Animate failed: %v", err)
	}

	if len(centers) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(centers))
	}
	// Frame 0 is unmoved: 3 / 100
	if d := centers[0] - 0.03; d > 1e-12 || d < -1e-12 {
		t.Errorf("Expected first frame 0.03, got %v", centers[0])
	}
	// Frame 1 moves the light 0.5 sideways: 3 / 1.25 / 100
	if d := centers[1] - 0.024; d > 1e-12 || d < -1e-12 {
		t.Errorf("Expected second frame 0.024, got %v", centers[1])
	}
	if r.Scene().Lights[0].Position != core.NewVec3(0.5, 0.5, 4) {
		t.Error("Expected the original scene to be left untouched")
	}
}

func TestAnimate_Errors(t *testing.T) {
	r, err := NewRenderer(wallScene(t), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	noop := func(int, *Screen, RenderStats) error { return nil }

	if err := r.Animate(AnimationConfig{Frames: 0}, noop); err == nil {
		t.Error("Expected error for zero frames")
	}
	if err := r.Animate(AnimationConfig{Frames: 1, LightIndex: 3}, noop); err == nil {
		t.Error("Expected error for a missing light")
	}

	stop := errors.New("stop")
	calls := 0
	err = r.Animate(AnimationConfig{Frames: 5}, func(int, *Screen, RenderStats) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Expected the callback error to stop after one frame, got %v after %d calls", err, calls)
	}
}
