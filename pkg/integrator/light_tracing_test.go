package integrator

import (
	"math"
	"testing"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// wallScene creates a white wall at z=5 filling the view, lit from in front
func wallScene(t *testing.T, width, height int) *scene.Scene {
	t.Helper()
	s := newTestScene(width, height)
	if _, err := s.AddTriangle(
		core.NewVec3(-2, -2, 5),
		core.NewVec3(3, -2, 5),
		core.NewVec3(-2, 3, 5),
		core.White,
	); err != nil {
		t.Fatal(err)
	}
	s.AddPointLight(core.NewVec3(0.5, 0.5, 3), core.White, 100)
	s.SamplingConfig.PhotonsPerRow = 50
	return s
}

func TestLightTracing_SplatsLandOnSensor(t *testing.T) {
	s := wallScene(t, 8, 8)
	lt := NewLightTracingIntegrator(s)
	film := &recordingFilm{}

	sampler := core.NewSeededSampler(9)
	for y := 0; y < 8; y++ {
		lt.RenderRow(y, sampler, film)
	}

	stats := lt.Counters().Snapshot()
	if stats.Photons != 8*50 {
		t.Errorf("Expected %d photons, got %d", 8*50, stats.Photons)
	}
	if stats.Splats == 0 || int(stats.Splats) != len(film.points) {
		t.Fatalf("Expected splat count %d to match film points %d", stats.Splats, len(film.points))
	}
	if len(film.pixels) != 0 {
		t.Errorf("Expected no per-pixel writes, got %d", len(film.pixels))
	}

	for _, w := range film.points {
		// Sensor coordinates map to [0.5, size+0.5]
		if w.p.X < 0.5 || w.p.X > 8.5 || w.p.Y < 0.5 || w.p.Y > 8.5 {
			t.Fatalf("Splat outside the sensor: %v", w.p)
		}
		for _, c := range []float64{w.color.X, w.color.Y, w.color.Z} {
			if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
				t.Fatalf("Expected positive finite splat color, got %v", w.color)
			}
		}
	}
}

func TestLightTracing_NoSplatsFromBehind(t *testing.T) {
	// The light sits behind the wall, so the lit side faces away from the camera
	s := wallScene(t, 4, 4)
	s.Lights[0].Position = core.NewVec3(0.5, 0.5, 8)
	s.SamplingConfig.MaxDepth = 0

	lt := NewLightTracingIntegrator(s)
	film := &recordingFilm{}
	lt.RenderRow(0, core.NewSeededSampler(2), film)

	if len(film.points) != 0 {
		t.Errorf("Expected no splats from the unlit side, got %d", len(film.points))
	}
	if lt.Counters().Snapshot().Photons != 50 {
		t.Errorf("Expected 50 photons, got %d", lt.Counters().Snapshot().Photons)
	}
}

func TestLightTracing_BlockedConnection(t *testing.T) {
	s := wallScene(t, 4, 4)
	s.SamplingConfig.MaxDepth = 0

	// Opaque plane between the wall and the camera, behind the light
	if _, err := s.AddTriangle(
		core.NewVec3(-20, -20, 2),
		core.NewVec3(40, -20, 2),
		core.NewVec3(-20, 40, 2),
		core.White,
	); err != nil {
		t.Fatal(err)
	}

	lt := NewLightTracingIntegrator(s)
	film := &recordingFilm{}

	// Always aim photons at the wall (plane 0)
	sampler := NewTestSampler([]float64{0}, []core.Vec2{core.NewVec2(0.3, 0.4), core.NewVec2(0.5, 0.5)})
	for i := 0; i < 10; i++ {
		lt.TracePhoton(s.Lights[0], sampler, film)
	}

	if len(film.points) != 0 {
		t.Errorf("Expected occluded photons not to reach the sensor, got %d splats", len(film.points))
	}
}

func TestLightTracing_PinholeProjection(t *testing.T) {
	s := wallScene(t, 4, 4)
	s.SamplingConfig.MaxDepth = 0
	lt := NewLightTracingIntegrator(s)
	film := &recordingFilm{}

	// Photon aimed at the wall point straight behind the pinhole, aperture sample at its center
	sampler := NewTestSampler([]float64{0}, []core.Vec2{core.NewVec2(0.25, 0.5), core.NewVec2(0.5, 0.5)})
	wallPoint := s.Planes[0].RandomPoint(NewTestSampler(nil, []core.Vec2{core.NewVec2(0.25, 0.5)}))
	lt.TracePhoton(s.Lights[0], sampler, film)

	if len(film.points) != 1 {
		t.Fatalf("Expected one splat, got %d", len(film.points))
	}

	// The splat lands on the sensor where the line through the pinhole meets z=0
	pinhole := s.Camera.Pinhole()
	scale := pinhole.Z / (wallPoint.Z - pinhole.Z)
	sensor := pinhole.Subtract(wallPoint.Subtract(pinhole).Multiply(scale))
	expected := s.Camera.SensorToPixel(sensor)
	got := film.points[0].p
	if math.Abs(got.X-expected.X) > 1e-9 || math.Abs(got.Y-expected.Y) > 1e-9 {
		t.Errorf("Expected splat at %v, got %v", expected, got)
	}

	// photon color: light reaching the wall, tinted white, then falling off to the aperture
	irradiance := 100 / s.Lights[0].Position.Subtract(wallPoint).LengthSquared()
	toAperture := wallPoint.Subtract(pinhole).LengthSquared()
	weight := 1 / float64(s.SamplingConfig.PhotonsPerRow*s.SamplingConfig.Height)
	want := irradiance / toAperture * weight
	if math.Abs(film.points[0].color.X-want) > 1e-12 {
		t.Errorf("Expected splat color %v, got %v", want, film.points[0].color.X)
	}
}

func TestLightTracing_RandomPlane(t *testing.T) {
	s := newTestScene(2, 2)
	for i := 0; i < 3; i++ {
		z := float64(5 + i)
		if _, err := s.AddTriangle(core.NewVec3(0, 0, z), core.NewVec3(1, 0, z), core.NewVec3(0, 1, z), core.White); err != nil {
			t.Fatal(err)
		}
	}
	lt := NewLightTracingIntegrator(s)

	tests := []struct {
		name     string
		sample   float64
		exclude  int
		expected int
	}{
		{"First of three", 0, geometry.NoPlane, 0},
		{"Last of three", 0.99, geometry.NoPlane, 2},
		{"Skips excluded first plane", 0, 0, 1},
		{"Skips excluded middle plane", 0.6, 1, 2},
		{"Below excluded plane", 0.2, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := lt.randomPlane(NewTestSampler([]float64{tt.sample}, nil), tt.exclude)
			if p == nil || p.ID != tt.expected {
				t.Errorf("Expected plane %d, got %v", tt.expected, p)
			}
		})
	}

	single := newTestScene(2, 2)
	if _, err := single.AddTriangle(core.NewVec3(0, 0, 5), core.NewVec3(1, 0, 5), core.NewVec3(0, 1, 5), core.White); err != nil {
		t.Fatal(err)
	}
	if p := NewLightTracingIntegrator(single).randomPlane(NewTestSampler(nil, nil), 0); p != nil {
		t.Errorf("Expected no candidate when the only plane is excluded, got %v", p)
	}
}
