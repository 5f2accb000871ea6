package integrator

import (
	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// TransportIntegrator shades camera rays recursively: direct lighting with
// shadow rays, blocked shadow rays reflected off their occluder, and a
// brute-force indirect bounce toward random points on every other plane.
type TransportIntegrator struct {
	scene    *scene.Scene
	config   scene.SamplingConfig
	counters *Counters
}

// NewTransportIntegrator creates a new camera-mode integrator
func NewTransportIntegrator(s *scene.Scene) *TransportIntegrator {
	return &TransportIntegrator{
		scene:    s,
		config:   s.SamplingConfig,
		counters: &Counters{},
	}
}

// Name implements Integrator
func (ti *TransportIntegrator) Name() string { return ModeCamera }

// Scatters implements Integrator
func (ti *TransportIntegrator) Scatters() bool { return false }

// Counters implements Integrator
func (ti *TransportIntegrator) Counters() *Counters { return ti.counters }

// RenderRow shades the primary ray of every pixel in row y
func (ti *TransportIntegrator) RenderRow(y int, sampler core.Sampler, film Film) {
	camera := ti.scene.Camera
	for x := 0; x < ti.config.Width; x++ {
		ti.counters.primary.Add(1)
		film.Add(x, y, ti.RayColor(camera.Ray(x, y), sampler))
	}
}

// RayColor returns the radiance arriving along a primary ray
func (ti *TransportIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	return ti.Evaluate(ray, geometry.NoPlane, 0, sampler)
}

// Evaluate returns the color arriving along ray at recursion depth, ignoring
// the plane with ID exclude. The result is unbounded.
func (ti *TransportIntegrator) Evaluate(ray core.Ray, exclude, depth int, sampler core.Sampler) core.Vec3 {
	if depth > ti.config.MaxDepth {
		return core.Vec3{}
	}

	plane, hit, ok := ti.scene.ClosestHit(ray, exclude)
	if !ok {
		return core.Vec3{}
	}
	ti.counters.observeDepth(depth)

	direct := ti.DirectLight(ray.Origin, plane, hit, depth, sampler)
	indirect := ti.IndirectLight(ray.Origin, plane, hit, depth, sampler)
	color := direct.Add(indirect).MultiplyVec(plane.Color)

	// Secondary frames fall off with the length of their own segment
	if depth > 0 {
		d2 := hit.Subtract(ray.Origin).LengthSquared()
		if d2 == 0 {
			return core.Vec3{}
		}
		color = color.Divide(d2)
	}

	return color
}

// DirectLight sums the light reaching hit on plane from every light sample on
// the same side as origin. A shadow ray blocked before reaching its light is
// evaluated one level deeper, so the occluder reflects color instead of
// leaving a black shadow.
func (ti *TransportIntegrator) DirectLight(origin core.Vec3, plane *geometry.Plane, hit core.Vec3, depth int, sampler core.Sampler) core.Vec3 {
	var sum core.Vec3

	for _, light := range ti.scene.Lights {
		for i := 0; i < light.SampleCount(); i++ {
			sample := light.Sample(sampler)
			if !plane.AreOnSameSide(origin, sample.Position) {
				continue
			}

			ti.counters.shadow.Add(1)
			shadow := core.Towards(hit, sample.Position)
			_, blockPoint, blocked := ti.scene.ClosestHit(shadow, plane.ID)
			if !blocked || core.IsCloser(hit, sample.Position, blockPoint) {
				sum = sum.Add(sample.ContributionAt(hit))
			} else {
				sum = sum.Add(ti.Evaluate(shadow, plane.ID, depth+1, sampler))
			}
		}
	}

	return sum
}

// IndirectLight estimates the light reflected toward hit by every other plane,
// averaging IndirectSamples random points per plane. Points on the far side
// of the hit plane contribute nothing.
func (ti *TransportIntegrator) IndirectLight(origin core.Vec3, plane *geometry.Plane, hit core.Vec3, depth int, sampler core.Sampler) core.Vec3 {
	samples := ti.config.IndirectSamples
	if samples <= 0 || depth+1 > ti.config.MaxDepth {
		return core.Vec3{}
	}

	var sum core.Vec3
	for _, other := range ti.scene.Planes {
		if other.Same(plane) {
			continue
		}

		var planeSum core.Vec3
		for i := 0; i < samples; i++ {
			point := other.RandomPoint(sampler)
			if !plane.AreOnSameSide(origin, point) {
				continue
			}
			ti.counters.indirect.Add(1)
			planeSum = planeSum.Add(ti.Evaluate(core.Towards(hit, point), plane.ID, depth+1, sampler))
		}
		sum = sum.Add(planeSum.Divide(float64(samples)))
	}

	return sum
}
