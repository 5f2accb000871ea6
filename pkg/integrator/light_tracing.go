package integrator

import (
	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/lights"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// LightTracingIntegrator traces photons forward from the lights. Each surface
// hit becomes a reflected light which is connected through a sampled point
// of the aperture to the sensor and splatted there.
type LightTracingIntegrator struct {
	scene    *scene.Scene
	config   scene.SamplingConfig
	counters *Counters
	weight   float64 // Splat weight of one photon
}

// NewLightTracingIntegrator creates a new light-mode integrator
func NewLightTracingIntegrator(s *scene.Scene) *LightTracingIntegrator {
	weight := 0.0
	if total := s.SamplingConfig.PhotonsPerRow * s.SamplingConfig.Height; total > 0 {
		weight = 1 / float64(total)
	}
	return &LightTracingIntegrator{
		scene:    s,
		config:   s.SamplingConfig,
		counters: &Counters{},
		weight:   weight,
	}
}

// Name implements Integrator
func (lt *LightTracingIntegrator) Name() string { return ModeLight }

// Scatters implements Integrator
func (lt *LightTracingIntegrator) Scatters() bool { return true }

// Counters implements Integrator
func (lt *LightTracingIntegrator) Counters() *Counters { return lt.counters }

// RenderRow emits PhotonsPerRow photons from every light. The row only
// selects the work unit; splats land anywhere on the sensor.
func (lt *LightTracingIntegrator) RenderRow(y int, sampler core.Sampler, film Film) {
	if len(lt.scene.Planes) == 0 {
		return
	}
	for _, light := range lt.scene.Lights {
		for i := 0; i < lt.config.PhotonsPerRow; i++ {
			lt.TracePhoton(light, sampler, film)
		}
	}
}

// TracePhoton emits one photon from light toward a random point on a random
// plane, then follows its reflections up to MaxDepth bounces
func (lt *LightTracingIntegrator) TracePhoton(light lights.Light, sampler core.Sampler, film Film) {
	lt.counters.photons.Add(1)

	emitter := light.Sample(sampler)
	target := lt.randomPlane(sampler, geometry.NoPlane)
	if target == nil {
		return
	}

	plane, hit, ok := lt.scene.ClosestHit(core.Towards(emitter.Position, target.RandomPoint(sampler)), geometry.NoPlane)
	if !ok {
		return
	}

	ray := core.NewColoredRay(emitter.Position, hit.Subtract(emitter.Position), emitter.ContributionAt(hit))
	reflected := lights.FromSurface(plane, hit, ray)

	for depth := 0; ; depth++ {
		lt.connect(reflected, plane, ray.Origin, sampler, film)

		if depth >= lt.config.MaxDepth {
			return
		}

		next := lt.randomPlane(sampler, plane.ID)
		if next == nil {
			return
		}
		point := next.RandomPoint(sampler)
		if !plane.AreOnSameSide(ray.Origin, point) {
			return
		}

		bounce := core.Towards(reflected.Position, point)
		nextPlane, nextHit, ok := lt.scene.ClosestHit(bounce, plane.ID)
		if !ok {
			return
		}

		// One plane out of len(Planes)-1 was sampled
		candidates := float64(len(lt.scene.Planes) - 1)
		ray = core.NewColoredRay(reflected.Position, bounce.Direction, reflected.ContributionAt(nextHit).Multiply(candidates))
		reflected = lights.FromSurface(nextPlane, nextHit, ray)
		plane = nextPlane
	}
}

// connect splats the light a reflected photon sends through the aperture.
// The camera must be on the lit side of plane and visible from the photon.
func (lt *LightTracingIntegrator) connect(reflected lights.Light, plane *geometry.Plane, litFrom core.Vec3, sampler core.Sampler, film Film) {
	camera := lt.scene.Camera
	aperture := camera.SampleAperture(sampler.Get2D())
	if !plane.AreOnSameSide(litFrom, aperture) {
		return
	}

	toCamera := core.Towards(reflected.Position, aperture)
	if _, blockPoint, blocked := lt.scene.ClosestHit(toCamera, plane.ID); blocked && core.IsCloser(reflected.Position, blockPoint, aperture) {
		return
	}
	if !camera.IntersectPinhole(toCamera) {
		return
	}

	sensorPoint, ok := camera.Intersect(toCamera)
	if !ok {
		return
	}

	lt.counters.splats.Add(1)
	film.AddPoint(camera.SensorToPixel(sensorPoint), reflected.ContributionAt(aperture).Multiply(lt.weight))
}

// randomPlane picks a plane uniformly, skipping the plane with ID exclude
func (lt *LightTracingIntegrator) randomPlane(sampler core.Sampler, exclude int) *geometry.Plane {
	planes := lt.scene.Planes
	n := len(planes)
	if exclude != geometry.NoPlane {
		n--
	}
	if n <= 0 {
		return nil
	}

	i := min(int(sampler.Get1D()*float64(n)), n-1)
	if exclude != geometry.NoPlane && i >= exclude {
		i++
	}
	return planes[i]
}
