package scene

import (
	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
)

// Built-in scene intensities are calibrated for the default 1e7 exposure.

// NewDefaultScene creates the two-triangle scene: a small green triangle
// lying above a large white back plane, lit by one white point light.
func NewDefaultScene() *Scene {
	s := NewScene("default", DefaultSamplingConfig(), geometry.DefaultCameraConfig())

	// Green triangle, horizontal at y=2
	mustAdd(s.AddTriangle(
		core.NewVec3(0, 2, 9),
		core.NewVec3(2, 2, 9),
		core.NewVec3(0, 2, 7),
		core.Green,
	))

	// Large white back plane at z=9
	mustAdd(s.AddTriangle(
		core.NewVec3(-100, -100, 9),
		core.NewVec3(50, 100, 9),
		core.NewVec3(100, -100, 9),
		core.White,
	))

	s.AddPointLight(core.NewVec3(0, 2.5, 7), core.White, 4e8)

	return s
}

// NewCornellScene creates a Cornell box built from triangles, lit by a
// triangular area light just below the ceiling
func NewCornellScene() *Scene {
	sampling := DefaultSamplingConfig()
	sampling.IndirectSamples = 4 // Ten walls make 16 samples per plane very slow

	s := NewScene("cornell", sampling, geometry.DefaultCameraConfig())

	white := core.NewVec3(0.73, 0.73, 0.73)
	red := core.NewVec3(0.65, 0.05, 0.05)
	green := core.NewVec3(0.12, 0.45, 0.15)

	// Box spans x,y in [-2.5, 3.5] (centered on the pinhole axis) and z in [6, 12]
	lo, hi := -2.5, 3.5
	near, far := 6.0, 12.0
	size := hi - lo
	depth := far - near

	walls := []struct {
		corner, u, v, color core.Vec3
	}{
		{core.NewVec3(lo, lo, near), core.NewVec3(size, 0, 0), core.NewVec3(0, 0, depth), white}, // Floor
		{core.NewVec3(lo, hi, near), core.NewVec3(size, 0, 0), core.NewVec3(0, 0, depth), white}, // Ceiling
		{core.NewVec3(lo, lo, far), core.NewVec3(size, 0, 0), core.NewVec3(0, size, 0), white},   // Back wall
		{core.NewVec3(lo, lo, near), core.NewVec3(0, 0, depth), core.NewVec3(0, size, 0), red},   // Left wall
		{core.NewVec3(hi, lo, near), core.NewVec3(0, 0, depth), core.NewVec3(0, size, 0), green}, // Right wall
	}
	for _, w := range walls {
		mustAdd(nil, s.AddQuad(w.corner, w.u, w.v, w.color))
	}

	// Short block in the middle of the floor
	mustAdd(nil, s.AddQuad(
		core.NewVec3(-0.5, lo+1.5, 8.5),
		core.NewVec3(2, 0, 0),
		core.NewVec3(0, 0, 2),
		white,
	))

	mustAdd(nil, s.AddAreaLight(
		core.NewVec3(0, hi-0.01, 8),
		core.NewVec3(1, hi-0.01, 8),
		core.NewVec3(0, hi-0.01, 9),
		core.White,
		5e7,
		4,
	))

	return s
}

// NewOccluderScene creates a floor with a red blocker between it and a point
// light, so the shadow picks up color reflected off the blocker
func NewOccluderScene() *Scene {
	s := NewScene("occluder", DefaultSamplingConfig(), geometry.DefaultCameraConfig())

	floorY := -1.5

	// Floor and back wall
	mustAdd(nil, s.AddQuad(core.NewVec3(-6, floorY, 5), core.NewVec3(13, 0, 0), core.NewVec3(0, 0, 9), core.White))
	mustAdd(nil, s.AddQuad(core.NewVec3(-6, floorY, 14), core.NewVec3(13, 0, 0), core.NewVec3(0, 10, 0), core.White))

	// Red blocker floating above the floor
	mustAdd(s.AddTriangle(
		core.NewVec3(-0.5, 0.5, 8),
		core.NewVec3(1.5, 0.5, 8),
		core.NewVec3(0.5, 0.5, 10),
		core.NewVec3(0.9, 0.1, 0.1),
	))

	s.AddPointLight(core.NewVec3(0.5, 3, 9), core.White, 5e7)

	return s
}

// mustAdd panics when a compiled-in scene contains invalid geometry
func mustAdd(_ *geometry.Plane, err error) {
	if err != nil {
		panic("invalid built-in scene: " + err.Error())
	}
}
