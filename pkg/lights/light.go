package lights

import (
	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
)

// Light is a point or area emitter. Reflected lights are synthetic emitters
// created when a lit surface point is treated as a secondary light.
type Light struct {
	Type      LightType
	Position  core.Vec3       // Emitter position (centroid for area lights)
	Color     core.Vec3       // Emitted color
	Intensity float64         // Scalar intensity
	Area      *geometry.Plane // Emitting triangle, area lights only
	Samples   int             // Number of surface samples, area lights only
}

// NewPointLight creates a point light
func NewPointLight(position, color core.Vec3, intensity float64) Light {
	return Light{
		Type:      LightTypePoint,
		Position:  position,
		Color:     color,
		Intensity: intensity,
	}
}

// NewAreaLight creates a triangular area light whose intensity is split
// evenly across samples random points on the triangle
func NewAreaLight(area *geometry.Plane, color core.Vec3, intensity float64, samples int) Light {
	if samples < 1 {
		samples = 1
	}
	return Light{
		Type:      LightTypeArea,
		Position:  area.Centroid(),
		Color:     color,
		Intensity: intensity,
		Area:      area,
		Samples:   samples,
	}
}

// NewReflectedLight creates a secondary light at a surface point
func NewReflectedLight(position, color core.Vec3) Light {
	return Light{
		Type:      LightTypeReflected,
		Position:  position,
		Color:     color,
		Intensity: 1,
	}
}

// FromSurface turns the point where ray hit plane into a reflected light
// carrying the ray color tinted by the plane
func FromSurface(plane *geometry.Plane, hit core.Vec3, ray core.Ray) Light {
	return NewReflectedLight(hit, ray.Color.MultiplyVec(plane.Color))
}

// ContributionAt returns the inverse-square attenuated light arriving at p
func (l Light) ContributionAt(p core.Vec3) core.Vec3 {
	d2 := l.Position.Subtract(p).LengthSquared()
	if d2 == 0 {
		return core.Vec3{}
	}
	return l.Color.Multiply(l.Intensity / d2)
}

// SampleCount returns how many samples Sample should be called for per shading point
func (l Light) SampleCount() int {
	if l.Type == LightTypeArea {
		return l.Samples
	}
	return 1
}

// Sample returns a point emitter for one sample of this light. Point and
// reflected lights return themselves; area lights return a point on their
// surface carrying an equal share of the intensity.
func (l Light) Sample(sampler core.Sampler) Light {
	if l.Type != LightTypeArea {
		return l
	}
	return Light{
		Type:      LightTypePoint,
		Position:  l.Area.RandomPoint(sampler),
		Color:     l.Color,
		Intensity: l.Intensity / float64(l.Samples),
	}
}

// Translate returns a copy of the light moved by offset
func (l Light) Translate(offset core.Vec3) Light {
	moved := l
	moved.Position = l.Position.Add(offset)
	if l.Area != nil {
		moved.Area = l.Area.Translate(offset)
	}
	return moved
}
