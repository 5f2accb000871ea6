package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
)

// NoPlane is the ID of a plane that has not been added to a scene.
// It is also used as the "exclude nothing" value for closest-hit searches.
const NoPlane = -1

// parallelEpsilon below which a ray is treated as parallel to a plane
const parallelEpsilon = 1e-12

// degenerateTolerance is the distance under which a triangle's vertices are
// considered collinear
const degenerateTolerance = 1e-12

// Plane is a flat triangular surface with a uniform tint color.
// Two planes are the same plane when their IDs match.
type Plane struct {
	V0, V1, V2 core.Vec3 // Ordered vertices
	Color      core.Vec3 // Lambertian tint
	ID         int       // Arena slot assigned by the scene
	normal     core.Vec3 // Cached unit normal
}

// NewPlane creates a new triangle from three vertices and a tint color
func NewPlane(v0, v1, v2, color core.Vec3) *Plane {
	p := &Plane{
		V0:    v0,
		V1:    v1,
		V2:    v2,
		Color: color,
		ID:    NoPlane,
	}
	p.computeNormal()
	return p
}

// computeNormal calculates and caches the triangle's unit normal
func (p *Plane) computeNormal() {
	edge1 := p.V2.Subtract(p.V0)
	edge2 := p.V1.Subtract(p.V0)
	p.normal = edge1.Cross(edge2).Normalize()
}

// Normal returns the triangle's unit normal vector
func (p *Plane) Normal() core.Vec3 {
	return p.normal
}

// Same reports whether other is the same scene plane
func (p *Plane) Same(other *Plane) bool {
	return other != nil && p.ID == other.ID
}

// IntersectPlane intersects the ray with the infinite plane containing the triangle.
// Rays parallel to the plane and intersections behind the origin are misses.
func (p *Plane) IntersectPlane(ray core.Ray) (core.Vec3, bool) {
	denominator := p.normal.Dot(ray.Direction)
	if math.Abs(denominator) < parallelEpsilon {
		return core.Vec3{}, false
	}

	d := p.V0.Subtract(ray.Origin).Dot(p.normal) / denominator
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return core.Vec3{}, false
	}

	return ray.At(d), true
}

// Intersect returns the point where the ray hits the triangle
func (p *Plane) Intersect(ray core.Ray) (core.Vec3, bool) {
	point, ok := p.IntersectPlane(ray)
	if !ok || !p.ContainsPoint(point) {
		return core.Vec3{}, false
	}
	return point, true
}

// ContainsPoint reports whether a point lying in the triangle's plane is inside it,
// using barycentric coordinates (u >= 0, v >= 0, u + v < 1)
func (p *Plane) ContainsPoint(point core.Vec3) bool {
	e0 := p.V2.Subtract(p.V0)
	e1 := p.V1.Subtract(p.V0)
	e2 := point.Subtract(p.V0)

	dot00 := e0.Dot(e0)
	dot01 := e0.Dot(e1)
	dot02 := e0.Dot(e2)
	dot11 := e1.Dot(e1)
	dot12 := e1.Dot(e2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return false
	}

	invDenom := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return u >= 0 && v >= 0 && u+v < 1
}

// RandomPoint returns a point uniformly distributed over the triangle's area
func (p *Plane) RandomPoint(sampler core.Sampler) core.Vec3 {
	return core.SampleTriangle(p.V0, p.V1, p.V2, sampler.Get2D())
}

// AreOnSameSide reports whether p0 and p1 lie on the same side of the plane.
// Points exactly on the plane count as being on the normal's back side.
func (p *Plane) AreOnSameSide(p0, p1 core.Vec3) bool {
	s0 := p.normal.Dot(p.V0.Subtract(p0))
	s1 := p.normal.Dot(p.V0.Subtract(p1))
	return (s0 >= 0) == (s1 >= 0)
}

// Reflect mirrors the ray off the triangle. The reflected ray starts at the hit
// point, stays on the incoming side and carries the ray color tinted by the plane.
func (p *Plane) Reflect(ray core.Ray) (core.Ray, bool) {
	hit, ok := p.Intersect(ray)
	if !ok {
		return core.Ray{}, false
	}

	direction := ray.Direction.Subtract(p.normal.Multiply(2 * p.normal.Dot(ray.Direction)))
	if !p.AreOnSameSide(ray.Origin, hit.Add(direction)) {
		direction = direction.Negate()
	}

	return core.NewColoredRay(hit, direction, ray.Color.MultiplyVec(p.Color)), true
}

// Translate returns a copy of the triangle moved by offset. The copy is not part of any scene.
func (p *Plane) Translate(offset core.Vec3) *Plane {
	return NewPlane(p.V0.Add(offset), p.V1.Add(offset), p.V2.Add(offset), p.Color)
}

// Centroid returns the triangle's center of mass
func (p *Plane) Centroid() core.Vec3 {
	return fromR3(p.triangle().Centroid())
}

// Area returns the triangle's surface area
func (p *Plane) Area() float64 {
	return p.triangle().Area()
}

// IsDegenerate reports whether the triangle has collapsed onto a line or point
func (p *Plane) IsDegenerate() bool {
	return p.triangle().IsDegenerate(degenerateTolerance) || p.normal.IsZero()
}

func (p *Plane) triangle() r3.Triangle {
	return r3.Triangle{toR3(p.V0), toR3(p.V1), toR3(p.V2)}
}

func toR3(v core.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromR3(v r3.Vec) core.Vec3 {
	return core.NewVec3(v.X, v.Y, v.Z)
}
