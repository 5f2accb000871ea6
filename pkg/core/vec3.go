package core

import (
	"math"
)

// Vec3 represents a 3D vector. It is used for points, displacements and RGB colors.
type Vec3 struct {
	X, Y, Z float64
}

// Common colors
var (
	Black = Vec3{0, 0, 0}
	White = Vec3{1, 1, 1}
	Red   = Vec3{1, 0, 0}
	Green = Vec3{0, 1, 0}
	Blue  = Vec3{0, 0, 1}
)

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Divide returns the vector divided by a scalar
func (v Vec3) Divide(scalar float64) Vec3 {
	return Vec3{v.X / scalar, v.Y / scalar, v.Z / scalar}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Normalize returns a unit vector in the same direction
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{0, 0, 0}
	}
	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// MultiplyVec returns component-wise multiplication of two vectors
func (v Vec3) MultiplyVec(other Vec3) Vec3 {
	return Vec3{
		X: v.X * other.X,
		Y: v.Y * other.Y,
		Z: v.Z * other.Z,
	}
}

// Clamp returns a vector with components clamped to [min, max]
func (v Vec3) Clamp(minVal, maxVal float64) Vec3 {
	return Vec3{
		X: max(minVal, min(maxVal, v.X)),
		Y: max(minVal, min(maxVal, v.Y)),
		Z: max(minVal, min(maxVal, v.Z)),
	}
}

// MaxComponent returns the largest of the three components
func (v Vec3) MaxComponent() float64 {
	return max(v.X, v.Y, v.Z)
}

// Sum returns the sum of the three components
func (v Vec3) Sum() float64 {
	return v.X + v.Y + v.Z
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{
		X: -v.X,
		Y: -v.Y,
		Z: -v.Z,
	}
}

// IsZero reports whether all components are exactly zero
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Vec2 represents a 2D vector, used for sensor coordinates and 2D samples
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Ray represents a ray with an origin, a direction and the color it carries.
// The direction is not required to be unit length, so distances along
// different rays are only comparable relative to their own origin.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	Color     Vec3 // Color carried when a bounced surface acts as a secondary light
}

// NewRay creates a new ray carrying white
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, Color: White}
}

// NewColoredRay creates a new ray carrying the given color
func NewColoredRay(origin, direction, color Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, Color: color}
}

// Towards creates a ray from origin aimed at target
func Towards(origin, target Vec3) Ray {
	return NewRay(origin, target.Subtract(origin))
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// IsCloser reports whether closest is nearer to start than furthest
func IsCloser(start, closest, furthest Vec3) bool {
	return furthest.Subtract(start).LengthSquared() > closest.Subtract(start).LengthSquared()
}
