package geometry

import (
	"github.com/df07/go-pinhole-raytracer/pkg/core"
)

// CameraConfig contains the pinhole camera parameters
type CameraConfig struct {
	Width          int     // Sensor width in pixels
	Height         int     // Sensor height in pixels
	FocalDistance  float64 // Distance from the sensor plane (z=0) to the pinhole
	ApertureRadius float64 // Radius of the aperture disk used by forward light tracing
}

// DefaultCameraConfig returns the compiled-in camera defaults
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:          512,
		Height:         512,
		FocalDistance:  0.8,
		ApertureRadius: 0.05,
	}
}

// Camera is a pinhole camera whose sensor is the unit square at z=0.
// Primary rays start on the sensor and pass through the pinhole at
// (0.5, 0.5, focal), so the scene is seen in the +Z direction.
type Camera struct {
	config   CameraConfig
	pinhole  core.Vec3
	sensor   [2]*Plane  // Two triangles spanning the unit square
	aperture *Plane     // Plane of the pinhole, used for aperture tests
	rays     []core.Ray // One primary ray per pixel, row-major
}

// NewCamera creates a camera and precomputes its primary rays
func NewCamera(config CameraConfig) *Camera {
	f := config.FocalDistance
	pinhole := core.NewVec3(0.5, 0.5, f)

	c := &Camera{
		config:  config,
		pinhole: pinhole,
		sensor: [2]*Plane{
			NewPlane(core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0), core.White),
			NewPlane(core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(1, 1, 0), core.White),
		},
		aperture: NewPlane(core.NewVec3(1, 0, f), core.NewVec3(0, 1, f), core.NewVec3(0, 0, f), core.White),
	}

	c.rays = make([]core.Ray, config.Width*config.Height)
	for i := range c.rays {
		x := i % config.Width
		y := i / config.Width
		start := core.NewVec3(float64(x)/float64(config.Width), float64(y)/float64(config.Height), 0)
		c.rays[i] = core.NewRay(start, pinhole.Subtract(start))
	}

	return c
}

// Config returns the camera configuration
func (c *Camera) Config() CameraConfig {
	return c.config
}

// Rays returns the precomputed primary rays. The slice must not be modified.
func (c *Camera) Rays() []core.Ray {
	return c.rays
}

// Ray returns the primary ray for pixel (x, y)
func (c *Camera) Ray(x, y int) core.Ray {
	return c.rays[x+c.config.Width*y]
}

// Pinhole returns the pinhole position
func (c *Camera) Pinhole() core.Vec3 {
	return c.pinhole
}

// Normal returns the sensor plane normal
func (c *Camera) Normal() core.Vec3 {
	return c.sensor[0].Normal()
}

// Intersect returns where the ray lands on the sensor
func (c *Camera) Intersect(ray core.Ray) (core.Vec3, bool) {
	if p, ok := c.sensor[0].Intersect(ray); ok {
		return p, true
	}
	return c.sensor[1].Intersect(ray)
}

// IntersectPinhole reports whether the ray crosses the aperture plane within
// ApertureRadius of the pinhole
func (c *Camera) IntersectPinhole(ray core.Ray) bool {
	p, ok := c.aperture.IntersectPlane(ray)
	if !ok {
		return false
	}
	r := c.config.ApertureRadius
	return p.Subtract(c.pinhole).LengthSquared() <= r*r
}

// SampleAperture returns a point uniformly distributed over the aperture disk
func (c *Camera) SampleAperture(sample core.Vec2) core.Vec3 {
	d := core.SamplePointInUnitDisk(sample)
	r := c.config.ApertureRadius
	return c.pinhole.Add(core.NewVec3(d.X*r, d.Y*r, 0))
}

// SensorToPixel maps a sensor point to continuous pixel coordinates. Pixel
// (x, y) covers [x, x+1) x [y, y+1), centered on its primary ray origin.
func (c *Camera) SensorToPixel(p core.Vec3) core.Vec2 {
	return core.NewVec2(
		p.X*float64(c.config.Width)+0.5,
		p.Y*float64(c.config.Height)+0.5,
	)
}
