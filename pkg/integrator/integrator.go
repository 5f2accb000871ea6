package integrator

import (
	"fmt"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// Rendering modes
const (
	ModeCamera = "camera" // Recursive transport from the camera
	ModeLight  = "light"  // Forward tracing from the lights to the aperture
)

// Film receives the contributions an integrator produces
type Film interface {
	// Add accumulates color into pixel (x, y)
	Add(x, y int, color core.Vec3)
	// AddPoint splats color around a continuous pixel coordinate
	AddPoint(p core.Vec2, color core.Vec3)
}

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Name returns the rendering mode
	Name() string

	// RenderRow renders work row y into film. The sampler belongs to the
	// calling worker and is never shared.
	RenderRow(y int, sampler core.Sampler, film Film)

	// Scatters reports whether RenderRow may write pixels outside row y
	Scatters() bool

	// Counters returns the integrator's ray counters
	Counters() *Counters
}

// New creates the integrator for a rendering mode
func New(mode string, s *scene.Scene) (Integrator, error) {
	switch mode {
	case ModeCamera, "":
		return NewTransportIntegrator(s), nil
	case ModeLight:
		return NewLightTracingIntegrator(s), nil
	default:
		return nil, fmt.Errorf("unknown rendering mode %q (want %q or %q)", mode, ModeCamera, ModeLight)
	}
}
