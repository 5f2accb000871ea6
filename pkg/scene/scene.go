package scene

import (
	"fmt"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/lights"
)

// Scene contains all the elements needed for rendering. Planes and lights
// are read-only once rendering starts.
type Scene struct {
	Name           string
	Camera         *geometry.Camera
	Planes         []*geometry.Plane // Plane arena, Planes[i].ID == i
	Lights         []lights.Light    // Lights in the scene
	SamplingConfig SamplingConfig
	CameraConfig   geometry.CameraConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	MaxDepth        int // Maximum recursion depth of the transport
	IndirectSamples int // Random points sampled on each other plane per indirect bounce
	PhotonsPerRow   int // Photons emitted per light per row in light tracing mode
}

// DefaultSamplingConfig returns the compiled-in sampling defaults
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           512,
		Height:          512,
		MaxDepth:        2,
		IndirectSamples: 16,
		PhotonsPerRow:   2000,
	}
}

// MergeSamplingConfig returns base with every non-zero field of override applied
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	result := base
	if override.Width > 0 {
		result.Width = override.Width
	}
	if override.Height > 0 {
		result.Height = override.Height
	}
	if override.MaxDepth > 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.IndirectSamples > 0 {
		result.IndirectSamples = override.IndirectSamples
	}
	if override.PhotonsPerRow > 0 {
		result.PhotonsPerRow = override.PhotonsPerRow
	}
	return result
}

// NewScene creates an empty scene. The camera resolution follows the sampling config.
func NewScene(name string, sampling SamplingConfig, cameraConfig geometry.CameraConfig) *Scene {
	s := &Scene{
		Name:           name,
		Planes:         make([]*geometry.Plane, 0),
		Lights:         make([]lights.Light, 0),
		SamplingConfig: sampling,
		CameraConfig:   cameraConfig,
	}
	s.Configure(sampling)
	return s
}

// Configure replaces the sampling config and rebuilds the camera for its resolution
func (s *Scene) Configure(sampling SamplingConfig) {
	s.SamplingConfig = sampling
	s.CameraConfig.Width = sampling.Width
	s.CameraConfig.Height = sampling.Height
	s.Camera = geometry.NewCamera(s.CameraConfig)
}

// AddPlane inserts a triangle into the plane arena and assigns its ID
func (s *Scene) AddPlane(p *geometry.Plane) error {
	if p.IsDegenerate() {
		return fmt.Errorf("degenerate triangle %v %v %v", p.V0, p.V1, p.V2)
	}
	p.ID = len(s.Planes)
	s.Planes = append(s.Planes, p)
	return nil
}

// AddTriangle creates a triangle and adds it to the scene
func (s *Scene) AddTriangle(v0, v1, v2, color core.Vec3) (*geometry.Plane, error) {
	p := geometry.NewPlane(v0, v1, v2, color)
	if err := s.AddPlane(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddQuad adds the parallelogram corner, corner+u, corner+u+v, corner+v as two triangles
func (s *Scene) AddQuad(corner, u, v, color core.Vec3) error {
	c1 := corner.Add(u)
	c2 := corner.Add(u).Add(v)
	c3 := corner.Add(v)
	if _, err := s.AddTriangle(corner, c1, c2, color); err != nil {
		return err
	}
	_, err := s.AddTriangle(corner, c2, c3, color)
	return err
}

// AddLight adds a light to the scene
func (s *Scene) AddLight(light lights.Light) {
	s.Lights = append(s.Lights, light)
}

// AddPointLight adds a point light to the scene
func (s *Scene) AddPointLight(position, color core.Vec3, intensity float64) {
	s.AddLight(lights.NewPointLight(position, color, intensity))
}

// AddAreaLight adds a triangular area light. The emitting triangle is not
// added to the plane arena, so it neither blocks nor reflects light.
func (s *Scene) AddAreaLight(v0, v1, v2, color core.Vec3, intensity float64, samples int) error {
	area := geometry.NewPlane(v0, v1, v2, color)
	if area.IsDegenerate() {
		return fmt.Errorf("degenerate area light %v %v %v", v0, v1, v2)
	}
	s.AddLight(lights.NewAreaLight(area, color, intensity, samples))
	return nil
}

// Plane returns the plane with the given arena ID
func (s *Scene) Plane(id int) *geometry.Plane {
	if id < 0 || id >= len(s.Planes) {
		return nil
	}
	return s.Planes[id]
}

// ClosestHit scans every plane except exclude and returns the one whose hit
// point is nearest to the ray origin
func (s *Scene) ClosestHit(ray core.Ray, exclude int) (*geometry.Plane, core.Vec3, bool) {
	var closest *geometry.Plane
	var closestPoint core.Vec3

	for _, p := range s.Planes {
		if p.ID == exclude {
			continue
		}
		point, ok := p.Intersect(ray)
		if !ok {
			continue
		}
		if closest == nil || core.IsCloser(ray.Origin, point, closestPoint) {
			closest = p
			closestPoint = point
		}
	}

	return closest, closestPoint, closest != nil
}

// WithLight returns a shallow copy of the scene with light i replaced.
// The plane arena and camera are shared.
func (s *Scene) WithLight(i int, light lights.Light) *Scene {
	copied := *s
	copied.Lights = make([]lights.Light, len(s.Lights))
	copy(copied.Lights, s.Lights)
	copied.Lights[i] = light
	return &copied
}

// PrimitiveCount returns the number of triangles in the scene
func (s *Scene) PrimitiveCount() int {
	return len(s.Planes)
}

// Validate checks that the scene can be rendered
func (s *Scene) Validate() error {
	cfg := s.SamplingConfig
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("invalid max depth %d", cfg.MaxDepth)
	}
	if cfg.IndirectSamples < 0 {
		return fmt.Errorf("invalid indirect sample count %d", cfg.IndirectSamples)
	}
	if s.CameraConfig.FocalDistance <= 0 {
		return fmt.Errorf("focal distance must be positive, got %v", s.CameraConfig.FocalDistance)
	}
	if len(s.Planes) == 0 {
		return fmt.Errorf("scene %q has no planes", s.Name)
	}
	for i, p := range s.Planes {
		if p.ID != i {
			return fmt.Errorf("plane %d has ID %d", i, p.ID)
		}
	}
	return nil
}
