package scene

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/lights"
	"github.com/df07/go-pinhole-raytracer/pkg/loaders"
)

// meshTargetSize is the extent a mesh is scaled to when framed automatically
const meshTargetSize = 4.0

// meshTargetCenter is where automatically framed meshes are centered, in front of the pinhole
var meshTargetCenter = core.NewVec3(0.5, 0.5, 9)

// AddMesh adds every triangle of a mesh, scaled about the origin and then
// offset. A non-nil color overrides the mesh materials. Degenerate faces are
// skipped; the number of added triangles is returned.
func (s *Scene) AddMesh(mesh *loaders.MeshData, offset core.Vec3, scale float64, color *core.Vec3) int {
	added := 0
	for i := 0; i < mesh.TriangleCount(); i++ {
		v0, v1, v2 := mesh.Triangle(i)
		c := mesh.FaceColors[i]
		if color != nil {
			c = *color
		}
		p := geometry.NewPlane(
			v0.Multiply(scale).Add(offset),
			v1.Multiply(scale).Add(offset),
			v2.Multiply(scale).Add(offset),
			c,
		)
		if s.AddPlane(p) == nil {
			added++
		}
	}
	return added
}

// NewMeshScene frames an OBJ or PLY mesh in front of the camera, with a white back
// plane and a point light above and in front of the mesh
func NewMeshScene(filename string, logger core.Logger) (*Scene, error) {
	mesh, err := loaders.LoadMesh(filename, logger)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	sampling := DefaultSamplingConfig()
	sampling.IndirectSamples = 1 // Indirect cost grows with the square of the triangle count
	s := NewScene(name, sampling, geometry.DefaultCameraConfig())

	bounds := mesh.Bounds()
	size := bounds.Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	scale := 1.0
	if extent > 0 {
		scale = meshTargetSize / extent
	}
	center := bounds.Center()
	offset := meshTargetCenter.Subtract(core.NewVec3(center.X, center.Y, center.Z).Multiply(scale))

	if s.AddMesh(mesh, offset, scale, nil) == 0 {
		return nil, fmt.Errorf("mesh %s has no usable triangles", filename)
	}

	back := meshTargetCenter.Z + meshTargetSize
	mustAdd(s.AddTriangle(
		core.NewVec3(-100, -100, back),
		core.NewVec3(50, 100, back),
		core.NewVec3(100, -100, back),
		core.White,
	))

	lightPos := meshTargetCenter.Add(core.NewVec3(0, meshTargetSize, -meshTargetSize))
	s.AddPointLight(lightPos, core.White, 1e8)

	return s, nil
}

// NewSceneFromDescription builds a scene from a parsed JSON description
func NewSceneFromDescription(desc *loaders.SceneDescription, logger core.Logger) (*Scene, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	sampling := MergeSamplingConfig(DefaultSamplingConfig(), SamplingConfig{
		Width:         desc.Width,
		Height:        desc.Height,
		PhotonsPerRow: desc.PhotonsPerRow,
	})
	if desc.MaxDepth != nil {
		sampling.MaxDepth = *desc.MaxDepth
	}
	if desc.IndirectSamples != nil {
		sampling.IndirectSamples = *desc.IndirectSamples
	}

	cameraConfig := geometry.DefaultCameraConfig()
	if desc.FocalDistance > 0 {
		cameraConfig.FocalDistance = desc.FocalDistance
	}
	if desc.ApertureRadius > 0 {
		cameraConfig.ApertureRadius = desc.ApertureRadius
	}

	name := desc.Name
	if name == "" {
		name = "custom"
	}
	s := NewScene(name, sampling, cameraConfig)

	for i, p := range desc.Planes {
		_, err := s.AddTriangle(
			loaders.Vec(p.Vertices[0]),
			loaders.Vec(p.Vertices[1]),
			loaders.Vec(p.Vertices[2]),
			loaders.Vec(p.Color),
		)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
	}

	for i, m := range desc.Meshes {
		mesh, err := loaders.LoadMesh(desc.ResolvePath(m.Path), logger)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		scale := m.Scale
		if scale == 0 {
			scale = 1
		}
		var color *core.Vec3
		if m.Color != nil {
			c := loaders.Vec(*m.Color)
			color = &c
		}
		s.AddMesh(mesh, loaders.Vec(m.Offset), scale, color)
	}

	for i, l := range desc.Lights {
		color := loaders.Vec(l.Color)
		if kind, _ := lights.ParseLightType(l.Type); kind != lights.LightTypeArea {
			s.AddPointLight(loaders.Vec(l.Position), color, l.Intensity)
			continue
		}
		samples := l.Samples
		if samples == 0 {
			samples = 1
		}
		v := *l.Vertices
		if err := s.AddAreaLight(loaders.Vec(v[0]), loaders.Vec(v[1]), loaders.Vec(v[2]), color, l.Intensity, samples); err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
