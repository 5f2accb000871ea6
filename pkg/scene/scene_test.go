package scene

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/geometry"
	"github.com/df07/go-pinhole-raytracer/pkg/lights"
	"github.com/df07/go-pinhole-raytracer/pkg/loaders"
)

func smallScene() *Scene {
	sampling := DefaultSamplingConfig()
	sampling.Width = 4
	sampling.Height = 4
	return NewScene("test", sampling, geometry.DefaultCameraConfig())
}

func TestScene_AddPlaneAssignsIDs(t *testing.T) {
	s := smallScene()

	for i := 0; i < 3; i++ {
		p, err := s.AddTriangle(core.NewVec3(0, 0, float64(i)), core.NewVec3(1, 0, float64(i)), core.NewVec3(0, 1, float64(i)), core.White)
		if err != nil {
			t.Fatalf("AddTriangle failed: %v", err)
		}
		if p.ID != i {
			t.Errorf("Expected ID %d, got %d", i, p.ID)
		}
		if s.Plane(i) != p {
			t.Errorf("Expected Plane(%d) to return the added plane", i)
		}
	}

	if s.Plane(3) != nil || s.Plane(geometry.NoPlane) != nil {
		t.Error("Expected nil for out-of-range IDs")
	}
	if s.PrimitiveCount() != 3 {
		t.Errorf("Expected 3 primitives, got %d", s.PrimitiveCount())
	}
}

func TestScene_AddPlaneRejectsDegenerate(t *testing.T) {
	s := smallScene()
	_, err := s.AddTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), core.NewVec3(2, 2, 2), core.White)
	if err == nil {
		t.Fatal("Expected error for collinear vertices")
	}
	if len(s.Planes) != 0 {
		t.Errorf("Expected no planes, got %d", len(s.Planes))
	}
}

func TestScene_AddQuad(t *testing.T) {
	s := smallScene()
	if err := s.AddQuad(core.NewVec3(0, 0, 5), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), core.White); err != nil {
		t.Fatalf("AddQuad failed: %v", err)
	}
	if len(s.Planes) != 2 {
		t.Fatalf("Expected 2 triangles, got %d", len(s.Planes))
	}

	total := s.Planes[0].Area() + s.Planes[1].Area()
	if total < 4-1e-9 || total > 4+1e-9 {
		t.Errorf("Expected total area 4, got %f", total)
	}
}

func TestScene_ClosestHit(t *testing.T) {
	s := smallScene()
	near, _ := s.AddTriangle(core.NewVec3(-5, -5, 3), core.NewVec3(15, -5, 3), core.NewVec3(-5, 15, 3), core.White)
	far, _ := s.AddTriangle(core.NewVec3(-5, -5, 6), core.NewVec3(15, -5, 6), core.NewVec3(-5, 15, 6), core.White)

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1))

	tests := []struct {
		name     string
		exclude  int
		expected *geometry.Plane
		point    core.Vec3
	}{
		{"Nearest plane wins", geometry.NoPlane, near, core.NewVec3(0, 0, 3)},
		{"Excluded plane is skipped", near.ID, far, core.NewVec3(0, 0, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, point, ok := s.ClosestHit(ray, tt.exclude)
			if !ok {
				t.Fatal("Expected a hit")
			}
			if p != tt.expected {
				t.Errorf("Expected plane %d, got %d", tt.expected.ID, p.ID)
			}
			if point.Subtract(tt.point).Length() > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.point, point)
			}
		})
	}

	if _, _, ok := s.ClosestHit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), geometry.NoPlane); ok {
		t.Error("Expected no hit behind the origin")
	}
}

func TestScene_WithLight(t *testing.T) {
	s := NewDefaultScene()
	original := s.Lights[0]

	moved := s.WithLight(0, original.Translate(core.NewVec3(1, 0, 0)))
	if moved.Lights[0].Position.X != original.Position.X+1 {
		t.Errorf("Expected moved light, got %v", moved.Lights[0].Position)
	}
	if s.Lights[0] != original {
		t.Error("WithLight must not modify the source scene")
	}
	if len(moved.Planes) != len(s.Planes) || moved.Planes[0] != s.Planes[0] {
		t.Error("Expected the plane arena to be shared")
	}
}

func TestScene_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Scene)
		valid  bool
	}{
		{"Built-in default", func(s *Scene) {}, true},
		{"Zero width", func(s *Scene) { s.SamplingConfig.Width = 0 }, false},
		{"Negative depth", func(s *Scene) { s.SamplingConfig.MaxDepth = -1 }, false},
		{"No planes", func(s *Scene) { s.Planes = nil }, false},
		{"Zero focal distance", func(s *Scene) { s.CameraConfig.FocalDistance = 0 }, false},
		{"Broken arena", func(s *Scene) { s.Planes[0], s.Planes[1] = s.Planes[1], s.Planes[0] }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDefaultScene()
			tt.modify(s)
			err := s.Validate()
			if (err == nil) != tt.valid {
				t.Errorf("Expected valid=%v, got error %v", tt.valid, err)
			}
		})
	}
}

func TestMergeSamplingConfig(t *testing.T) {
	base := DefaultSamplingConfig()
	merged := MergeSamplingConfig(base, SamplingConfig{Width: 64, IndirectSamples: 2})

	expected := base
	expected.Width = 64
	expected.IndirectSamples = 2
	if merged != expected {
		t.Errorf("Expected %+v, got %+v", expected, merged)
	}
}

func TestScene_Configure(t *testing.T) {
	s := NewDefaultScene()
	s.Configure(MergeSamplingConfig(s.SamplingConfig, SamplingConfig{Width: 8, Height: 6}))

	if len(s.Camera.Rays()) != 48 {
		t.Errorf("Expected 48 primary rays, got %d", len(s.Camera.Rays()))
	}
	if s.CameraConfig.Width != 8 || s.CameraConfig.Height != 6 {
		t.Errorf("Expected camera config 8x6, got %dx%d", s.CameraConfig.Width, s.CameraConfig.Height)
	}
}

func TestBuiltInScenes(t *testing.T) {
	for _, info := range BuiltInScenes() {
		t.Run(info.ID, func(t *testing.T) {
			s, err := Create(info.ID, nil)
			if err != nil {
				t.Fatalf("Create(%q) failed: %v", info.ID, err)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("Built-in scene %q is invalid: %v", info.ID, err)
			}
			if len(s.Lights) == 0 {
				t.Errorf("Built-in scene %q has no lights", info.ID)
			}
			if info.Type != TypeBuiltin || info.Group != builtinGroup {
				t.Errorf("Unexpected metadata %+v", info)
			}
		})
	}
}

func TestDefaultScene(t *testing.T) {
	s := NewDefaultScene()

	if len(s.Planes) != 2 || len(s.Lights) != 1 {
		t.Fatalf("Expected 2 planes and 1 light, got %d and %d", len(s.Planes), len(s.Lights))
	}
	if s.Planes[0].Color != core.Green || s.Planes[1].Color != core.White {
		t.Error("Expected a green triangle and a white plane")
	}
	if s.Lights[0].Position != core.NewVec3(0, 2.5, 7) {
		t.Errorf("Expected light at (0, 2.5, 7), got %v", s.Lights[0].Position)
	}
	if s.SamplingConfig.MaxDepth != 2 || s.SamplingConfig.IndirectSamples != 16 {
		t.Errorf("Expected depth 2 and 16 indirect samples, got %+v", s.SamplingConfig)
	}
}

func TestNewSceneFromDescription_SamplingOverrides(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		maxDepth        int
		indirectSamples int
	}{
		{"Absent settings use defaults", `{}`, 2, 16},
		{"Explicit zeros are kept", `{"maxDepth": 0, "indirectSamples": 0}`, 0, 0},
		{"Explicit values", `{"maxDepth": 5, "indirectSamples": 3}`, 5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := strings.TrimSuffix(tt.input, "}")
			if input != "{" {
				input += ","
			}
			input += `"planes": [{"vertices": [[0,0,5],[1,0,5],[0,1,5]], "color": [1,1,1]}]}`

			desc, err := loaders.ParseSceneDescription(strings.NewReader(input))
			if err != nil {
				t.Fatalf("ParseSceneDescription failed: %v", err)
			}
			s, err := NewSceneFromDescription(desc, nil)
			if err != nil {
				t.Fatalf("NewSceneFromDescription failed: %v", err)
			}
			if s.SamplingConfig.MaxDepth != tt.maxDepth || s.SamplingConfig.IndirectSamples != tt.indirectSamples {
				t.Errorf("Expected depth %d and %d samples, got %d and %d", tt.maxDepth, tt.indirectSamples,
					s.SamplingConfig.MaxDepth, s.SamplingConfig.IndirectSamples)
			}
		})
	}
}

func TestCornellScene_AreaLight(t *testing.T) {
	s := NewCornellScene()
	if len(s.Lights) != 1 || s.Lights[0].Type != lights.LightTypeArea {
		t.Fatalf("Expected one area light, got %+v", s.Lights)
	}

	// The emitter is not part of the plane arena
	for _, p := range s.Planes {
		if p == s.Lights[0].Area {
			t.Error("Area light triangle must not be a scene plane")
		}
	}
}

func TestCreate_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"planes": `), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []string{"no-such-scene", filepath.Join(dir, "missing.obj"), broken}
	for _, id := range tests {
		if _, err := Create(id, nil); err == nil {
			t.Errorf("Expected error creating %q", id)
		}
	}
}

func TestCreate_FromFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"tri.obj": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n",
		"quad.ply": "ply\nformat ascii 1.0\nelement vertex 4\nproperty float x\nproperty float y\nproperty float z\n" +
			"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n1 1 0\n0 1 0\n4 0 1 2 3\n",
		"scene.json": `{
			"name": "file scene",
			"width": 16,
			"height": 8,
			"planes": [{"vertices": [[-5, -5, 9], [5, -5, 9], [-5, 5, 9]], "color": [1, 1, 1]}],
			"meshes": [{"path": "tri.obj", "offset": [0, 0, 6], "color": [1, 0, 0]}],
			"lights": [
				{"position": [0, 0, 4], "color": [1, 1, 1], "intensity": 100},
				{"type": "area", "vertices": [[0, 3, 6], [1, 3, 6], [0, 3, 7]], "color": [1, 1, 1], "intensity": 100, "samples": 2}
			]
		}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := Create(filepath.Join(dir, "scene.json"), nil)
	if err != nil {
		t.Fatalf("Create from JSON failed: %v", err)
	}
	if s.Name != "file scene" {
		t.Errorf("Expected name 'file scene', got %q", s.Name)
	}
	if len(s.Planes) != 2 {
		t.Fatalf("Expected plane plus mesh triangle, got %d planes", len(s.Planes))
	}
	if s.Planes[1].Color != core.NewVec3(1, 0, 0) || s.Planes[1].V0.Z != 6 {
		t.Errorf("Expected offset red mesh triangle, got %+v", s.Planes[1])
	}
	if len(s.Lights) != 2 || s.Lights[1].SampleCount() != 2 {
		t.Errorf("Expected point and area light, got %+v", s.Lights)
	}
	if len(s.Camera.Rays()) != 16*8 {
		t.Errorf("Expected 128 primary rays, got %d", len(s.Camera.Rays()))
	}

	mesh, err := Create(filepath.Join(dir, "tri.obj"), nil)
	if err != nil {
		t.Fatalf("Create from OBJ failed: %v", err)
	}
	if mesh.Name != "tri" {
		t.Errorf("Expected name 'tri', got %q", mesh.Name)
	}
	if len(mesh.Planes) != 2 || len(mesh.Lights) != 1 {
		t.Errorf("Expected mesh triangle plus back plane and one light, got %d planes %d lights", len(mesh.Planes), len(mesh.Lights))
	}

	// The mesh is framed around the scene center
	c := mesh.Planes[0].Centroid()
	if math.IsNaN(c.X) || math.Abs(c.Z-9) > 1e-9 {
		t.Errorf("Expected framed mesh at z=9, got %v", c)
	}

	ply, err := Create(filepath.Join(dir, "quad.ply"), nil)
	if err != nil {
		t.Fatalf("Create from PLY failed: %v", err)
	}
	// Two triangles from the quad plus the back plane
	if len(ply.Planes) != 3 || ply.Name != "quad" {
		t.Errorf("Expected quad scene with 3 planes, got %q with %d", ply.Name, len(ply.Planes))
	}
}
