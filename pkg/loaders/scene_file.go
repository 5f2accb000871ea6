package loaders

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/lights"
)

// SceneDescription is the JSON form of a scene. Zero-valued settings fall
// back to the renderer defaults; maxDepth and indirectSamples only fall back
// when absent, so an explicit 0 turns recursion or indirect light off.
type SceneDescription struct {
	Name            string             `json:"name"`
	Width           int                `json:"width,omitempty"`
	Height          int                `json:"height,omitempty"`
	MaxDepth        *int               `json:"maxDepth,omitempty"`
	IndirectSamples *int               `json:"indirectSamples,omitempty"`
	PhotonsPerRow   int                `json:"photonsPerRow,omitempty"`
	FocalDistance   float64            `json:"focalDistance,omitempty"`
	ApertureRadius  float64            `json:"apertureRadius,omitempty"`
	Planes          []PlaneDescription `json:"planes"`
	Meshes          []MeshDescription  `json:"meshes,omitempty"`
	Lights          []LightDescription `json:"lights"`

	// BaseDir is the directory mesh paths are resolved against
	BaseDir string `json:"-"`
}

// PlaneDescription is a single colored triangle
type PlaneDescription struct {
	Vertices [3][3]float64 `json:"vertices"`
	Color    [3]float64    `json:"color"`
}

// MeshDescription places an OBJ mesh in the scene
type MeshDescription struct {
	Path   string      `json:"path"`
	Offset [3]float64  `json:"offset,omitempty"`
	Scale  float64     `json:"scale,omitempty"` // 0 means 1
	Color  *[3]float64 `json:"color,omitempty"` // Overrides material colors
}

// LightDescription is a point light, or an area light when Vertices is set
type LightDescription struct {
	Type      string         `json:"type,omitempty"` // "point" (default) or "area"
	Position  [3]float64     `json:"position,omitempty"`
	Vertices  *[3][3]float64 `json:"vertices,omitempty"`
	Color     [3]float64     `json:"color"`
	Intensity float64        `json:"intensity"`
	Samples   int            `json:"samples,omitempty"`
}

// LoadSceneFile reads and validates a JSON scene description
func LoadSceneFile(filename string) (*SceneDescription, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	desc, err := ParseSceneDescription(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	desc.BaseDir = filepath.Dir(filename)
	return desc, nil
}

// ParseSceneDescription decodes and validates a JSON scene description
func ParseSceneDescription(r io.Reader) (*SceneDescription, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var desc SceneDescription
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode scene description: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Validate checks the description for values the renderer cannot use
func (d *SceneDescription) Validate() error {
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("invalid resolution %dx%d", d.Width, d.Height)
	}
	if (d.MaxDepth != nil && *d.MaxDepth < 0) || (d.IndirectSamples != nil && *d.IndirectSamples < 0) || d.PhotonsPerRow < 0 {
		return fmt.Errorf("maxDepth, indirectSamples and photonsPerRow must not be negative")
	}
	if d.FocalDistance < 0 || d.ApertureRadius < 0 {
		return fmt.Errorf("focalDistance and apertureRadius must not be negative")
	}
	if len(d.Planes) == 0 && len(d.Meshes) == 0 {
		return fmt.Errorf("scene has no planes or meshes")
	}

	for i, m := range d.Meshes {
		if m.Path == "" {
			return fmt.Errorf("mesh %d: missing path", i)
		}
		if m.Scale < 0 {
			return fmt.Errorf("mesh %d: negative scale", i)
		}
	}

	for i, l := range d.Lights {
		kind, ok := lights.ParseLightType(l.Type)
		if !ok {
			return fmt.Errorf("light %d: unknown type %q", i, l.Type)
		}
		if kind == lights.LightTypeArea && l.Vertices == nil {
			return fmt.Errorf("light %d: area light needs vertices", i)
		}
		if l.Intensity < 0 {
			return fmt.Errorf("light %d: invalid intensity %v", i, l.Intensity)
		}
		if l.Samples < 0 {
			return fmt.Errorf("light %d: negative sample count", i)
		}
	}

	return nil
}

// ResolvePath resolves a mesh path relative to the scene file
func (d *SceneDescription) ResolvePath(path string) string {
	if filepath.IsAbs(path) || d.BaseDir == "" {
		return path
	}
	return filepath.Join(d.BaseDir, path)
}

// Vec converts a JSON triple to a vector
func Vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
