package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/udhos/gwob"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
)

// MeshData contains the triangles loaded from a mesh file
type MeshData struct {
	Vertices   []core.Vec3 // Vertex positions
	Faces      [][3]int    // Vertex indices, one entry per triangle
	FaceColors []core.Vec3 // Color per face, white when the file has none
}

// TriangleCount returns the number of faces in the mesh
func (m *MeshData) TriangleCount() int {
	return len(m.Faces)
}

// Triangle returns the vertices of face i
func (m *MeshData) Triangle(i int) (core.Vec3, core.Vec3, core.Vec3) {
	f := m.Faces[i]
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// Bounds returns the axis-aligned box enclosing every vertex
func (m *MeshData) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}

	first := r3.Vec{X: m.Vertices[0].X, Y: m.Vertices[0].Y, Z: m.Vertices[0].Z}
	box := r3.Box{Min: first, Max: first}
	for _, v := range m.Vertices[1:] {
		p := r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
		box.Min = r3.Vec{X: min(box.Min.X, p.X), Y: min(box.Min.Y, p.Y), Z: min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: max(box.Max.X, p.X), Y: max(box.Max.Y, p.Y), Z: max(box.Max.Z, p.Z)}
	}
	return box
}

// LoadMesh loads an OBJ or PLY mesh, chosen by file extension
func LoadMesh(filename string, logger core.Logger) (*MeshData, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".obj":
		return LoadOBJ(filename, logger)
	case ".ply":
		return LoadPLY(filename, logger)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", filename)
	}
}

// LoadOBJ loads a triangulated Wavefront OBJ file and its material library.
// Parser statistics are written to logger when it is not nil.
func LoadOBJ(filename string, logger core.Logger) (*MeshData, error) {
	startTime := time.Now()

	options := gwob.ObjParserOptions{IgnoreNormals: true}
	if logger != nil {
		options.LogStats = true
		options.Logger = func(msg string) { logger.Printf("obj: %s\n", msg) }
	}

	obj, err := gwob.NewObjFromFile(filename, &options)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OBJ file %s: %w", filename, err)
	}

	materials := gwob.NewMaterialLib()
	if obj.Mtllib != "" {
		materials, err = loadMaterialLib(filename, obj.Mtllib, &options)
		if err != nil {
			return nil, err
		}
	}

	stride := obj.StrideSize / 4
	offset := obj.StrideOffsetPosition / 4

	data := &MeshData{}
	vertexIndex := make(map[int]int) // OBJ stride index -> Vertices slot
	vertex := func(i int) int {
		if slot, ok := vertexIndex[i]; ok {
			return slot
		}
		base := stride*i + offset
		slot := len(data.Vertices)
		data.Vertices = append(data.Vertices, core.NewVec3(obj.Coord64(base), obj.Coord64(base+1), obj.Coord64(base+2)))
		vertexIndex[i] = slot
		return slot
	}

	for _, g := range obj.Groups {
		color := core.White
		if mat, ok := materials.Lib[g.Usemtl]; ok {
			color = core.NewVec3(float64(mat.Kd[0]), float64(mat.Kd[1]), float64(mat.Kd[2]))
		}

		for f := 0; f < g.IndexCount/3; f++ {
			var face [3]int
			for v := 0; v < 3; v++ {
				face[v] = vertex(obj.Indices[g.IndexBegin+3*f+v])
			}
			data.Faces = append(data.Faces, face)
			data.FaceColors = append(data.FaceColors, color)
		}
	}

	if len(data.Faces) == 0 {
		return nil, fmt.Errorf("OBJ file %s contains no triangles", filename)
	}

	if logger != nil {
		logger.Printf("Loaded %s: %d vertices, %d triangles in %v\n",
			filepath.Base(filename), len(data.Vertices), len(data.Faces), time.Since(startTime))
	}

	return data, nil
}

// loadMaterialLib reads the mtllib relative to the OBJ file, falling back to the path as given
func loadMaterialLib(objPath, mtllib string, options *gwob.ObjParserOptions) (gwob.MaterialLib, error) {
	relative := filepath.Join(filepath.Dir(objPath), mtllib)
	lib, err := gwob.ReadMaterialLibFromFile(relative, options)
	if err == nil {
		return lib, nil
	}

	lib, err = gwob.ReadMaterialLibFromFile(mtllib, options)
	if err != nil {
		return gwob.MaterialLib{}, fmt.Errorf("failed to read material library %s: %w", mtllib, err)
	}
	return lib, nil
}
