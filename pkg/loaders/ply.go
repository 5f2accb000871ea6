package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
)

// Limits on counts read from a PLY file
const (
	maxPLYElementCount = 1 << 26
	maxPLYListLength   = 1 << 12
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element block ("vertex", "face", ...) of a PLY file
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// Element returns the element called name, or nil
func (h *PLYHeader) Element(name string) *PLYElement {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i]
		}
	}
	return nil
}

// LoadPLY loads a PLY mesh. Polygons are fan-triangulated and per-vertex
// colors are averaged into face colors; faces default to white.
func LoadPLY(filename string, logger core.Logger) (*MeshData, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if logger != nil {
		logger.Printf("Loaded PLY mesh %s: %d vertices, %d triangles in %v\n",
			filename, len(mesh.Vertices), mesh.TriangleCount(), time.Since(startTime))
	}
	return mesh, nil
}

// ReadPLY decodes a PLY stream
func ReadPLY(r *bufio.Reader) (*MeshData, error) {
	header, err := parsePLYHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		scanner := bufio.NewScanner(r)
		scanner.Split(bufio.ScanWords)
		values = &asciiValueReader{scanner: scanner}
	case "binary_little_endian":
		values = &binaryValueReader{r: r, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{r: r, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	mesh := &MeshData{}
	var vertexColors []core.Vec3

	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			vertexColors, err = readPLYVertices(values, element, mesh)
		case "face":
			err = readPLYFaces(values, element, mesh, vertexColors)
		default:
			err = skipPLYElement(values, element)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s data: %w", element.Name, err)
		}
	}

	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("PLY mesh has no faces")
	}
	return mesh, nil
}

// parsePLYHeader reads header lines up to and including end_header, leaving
// r positioned at the start of the body
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	magic, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic number")
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header: %w", err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.Format == "" {
				return nil, fmt.Errorf("missing format line")
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			if count > maxPLYElementCount {
				return nil, fmt.Errorf("element %s count %d exceeds limit %d", parts[1], count, maxPLYElementCount)
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			last := &header.Elements[len(header.Elements)-1]
			last.Props = append(last.Props, prop)
		}
	}
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func readPLYVertices(values plyValueReader, element PLYElement, mesh *MeshData) ([]core.Vec3, error) {
	position := [3]int{-1, -1, -1}
	color := [3]int{-1, -1, -1}
	for i, p := range element.Props {
		switch p.Name {
		case "x":
			position[0] = i
		case "y":
			position[1] = i
		case "z":
			position[2] = i
		case "red", "r", "diffuse_red":
			color[0] = i
		case "green", "g", "diffuse_green":
			color[1] = i
		case "blue", "b", "diffuse_blue":
			color[2] = i
		}
	}
	if position[0] < 0 || position[1] < 0 || position[2] < 0 {
		return nil, fmt.Errorf("vertex element needs x, y and z")
	}
	hasColors := color[0] >= 0 && color[1] >= 0 && color[2] >= 0

	var colors []core.Vec3
	row := make([]float64, len(element.Props))

	for v := 0; v < element.Count; v++ {
		for i, p := range element.Props {
			if p.IsList {
				if err := skipPLYList(values, p); err != nil {
					return nil, err
				}
				continue
			}
			value, err := values.next(p.Type)
			if err != nil {
				return nil, err
			}
			row[i] = value
		}

		mesh.Vertices = append(mesh.Vertices, core.NewVec3(row[position[0]], row[position[1]], row[position[2]]))
		if hasColors {
			c := core.NewVec3(row[color[0]], row[color[1]], row[color[2]])
			if isIntegerType(element.Props[color[0]].Type) {
				c = c.Divide(255)
			}
			colors = append(colors, c)
		}
	}
	return colors, nil
}

func readPLYFaces(values plyValueReader, element PLYElement, mesh *MeshData, vertexColors []core.Vec3) error {
	for f := 0; f < element.Count; f++ {
		var indices []int
		for _, p := range element.Props {
			if !p.IsList || (p.Name != "vertex_indices" && p.Name != "vertex_index") {
				if p.IsList {
					if err := skipPLYList(values, p); err != nil {
						return err
					}
				} else if _, err := values.next(p.Type); err != nil {
					return err
				}
				continue
			}

			count, err := readPLYListCount(values, p)
			if err != nil {
				return fmt.Errorf("face %d: %w", f, err)
			}
			indices = make([]int, count)
			for i := range indices {
				idx, err := values.next(p.DataType)
				if err != nil {
					return err
				}
				indices[i] = int(idx)
			}
		}

		for _, idx := range indices {
			if idx < 0 || idx >= len(mesh.Vertices) {
				return fmt.Errorf("face %d: vertex index %d out of range", f, idx)
			}
		}

		// Fan triangulation
		for i := 1; i+1 < len(indices); i++ {
			face := [3]int{indices[0], indices[i], indices[i+1]}
			color := core.White
			if len(vertexColors) > 0 {
				color = vertexColors[face[0]].Add(vertexColors[face[1]]).Add(vertexColors[face[2]]).Divide(3)
			}
			mesh.Faces = append(mesh.Faces, face)
			mesh.FaceColors = append(mesh.FaceColors, color)
		}
	}
	return nil
}

func skipPLYElement(values plyValueReader, element PLYElement) error {
	for n := 0; n < element.Count; n++ {
		for _, p := range element.Props {
			if p.IsList {
				if err := skipPLYList(values, p); err != nil {
					return err
				}
			} else if _, err := values.next(p.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

// readPLYListCount reads the length prefix of a list property
func readPLYListCount(values plyValueReader, p PLYProperty) (int, error) {
	value, err := values.next(p.ListType)
	if err != nil {
		return 0, err
	}
	if value < 0 || value != math.Trunc(value) {
		return 0, fmt.Errorf("invalid %s list length %v", p.Name, value)
	}
	if value > maxPLYListLength {
		return 0, fmt.Errorf("%s list length %v exceeds limit %d", p.Name, value, maxPLYListLength)
	}
	return int(value), nil
}

func skipPLYList(values plyValueReader, p PLYProperty) error {
	count, err := readPLYListCount(values, p)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if _, err := values.next(p.DataType); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader reads the next scalar of the given PLY type
type plyValueReader interface {
	next(dataType string) (float64, error)
}

type asciiValueReader struct {
	scanner *bufio.Scanner
}

func (ar *asciiValueReader) next(dataType string) (float64, error) {
	if !ar.scanner.Scan() {
		if err := ar.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(ar.scanner.Text(), 64)
}

type binaryValueReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (br *binaryValueReader) next(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unknown PLY type %q", dataType)
	}
	b := br.buf[:size]
	if _, err := io.ReadFull(br.r, b); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(br.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(br.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(br.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(br.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(br.order.Uint32(b))), nil
	default: // double, float64
		return math.Float64frombits(br.order.Uint64(b)), nil
	}
}

// getTypeSize returns the size in bytes of a PLY scalar type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

func isIntegerType(dataType string) bool {
	return dataType != "float" && dataType != "float32" && dataType != "double" && dataType != "float64"
}
