package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJ is a parsed Wavefront OBJ file, limited to the o, v and f
// statements this package writes.
type OBJ struct {
	Objects []OBJObject
}

// OBJObject holds the statements that follow one o line. Face indices are
// 1-based and refer to the file-wide vertex list.
type OBJObject struct {
	Name     string
	Vertices [][3]float64
	Faces    [][3]int
}

// VertexCount returns the number of v statements in the file
func (o *OBJ) VertexCount() int {
	n := 0
	for i := range o.Objects {
		n += len(o.Objects[i].Vertices)
	}
	return n
}

// FaceCount returns the number of f statements in the file
func (o *OBJ) FaceCount() int {
	n := 0
	for i := range o.Objects {
		n += len(o.Objects[i].Faces)
	}
	return n
}

// Reader handles reading OBJ text
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a new OBJ reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		line:    0,
	}
}

// Read parses the entire file
func (r *Reader) Read() (*OBJ, error) {
	obj := &OBJ{}

	// current returns the object statements are added to, creating an
	// unnamed one for statements before the first o line
	current := func() *OBJObject {
		if len(obj.Objects) == 0 {
			obj.Objects = append(obj.Objects, OBJObject{})
		}
		return &obj.Objects[len(obj.Objects)-1]
	}

	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "o":
			obj.Objects = append(obj.Objects, OBJObject{
				Name: strings.Join(fields[1:], " "),
			})

		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			o := current()
			o.Vertices = append(o.Vertices, v)

		case "f":
			f, err := parseFace(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			o := current()
			o.Faces = append(o.Faces, f)

		default:
			// vn, vt, g, s, usemtl and others carry nothing we model
			continue
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return obj, nil
}

// parseVertex parses "x y z [w]"
func parseVertex(fields []string) ([3]float64, error) {
	var v [3]float64
	if len(fields) < 3 || len(fields) > 4 {
		return v, fmt.Errorf("vertex has %d components, want 3", len(fields))
	}
	for i := range v {
		c, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v, fmt.Errorf("vertex component %d: %w", i, err)
		}
		v[i] = c
	}
	return v, nil
}

// parseFace parses a triangle. Each field may carry /vt/vn references,
// only the vertex index is kept.
func parseFace(fields []string) ([3]int, error) {
	var f [3]int
	if len(fields) != 3 {
		return f, fmt.Errorf("face has %d vertices, want 3", len(fields))
	}
	for i, field := range fields {
		idx, _, _ := strings.Cut(field, "/")
		n, err := strconv.Atoi(idx)
		if err != nil {
			return f, fmt.Errorf("face index %d: %w", i, err)
		}
		if n < 1 {
			return f, fmt.Errorf("face index %d: %d is not a positive index", i, n)
		}
		f[i] = n
	}
	return f, nil
}
