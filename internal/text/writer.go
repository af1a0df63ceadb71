package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/dyuri/bndconv/internal/model"
)

// Writer handles writing meshes in Wavefront OBJ text format
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new OBJ writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write outputs every object of the mesh. Face indices are 1-based and
// global: each object's local indices are offset by the vertex count of
// the objects before it.
func (w *Writer) Write(mesh *model.Mesh) error {
	faceBase := 0
	for i := range mesh.Objects {
		obj := &mesh.Objects[i]
		if err := w.writeObject(i, obj, faceBase); err != nil {
			return fmt.Errorf("write object %d: %w", i, err)
		}
		faceBase += len(obj.Vertices)
	}
	return w.w.Flush()
}

// writeObject writes the o marker, vertex lines and face lines of one object
func (w *Writer) writeObject(index int, obj *model.Object, faceBase int) error {
	// Format:
	// o 0
	// 	v 0.0 0.0 0.0
	// 	f 1 2 3
	if _, err := fmt.Fprintf(w.w, "o %d\n", index); err != nil {
		return err
	}

	for _, v := range obj.Vertices {
		if err := w.writeVertex(v); err != nil {
			return fmt.Errorf("write vertex: %w", err)
		}
	}

	for _, p := range obj.Primitives {
		if err := w.writeFaces(p, faceBase); err != nil {
			return fmt.Errorf("write faces: %w", err)
		}
	}

	return nil
}

// writeVertex writes x, y and z. The pad component is not part of the output.
func (w *Writer) writeVertex(v model.Vertex) error {
	_, err := fmt.Fprintf(w.w, "\tv %s %s %s\n", coord(v.X), coord(v.Y), coord(v.Z))
	return err
}

// writeFaces writes the two triangles of a quad primitive
func (w *Writer) writeFaces(p model.Primitive, faceBase int) error {
	for _, tri := range p.Triangles() {
		_, err := fmt.Fprintf(w.w, "\tf %d %d %d\n",
			int(tri[0])+1+faceBase,
			int(tri[1])+1+faceBase,
			int(tri[2])+1+faceBase)
		if err != nil {
			return err
		}
	}
	return nil
}

// coord formats a component as a float with one decimal, e.g. "-3.0".
// int16 values are exact in float64.
func coord(c int16) string {
	return strconv.FormatFloat(float64(c), 'f', 1, 64)
}
