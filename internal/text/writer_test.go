package text

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dyuri/bndconv/internal/bndtest"
	"github.com/dyuri/bndconv/internal/model"
)

func meshOf(objs ...bndtest.Object) *model.Mesh {
	mesh := model.NewMesh()
	for _, o := range objs {
		mesh.Objects = append(mesh.Objects, model.Object{
			Vertices:   o.Vertices,
			Normals:    o.Normals,
			Primitives: o.Primitives,
		})
	}
	mesh.TableSize = len(objs)
	return mesh
}

func writeString(t *testing.T, mesh *model.Mesh) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(mesh); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.String()
}

func TestWriteSquare(t *testing.T) {
	got := writeString(t, meshOf(bndtest.Square()))

	want := "o 0\n" +
		"\tv 0.0 0.0 0.0\n" +
		"\tv 100.0 0.0 0.0\n" +
		"\tv 0.0 100.0 0.0\n" +
		"\tv 100.0 100.0 -7.0\n" +
		"\tf 1 2 3\n" +
		"\tf 2 3 4\n"

	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteTriangulationSplit(t *testing.T) {
	obj := bndtest.Object{
		Vertices:   make([]model.Vertex, 10),
		Primitives: []model.Primitive{bndtest.Quad(9, 4, 0, 7)},
	}
	got := writeString(t, meshOf(obj))

	if !strings.Contains(got, "\tf 10 5 1\n\tf 5 1 8\n") {
		t.Errorf("quad (9,4,0,7) not split along 4-0:\n%s", got)
	}
}

func TestWriteCoordinates(t *testing.T) {
	obj := bndtest.Object{
		Vertices: []model.Vertex{{X: -32768, Y: 32767, Z: -1, Pad: 99}},
	}
	got := writeString(t, meshOf(obj))

	if !strings.Contains(got, "\tv -32768.0 32767.0 -1.0\n") {
		t.Errorf("unexpected vertex line:\n%s", got)
	}
	if strings.Contains(got, "99") {
		t.Errorf("pad component written:\n%s", got)
	}
}

func TestWriteMultiObjectOffsets(t *testing.T) {
	first := bndtest.Square()
	second := bndtest.Grid(2)
	got := writeString(t, meshOf(first, second))

	obj, err := NewReader(strings.NewReader(got)).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(obj.Objects) != 2 {
		t.Fatalf("Got %d objects, want 2", len(obj.Objects))
	}
	if obj.Objects[0].Name != "0" || obj.Objects[1].Name != "1" {
		t.Errorf("object names = %q, %q, want 0, 1", obj.Objects[0].Name, obj.Objects[1].Name)
	}

	v1 := len(first.Vertices)
	v2 := len(second.Vertices)

	for _, f := range obj.Objects[0].Faces {
		for _, idx := range f {
			if idx < 1 || idx > v1 {
				t.Errorf("first object face index %d outside [1, %d]", idx, v1)
			}
		}
	}
	for _, f := range obj.Objects[1].Faces {
		for _, idx := range f {
			if idx < v1+1 || idx > v1+v2 {
				t.Errorf("second object face index %d outside [%d, %d]", idx, v1+1, v1+v2)
			}
		}
	}

	// First quad of the second object is (0,1,2,3) local
	if obj.Objects[1].Faces[0] != [3]int{v1 + 1, v1 + 2, v1 + 3} {
		t.Errorf("second object first face = %v", obj.Objects[1].Faces[0])
	}
}

func TestWriteEmptyMesh(t *testing.T) {
	if got := writeString(t, model.NewMesh()); got != "" {
		t.Errorf("empty mesh wrote %q", got)
	}
}

type failingWriter struct {
	n int
}

var errSinkFull = errors.New("sink full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errSinkFull
	}
	w.n--
	return len(p), nil
}

func TestWritePropagatesSinkErrors(t *testing.T) {
	// Enough geometry to overflow the bufio buffer several times
	mesh := meshOf(bndtest.Grid(2000))

	err := NewWriter(&failingWriter{n: 1}).Write(mesh)
	if !errors.Is(err, errSinkFull) {
		t.Errorf("Write error = %v, want %v", err, errSinkFull)
	}
}
