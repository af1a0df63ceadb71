// Package bndtest builds synthetic BND archives for tests.
package bndtest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyuri/bndconv/internal/model"
)

// Object describes one object to lay out in an archive
type Object struct {
	Reserved   [3]uint32
	Vertices   []model.Vertex
	Normals    []model.Normal
	Primitives []model.Primitive
}

// Archive describes a complete archive. Empty tags default to
// XBND / DATA / TMD.
type Archive struct {
	Magic    string
	Data     string
	Mesh     string
	Unknown1 uint32
	Unknown2 uint32
	Objects  []Object
}

// Record offsets inside the encoded archive
const (
	FileLengthOffset = 0x04
	MeshLengthOffset = 0x18
)

// RecordOffset returns the absolute offset of object record i.
func RecordOffset(i int) int {
	return model.HeaderSize + i*model.ObjectRecordSize
}

// Bytes encodes the archive. Records form a table after the header and
// each object's arrays follow the table in order.
func (a Archive) Bytes() []byte {
	tableEnd := RecordOffset(len(a.Objects))

	records := make([]model.ObjectRecord, len(a.Objects))
	var arrays bytes.Buffer
	pos := tableEnd
	for i, o := range a.Objects {
		start := RecordOffset(i)
		rec := &records[i]
		rec.Reserved = o.Reserved

		rec.VertexTop = uint32(pos - start)
		rec.VertexCount = uint32(len(o.Vertices))
		binary.Write(&arrays, binary.LittleEndian, o.Vertices)
		pos += len(o.Vertices) * model.VertexSize

		rec.NormalTop = uint32(pos - start)
		rec.NormalCount = uint32(len(o.Normals))
		binary.Write(&arrays, binary.LittleEndian, o.Normals)
		pos += len(o.Normals) * model.NormalSize

		rec.PrimitiveTop = uint32(pos - start)
		rec.PrimitiveCount = uint32(len(o.Primitives))
		binary.Write(&arrays, binary.LittleEndian, o.Primitives)
		pos += len(o.Primitives) * model.PrimitiveSize
	}

	var buf bytes.Buffer
	buf.WriteString(tag(a.Magic, "XBND"))
	binary.Write(&buf, binary.LittleEndian, uint32(pos))
	buf.WriteString(tag(a.Data, "DATA"))
	binary.Write(&buf, binary.LittleEndian, a.Unknown1)
	binary.Write(&buf, binary.LittleEndian, a.Unknown2)
	buf.WriteString(tag(a.Mesh, "TMD"))
	binary.Write(&buf, binary.LittleEndian, uint32(pos-model.HeaderSize))
	binary.Write(&buf, binary.LittleEndian, records)
	buf.Write(arrays.Bytes())

	return buf.Bytes()
}

func tag(s, def string) string {
	if s == "" {
		s = def
	}
	t, _ := model.ParseTag(s)
	return string(t[:])
}

// Quad returns a primitive referencing four vertices
func Quad(i0, i1, i2, i3 uint16) model.Primitive {
	return model.Primitive{Indices: [4]uint16{i0, i1, i2, i3}}
}

// Square returns a single-quad object with four vertices and normals
func Square() Object {
	return Object{
		Vertices: []model.Vertex{
			{X: 0, Y: 0, Z: 0},
			{X: 100, Y: 0, Z: 0},
			{X: 0, Y: 100, Z: 0},
			{X: 100, Y: 100, Z: -7},
		},
		Normals: []model.Normal{
			{Z: 4096}, {Z: 4096}, {Z: 4096}, {Z: 4096},
		},
		Primitives: []model.Primitive{Quad(0, 1, 2, 3)},
	}
}

// Grid returns an object of n quads sharing a strip of 2*(n+1) vertices
func Grid(n int) Object {
	var o Object
	for i := 0; i <= n; i++ {
		o.Vertices = append(o.Vertices,
			model.Vertex{X: int16(i * 10), Y: 0},
			model.Vertex{X: int16(i * 10), Y: 10},
		)
		o.Normals = append(o.Normals, model.Normal{Y: 1}, model.Normal{Y: 1})
	}
	for i := 0; i < n; i++ {
		b := uint16(i * 2)
		o.Primitives = append(o.Primitives, Quad(b, b+1, b+2, b+3))
	}
	return o
}

// WriteFile writes data under dir and returns the path
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
