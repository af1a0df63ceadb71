package model

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Mesh represents a decoded BND archive in a format-agnostic way.
// This is the internal representation passed from the binary decoder
// to the text exporter.
type Mesh struct {
	Header  ArchiveHeader
	Objects []Object

	// Number of records in the object table. May exceed len(Objects)
	// when the decoder is limited to fewer objects.
	TableSize int
}

// Record sizes in bytes. The format has no padding between fields.
const (
	HeaderSize       = 28
	ObjectRecordSize = 36
	VertexSize       = 8
	NormalSize       = 8
	PrimitiveSize    = 24
)

// Tag is a 4-byte chunk identifier
type Tag [4]byte

// String decodes the tag bytes for display. Tags are not guaranteed to be
// ASCII, so bytes are mapped through Windows-1252 and NULs are trimmed.
func (t Tag) String() string {
	s, err := charmap.Windows1252.NewDecoder().Bytes(t[:])
	if err != nil {
		return string(t[:])
	}
	return strings.TrimRight(string(s), "\x00")
}

// ParseTag builds a Tag from a string, padding with NULs.
// Returns false if s is longer than 4 bytes.
func ParseTag(s string) (Tag, bool) {
	var t Tag
	if len(s) > len(t) {
		return t, false
	}
	copy(t[:], s)
	return t, true
}

// ArchiveHeader is the fixed 28-byte header at the start of a BND file
type ArchiveHeader struct {
	Magic      Tag    // Archive tag
	FileLength uint32 // Declared total file length
	DataTag    Tag    // Second tag
	Unknown1   uint32 // Meaning unknown, preserved
	Unknown2   uint32 // Meaning unknown, preserved
	MeshTag    Tag    // Mesh block (TMD) tag
	MeshLength uint32 // Declared mesh block length, counted from HeaderSize
}

// MeshEnd returns the absolute offset one past the declared mesh block.
func (h ArchiveHeader) MeshEnd() int64 {
	return HeaderSize + int64(h.MeshLength)
}

// ObjectRecord locates one object's arrays. All *Top fields are byte
// offsets from the start of the record itself.
type ObjectRecord struct {
	VertexTop      uint32
	VertexCount    uint32
	NormalTop      uint32
	NormalCount    uint32
	Reserved       [3]uint32 // Meaning unknown, preserved
	PrimitiveTop   uint32
	PrimitiveCount uint32
}

// FirstArrayTop returns the smallest array offset in the record.
// Empty arrays are ignored; returns 0 if all arrays are empty.
func (o ObjectRecord) FirstArrayTop() uint32 {
	var top uint32
	for _, a := range [][2]uint32{
		{o.VertexTop, o.VertexCount},
		{o.NormalTop, o.NormalCount},
		{o.PrimitiveTop, o.PrimitiveCount},
	} {
		if a[1] == 0 {
			continue
		}
		if top == 0 || a[0] < top {
			top = a[0]
		}
	}
	return top
}

// Vertex is a position with a trailing field that is unused in practice
type Vertex struct {
	X, Y, Z int16
	Pad     int16
}

// Normal has the same layout as Vertex
type Normal struct {
	X, Y, Z int16
	Pad     int16
}

// Primitive is a quad face record
type Primitive struct {
	Indices    [4]uint16 // Zero-based vertex indices, local to the object
	Attributes [2]uint16 // Rendering attributes (not interpreted)
	Bytes      [12]uint8 // Rendering attributes (not interpreted)
}

// Object holds one object's arrays in file order
type Object struct {
	Offset     int64 // Absolute offset of the object record
	Record     ObjectRecord
	Vertices   []Vertex
	Normals    []Normal
	Primitives []Primitive
}

// TriangleCount returns the number of triangles the object exports to.
func (o *Object) TriangleCount() int {
	return 2 * len(o.Primitives)
}

// VertexCount returns the total vertex count over all objects.
func (m *Mesh) VertexCount() int {
	n := 0
	for i := range m.Objects {
		n += len(m.Objects[i].Vertices)
	}
	return n
}

// TriangleCount returns the total triangle count over all objects.
func (m *Mesh) TriangleCount() int {
	n := 0
	for i := range m.Objects {
		n += m.Objects[i].TriangleCount()
	}
	return n
}

// NewMesh creates a new empty mesh
func NewMesh() *Mesh {
	return &Mesh{
		Objects: make([]Object, 0, 1),
	}
}

// Triangles splits the quad into two triangles, (i0, i1, i2) and
// (i1, i2, i3). The shared edge is always i1-i2; other splits render a
// different surface from the same indices.
func (p Primitive) Triangles() [2][3]uint16 {
	i := p.Indices
	return [2][3]uint16{
		{i[0], i[1], i[2]},
		{i[1], i[2], i[3]},
	}
}
