// Package bndconv provides functions for converting BND/TMD model
// archives to Wavefront OBJ text.
//
// This package can be used as a library to decode archives and write
// meshes programmatically.
//
// Example usage:
//
//	data, _ := os.ReadFile("tank.bnd")
//	mesh, err := bndconv.DecodeBytes(data, bndconv.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("tank.obj")
//	defer out.Close()
//	bndconv.WriteOBJ(out, mesh)
package bndconv

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dyuri/bndconv/internal/binary"
	"github.com/dyuri/bndconv/internal/model"
	"github.com/dyuri/bndconv/internal/text"
)

// Aliases for the decoded types, so callers need not import internal packages
type (
	Mesh         = model.Mesh
	Object       = model.Object
	Options      = binary.Options
	ExpectedTags = binary.ExpectedTags
	OBJ          = text.OBJ
)

// FormatError reports a read outside the archive or its mesh block, an
// unexpected tag, or exported text that does not match the mesh.
type FormatError = model.FormatError

// IOError reports an unreadable input or unwritable output.
type IOError = model.IOError

// DefaultOptions decodes the first object only and checks no tags.
func DefaultOptions() Options {
	return binary.DefaultOptions()
}

// ParseBinaryBND reads a BND archive and returns the decoded mesh.
//
// The reader must support ReadAt for random access. The size parameter
// should be the total file size in bytes; reads are bounds-checked
// against it.
//
// Example:
//
//	f, _ := os.Open("tank.bnd")
//	defer f.Close()
//	stat, _ := f.Stat()
//	mesh, err := ParseBinaryBND(f, stat.Size(), DefaultOptions())
func ParseBinaryBND(r io.ReaderAt, size int64, opts Options) (*Mesh, error) {
	reader := binary.NewReader(r, size, opts)
	return reader.Parse()
}

// DecodeBytes decodes an archive held in memory.
func DecodeBytes(data []byte, opts Options) (*Mesh, error) {
	return ParseBinaryBND(bytes.NewReader(data), int64(len(data)), opts)
}

// WriteOBJ writes a mesh in Wavefront OBJ text format.
//
// Each object starts with an "o <index>" line followed by tab-indented
// vertex and face lines. Quads are written as two triangles and face
// indices are 1-based across the whole file.
func WriteOBJ(w io.Writer, mesh *Mesh) error {
	writer := text.NewWriter(w)
	return writer.Write(mesh)
}

// ReadOBJ parses OBJ text written by WriteOBJ (or any OBJ limited to
// o, v and triangle f statements).
func ReadOBJ(r io.Reader) (*OBJ, error) {
	reader := text.NewReader(r)
	return reader.Read()
}

// OutputPath derives the output file name for an archive: a .bnd
// extension in any case is replaced with ext, any other name gets ext
// appended.
func OutputPath(input, ext string) string {
	if e := filepath.Ext(input); strings.EqualFold(e, ".bnd") {
		return strings.TrimSuffix(input, e) + ext
	}
	return input + ext
}

// Verify checks that obj is a faithful export of mesh: same vertex count,
// two triangles per primitive, and every face index within range.
func Verify(mesh *Mesh, obj *OBJ) error {
	if got, want := obj.VertexCount(), mesh.VertexCount(); got != want {
		return &FormatError{
			Section: "output",
			Offset:  -1,
			Reason:  fmt.Sprintf("%d vertices written, %d decoded", got, want),
		}
	}
	if got, want := obj.FaceCount(), mesh.TriangleCount(); got != want {
		return &FormatError{
			Section: "output",
			Offset:  -1,
			Reason:  fmt.Sprintf("%d faces written, %d expected", got, want),
		}
	}

	total := obj.VertexCount()
	for i := range obj.Objects {
		for _, f := range obj.Objects[i].Faces {
			for _, idx := range f {
				if idx > total {
					return &FormatError{
						Section: "output",
						Offset:  -1,
						Reason:  fmt.Sprintf("object %q references vertex %d of %d", obj.Objects[i].Name, idx, total),
					}
				}
			}
		}
	}
	return nil
}
