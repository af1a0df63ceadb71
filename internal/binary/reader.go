package binary

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dyuri/bndconv/internal/model"
)

// ExpectedTags lists the tags an archive must carry. A zero Tag is not
// checked.
type ExpectedTags struct {
	Magic model.Tag
	Data  model.Tag
	Mesh  model.Tag
}

// Options controls decoding
type Options struct {
	// MaxObjects caps how many records of the object table are decoded.
	// Values below 1 are treated as 1.
	MaxObjects int
	Tags       ExpectedTags
}

// DefaultOptions decodes only the first object and checks no tags
func DefaultOptions() Options {
	return Options{MaxObjects: 1}
}

// Reader handles parsing of binary BND archives
type Reader struct {
	r       io.ReaderAt
	size    int64
	endian  binary.ByteOrder // BND is little-endian throughout
	opts    Options
	meshEnd int64 // Absolute end of the declared mesh block, set by ReadHeader
}

// NewReader creates a new binary BND reader
func NewReader(r io.ReaderAt, size int64, opts Options) *Reader {
	if opts.MaxObjects < 1 {
		opts.MaxObjects = 1
	}
	return &Reader{
		r:      r,
		size:   size,
		endian: binary.LittleEndian,
		opts:   opts,
	}
}

// Parse reads the archive and returns the decoded mesh
func (r *Reader) Parse() (*model.Mesh, error) {
	mesh := model.NewMesh()

	header, err := r.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	mesh.Header = *header

	// Object table starts right after the archive header
	first, err := r.ReadObjectRecord(model.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read object record 0: %w", err)
	}

	mesh.TableSize = tableSize(first)
	count := mesh.TableSize
	if count > r.opts.MaxObjects {
		count = r.opts.MaxObjects
	}

	for i := 0; i < count; i++ {
		offset := int64(model.HeaderSize) + int64(i)*model.ObjectRecordSize

		rec := *first
		if i > 0 {
			next, err := r.ReadObjectRecord(offset)
			if err != nil {
				return nil, fmt.Errorf("read object record %d: %w", i, err)
			}
			rec = *next
		}

		obj, err := r.ReadObject(offset, rec)
		if err != nil {
			return nil, fmt.Errorf("read object %d: %w", i, err)
		}
		mesh.Objects = append(mesh.Objects, *obj)
	}

	return mesh, nil
}

// tableSize infers the number of object records. The table is a run of
// fixed-size records that ends where the first object's data begins.
func tableSize(first *model.ObjectRecord) int {
	top := first.FirstArrayTop()
	if top < model.ObjectRecordSize {
		return 1
	}
	return int(top / model.ObjectRecordSize)
}

// ReadHeader reads and parses the 28-byte archive header
func (r *Reader) ReadHeader() (*model.ArchiveHeader, error) {
	buf, err := r.readSection("header", 0, model.HeaderSize)
	if err != nil {
		return nil, err
	}

	var h model.ArchiveHeader

	// 0x00: magic tag, 0x04: declared file length
	copy(h.Magic[:], buf[0x00:0x04])
	h.FileLength = r.endian.Uint32(buf[0x04:0x08])

	// 0x08: data tag, 0x0C-0x13: two fields of unknown purpose
	copy(h.DataTag[:], buf[0x08:0x0C])
	h.Unknown1 = r.endian.Uint32(buf[0x0C:0x10])
	h.Unknown2 = r.endian.Uint32(buf[0x10:0x14])

	// 0x14: mesh block tag, 0x18: mesh block length
	copy(h.MeshTag[:], buf[0x14:0x18])
	h.MeshLength = r.endian.Uint32(buf[0x18:0x1C])

	if err := checkTag("magic", h.Magic, r.opts.Tags.Magic, 0x00); err != nil {
		return nil, err
	}
	if err := checkTag("data", h.DataTag, r.opts.Tags.Data, 0x08); err != nil {
		return nil, err
	}
	if err := checkTag("mesh", h.MeshTag, r.opts.Tags.Mesh, 0x14); err != nil {
		return nil, err
	}

	r.meshEnd = h.MeshEnd()
	return &h, nil
}

func checkTag(name string, got, want model.Tag, offset int64) error {
	if want == (model.Tag{}) || got == want {
		return nil
	}
	return &model.FormatError{
		Section: "header",
		Offset:  offset,
		Reason:  fmt.Sprintf("%s tag %q, want %q", name, got, want),
	}
}

// ReadObjectRecord reads the 36-byte object record at offset
func (r *Reader) ReadObjectRecord(offset int64) (*model.ObjectRecord, error) {
	buf, err := r.readSection("object", offset, model.ObjectRecordSize)
	if err != nil {
		return nil, err
	}

	rec := &model.ObjectRecord{
		VertexTop:   r.endian.Uint32(buf[0:4]),
		VertexCount: r.endian.Uint32(buf[4:8]),
		NormalTop:   r.endian.Uint32(buf[8:12]),
		NormalCount: r.endian.Uint32(buf[12:16]),
	}
	for i := range rec.Reserved {
		rec.Reserved[i] = r.endian.Uint32(buf[16+i*4 : 20+i*4])
	}
	rec.PrimitiveTop = r.endian.Uint32(buf[28:32])
	rec.PrimitiveCount = r.endian.Uint32(buf[32:36])

	return rec, nil
}

// ReadObject reads the vertex, normal and primitive arrays described by
// rec. offset is the absolute position of the record; array offsets are
// relative to it.
func (r *Reader) ReadObject(offset int64, rec model.ObjectRecord) (*model.Object, error) {
	obj := &model.Object{
		Offset: offset,
		Record: rec,
	}

	vertices, err := r.ReadVertices(offset+int64(rec.VertexTop), rec.VertexCount)
	if err != nil {
		return nil, err
	}
	obj.Vertices = vertices

	normals, err := r.ReadNormals(offset+int64(rec.NormalTop), rec.NormalCount)
	if err != nil {
		return nil, err
	}
	obj.Normals = normals

	primitives, err := r.ReadPrimitives(offset+int64(rec.PrimitiveTop), rec.PrimitiveCount)
	if err != nil {
		return nil, err
	}
	obj.Primitives = primitives

	return obj, nil
}

// ReadVertices reads count 8-byte vertex records starting at offset
func (r *Reader) ReadVertices(offset int64, count uint32) ([]model.Vertex, error) {
	buf, err := r.readSection("vertices", offset, int64(count)*model.VertexSize)
	if err != nil {
		return nil, err
	}

	vertices := make([]model.Vertex, count)
	for i := range vertices {
		x, y, z, pad := r.readShorts(buf[i*model.VertexSize:])
		vertices[i] = model.Vertex{X: x, Y: y, Z: z, Pad: pad}
	}
	return vertices, nil
}

// ReadNormals reads count 8-byte normal records starting at offset
func (r *Reader) ReadNormals(offset int64, count uint32) ([]model.Normal, error) {
	buf, err := r.readSection("normals", offset, int64(count)*model.NormalSize)
	if err != nil {
		return nil, err
	}

	normals := make([]model.Normal, count)
	for i := range normals {
		x, y, z, pad := r.readShorts(buf[i*model.NormalSize:])
		normals[i] = model.Normal{X: x, Y: y, Z: z, Pad: pad}
	}
	return normals, nil
}

func (r *Reader) readShorts(b []byte) (int16, int16, int16, int16) {
	return int16(r.endian.Uint16(b[0:2])),
		int16(r.endian.Uint16(b[2:4])),
		int16(r.endian.Uint16(b[4:6])),
		int16(r.endian.Uint16(b[6:8]))
}

// ReadPrimitives reads count 24-byte primitive records starting at offset
func (r *Reader) ReadPrimitives(offset int64, count uint32) ([]model.Primitive, error) {
	buf, err := r.readSection("primitives", offset, int64(count)*model.PrimitiveSize)
	if err != nil {
		return nil, err
	}

	primitives := make([]model.Primitive, count)
	for i := range primitives {
		b := buf[i*model.PrimitiveSize : (i+1)*model.PrimitiveSize]
		p := &primitives[i]

		// Six uint16 fields: four quad indices, then two attribute words
		for j := range p.Indices {
			p.Indices[j] = r.endian.Uint16(b[j*2:])
		}
		for j := range p.Attributes {
			p.Attributes[j] = r.endian.Uint16(b[8+j*2:])
		}

		// Twelve attribute bytes
		copy(p.Bytes[:], b[12:24])
	}
	return primitives, nil
}

// readSection bounds-checks a read against the file and, past the header,
// against the declared mesh block, then reads it.
func (r *Reader) readSection(section string, offset, length int64) ([]byte, error) {
	end := offset + length
	if end > r.size {
		return nil, &model.FormatError{
			Section: section,
			Offset:  offset,
			Reason:  fmt.Sprintf("%d bytes needed, file is %d bytes", length, r.size),
		}
	}
	if section != "header" && end > r.meshEnd {
		return nil, &model.FormatError{
			Section: section,
			Offset:  offset,
			Reason:  fmt.Sprintf("%d bytes needed, mesh block ends at 0x%x", length, r.meshEnd),
		}
	}

	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	if _, err := r.r.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s at 0x%x: %w", section, offset, err)
	}
	return buf, nil
}
