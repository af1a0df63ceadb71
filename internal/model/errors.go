package model

import "fmt"

// FormatError reports a malformed archive: a read that falls outside the
// buffer or the declared mesh block, or an unexpected tag.
type FormatError struct {
	Section string // header, object, vertices, normals, primitives, output
	Offset  int64  // Absolute byte offset of the failed read, -1 if none
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("invalid %s at offset 0x%x: %s", e.Section, e.Offset, e.Reason)
}

// IOError reports an input that could not be read or an output that
// could not be written.
type IOError struct {
	Op   string // read, write, create, rename
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
