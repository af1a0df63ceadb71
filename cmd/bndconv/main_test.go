package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dyuri/bndconv/internal/bndtest"
	"github.com/dyuri/bndconv/internal/model"
	"github.com/dyuri/bndconv/pkg/bndconv"
)

func decode(t *testing.T, data []byte, maxObjects int) *bndconv.Mesh {
	t.Helper()
	opts := bndconv.DefaultOptions()
	opts.MaxObjects = maxObjects
	mesh, err := bndconv.DecodeBytes(data, opts)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	return mesh
}

func TestValidatorClean(t *testing.T) {
	data := bndtest.Archive{Objects: []bndtest.Object{bndtest.Square()}}.Bytes()
	mesh := decode(t, data, 1)

	v := newValidator(false)
	v.file = "square.bnd"
	v.validate(mesh, int64(len(data)))

	if v.hasErrors() || v.hasWarnings() {
		t.Fatalf("unexpected issues: errors %v, warnings %v", v.errors, v.warnings)
	}

	var buf bytes.Buffer
	v.printResults(&buf)
	if !strings.Contains(buf.String(), "no issues found") {
		t.Errorf("output missing success line:\n%s", buf.String())
	}
}

func TestValidatorFindings(t *testing.T) {
	broken := bndtest.Square()
	broken.Primitives = append(broken.Primitives, bndtest.Quad(0, 1, 2, 9))
	empty := bndtest.Object{Vertices: []model.Vertex{{X: 1}}}

	tests := []struct {
		name       string
		objects    []bndtest.Object
		maxObjects int
		trailing   int
		errors     int
		warnings   []string
	}{
		{
			name:       "index out of range",
			objects:    []bndtest.Object{broken},
			maxObjects: 1,
			errors:     1,
		},
		{
			name:       "no primitives",
			objects:    []bndtest.Object{empty},
			maxObjects: 1,
			warnings:   []string{"has no primitives"},
		},
		{
			name:       "undecoded records",
			objects:    []bndtest.Object{bndtest.Square(), bndtest.Square()},
			maxObjects: 1,
			warnings:   []string{"only 1 decoded"},
		},
		{
			name:       "trailing bytes",
			objects:    []bndtest.Object{bndtest.Square()},
			maxObjects: 1,
			trailing:   16,
			warnings:   []string{"Declared file length", "Mesh block ends at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bndtest.Archive{Objects: tt.objects}.Bytes()
			data = append(data, make([]byte, tt.trailing)...)
			mesh := decode(t, data, tt.maxObjects)

			v := newValidator(false)
			v.validate(mesh, int64(len(data)))

			if len(v.errors) != tt.errors {
				t.Errorf("got %d errors %v, want %d", len(v.errors), v.errors, tt.errors)
			}
			if len(v.warnings) != len(tt.warnings) {
				t.Fatalf("got warnings %v, want %d", v.warnings, len(tt.warnings))
			}
			for i, want := range tt.warnings {
				if !strings.Contains(v.warnings[i], want) {
					t.Errorf("warning %d = %q, want it to contain %q", i, v.warnings[i], want)
				}
			}
		})
	}
}

func TestOutputInfoText(t *testing.T) {
	data := bndtest.Archive{
		Unknown1: 0xdeadbeef,
		Objects:  []bndtest.Object{bndtest.Square(), bndtest.Grid(2)},
	}.Bytes()
	mesh := decode(t, data, 2)

	var buf bytes.Buffer
	if err := outputInfoText(&buf, "pair.bnd", mesh, int64(len(data)), false); err != nil {
		t.Fatalf("outputInfoText failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`Magic:            "XBND"`,
		`Mesh tag:         "TMD"`,
		"0xdeadbeef",
		"2 decoded, 2 in table",
		"Vertices:           10",
		"Triangles:          6",
		"Object 1 (record at 0x40):",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := outputInfoText(&buf, "pair.bnd", mesh, int64(len(data)), true); err != nil {
		t.Fatalf("outputInfoText brief failed: %v", err)
	}
	if got := buf.String(); got != "pair.bnd: XBND/DATA/TMD Objects=2/2 Vertices=10 Triangles=6\n" {
		t.Errorf("brief output = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
