package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dyuri/bndconv/internal/model"
	"github.com/dyuri/bndconv/pkg/bndconv"
	"github.com/spf13/cobra"
)

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <file.bnd>",
	Short: "Validate BND archive structure",
	Long: `Validate BND archive structure and contents.

Errors: the archive cannot be decoded, or a primitive references a vertex
the object does not have. Warnings: declared lengths that disagree with the
file size, objects without primitives, and object records left undecoded.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	strict, _ := cmd.Flags().GetBool("strict")

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}

	validator := newValidator(strict)
	validator.file = inputPath

	mesh, err := bndconv.DecodeBytes(data, cfg.DecodeOptions())
	if err != nil {
		validator.error("%v", err)
	} else {
		validator.validate(mesh, int64(len(data)))
	}

	validator.printResults(cmd.OutOrStdout())

	if validator.hasErrors() || (strict && validator.hasWarnings()) {
		return fmt.Errorf("validation failed")
	}

	return nil
}

// Validator holds validation state
type validator struct {
	strict   bool
	errors   []string
	warnings []string
	file     string
}

func newValidator(strict bool) *validator {
	return &validator{
		strict:   strict,
		errors:   make([]string, 0),
		warnings: make([]string, 0),
	}
}

func (v *validator) error(msg string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(msg, args...))
}

func (v *validator) warning(msg string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(msg, args...))
}

func (v *validator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *validator) hasWarnings() bool {
	return len(v.warnings) > 0
}

func (v *validator) validate(mesh *model.Mesh, fileSize int64) {
	v.validateHeader(&mesh.Header, fileSize)

	if mesh.TableSize > len(mesh.Objects) {
		v.warning("Object table has %d records, only %d decoded (see --max-objects)",
			mesh.TableSize, len(mesh.Objects))
	}

	for i := range mesh.Objects {
		v.validateObject(i, &mesh.Objects[i])
	}
}

func (v *validator) validateHeader(h *model.ArchiveHeader, fileSize int64) {
	if int64(h.FileLength) != fileSize {
		v.warning("Declared file length %d, file is %d bytes", h.FileLength, fileSize)
	}
	if h.MeshEnd() != fileSize {
		v.warning("Mesh block ends at %d, file is %d bytes", h.MeshEnd(), fileSize)
	}
}

func (v *validator) validateObject(index int, obj *model.Object) {
	if len(obj.Primitives) == 0 {
		v.warning("Object %d has no primitives", index)
	}
	if len(obj.Normals) != 0 && len(obj.Normals) != len(obj.Vertices) {
		v.warning("Object %d has %d normals for %d vertices", index, len(obj.Normals), len(obj.Vertices))
	}

	n := len(obj.Vertices)
	for i, p := range obj.Primitives {
		for _, idx := range p.Indices {
			if int(idx) >= n {
				v.error("Object %d primitive %d: vertex index %d out of range (%d vertices)", index, i, idx, n)
				break
			}
		}
	}
}

func (v *validator) printResults(w io.Writer) {
	fmt.Fprintf(w, "Validating: %s\n", v.file)
	fmt.Fprintln(w, strings.Repeat("=", 50))

	if len(v.errors) == 0 && len(v.warnings) == 0 {
		fmt.Fprintln(w, "✓ Valid BND file - no issues found")
		return
	}

	// Print errors
	if len(v.errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(v.errors))
		for _, err := range v.errors {
			fmt.Fprintf(w, "  ✗ %s\n", err)
		}
	}

	// Print warnings
	if len(v.warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(v.warnings))
		for _, warn := range v.warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", warn)
		}
	}

	// Summary
	fmt.Fprintln(w)
	if len(v.errors) > 0 {
		fmt.Fprintf(w, "Validation failed: %d error(s)", len(v.errors))
		if len(v.warnings) > 0 {
			fmt.Fprintf(w, ", %d warning(s)", len(v.warnings))
		}
		fmt.Fprintln(w)
	} else if len(v.warnings) > 0 {
		fmt.Fprintf(w, "Validation passed with %d warning(s)\n", len(v.warnings))
		if v.strict {
			fmt.Fprintln(w, "(use without --strict to ignore warnings)")
		}
	}
}
