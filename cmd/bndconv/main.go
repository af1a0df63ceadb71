package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dyuri/bndconv/internal/batch"
	"github.com/dyuri/bndconv/internal/config"
	"github.com/dyuri/bndconv/internal/logger"
	"github.com/dyuri/bndconv/pkg/bndconv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFlags *config.Flags
	cfg      *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bndconv [flags] <file.bnd>...",
	Short: "Convert BND/TMD model archives to Wavefront OBJ",
	Long: `bndconv converts BND model archives (a TMD mesh block in a BND
container) to Wavefront OBJ text.

Each input X.bnd is written to X.obj next to it. Files are converted in
order; a file that fails is reported and the rest are still converted.
The exit status is non-zero if any file failed.`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runConvert,
}

func init() {
	cfgFlags = config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config and starts logging before any command runs
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFlags)
	if err != nil {
		return err
	}
	cfg = c

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, os.Stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	// Ctrl-C stops before the next file; the current one finishes
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary := batch.Run(ctx, args, batch.Config{
		Decode:    cfg.DecodeOptions(),
		Extension: cfg.Export.Extension,
		Verify:    cfg.Export.Verify,
	})

	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "\nFailed (%d of %d):\n", summary.Failed, len(summary.Results))
		for _, res := range summary.Results {
			if !res.Success() {
				fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", res.Input, res.Err)
			}
		}
	}

	return summary.Err()
}

// readArchive reads and decodes one archive with the configured options
func readArchive(path string) (*bndconv.Mesh, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input file: %w", err)
	}

	mesh, err := bndconv.DecodeBytes(data, cfg.DecodeOptions())
	if err != nil {
		return nil, int64(len(data)), fmt.Errorf("parse BND file: %w", err)
	}
	return mesh, int64(len(data)), nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <file.bnd>",
	Short: "Display BND archive information",
	Long: `Display header tags, declared lengths and the object table of a
BND archive.

Use --max-objects to include more than the first object.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	mesh, size, err := readArchive(inputPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputInfoJSON(out, inputPath, mesh, size)
	}
	return outputInfoText(out, inputPath, mesh, size, brief)
}

func outputInfoText(w io.Writer, path string, mesh *bndconv.Mesh, fileSize int64, brief bool) error {
	h := mesh.Header

	if brief {
		fmt.Fprintf(w, "%s: %s/%s/%s Objects=%d/%d Vertices=%d Triangles=%d\n",
			path,
			h.Magic, h.DataTag, h.MeshTag,
			len(mesh.Objects), mesh.TableSize,
			mesh.VertexCount(),
			mesh.TriangleCount())
		return nil
	}

	fmt.Fprintf(w, "BND File: %s\n", path)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Header:")
	fmt.Fprintf(w, "  Magic:            %q\n", h.Magic)
	fmt.Fprintf(w, "  File length:      %d (actual %d)\n", h.FileLength, fileSize)
	fmt.Fprintf(w, "  Data tag:         %q\n", h.DataTag)
	fmt.Fprintf(w, "  Unknown:          0x%08x 0x%08x\n", h.Unknown1, h.Unknown2)
	fmt.Fprintf(w, "  Mesh tag:         %q\n", h.MeshTag)
	fmt.Fprintf(w, "  Mesh length:      %d (ends at %d)\n", h.MeshLength, h.MeshEnd())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Objects:            %d decoded, %d in table\n", len(mesh.Objects), mesh.TableSize)
	fmt.Fprintf(w, "Vertices:           %d\n", mesh.VertexCount())
	fmt.Fprintf(w, "Triangles:          %d\n", mesh.TriangleCount())
	fmt.Fprintf(w, "File Size:          %s (%d bytes)\n", formatBytes(fileSize), fileSize)
	fmt.Fprintln(w)

	for i, obj := range mesh.Objects {
		rec := obj.Record
		fmt.Fprintf(w, "Object %d (record at 0x%x):\n", i, obj.Offset)
		fmt.Fprintf(w, "  Vertices:         %d at +0x%x\n", rec.VertexCount, rec.VertexTop)
		fmt.Fprintf(w, "  Normals:          %d at +0x%x\n", rec.NormalCount, rec.NormalTop)
		fmt.Fprintf(w, "  Primitives:       %d at +0x%x\n", rec.PrimitiveCount, rec.PrimitiveTop)
		fmt.Fprintf(w, "  Reserved:         0x%08x 0x%08x 0x%08x\n", rec.Reserved[0], rec.Reserved[1], rec.Reserved[2])
	}

	return nil
}

func outputInfoJSON(w io.Writer, path string, mesh *bndconv.Mesh, fileSize int64) error {
	h := mesh.Header
	info := map[string]interface{}{
		"file": path,
		"header": map[string]interface{}{
			"magic":      h.Magic.String(),
			"fileLength": h.FileLength,
			"dataTag":    h.DataTag.String(),
			"unknown":    []uint32{h.Unknown1, h.Unknown2},
			"meshTag":    h.MeshTag.String(),
			"meshLength": h.MeshLength,
		},
		"counts": map[string]int{
			"objects":   len(mesh.Objects),
			"table":     mesh.TableSize,
			"vertices":  mesh.VertexCount(),
			"triangles": mesh.TriangleCount(),
		},
		"fileSize": fileSize,
	}

	objects := make([]map[string]interface{}, len(mesh.Objects))
	for i, obj := range mesh.Objects {
		rec := obj.Record
		objects[i] = map[string]interface{}{
			"offset":     obj.Offset,
			"vertices":   map[string]uint32{"top": rec.VertexTop, "count": rec.VertexCount},
			"normals":    map[string]uint32{"top": rec.NormalTop, "count": rec.NormalCount},
			"primitives": map[string]uint32{"top": rec.PrimitiveTop, "count": rec.PrimitiveCount},
			"reserved":   rec.Reserved,
		}
	}
	info["objects"] = objects

	// Pretty print JSON
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the config file and
flags, as YAML.

With --save, write it to the user config directory instead.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().Bool("save", false, "Write to the user config directory")
}

func runConfig(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	if save {
		path := filepath.Join(config.ConfigDir(), "config.yaml")
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved configuration to %s\n", path)
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bndconv version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
