// Package batch converts a list of archives, one at a time, collecting a
// result per file instead of stopping at the first failure.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dyuri/bndconv/internal/logger"
	"github.com/dyuri/bndconv/pkg/bndconv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the settings shared by every file of a run.
type Config struct {
	Decode    bndconv.Options
	Extension string // Output extension, e.g. ".obj"
	Verify    bool   // Re-parse the OBJ text before writing it
}

// Result holds the outcome of converting one file.
type Result struct {
	Input    string
	Output   string
	Objects  int
	Vertices int
	Faces    int
	Duration time.Duration
	Err      error
}

// Success reports whether the output file was written.
func (r Result) Success() bool {
	return r.Err == nil
}

// Summary holds the results of a run in input order.
type Summary struct {
	RunID   string
	Results []Result
	Failed  int
}

// Err returns a non-nil error if any file failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed", s.Failed, len(s.Results))
}

// Run converts each path in order. A failed file is logged and recorded;
// it never stops the remaining files. Once ctx is done, the files not yet
// started are recorded as failed with the context error.
func Run(ctx context.Context, paths []string, cfg Config) Summary {
	summary := Summary{
		RunID:   newRunID(),
		Results: make([]Result, 0, len(paths)),
	}
	log := logger.Log.With(zap.String("run", summary.RunID))

	log.Debug("starting batch",
		zap.Int("files", len(paths)),
		zap.Int("max_objects", cfg.Decode.MaxObjects),
		zap.Bool("verify", cfg.Verify))

	for _, path := range paths {
		var res Result
		if err := ctx.Err(); err != nil {
			res = Result{Input: path, Err: err}
		} else {
			res = ConvertFile(path, cfg)
		}

		if res.Success() {
			log.Info("converted",
				zap.String("input", res.Input),
				zap.String("output", res.Output),
				zap.Int("objects", res.Objects),
				zap.Int("vertices", res.Vertices),
				zap.Int("faces", res.Faces),
				zap.Duration("duration", res.Duration))
		} else {
			summary.Failed++
			log.Error("conversion failed",
				zap.String("input", res.Input),
				zap.Error(res.Err))
		}
		summary.Results = append(summary.Results, res)
	}

	log.Debug("batch finished",
		zap.Int("files", len(paths)),
		zap.Int("failed", summary.Failed))

	return summary
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ConvertFile decodes one archive and writes its OBJ next to it. The
// output is only created once the whole text has been produced, so a
// failure never leaves a partial file behind.
func ConvertFile(input string, cfg Config) Result {
	start := time.Now()
	res := Result{
		Input:  input,
		Output: bndconv.OutputPath(input, cfg.Extension),
	}

	mesh, text, err := convert(input, res.Output, cfg)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}

	res.Objects = len(mesh.Objects)
	res.Vertices = mesh.VertexCount()
	res.Faces = mesh.TriangleCount()

	if err := writeAtomic(res.Output, text); err != nil {
		res.Err = err
	}
	res.Duration = time.Since(start)
	return res
}

func convert(input, output string, cfg Config) (*bndconv.Mesh, []byte, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, &bndconv.IOError{Op: "read", Path: input, Err: err}
	}

	mesh, err := bndconv.DecodeBytes(data, cfg.Decode)
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := bndconv.WriteOBJ(&buf, mesh); err != nil {
		return nil, nil, &bndconv.IOError{Op: "write", Path: output, Err: err}
	}

	if cfg.Verify {
		obj, err := bndconv.ReadOBJ(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, nil, fmt.Errorf("verify: %w", err)
		}
		if err := bndconv.Verify(mesh, obj); err != nil {
			return nil, nil, fmt.Errorf("verify: %w", err)
		}
	}

	return mesh, buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it over path. The temp file is removed on any failure.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &bndconv.IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &bndconv.IOError{Op: "write", Path: tmp.Name(), Err: err}
	}
	if err = tmp.Chmod(0644); err != nil {
		return &bndconv.IOError{Op: "chmod", Path: tmp.Name(), Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &bndconv.IOError{Op: "sync", Path: tmp.Name(), Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &bndconv.IOError{Op: "close", Path: tmp.Name(), Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &bndconv.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
