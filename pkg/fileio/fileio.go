// Package fileio reads G-code programs and replaces them atomically.
package fileio

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"klipper-postproc/pkg/errors"
	"klipper-postproc/pkg/gcode"
)

const bufSize = 64 * 1024

// ReadLines reads a whole program as lines. Line endings and trailing
// whitespace are dropped.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InputError(path, err)
	}
	return gcode.SplitLines(string(data)), nil
}

// WriteLines replaces dest with lines, one per line.
//
// The content goes to a temporary file in dest's directory which is
// synced and then renamed over dest, so dest is either the old program
// or the complete new one. An existing dest keeps its permissions.
func WriteLines(ctx context.Context, dest string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := Writable(dir); err != nil {
		return errors.OutputError(dest, err)
	}
	if err := writeAtomic(ctx, dest, strings.NewReader(gcode.JoinLines(lines))); err != nil {
		return errors.OutputError(dest, err)
	}
	return nil
}

func writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	perm := os.FileMode(0o644)
	if info, err := os.Stat(dest); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.gcode")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, perm)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	bw := bufio.NewWriterSize(tmp, bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// Best effort; the rename already happened.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
