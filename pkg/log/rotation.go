// Size-based log file rotation for long-running watch sessions
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig configures a RotatingFileWriter
type RotationConfig struct {
	// Filename is the path of the active log file
	Filename string

	// MaxSize is the size in bytes at which the file is rotated.
	// Zero disables rotation.
	MaxSize int64

	// MaxBackups is the number of rotated files to keep (name.1 .. name.N)
	MaxBackups int
}

// RotatingFileWriter is an io.WriteCloser that shifts the active file to
// numbered backups once it grows past MaxSize.
type RotatingFileWriter struct {
	mu     sync.Mutex
	config RotationConfig
	file   *os.File
	size   int64
}

// NewRotatingFileWriter opens (or appends to) the configured file
func NewRotatingFileWriter(config RotationConfig) (*RotatingFileWriter, error) {
	if config.Filename == "" {
		return nil, fmt.Errorf("log filename is required")
	}
	if config.MaxBackups < 0 {
		config.MaxBackups = 0
	}
	if dir := filepath.Dir(config.Filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	w := &RotatingFileWriter{config: config}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	f, err := os.OpenFile(w.config.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write implements io.Writer
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.config.MaxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.config.MaxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	w.file = nil
	name := w.config.Filename
	if w.config.MaxBackups == 0 {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove log file: %w", err)
		}
		return w.open()
	}
	// Oldest falls off the end.
	os.Remove(backupName(name, w.config.MaxBackups))
	for i := w.config.MaxBackups - 1; i >= 1; i-- {
		src := backupName(name, i)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, backupName(name, i+1))
		}
	}
	if err := os.Rename(name, backupName(name, 1)); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return w.open()
}

func backupName(name string, i int) string {
	return fmt.Sprintf("%s.%d", name, i)
}

// Close closes the active file
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Filename returns the active log file path
func (w *RotatingFileWriter) Filename() string { return w.config.Filename }

// NewConsoleAndFileLogger creates a logger writing to both console and a
// rotating file. The returned writer must be closed by the caller.
func NewConsoleAndFileLogger(prefix string, console io.Writer, config RotationConfig) (*Logger, *RotatingFileWriter, error) {
	w, err := NewRotatingFileWriter(config)
	if err != nil {
		return nil, nil, err
	}
	l := New(prefix)
	if console == nil {
		l.SetWriter(w)
	} else {
		l.SetWriter(io.MultiWriter(console, w))
	}
	return l, w, nil
}
