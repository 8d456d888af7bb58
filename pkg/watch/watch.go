// Package watch annotates G-code files as a slicer exports them into a
// directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"klipper-postproc/pkg/log"
	"klipper-postproc/pkg/metrics"
	"klipper-postproc/pkg/pipeline"
	"klipper-postproc/pkg/region"
)

// DefaultSettle is how long a file must go without writes before it is
// considered complete.
const DefaultSettle = 2 * time.Second

// Config configures a Watcher.
type Config struct {
	// Dir is the directory the slicer exports into.
	Dir string
	// OutDir receives annotated copies. It must differ from Dir.
	OutDir string
	// Pattern selects files by base name. Defaults to "*.gcode".
	Pattern    string
	Settle     time.Duration
	Strategies []region.Strategy

	Logger  *log.Logger
	Metrics *metrics.Postproc
	// OnResult, if set, is called after each file is processed.
	OnResult func(pipeline.Result, error)
}

// Watcher processes settled files one at a time.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	logger  *log.Logger
	pending map[string]time.Time
}

// New validates cfg and starts watching cfg.Dir.
func New(cfg Config) (*Watcher, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = "*.gcode"
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("watch: bad pattern %q: %w", cfg.Pattern, err)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.OutDir == "" {
		return nil, fmt.Errorf("watch: output directory is required")
	}
	in, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	out, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if in == out {
		return nil, fmt.Errorf("watch: output directory must differ from %s", cfg.Dir)
	}
	cfg.Dir, cfg.OutDir = in, out

	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: %s: %w", cfg.Dir, err)
	}
	return &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]time.Time),
	}, nil
}

// Run processes files until ctx is cancelled. Files still settling when
// ctx ends are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	tick := w.cfg.Settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.WithFields(log.Fields{"dir": w.cfg.Dir, "out": w.cfg.OutDir}).Info("watching for %s", w.cfg.Pattern)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ok, _ := filepath.Match(w.cfg.Pattern, base)
	return ok
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !w.matches(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.pending[ev.Name] = time.Now()
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
	}
	w.setPending()
}

// flush processes every file that has been quiet for the settle period,
// oldest name first.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.cfg.Settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		delete(w.pending, path)
		w.process(ctx, path)
	}
	w.setPending()
}

func (w *Watcher) process(ctx context.Context, path string) {
	job := pipeline.Job{
		Input:      path,
		Output:     filepath.Join(w.cfg.OutDir, filepath.Base(path)),
		Strategies: w.cfg.Strategies,
		Logger:     w.logger,
		Metrics:    w.cfg.Metrics,
	}
	res, err := job.Run(ctx)
	if err != nil {
		w.logger.WithError(err).Error("failed to process %s", path)
	}
	if w.cfg.OnResult != nil {
		w.cfg.OnResult(res, err)
	}
}

func (w *Watcher) setPending() {
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.Pending.Set(nil, float64(len(w.pending)))
	}
}
