// Post-processor metric set
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

// Postproc holds the metrics recorded while annotating programs.
type Postproc struct {
	registry *Registry

	// Files counts processed programs by status ("ok" or "error").
	Files *Counter
	// Directives counts emitted directives by strategy.
	Directives *Counter
	// Lines counts input lines read.
	Lines *Counter
	// Duration observes per-file processing time in seconds.
	Duration *Histogram
	// Pending is the number of files the watcher is waiting on.
	Pending *Gauge
}

// NewPostproc creates and registers the metric set.
func NewPostproc() *Postproc {
	p := &Postproc{
		registry:   NewRegistry(),
		Files:      NewCounter("postproc_files_total", "Programs processed, by status"),
		Directives: NewCounter("postproc_directives_total", "Velocity limit directives emitted, by strategy"),
		Lines:      NewCounter("postproc_lines_total", "Input lines read"),
		Duration:   NewHistogram("postproc_file_duration_seconds", "Time to annotate and write one program", DefaultBuckets()),
		Pending:    NewGauge("postproc_watch_pending_files", "Files waiting to settle in watch mode"),
	}
	p.registry.MustRegister(p.Files)
	p.registry.MustRegister(p.Directives)
	p.registry.MustRegister(p.Lines)
	p.registry.MustRegister(p.Duration)
	p.registry.MustRegister(p.Pending)
	return p
}

// Registry returns the underlying registry.
func (p *Postproc) Registry() *Registry { return p.registry }

// Gather returns all metrics in Prometheus text format.
func (p *Postproc) Gather() string { return p.registry.Gather() }
