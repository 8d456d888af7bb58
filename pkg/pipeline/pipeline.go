// Package pipeline runs annotators over one G-code file.
package pipeline

import (
	"context"
	"time"

	"klipper-postproc/pkg/fileio"
	"klipper-postproc/pkg/log"
	"klipper-postproc/pkg/metrics"
	"klipper-postproc/pkg/region"
)

// Job annotates Input with Strategies, in order, and writes Output.
type Job struct {
	Input string
	// Output defaults to Input, replacing it in place.
	Output     string
	Strategies []region.Strategy

	Logger  *log.Logger
	Metrics *metrics.Postproc
}

// Result summarises a finished job.
type Result struct {
	Input    string
	Output   string
	Lines    int
	Counts   []region.Count
	Duration time.Duration
}

// Directives returns the total number of directives written.
func (r Result) Directives() int {
	return region.Result{Counts: r.Counts}.Directives()
}

// Run executes the job. The output is only touched once the whole
// program has been annotated.
func (j Job) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	logger := j.Logger
	if logger == nil {
		logger = log.Discard()
	}
	res := Result{Input: j.Input, Output: j.Output}
	if res.Output == "" {
		res.Output = j.Input
	}

	raw, err := fileio.ReadLines(j.Input)
	if err != nil {
		j.record(res, false)
		return res, err
	}
	res.Lines = len(raw)

	annotated := region.Chain(raw, j.Strategies...)
	res.Counts = annotated.Counts

	if err := fileio.WriteLines(ctx, res.Output, annotated.Lines); err != nil {
		j.record(res, false)
		return res, err
	}
	res.Duration = time.Since(start)
	j.record(res, true)

	fields := log.Fields{
		"input":      res.Input,
		"lines":      res.Lines,
		"directives": res.Directives(),
		"elapsed":    res.Duration.Round(time.Microsecond).String(),
	}
	if res.Output != res.Input {
		fields["output"] = res.Output
	}
	for _, c := range res.Counts {
		fields[c.Strategy] = c.Directives
	}
	logger.WithFields(fields).Info("annotated program")
	return res, nil
}

func (j Job) record(res Result, ok bool) {
	m := j.Metrics
	if m == nil {
		return
	}
	if !ok {
		m.Files.Inc(metrics.Labels{"status": "error"})
		return
	}
	m.Files.Inc(metrics.Labels{"status": "ok"})
	m.Lines.Add(nil, uint64(res.Lines))
	for _, c := range res.Counts {
		m.Directives.Add(metrics.Labels{"strategy": c.Strategy}, uint64(c.Directives))
	}
	m.Duration.Observe(nil, res.Duration.Seconds())
}
