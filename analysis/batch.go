package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-pulso/analysis/config"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// Opener turns a path into a range reader
type Opener func(path string) (RangeReader, error)

// BatchOptions controls AnalyzeBatch
type BatchOptions struct {
	Workers int           // concurrent files, at least 1
	Timeout time.Duration // per file, 0 for none
}

// BatchResult is the outcome for one input path
type BatchResult struct {
	Path   string  `json:"path"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
}

type batchJob struct {
	index int
	path  string
}

// AnalyzeBatch analyzes paths on a pool of workers, each with its own
// Analyzer. Results keep the order of paths and a failed file never stops
// the others.
func AnalyzeBatch(ctx context.Context, cfg *config.Config, paths []string, opts BatchOptions, open Opener) ([]BatchResult, error) {
	workers := max(1, min(opts.Workers, len(paths)))
	analyzers := make([]*Analyzer, workers)
	for i := range analyzers {
		a, err := NewAnalyzer(cfg)
		if err != nil {
			return nil, err
		}
		analyzers[i] = a
	}

	logger := logging.WithFields(logging.Fields{"component": "batch"})
	results := make([]BatchResult, len(paths))
	jobs := make(chan batchJob, len(paths))

	var wg sync.WaitGroup
	for _, analyzer := range analyzers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := analyzeOne(ctx, analyzer, job.path, opts.Timeout, open)
				results[job.index] = BatchResult{Path: job.path, Result: res, Err: err}
				if err != nil {
					results[job.index].Error = err.Error()
					logger.Warn("Analysis failed", logging.Fields{"path": job.path, "error": err.Error()})
				}
			}
		}()
	}

	for i, path := range paths {
		jobs <- batchJob{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

func analyzeOne(ctx context.Context, a *Analyzer, path string, timeout time.Duration, open Opener) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	src, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	result, err := a.Analyze(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	result.Source = path
	return result, nil
}
