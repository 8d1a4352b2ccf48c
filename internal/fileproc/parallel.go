// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/hoist/pkg/analyzer"
	"github.com/panbanda/hoist/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects file processing errors. It is safe for
// concurrent use.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// ErrorFunc is called when a file fails. If nil, failures are dropped.
type ErrorFunc func(path string, err error)

// MapFiles runs fn for every file on a bounded pool, giving each call its
// own parser. Results of successful calls are returned in input order;
// failed files are reported to onError and left out. A tracker carried by
// ctx is ticked once per file. If maxWorkers <= 0, NumCPU is used.
//
// The only error returned is the context's, when it is cancelled.
func MapFiles[T any](
	ctx context.Context,
	files []string,
	maxWorkers int,
	fn func(context.Context, *parser.Parser, string) (T, error),
	onError ErrorFunc,
) ([]T, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	tracker := analyzer.TrackerFromContext(ctx)
	tracker.Grow(len(files))

	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(files))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			psr := parser.New()
			defer psr.Close()

			value, err := fn(ctx, psr, path)
			tracker.Tick(path)
			if err != nil {
				if onError != nil {
					onError(path, err)
				}
				return nil
			}
			slots[i] = slot{value: value, ok: true}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	results := make([]T, 0, len(files))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}
	return results, nil
}
