package receipt

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/zombor/receipt-analyzer/internal/scanning"
)

// ErrBusy is returned when an analysis is already in progress
var ErrBusy = errors.New("an analysis is already in progress")

// Analyzer turns an image path into an outcome
type Analyzer interface {
	Analyze(ctx context.Context, path string) scanning.Outcome
}

// Runner runs one analysis at a time on its own goroutine and hands the
// outcome back on a channel, so callers with an event loop never block on the model.
type Runner struct {
	analyzer Analyzer
	inFlight *semaphore.Weighted
	busy     atomic.Bool
}

// NewRunner creates a new Runner
func NewRunner(analyzer Analyzer) *Runner {
	return &Runner{
		analyzer: analyzer,
		inFlight: semaphore.NewWeighted(1),
	}
}

// Start begins analyzing path. The returned channel yields exactly one
// outcome and is then closed. If another analysis is running, Start returns ErrBusy.
func (r *Runner) Start(ctx context.Context, path string) (<-chan scanning.Outcome, error) {
	if !r.inFlight.TryAcquire(1) {
		return nil, ErrBusy
	}
	r.busy.Store(true)

	result := make(chan scanning.Outcome, 1)
	go func() {
		outcome := r.analyzer.Analyze(ctx, path)
		// Release before delivering so a caller that got the outcome can start again
		r.busy.Store(false)
		r.inFlight.Release(1)
		result <- outcome
		close(result)
	}()
	return result, nil
}

// Busy reports whether an analysis is in progress
func (r *Runner) Busy() bool {
	return r.busy.Load()
}
