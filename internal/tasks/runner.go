// Package tasks runs detached background work that must outlive the caller,
// such as persistence writes started while a connection is being torn down.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

type Runner struct {
	log     *slog.Logger
	timeout time.Duration
	wg      conc.WaitGroup
}

// New returns a runner. A zero timeout leaves deadlines to the store clients.
func New(log *slog.Logger, timeout time.Duration) *Runner {
	return &Runner{log: log, timeout: timeout}
}

// Go starts fn on a fresh context detached from any request. Errors and panics are logged.
func (r *Runner) Go(op string, fn func(ctx context.Context) error) {
	log := r.log.With(slog.String("op", op))

	r.wg.Go(func() {
		var catcher panics.Catcher
		catcher.Try(func() {
			ctx := context.Background()
			if r.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			if err := fn(ctx); err != nil {
				log.Error("background task failed", sl.Err(err))
			}
		})
		if rec := catcher.Recovered(); rec != nil {
			log.Error("background task panicked", slog.Any("panic", rec.Value))
		}
	})
}

// Wait blocks until every started task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
