package compare

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
)

// Options tunes how a comparison runs, separate from the policy that
// defines what passes.
type Options struct {
	// Concurrency bounds the dataset validation worker pool. Values
	// below one mean sequential validation.
	Concurrency int
}

// Compare walks both product trees, validating structure, attributes
// and every aligned dataset pair, accumulating violations into the
// session. It returns an error only for container I/O failures; all
// comparison findings land in the session regardless of outcome.
func Compare(ctx context.Context, s *Session, golden, test product.Container, pol config.Policy, opts Options) error {
	tracer := otel.Tracer("goldcheck/compare")
	ctx, span := tracer.Start(ctx, "compare")
	defer span.End()

	w := &walker{
		golden: golden,
		test:   test,
		s:      s,
		pol:    pol,
		kinds:  kindTable(pol.DataDatasetName),
		tracer: tracer,
	}
	if err := w.walkGroup("/"); err != nil {
		return err
	}

	log.Debug(log.CatCompare, "structural walk complete", "datasets", len(w.jobs))
	return runJobs(ctx, w.jobs, opts.Concurrency)
}

// runJobs executes dataset validations on a bounded worker pool. Every
// job runs even when another fails, so a single unreadable dataset
// does not hide findings elsewhere; the collected errors are joined.
func runJobs(ctx context.Context, jobs []func(context.Context) error, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}
	if len(jobs) == 0 {
		return nil
	}

	workCh := make(chan func(context.Context) error, len(jobs))
	errCh := make(chan error, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range workCh {
				if err := job(ctx); err != nil {
					errCh <- err
				}
			}
		}()
	}

	for _, job := range jobs {
		workCh <- job
	}
	close(workCh)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
