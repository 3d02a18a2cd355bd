// Package supervise implements the "first task to finish wins" shutdown
// combinator used throughout the control core: run N long-lived tasks
// concurrently, and as soon as any one of them returns (successfully or
// with an error), cancel the rest and wait for them to unwind. This is
// the idiomatic Go rendition of the firmware's
// embassy_futures::select/select5 over cooperative tasks.
package supervise

import (
	"context"
	"sync"
)

// Task is a long-lived unit of work that must return promptly once ctx
// is canceled.
type Task func(ctx context.Context) error

// Run starts every task in its own goroutine. As soon as one returns,
// Run cancels the context passed to the others and waits for all of them
// to return. It returns the error of whichever task returned first
// (nil if that task exited cleanly).
func Run(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		task := task
		go func() {
			defer wg.Done()
			errs <- task(ctx)
		}()
	}

	first := <-errs
	cancel()
	wg.Wait()
	close(errs)
	return first
}
