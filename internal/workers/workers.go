// Package workers runs fire-and-forget background jobs that shutdown
// and tests can wait on.
package workers

import (
	"log/slog"
	"sync"
)

// Global is the worker running the event handlers.
var Global = NewWorker()

type Worker struct {
	wg *sync.WaitGroup
}

func NewWorker() *Worker {
	return &Worker{
		wg: &sync.WaitGroup{},
	}
}

// Go runs fn in a goroutine. A panicking job is logged and does not
// bring the process down.
func (w *Worker) Go(fn func()) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background job panicked", "panic", r)
			}
		}()

		fn()
	}()
}

// Wait blocks until every job started with Go has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}
