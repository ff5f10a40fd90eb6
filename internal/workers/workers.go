package workers

import (
	"context"
	"sync"
	"time"
)

type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Start starts every worker in registration order.
func (w *Workers) Start(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop stops the workers in reverse registration order.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}

// loop is the ticker goroutine shared by the workers.
type loop struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// start stops any previously running loop, then calls tick every interval
// until ctx is cancelled or stop is called. With immediate set, the first
// tick happens right away.
func (l *loop) start(ctx context.Context, interval time.Duration, immediate bool, tick func(ctx context.Context)) {
	l.stop()

	l.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()

		if immediate {
			tick(loopCtx)
		}

		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				tick(loopCtx)
			}
		}
	}()
}

// stop cancels the loop's context and blocks until the goroutine has fully
// exited.
func (l *loop) stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}
