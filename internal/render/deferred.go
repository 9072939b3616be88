package render

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Deferred queues tasks until Flush runs them. It satisfies the pipeline
// Scheduler contract: a conversion schedules diagram renders, the caller
// places the markup on its target, then flushes.
type Deferred struct {
	mu    sync.Mutex
	tasks []func()
	limit int
}

// NewDeferred creates a queue running at most limit tasks at once.
// A limit below 1 means no limit.
func NewDeferred(limit int) *Deferred {
	return &Deferred{limit: limit}
}

// Schedule queues a task.
func (d *Deferred) Schedule(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
}

// Len returns the number of queued tasks.
func (d *Deferred) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// Flush runs every queued task and waits for them. Tasks not yet started
// when ctx is done are dropped; started tasks always finish.
func (d *Deferred) Flush(ctx context.Context) error {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()

	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			task()
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
