package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeferred_FlushRunsAllTasks(t *testing.T) {
	t.Parallel()

	d := NewDeferred(2)
	var count atomic.Int32
	for range 10 {
		d.Schedule(func() { count.Add(1) })
	}

	if d.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", d.Len())
	}
	if count.Load() != 0 {
		t.Fatal("tasks ran before Flush")
	}

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := count.Load(); got != 10 {
		t.Errorf("ran %d tasks, want 10", got)
	}
	if d.Len() != 0 {
		t.Errorf("Len() after Flush = %d, want 0", d.Len())
	}
}

func TestDeferred_RespectsLimit(t *testing.T) {
	t.Parallel()

	const limit = 3
	d := NewDeferred(limit)

	var running, peak atomic.Int32
	for range 12 {
		d.Schedule(func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency = %d, want <= %d", got, limit)
	}
}

func TestDeferred_CancelledContextDropsTasks(t *testing.T) {
	t.Parallel()

	d := NewDeferred(0)
	ran := false
	d.Schedule(func() { ran = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Flush(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Flush() error = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("task ran after cancellation")
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestDeferred_ScheduleDuringFlushQueuesForNextFlush(t *testing.T) {
	t.Parallel()

	d := NewDeferred(1)
	var mu sync.Mutex
	var order []string

	d.Schedule(func() {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
		d.Schedule(func() {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
		})
	})

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(order) != 1 || d.Len() != 1 {
		t.Fatalf("after first flush: order = %v, Len() = %d", order, d.Len())
	}

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(order) != 2 || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}
