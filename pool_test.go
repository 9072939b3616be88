package notemd

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

// Compile-time interface check.
var _ interface {
	Acquire() *Converter
	Release(*Converter)
	Size() int
	Close() error
} = (*ConverterPool)(nil)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{
			name:    "explicit takes priority",
			workers: 4,
			want:    4,
		},
		{
			name:    "explicit=1 for sequential",
			workers: 1,
			want:    1,
		},
		{
			name:    "explicit can exceed max",
			workers: 16,
			want:    16,
		},
		{
			name:    "zero uses auto calculation",
			workers: 0,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
		{
			name:    "negative uses auto calculation",
			workers: -3,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestConverterPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2)
	defer pool.Close()

	conv1 := pool.Acquire()
	if conv1 == nil {
		t.Fatal("Acquire() returned nil")
	}
	conv2 := pool.Acquire()
	if conv2 == nil {
		t.Fatal("Acquire() returned nil")
	}
	if conv1 == conv2 {
		t.Error("expected different converter instances")
	}

	pool.Release(conv1)
	if conv3 := pool.Acquire(); conv3 != conv1 {
		t.Error("expected to get back released converter")
	}

	pool.Release(conv1)
	pool.Release(conv2)
}

func TestConverterPool_SharesOptions(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, WithDiagramMode(DiagramsNone))
	defer pool.Close()

	conv := pool.Acquire()
	defer pool.Release(conv)

	res, err := conv.Convert(context.Background(), Input{Markdown: "```mermaid\nA-->B\n```"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	assertExcludes(t, string(res.HTML), "<script")
}

func TestConverterPool_InitError(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, WithEngine("pandoc"))
	defer pool.Close()

	if conv := pool.Acquire(); conv != nil {
		t.Fatal("Acquire() should return nil when the converter cannot be built")
	}
	if err := pool.InitError(); !errors.Is(err, ErrInvalidEngine) {
		t.Errorf("InitError() = %v, want ErrInvalidEngine", err)
	}

	// A failed creation frees its slot
	if conv := pool.Acquire(); conv != nil {
		t.Error("second Acquire() should retry and fail again, not block")
	}
}

func TestConverterPool_Size(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int
		want int
	}{
		{"size 1", 1, 1},
		{"size 4", 4, 4},
		{"size 0 becomes 1", 0, 1},
		{"negative becomes 1", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := NewConverterPool(tt.size)
			defer pool.Close()

			if got := pool.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConverterPool_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(4, WithDiagramMode(DiagramsNone))
	defer pool.Close()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv := pool.Acquire()
			defer pool.Release(conv)
			if _, err := conv.Convert(context.Background(), Input{Markdown: "- a\n  - b"}); err != nil {
				t.Errorf("Convert() error = %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		t.Fatal("concurrent access test timed out - possible deadlock")
	}
}

func TestConverterPool_ReleaseAfterClose(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2)
	conv := pool.Acquire()
	if conv == nil {
		t.Fatal("Acquire() returned nil")
	}

	if err := pool.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Release after close is a no-op, a second close too
	pool.Release(conv)
	pool.Release(nil)
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
