package main

// Notes:
// - notifyContext: we test cancellation through stop() and the parent only.
//   Real signal delivery is platform-specific and not exercised here.

import (
	"context"
	"testing"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("stop cancels", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		if ctx.Err() != nil {
			t.Fatal("context should not start cancelled")
		}
		stop()
		<-ctx.Done()
	})

	t.Run("parent cancels", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		<-ctx.Done()
	})
}
