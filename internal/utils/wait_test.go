package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	originalSleep := sleep
	defer func() { sleep = originalSleep }()

	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected nil for zero duration, got %v", err)
	}
	if slept != 0 {
		t.Fatalf("expected no sleep for zero duration, got %s", slept)
	}

	if err := WaitFor(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if slept != 2*time.Second {
		t.Fatalf("expected to sleep 2s, got %s", slept)
	}

	release := make(chan struct{})
	sleep = func(time.Duration) { <-release }
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
