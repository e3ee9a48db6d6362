package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDrainLoopsCancelsSurvivorOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 2)

	loopErr := errors.New("parse checkpoint: unexpected end of JSON input")
	go func() { errCh <- loopErr }()
	// Stands in for the health loop, which exits only on cancellation.
	go func() {
		<-ctx.Done()
		errCh <- ctx.Err()
	}()

	done := make(chan error, 1)
	go func() { done <- drainLoops(errCh, cancel) }()

	select {
	case err := <-done:
		if !errors.Is(err, loopErr) {
			t.Fatalf("expected the failing loop's error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("drain blocked on the surviving loop")
	}
}

func TestDrainLoopsReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 2)

	for i := 0; i < 2; i++ {
		go func() {
			<-ctx.Done()
			errCh <- ctx.Err()
		}()
	}
	cancel()

	if err := drainLoops(errCh, cancel); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
