package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunTickerStopsOnExpiry(t *testing.T) {
	start := time.Now()
	state := NewState(func() time.Time {
		// Each read jumps 30s ahead so the one-minute quiz expires on the second tick.
		start = start.Add(30 * time.Second)
		return start
	})
	require.NoError(t, state.Load(threeQuestionQuiz()))

	expired := make(chan struct{}, 2)
	done := make(chan struct{})
	go func() {
		RunTicker(context.Background(), state, time.Millisecond, func() { expired <- struct{}{} })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker did not stop after expiry")
	}
	require.Len(t, expired, 1)
	require.True(t, state.ShowResults())
}

func TestRunTickerStopsWhenFinished(t *testing.T) {
	state := NewState(nil)
	require.NoError(t, state.Load(threeQuestionQuiz()))
	state.Finish()

	done := make(chan struct{})
	go func() {
		RunTicker(context.Background(), state, time.Millisecond, func() { t.Errorf("unexpected expiry") })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker did not stop for a finished attempt")
	}
}

func TestRunTickerStopsOnCancel(t *testing.T) {
	state := NewState(nil)
	require.NoError(t, state.Load(threeQuestionQuiz()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunTicker(ctx, state, time.Hour, nil)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker did not stop on cancel")
	}
	require.True(t, state.IsActive())
}
