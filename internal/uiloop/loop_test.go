package uiloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

func newLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestPost_RunsInOrder(t *testing.T) {
	l := newLoop(t)
	l.Start()
	defer l.Stop()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		i := i
		if !l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}) {
			t.Fatalf("Post() = false; want true")
		}
	}
	if err := l.Call(t.Context(), func() {}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("ran %d tasks; want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestPost_QueuedBeforeStart(t *testing.T) {
	l := newLoop(t)
	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	l.Start()
	defer l.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("task posted before Start never ran")
	}
}

func TestPost_AfterStop(t *testing.T) {
	l := newLoop(t)
	l.Start()
	l.Stop()

	if l.Post(func() {}) {
		t.Fatalf("Post() after Stop = true; want false")
	}
	err := l.Call(context.Background(), func() {})
	if !types.HasCode(err, types.CodeLoopClosed) {
		t.Fatalf("Call() after Stop = %v; want %s", err, types.CodeLoopClosed)
	}
}

func TestCall_ContextCancelled(t *testing.T) {
	l := newLoop(t)
	l.Start()
	defer l.Stop()

	block := make(chan struct{})
	defer close(block)
	l.Post(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Call(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Call() = %v; want %v", err, context.DeadlineExceeded)
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	l := newLoop(t)
	l.Start()
	defer l.Stop()

	l.Post(func() { panic("boom") })
	ran := false
	if err := l.Call(t.Context(), func() { ran = true }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !ran {
		t.Fatalf("task after panic did not run")
	}
}

func TestStop_Idempotent(t *testing.T) {
	l := newLoop(t)
	l.Start()
	l.Stop()
	l.Stop()

	select {
	case <-l.Done():
	default:
		t.Fatalf("Done() not closed after Stop")
	}
}
