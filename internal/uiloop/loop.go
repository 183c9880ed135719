// Package uiloop provides the single execution context that owns all
// surface state. Engine goroutines and HTTP handlers hop onto it through
// Post and Call; everything downstream runs one task at a time.
package uiloop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	goeventloop "github.com/joeycumines/go-eventloop"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

const shutdownTimeout = 2 * time.Second

// Loop runs posted tasks sequentially on one event loop goroutine.
type Loop struct {
	loop *goeventloop.Loop

	stopped   atomic.Bool
	done      chan struct{}
	runCtx    context.Context
	runCancel context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a loop. Tasks posted before Start are queued.
func New() (*Loop, error) {
	el, err := goeventloop.New()
	if err != nil {
		return nil, fmt.Errorf("create event loop: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		loop:      el,
		done:      make(chan struct{}),
		runCtx:    ctx,
		runCancel: cancel,
	}, nil
}

// Start runs the loop on its own goroutine.
func (l *Loop) Start() {
	go l.Run()
}

// Run processes tasks until Stop. Only the first call does anything.
func (l *Loop) Run() {
	ran := false
	l.startOnce.Do(func() { ran = true })
	if !ran {
		return
	}
	if err := l.loop.Run(l.runCtx); err != nil && l.runCtx.Err() == nil {
		slog.Warn("uiloop run ended", "error", err)
	}
}

func (l *Loop) runTask(fn func()) {
	if l.stopped.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("uiloop task panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post enqueues fn. It never blocks and never drops a task while the loop
// is open. It returns false once the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	if l.stopped.Load() {
		return false
	}
	if err := l.loop.Submit(func() { l.runTask(fn) }); err != nil {
		slog.Debug("uiloop submit rejected", "error", err)
		return false
	}
	return true
}

// Call runs fn on the loop and waits for it to finish. It must not be
// called from a task already running on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return types.NewError(types.CodeLoopClosed, "ui loop stopped", nil)
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return types.NewError(types.CodeLoopClosed, "ui loop stopped", nil)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the loop. Pending tasks are skipped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.done)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := l.loop.Shutdown(ctx); err != nil {
			slog.Debug("uiloop shutdown", "error", err)
		}
		l.runCancel()
	})
}

// Done is closed once Stop has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
