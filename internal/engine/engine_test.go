package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	p, err := newPage(ctx, cancel)
	if err != nil {
		t.Fatalf("newPage() error = %v", err)
	}
	p.evals.Start()
	t.Cleanup(p.Close)
	p.setMainFrame("main")
	return p
}

func TestHandleEvent_BindingRoutesToHandler(t *testing.T) {
	p := newTestPage(t)
	var got string
	p.mu.Lock()
	p.bindings["__ReactNativeWebViewPostMessage"] = func(payload string) { got = payload }
	p.mu.Unlock()

	p.handleEvent(&runtime.EventBindingCalled{Name: "__ReactNativeWebViewPostMessage", Payload: "hi"})

	if got != "hi" {
		t.Fatalf("binding payload = %q; want hi", got)
	}
}

func TestHandleEvent_PrivateBindings(t *testing.T) {
	p := newTestPage(t)
	var (
		scroll     types.ScrollSample
		w, h       int
		selecting  []string
		fullscreen []bool
	)
	p.SetListener(Listener{
		OnScroll:         func(s types.ScrollSample) { scroll = s },
		OnSizeChange:     func(width, height int) { w, h = width, height },
		OnSelectionStart: func() { selecting = append(selecting, "start") },
		OnSelectionClear: func() { selecting = append(selecting, "clear") },
		OnFullscreen:     func(active bool) { fullscreen = append(fullscreen, active) },
	})

	p.handleEvent(&runtime.EventBindingCalled{Name: bindScroll, Payload: `{"x":3,"y":4,"contentHeight":1000,"viewportHeight":500}`})
	p.handleEvent(&runtime.EventBindingCalled{Name: bindResize, Payload: `{"width":800,"height":1200}`})
	p.handleEvent(&runtime.EventBindingCalled{Name: bindSelection, Payload: "start"})
	p.handleEvent(&runtime.EventBindingCalled{Name: bindSelection, Payload: "clear"})
	p.handleEvent(&runtime.EventBindingCalled{Name: bindFullscreen, Payload: "enter"})
	p.handleEvent(&runtime.EventBindingCalled{Name: bindFullscreen, Payload: "exit"})

	if scroll.X != 3 || scroll.Y != 4 || scroll.ContentHeight != 1000 || scroll.ViewportHeight != 500 {
		t.Fatalf("scroll = %+v; want x=3 y=4 content 1000 viewport 500", scroll)
	}
	if w != 800 || h != 1200 {
		t.Fatalf("size = %dx%d; want 800x1200", w, h)
	}
	if len(selecting) != 2 || selecting[0] != "start" || selecting[1] != "clear" {
		t.Fatalf("selection = %v; want [start clear]", selecting)
	}
	if len(fullscreen) != 2 || !fullscreen[0] || fullscreen[1] {
		t.Fatalf("fullscreen = %v; want [true false]", fullscreen)
	}
}

func TestHandleEvent_MalformedScrollIgnored(t *testing.T) {
	p := newTestPage(t)
	called := false
	p.SetListener(Listener{OnScroll: func(types.ScrollSample) { called = true }})

	p.handleEvent(&runtime.EventBindingCalled{Name: bindScroll, Payload: "garbage"})

	if called {
		t.Fatal("OnScroll called for malformed payload")
	}
}

func TestHandleEvent_LoadLifecycle(t *testing.T) {
	p := newTestPage(t)
	var starts, urls []string
	var progress []float64
	var finished string
	p.SetListener(Listener{
		OnLoadStart:    func(url string) { starts = append(starts, url) },
		OnLoadProgress: func(v float64) { progress = append(progress, v) },
		OnURLChanged:   func(url string) { urls = append(urls, url) },
		OnLoadFinish:   func(url string) { finished = url },
	})

	p.pendingURL = "https://example.com/"
	p.handleEvent(&page.EventFrameStartedLoading{FrameID: "child"})
	p.handleEvent(&page.EventFrameStartedLoading{FrameID: "main"})
	p.handleEvent(&page.EventLifecycleEvent{FrameID: "main", Name: "DOMContentLoaded"})
	p.handleEvent(&page.EventLifecycleEvent{FrameID: "main", Name: "unknownMilestone"})
	p.handleEvent(&page.EventLifecycleEvent{FrameID: "child", Name: "load"})
	p.handleEvent(&page.EventFrameNavigated{Frame: &cdp.Frame{ID: "child", ParentID: "main", URL: "https://ads.test/"}})
	p.handleEvent(&page.EventFrameNavigated{Frame: &cdp.Frame{ID: "main", URL: "https://example.com/"}})
	p.handleEvent(&page.EventNavigatedWithinDocument{FrameID: "main", URL: "https://example.com/#a"})
	p.handleEvent(&page.EventLoadEventFired{})

	if len(starts) != 1 || starts[0] != "https://example.com/" {
		t.Fatalf("starts = %v; want one with the pending url", starts)
	}
	if len(progress) != 1 || progress[0] != 0.5 {
		t.Fatalf("progress = %v; want [0.5]", progress)
	}
	if len(urls) != 2 || urls[1] != "https://example.com/#a" {
		t.Fatalf("urls = %v; want main frame and in-document changes", urls)
	}
	if finished != "https://example.com/#a" {
		t.Fatalf("finish url = %q; want https://example.com/#a", finished)
	}
}

func TestEvaluate_AfterCloseReportsUnavailable(t *testing.T) {
	p := newTestPage(t)
	p.Close()

	var gotErr error
	p.Evaluate("1", func(_ string, err error) { gotErr = err })

	if !types.HasCode(gotErr, types.CodeEngineUnavailable) {
		t.Fatalf("Evaluate() error = %v; want ENGINE_UNAVAILABLE", gotErr)
	}
}

func TestClose_Idempotent(t *testing.T) {
	p := newTestPage(t)
	p.Close()
	p.Close()
	if !p.closed.Load() {
		t.Fatal("closed = false; want true")
	}
}

func TestSetNestedScroll_AddFailureForgetsRemovedScript(t *testing.T) {
	p := newTestPage(t)
	p.mu.Lock()
	p.nestedID = "7"
	p.mu.Unlock()
	p.Close()

	if err := p.SetNestedScroll(true); !types.HasCode(err, types.CodeEngineUnavailable) {
		t.Fatalf("SetNestedScroll() = %v; want ENGINE_UNAVAILABLE", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nestedID != "" {
		t.Fatalf("nestedID = %q; want empty", p.nestedID)
	}
}

func TestHistoryFromEntries(t *testing.T) {
	entries := []*page.NavigationEntry{
		{URL: "https://a.test/", Title: "A"},
		{URL: "https://b.test/", Title: "B"},
		{URL: "https://c.test/", Title: "C"},
	}

	h := historyFromEntries(1, entries)
	if !h.CanGoBack || !h.CanGoForward || h.Title != "B" || h.URL != "https://b.test/" {
		t.Fatalf("historyFromEntries(1) = %+v; want middle entry with both directions", h)
	}

	h = historyFromEntries(0, entries[:1])
	if h.CanGoBack || h.CanGoForward {
		t.Fatalf("historyFromEntries(0) = %+v; want no history", h)
	}
}

func TestNestedScrollJS(t *testing.T) {
	if js := nestedScrollJS(true); !strings.Contains(js, "'contain'") {
		t.Fatalf("nestedScrollJS(true) = %q; want contain", js)
	}
	if js := nestedScrollJS(false); strings.Contains(js, "'contain'") {
		t.Fatalf("nestedScrollJS(false) = %q; want reset", js)
	}
}
