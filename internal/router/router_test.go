package router

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/surfacebridge/internal/metrics"
	"github.com/dgnsrekt/surfacebridge/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeDispatcher struct {
	events []types.Event
}

func (d *fakeDispatcher) Dispatch(ev types.Event) { d.events = append(d.events, ev) }

type sinkCall struct {
	module string
	method string
	args   []any
}

type fakeSink struct {
	calls []sinkCall
	err   error
}

func (s *fakeSink) CallFunction(module, method string, args []any) error {
	s.calls = append(s.calls, sinkCall{module: module, method: method, args: args})
	return s.err
}

type fakeNav struct {
	url string
}

func (n fakeNav) EventBase() map[string]any {
	return map[string]any{"url": n.url, "canGoBack": false, "canGoForward": false}
}

func newTestRouter(d *fakeDispatcher, sink MessageSink, m *metrics.Metrics) *Router {
	return New(Config{
		ModuleName: "SurfaceMessagingModule",
		Sink:       func() MessageSink { return sink },
		Dispatcher: d,
		Tag:        func() (int, bool) { return 7, true },
		Metrics:    m,
	})
}

func TestDeliverMessage_GenericPathWithoutSink(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil, nil)

	r.DeliverMessage("hello")

	if len(d.events) != 1 {
		t.Fatalf("dispatched = %d; want 1", len(d.events))
	}
	ev := d.events[0]
	if ev.Kind != types.KindMessage || ev.Target != 7 {
		t.Fatalf("event = %+v; want message to 7", ev)
	}
	payload := ev.Payload.(map[string]any)
	if payload["data"] != "hello" {
		t.Fatalf("data = %v; want hello", payload["data"])
	}
	if len(payload) != 1 {
		t.Fatalf("payload = %v; want only data without navigation", payload)
	}
}

func TestDeliverMessage_DirectPathWhenSinkPresent(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &fakeSink{}
	r := newTestRouter(d, sink, nil)
	r.AttachNavigation(fakeNav{url: "https://example.com/"})

	r.DeliverMessage("hello")

	if len(d.events) != 0 {
		t.Fatalf("dispatched = %d; want 0", len(d.events))
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %d; want 1", len(sink.calls))
	}
	call := sink.calls[0]
	if call.module != "SurfaceMessagingModule" || call.method != "onMessage" {
		t.Fatalf("call = %s.%s; want SurfaceMessagingModule.onMessage", call.module, call.method)
	}
	if len(call.args) != 1 {
		t.Fatalf("args = %d; want 1", len(call.args))
	}
	native := call.args[0].(map[string]any)["nativeEvent"].(map[string]any)
	if native["data"] != "hello" || native["url"] != "https://example.com/" {
		t.Fatalf("nativeEvent = %v; want data and url", native)
	}
}

func TestDeliverMessage_SinkEvaluatedPerEvent(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &fakeSink{}
	var current MessageSink
	r := New(Config{
		ModuleName: "M",
		Sink:       func() MessageSink { return current },
		Dispatcher: d,
		Tag:        func() (int, bool) { return 1, true },
	})

	r.DeliverMessage("one")
	current = sink
	r.DeliverMessage("two")
	current = nil
	r.DeliverMessage("three")

	if len(d.events) != 2 || len(sink.calls) != 1 {
		t.Fatalf("dispatched=%d direct=%d; want 2 and 1", len(d.events), len(sink.calls))
	}
}

func TestDeliverMessage_NoModuleNameUsesGenericPath(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &fakeSink{}
	r := New(Config{
		Sink:       func() MessageSink { return sink },
		Dispatcher: d,
		Tag:        func() (int, bool) { return 1, true },
	})

	r.DeliverMessage("x")

	if len(d.events) != 1 || len(sink.calls) != 0 {
		t.Fatalf("dispatched=%d direct=%d; want 1 and 0", len(d.events), len(sink.calls))
	}
}

func TestDeliverMessage_SinkErrorIsDroppedNotRerouted(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &fakeSink{err: errors.New("link closed")}
	m := metrics.New()
	r := newTestRouter(d, sink, m)

	r.DeliverMessage("x")

	if len(d.events) != 0 {
		t.Fatalf("dispatched = %d; want 0", len(d.events))
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues(metrics.DropSinkError)); got != 1 {
		t.Fatalf("sink_error drops = %v; want 1", got)
	}
}

func TestDeliverMessage_ReservedCommandRunsOnce(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil, nil)
	calls := 0
	r.Reserved().Register("android-print", func(string) { calls++ })

	r.DeliverMessage("android-print")
	r.DeliverMessage("not-print")

	if calls != 1 {
		t.Fatalf("reserved calls = %d; want 1", calls)
	}
	if len(d.events) != 2 {
		t.Fatalf("dispatched = %d; want 2", len(d.events))
	}
}

func TestDeliver_DroppedAfterDetach(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &fakeSink{}
	r := newTestRouter(d, sink, nil)
	r.SetHasScrollEvent(true)
	r.SetSendContentSizeChangeEvents(true)
	fired := false
	r.Reserved().Register("android-print", func(string) { fired = true })

	r.Detach()
	r.DeliverMessage("android-print")
	r.DeliverScroll(types.ScrollSample{X: 1, Y: 1})
	r.DeliverSizeChange(10, 10)
	r.DeliverCustomMenuSelection(types.CustomMenuSelectionEvent{Label: "A"})
	r.DeliverNavigation(types.KindLoadingFinish, nil)

	if len(d.events) != 0 || len(sink.calls) != 0 || fired {
		t.Fatalf("deliveries after detach: dispatched=%d direct=%d reserved=%v", len(d.events), len(sink.calls), fired)
	}
}

func TestDeliverScroll_DisabledDeliversNothing(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil, nil)

	r.DeliverScroll(types.ScrollSample{X: 5, Y: 5})

	if len(d.events) != 0 {
		t.Fatalf("dispatched = %d; want 0", len(d.events))
	}
}

func TestDeliverScroll_UnchangedPositionCoalesced(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil, nil)
	r.SetHasScrollEvent(true)

	r.DeliverScroll(types.ScrollSample{X: 0, Y: 0})
	r.DeliverScroll(types.ScrollSample{X: 0, Y: 0})
	r.DeliverScroll(types.ScrollSample{X: 5, Y: 5, ContentHeight: 900, ViewportHeight: 300})

	if len(d.events) != 1 {
		t.Fatalf("dispatched = %d; want 1", len(d.events))
	}
	ev := d.events[0].Payload.(types.ScrollEvent)
	if ev.X != 5 || ev.Y != 5 {
		t.Fatalf("position = (%d,%d); want (5,5)", ev.X, ev.Y)
	}
	if ev.ContentHeight != 900 || ev.ViewportHeight != 300 {
		t.Fatalf("extent = %+v; want content 900 viewport 300", ev)
	}
}

func TestDeliverSizeChange_EveryChangeWhenEnabled(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil, nil)

	r.DeliverSizeChange(100, 200)
	r.SetSendContentSizeChangeEvents(true)
	r.DeliverSizeChange(100, 200)
	r.DeliverSizeChange(100, 200)

	if len(d.events) != 2 {
		t.Fatalf("dispatched = %d; want 2", len(d.events))
	}
	if got := d.events[0].Payload.(types.SizeChangeEvent); got.Width != 100 || got.Height != 200 {
		t.Fatalf("size = %+v; want 100x200", got)
	}
}

func TestDeliverCustomMenuSelection_IgnoresSink(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &fakeSink{}
	r := newTestRouter(d, sink, nil)

	r.DeliverCustomMenuSelection(types.CustomMenuSelectionEvent{Label: "B", Key: "b", SelectedText: "hello"})

	if len(sink.calls) != 0 || len(d.events) != 1 {
		t.Fatalf("direct=%d dispatched=%d; want 0 and 1", len(sink.calls), len(d.events))
	}
	if d.events[0].Kind != types.KindCustomMenuSelection {
		t.Fatalf("kind = %s; want customMenuSelection", d.events[0].Kind)
	}
}

func TestDeliverNavigation_MergesBase(t *testing.T) {
	d := &fakeDispatcher{}
	r := newTestRouter(d, nil, nil)
	r.AttachNavigation(fakeNav{url: "https://a.test/"})

	r.DeliverNavigation(types.KindLoadingProgress, map[string]any{"progress": 0.5})

	payload := d.events[0].Payload.(map[string]any)
	if payload["url"] != "https://a.test/" || payload["progress"] != 0.5 {
		t.Fatalf("payload = %v; want url and progress", payload)
	}
}

func TestDispatch_UnresolvedTagDrops(t *testing.T) {
	d := &fakeDispatcher{}
	m := metrics.New()
	r := New(Config{
		Dispatcher: d,
		Tag:        func() (int, bool) { return 0, false },
		Metrics:    m,
		Now:        time.Now,
	})

	r.DeliverMessage("x")

	if len(d.events) != 0 {
		t.Fatalf("dispatched = %d; want 0", len(d.events))
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues(metrics.DropDetached)); got != 1 {
		t.Fatalf("detached drops = %v; want 1", got)
	}
}
