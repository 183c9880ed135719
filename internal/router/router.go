// Package router is the single chokepoint for delivering surface signals
// to the host. It picks between the direct-call path and the generic
// tagged-event path and coalesces scroll samples.
package router

import (
	"log/slog"
	"time"

	"github.com/dgnsrekt/surfacebridge/internal/metrics"
	"github.com/dgnsrekt/surfacebridge/internal/types"
)

// MessageSink is a live cross-context call facility into a named host
// module. Calls are fire-and-forget and ordered per sink.
type MessageSink interface {
	CallFunction(module, method string, args []any) error
}

// Dispatcher is the host's generic tagged-event queue.
type Dispatcher interface {
	Dispatch(ev types.Event)
}

// Navigation builds a fresh event base describing the current navigation
// state (url, title, history flags).
type Navigation interface {
	EventBase() map[string]any
}

// Config holds the router's injected collaborators.
type Config struct {
	// ModuleName is the host module targeted by direct calls. Empty
	// disables the direct path.
	ModuleName string
	// Sink is consulted on every message; a nil return selects the
	// generic path.
	Sink func() MessageSink
	// Dispatcher receives generic tagged events.
	Dispatcher Dispatcher
	// Tag resolves the surface's stable identifier.
	Tag     func() (int, bool)
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Router is owned by one surface and used only from its UI loop.
type Router struct {
	cfg      Config
	nav      Navigation
	reserved *ReservedCommands
	scroll   *ScrollDispatchHelper

	hasScrollEvent bool
	sendSizeEvents bool
	detached       bool
}

func New(cfg Config) *Router {
	return &Router{
		cfg:      cfg,
		reserved: NewReservedCommands(),
		scroll:   NewScrollDispatchHelper(cfg.Now),
	}
}

func (r *Router) Reserved() *ReservedCommands { return r.reserved }

// AttachNavigation sets the navigation-state collaborator. nil detaches it.
func (r *Router) AttachNavigation(nav Navigation) { r.nav = nav }

func (r *Router) SetHasScrollEvent(enabled bool) { r.hasScrollEvent = enabled }

func (r *Router) HasScrollEvent() bool { return r.hasScrollEvent }

func (r *Router) SetSendContentSizeChangeEvents(enabled bool) { r.sendSizeEvents = enabled }

func (r *Router) SendsContentSizeChangeEvents() bool { return r.sendSizeEvents }

// Detach unregisters every delivery target. Later deliveries are dropped.
func (r *Router) Detach() {
	r.detached = true
	r.nav = nil
}

func (r *Router) Detached() bool { return r.detached }

// DeliverMessage routes one content message through exactly one path and
// then runs a matching reserved command, if any.
func (r *Router) DeliverMessage(payload string) {
	if r.detached {
		r.drop(types.KindMessage, metrics.DropDetached)
		return
	}

	event := r.eventBase()
	event["data"] = payload

	if sink := r.sink(); sink != nil {
		r.callDirect(sink, "onMessage", types.KindMessage, event)
	} else {
		r.dispatch(types.KindMessage, event)
	}

	if fn, ok := r.reserved.Lookup(payload); ok {
		slog.Info("router reserved command matched", "command", payload)
		fn(payload)
	}
}

// DeliverScroll dispatches a scroll event when reporting is enabled and
// the position changed since the last sample.
func (r *Router) DeliverScroll(s types.ScrollSample) {
	if r.detached {
		r.drop(types.KindScroll, metrics.DropDetached)
		return
	}
	if !r.hasScrollEvent {
		return
	}
	if !r.scroll.OnScrollChanged(s.X, s.Y) {
		r.cfg.Metrics.Drop(metrics.DropUnchanged)
		return
	}
	r.dispatch(types.KindScroll, types.ScrollEvent{
		X:              s.X,
		Y:              s.Y,
		VelocityX:      r.scroll.XFlingVelocity(),
		VelocityY:      r.scroll.YFlingVelocity(),
		ContentWidth:   s.ContentWidth,
		ContentHeight:  s.ContentHeight,
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
	})
}

// DeliverSizeChange dispatches every size change while reporting is on.
func (r *Router) DeliverSizeChange(width, height int) {
	if r.detached {
		r.drop(types.KindSizeChange, metrics.DropDetached)
		return
	}
	if !r.sendSizeEvents {
		return
	}
	r.dispatch(types.KindSizeChange, types.SizeChangeEvent{Width: width, Height: height})
}

// DeliverCustomMenuSelection always uses the generic path.
func (r *Router) DeliverCustomMenuSelection(ev types.CustomMenuSelectionEvent) {
	if r.detached {
		r.drop(types.KindCustomMenuSelection, metrics.DropDetached)
		return
	}
	r.dispatch(types.KindCustomMenuSelection, ev)
}

// DeliverNavigation dispatches a loading event with the navigation base
// merged under extra.
func (r *Router) DeliverNavigation(kind types.EventKind, extra map[string]any) {
	if r.detached {
		r.drop(kind, metrics.DropDetached)
		return
	}
	event := r.eventBase()
	for k, v := range extra {
		event[k] = v
	}
	r.dispatch(kind, event)
}

func (r *Router) eventBase() map[string]any {
	if r.nav == nil {
		return map[string]any{}
	}
	base := r.nav.EventBase()
	if base == nil {
		return map[string]any{}
	}
	return base
}

func (r *Router) sink() MessageSink {
	if r.cfg.ModuleName == "" || r.cfg.Sink == nil {
		return nil
	}
	return r.cfg.Sink()
}

func (r *Router) callDirect(sink MessageSink, method string, kind types.EventKind, payload map[string]any) {
	args := []any{map[string]any{"nativeEvent": payload}}
	if err := sink.CallFunction(r.cfg.ModuleName, method, args); err != nil {
		slog.Warn("router direct call failed",
			"module", r.cfg.ModuleName, "method", method, "kind", kind, "error", err)
		r.cfg.Metrics.Drop(metrics.DropSinkError)
		return
	}
	r.cfg.Metrics.Delivered(string(kind), metrics.PathDirect)
}

func (r *Router) dispatch(kind types.EventKind, payload any) {
	if r.cfg.Dispatcher == nil || r.cfg.Tag == nil {
		r.drop(kind, metrics.DropDetached)
		return
	}
	tag, ok := r.cfg.Tag()
	if !ok {
		r.drop(kind, metrics.DropDetached)
		return
	}
	r.cfg.Dispatcher.Dispatch(types.Event{Kind: kind, Target: tag, Payload: payload})
	r.cfg.Metrics.Delivered(string(kind), metrics.PathDispatch)
}

func (r *Router) drop(kind types.EventKind, reason string) {
	slog.Debug("router delivery dropped", "kind", kind, "reason", reason)
	r.cfg.Metrics.Drop(reason)
}
