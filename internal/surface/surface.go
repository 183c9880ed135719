// Package surface is the embeddable component. A Surface owns the bridge,
// progress gate, router and selection controller for one engine page, and
// all of its state is touched only from the UI loop.
package surface

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgnsrekt/surfacebridge/internal/bridge"
	"github.com/dgnsrekt/surfacebridge/internal/engine"
	"github.com/dgnsrekt/surfacebridge/internal/metrics"
	"github.com/dgnsrekt/surfacebridge/internal/progress"
	"github.com/dgnsrekt/surfacebridge/internal/router"
	"github.com/dgnsrekt/surfacebridge/internal/selection"
	"github.com/dgnsrekt/surfacebridge/internal/types"
	"github.com/dgnsrekt/surfacebridge/internal/uiloop"
	"github.com/dgnsrekt/surfacebridge/internal/viewtree"
)

// DefaultPrintCommand is the message payload content script sends to
// request a print.
const DefaultPrintCommand = "android-print"

const printTimeout = 60 * time.Second

// Engine is the rendering engine page a surface drives.
type Engine interface {
	bridge.Conn
	Navigate(url string)
	SetListener(l engine.Listener)
	SetNestedScroll(enabled bool) error
	ExitFullscreen(ctx context.Context) error
	PrintPDF(ctx context.Context) ([]byte, error)
	Close()
}

// Printer stores a rendered document. It is called off the UI loop.
type Printer interface {
	SavePDF(surfaceTag int, url, title string, pdf []byte) (string, error)
}

// State is the surface lifecycle.
type State int

const (
	Constructed State = iota
	Attached
	Destroyed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Attached:
		return "attached"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Config wires a surface to its host.
type Config struct {
	Loop     *uiloop.Loop
	Engine   Engine
	Registry *viewtree.Registry[*Surface]

	Dispatcher router.Dispatcher
	// Sink looks up the direct-call channel for a module on every message.
	Sink       func(module string) router.MessageSink
	ModuleName string

	Printer      Printer
	PrintCommand string

	SelectionTimeout time.Duration
	Metrics          *metrics.Metrics
}

// Info is a snapshot of a surface for the host.
type Info struct {
	Tag              int     `json:"tag"`
	State            string  `json:"state"`
	URL              string  `json:"url"`
	Title            string  `json:"title"`
	Loading          bool    `json:"loading"`
	Progress         float64 `json:"progress"`
	CanGoBack        bool    `json:"canGoBack"`
	CanGoForward     bool    `json:"canGoForward"`
	MessagingEnabled bool    `json:"messagingEnabled"`
	HasScrollEvent   bool    `json:"hasScrollEvent"`
	SendSizeEvents   bool    `json:"sendContentSizeChangeEvents"`
	NestedScroll     bool    `json:"nestedScrollEnabled"`
	WaitingForLoad   bool    `json:"waitingForLoad"`
	Fullscreen       bool    `json:"fullscreen"`
}

// Surface is one embedded content surface.
type Surface struct {
	cfg   Config
	state State
	tag   int

	bridge    *bridge.Bridge
	gate      *progress.Gate
	router    *router.Router
	selection *selection.Controller
	nav       *navigationState
	overlay   fullscreenOverlay

	nestedScroll     bool
	injectedJS       string
	beforeLoadJS     string
	beforeLoadScript string
}

// New constructs a surface on the UI loop. The bridge exists from here on
// even while messaging is disabled.
func New(cfg Config) *Surface {
	if cfg.PrintCommand == "" {
		cfg.PrintCommand = DefaultPrintCommand
	}
	s := &Surface{
		cfg:  cfg,
		gate: progress.New(),
		nav:  &navigationState{},
	}

	s.bridge = bridge.New(func(payload string) {
		s.post(func() { s.router.DeliverMessage(payload) })
	})

	s.router = router.New(router.Config{
		ModuleName: cfg.ModuleName,
		Sink:       s.sink,
		Dispatcher: cfg.Dispatcher,
		Tag:        s.resolveTag,
		Metrics:    cfg.Metrics,
	})
	s.router.Reserved().Register(cfg.PrintCommand, s.onPrintRequested)

	s.selection = selection.New(selection.Config{
		Evaluator: cfg.Engine,
		Post:      cfg.Loop.Post,
		Deliver:   s.router.DeliverCustomMenuSelection,
		OnFinish: func() {
			slog.Debug("surface action mode finished", "tag", s.tag)
		},
		Timeout: cfg.SelectionTimeout,
		Metrics: cfg.Metrics,
	})

	return s
}

// Attach registers the surface with the view tree and starts listening to
// the engine.
func (s *Surface) Attach() error {
	switch s.state {
	case Destroyed:
		return errDestroyed()
	case Attached:
		return nil
	}

	s.tag = s.cfg.Registry.Register(s)
	s.nav.target = s.tag
	s.router.AttachNavigation(s.nav)
	s.cfg.Engine.SetListener(s.listener())
	s.state = Attached
	s.cfg.Metrics.SurfaceAttached()

	if err := s.bridge.Connect(s.cfg.Engine); err != nil {
		slog.Warn("surface bridge connect failed", "tag", s.tag, "error", err)
	}

	slog.Info("surface attached", "tag", s.tag, "module", s.cfg.ModuleName)
	return nil
}

func (s *Surface) Tag() int { return s.tag }

func (s *Surface) State() State { return s.state }

// Bridge exposes the message bridge for content-side wiring and tests.
func (s *Surface) Bridge() *bridge.Bridge { return s.bridge }

func (s *Surface) ProgressGate() *progress.Gate { return s.gate }

func (s *Surface) SetMessagingEnabled(enabled bool) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if !s.bridge.SetEnabled(enabled) {
		return nil
	}
	slog.Info("surface messaging toggled", "tag", s.tag, "enabled", enabled)
	if enabled {
		if err := s.bridge.Connect(s.cfg.Engine); err != nil {
			return types.NewError(types.CodeEngineUnavailable, "connect bridge", err)
		}
	}
	return nil
}

func (s *Surface) SetInjectedObjectJSON(v string) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if err := s.bridge.SetInjectedObjectJSON(v); err != nil {
		return types.NewError(types.CodeEngineUnavailable, "publish injected object", err)
	}
	return nil
}

func (s *Surface) ClearInjectedObjectJSON() error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if err := s.bridge.ClearInjectedObjectJSON(); err != nil {
		return types.NewError(types.CodeEngineUnavailable, "publish injected object", err)
	}
	return nil
}

// SetMenuCustomItems replaces the custom selection menu.
func (s *Surface) SetMenuCustomItems(items []types.MenuItem) ([]selection.Entry, error) {
	if s.state == Destroyed {
		return nil, errDestroyed()
	}
	for _, item := range items {
		if strings.TrimSpace(item.Label) == "" || strings.TrimSpace(item.Key) == "" {
			return nil, types.NewError(types.CodeValidation, "menu item label and key are required", nil)
		}
	}
	return s.selection.SetItems(items), nil
}

func (s *Surface) SetSendContentSizeChangeEvents(enabled bool) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	s.router.SetSendContentSizeChangeEvents(enabled)
	return nil
}

func (s *Surface) SetHasScrollEvent(enabled bool) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	s.router.SetHasScrollEvent(enabled)
	return nil
}

func (s *Surface) SetNestedScrollEnabled(enabled bool) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if s.nestedScroll == enabled {
		return nil
	}
	if err := s.cfg.Engine.SetNestedScroll(enabled); err != nil {
		return types.NewError(types.CodeEngineUnavailable, "set nested scroll", err)
	}
	s.nestedScroll = enabled
	return nil
}

// LoadURL arms the progress gate and starts navigating.
func (s *Surface) LoadURL(url string) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if strings.TrimSpace(url) == "" {
		return types.NewError(types.CodeValidation, "url is required", nil)
	}
	s.gate.SetWaitingForCommandLoadURL(true)
	s.cfg.Engine.Navigate(url)
	slog.Info("surface load url", "tag", s.tag, "url", url)
	return nil
}

// InjectJavaScript evaluates script once in the current document.
func (s *Surface) InjectJavaScript(script string) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if strings.TrimSpace(script) == "" {
		return types.NewError(types.CodeValidation, "script is required", nil)
	}
	s.cfg.Engine.Evaluate(script, nil)
	return nil
}

// SetInjectedJavaScript sets the script evaluated after every load.
func (s *Surface) SetInjectedJavaScript(script string) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	s.injectedJS = script
	return nil
}

// SetInjectedJavaScriptBeforeContentLoaded sets the script run at the
// start of every new document.
func (s *Surface) SetInjectedJavaScriptBeforeContentLoaded(script string) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	if script == s.beforeLoadJS {
		return nil
	}
	if err := s.cfg.Engine.RemoveScriptOnNewDocument(s.beforeLoadScript); err != nil {
		return types.NewError(types.CodeEngineUnavailable, "remove new document script", err)
	}
	s.beforeLoadScript = ""
	s.beforeLoadJS = ""
	if script == "" {
		return nil
	}
	id, err := s.cfg.Engine.AddScriptOnNewDocument(script)
	if err != nil {
		return types.NewError(types.CodeEngineUnavailable, "add new document script", err)
	}
	s.beforeLoadScript = id
	s.beforeLoadJS = script
	return nil
}

// StartActionMode opens the selection menu as the engine does when the
// user selects text.
func (s *Surface) StartActionMode() (selection.Snapshot, error) {
	if s.state == Destroyed {
		return selection.Snapshot{}, errDestroyed()
	}
	s.selection.Start()
	return s.selection.Snapshot(), nil
}

func (s *Surface) ActionMode() (selection.Snapshot, error) {
	if s.state == Destroyed {
		return selection.Snapshot{}, errDestroyed()
	}
	return s.selection.Snapshot(), nil
}

func (s *Surface) ClickMenuItem(id string) error {
	if s.state == Destroyed {
		return errDestroyed()
	}
	return s.selection.Click(id)
}

func (s *Surface) Info() Info {
	return Info{
		Tag:              s.tag,
		State:            s.state.String(),
		URL:              s.nav.url,
		Title:            s.nav.title,
		Loading:          s.nav.loading,
		Progress:         s.nav.progress,
		CanGoBack:        s.nav.canGoBack,
		CanGoForward:     s.nav.canGoForward,
		MessagingEnabled: s.bridge.Enabled(),
		HasScrollEvent:   s.router.HasScrollEvent(),
		SendSizeEvents:   s.router.SendsContentSizeChangeEvents(),
		NestedScroll:     s.nestedScroll,
		WaitingForLoad:   s.gate.IsWaitingForCommandLoadURL(),
		Fullscreen:       s.overlay.active,
	}
}

// Destroy detaches every delivery target, closes an active fullscreen
// overlay and then releases the engine page. Later calls are no-ops.
func (s *Surface) Destroy(ctx context.Context) {
	if s.state == Destroyed {
		return
	}
	wasAttached := s.state == Attached
	s.state = Destroyed

	s.router.Detach()
	s.selection.Destroy()
	s.cfg.Engine.SetListener(engine.Listener{})
	if wasAttached {
		s.cfg.Registry.Unregister(s.tag)
	}

	s.overlay.close(ctx, s.cfg.Engine, s.tag)
	s.cfg.Engine.Close()

	if wasAttached {
		s.cfg.Metrics.SurfaceDestroyed()
	}
	slog.Info("surface destroyed", "tag", s.tag)
}

// post hops fn onto the UI loop and drops it if the surface has been
// destroyed by the time it runs.
func (s *Surface) post(fn func()) {
	s.cfg.Loop.Post(func() {
		if s.state == Destroyed {
			s.cfg.Metrics.Drop(metrics.DropDetached)
			return
		}
		fn()
	})
}

func (s *Surface) sink() router.MessageSink {
	if s.cfg.Sink == nil {
		return nil
	}
	return s.cfg.Sink(s.cfg.ModuleName)
}

func (s *Surface) resolveTag() (int, bool) {
	return s.tag, s.state == Attached
}

func (s *Surface) listener() engine.Listener {
	return engine.Listener{
		OnLoadStart: func(url string) {
			s.post(func() { s.onLoadStart(url) })
		},
		OnLoadProgress: func(p float64) {
			s.post(func() { s.onLoadProgress(p) })
		},
		OnURLChanged: func(url string) {
			s.post(func() { s.onURLChanged(url) })
		},
		OnHistory: func(h engine.History) {
			s.post(func() { s.onHistory(h) })
		},
		OnLoadFinish: func(url string) {
			s.post(func() { s.onLoadFinish(url) })
		},
		OnScroll: func(sample types.ScrollSample) {
			s.post(func() { s.router.DeliverScroll(sample) })
		},
		OnSizeChange: func(w, h int) {
			s.post(func() { s.router.DeliverSizeChange(w, h) })
		},
		OnSelectionStart: func() {
			s.post(func() { s.selection.Start() })
		},
		OnSelectionClear: func() {
			s.post(func() { s.selection.End() })
		},
		OnFullscreen: func(active bool) {
			s.post(func() { s.overlay.set(active) })
		},
	}
}

func (s *Surface) onLoadStart(url string) {
	s.gate.SetWaitingForCommandLoadURL(false)
	s.nav.loading = true
	s.nav.progress = 0
	if url != "" {
		s.nav.url = url
	}
	s.router.DeliverNavigation(types.KindLoadingStart, nil)
}

func (s *Surface) onLoadProgress(p float64) {
	if s.stale("progress") {
		return
	}
	s.nav.progress = p
	s.router.DeliverNavigation(types.KindLoadingProgress, map[string]any{"progress": p})
}

func (s *Surface) onURLChanged(url string) {
	if s.stale("url") {
		return
	}
	s.nav.url = url
}

func (s *Surface) onHistory(h engine.History) {
	if s.stale("history") {
		return
	}
	s.nav.applyHistory(h)
}

func (s *Surface) onLoadFinish(url string) {
	if s.stale("finish") {
		return
	}
	s.nav.loading = false
	s.nav.progress = 1
	if url != "" {
		s.nav.url = url
	}
	if s.injectedJS != "" {
		s.cfg.Engine.Evaluate(s.injectedJS, nil)
	}
	s.router.DeliverNavigation(types.KindLoadingFinish, nil)
}

// stale reports whether a navigation signal belongs to the page that was
// showing before an outstanding LoadURL.
func (s *Surface) stale(signal string) bool {
	if !s.gate.IsWaitingForCommandLoadURL() {
		return false
	}
	slog.Debug("surface stale navigation signal suppressed", "tag", s.tag, "signal", signal)
	s.cfg.Metrics.Drop(metrics.DropStale)
	return true
}

func (s *Surface) onPrintRequested(string) {
	printer := s.cfg.Printer
	if printer == nil {
		slog.Warn("surface print requested without a printer", "tag", s.tag)
		return
	}
	eng := s.cfg.Engine
	tag, url, title := s.tag, s.nav.url, s.nav.title

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), printTimeout)
		defer cancel()
		pdf, err := eng.PrintPDF(ctx)
		if err != nil {
			slog.Error("surface print failed", "tag", tag, "error", err)
			return
		}
		id, err := printer.SavePDF(tag, url, title, pdf)
		if err != nil {
			slog.Error("surface print save failed", "tag", tag, "error", err)
			return
		}
		slog.Info("surface print saved", "tag", tag, "print_id", id, "bytes", len(pdf))
	}()
}

func errDestroyed() error {
	return types.NewError(types.CodeSurfaceDestroyed, "surface destroyed", nil)
}
