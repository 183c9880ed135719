// Package engine adapts a Chromium tab driven through chromedp into the
// rendering engine a surface embeds.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/surfacebridge/internal/types"
	"github.com/dgnsrekt/surfacebridge/internal/uiloop"
)

const exitFullscreenTimeout = 2 * time.Second

// History describes the main frame's navigation state.
type History struct {
	URL          string
	Title        string
	CanGoBack    bool
	CanGoForward bool
}

// Listener receives raw engine signals. Callbacks run on engine
// goroutines and must not block.
type Listener struct {
	OnLoadStart      func(url string)
	OnLoadProgress   func(progress float64)
	OnLoadFinish     func(url string)
	OnURLChanged     func(url string)
	OnHistory        func(h History)
	OnScroll         func(s types.ScrollSample)
	OnSizeChange     func(width, height int)
	OnSelectionStart func()
	OnSelectionClear func()
	OnFullscreen     func(active bool)
}

// Allocator connects to a running Chromium over CDP.
type Allocator struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRemoteAllocator prepares a connection to cdpURL. Nothing is dialled
// until the first page is opened.
func NewRemoteAllocator(cdpURL string) *Allocator {
	ctx, cancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	return &Allocator{ctx: ctx, cancel: cancel}
}

// Open creates a new tab with the engine bootstrap installed.
func (a *Allocator) Open(ctx context.Context) (*Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(a.ctx)
	p, err := newPage(tabCtx, tabCancel)
	if err != nil {
		tabCancel()
		return nil, types.NewError(types.CodeEngineUnavailable, "failed to create evaluation queue", err)
	}
	p.evals.Start()
	p.fetchHistory = p.refreshHistory
	chromedp.ListenTarget(tabCtx, p.handleEvent)

	setup := chromedp.ActionFunc(func(ctx context.Context) error {
		if err := page.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable page domain: %w", err)
		}
		if err := runtime.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable runtime domain: %w", err)
		}
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}
		for _, name := range privateBindings {
			if err := runtime.AddBinding(name).Do(ctx); err != nil {
				return fmt.Errorf("add binding %s: %w", name, err)
			}
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(bootstrapJS).Do(ctx); err != nil {
			return fmt.Errorf("install bootstrap: %w", err)
		}
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return fmt.Errorf("get frame tree: %w", err)
		}
		p.setMainFrame(tree.Frame.ID)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tabCtx, setup, chromedp.Evaluate(bootstrapJS, nil)) }()
	select {
	case err := <-done:
		if err != nil {
			p.Close()
			return nil, types.NewError(types.CodeEngineUnavailable, "failed to open tab", err)
		}
	case <-ctx.Done():
		p.Close()
		return nil, ctx.Err()
	}

	slog.Info("engine tab opened", "main_frame", p.mainFrameID())
	return p, nil
}

// Close releases the connection and every tab opened through it.
func (a *Allocator) Close() {
	a.cancel()
}

// Page is one Chromium tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc

	// evals serializes script evaluations in submission order.
	evals *uiloop.Loop

	mu         sync.Mutex
	listener   Listener
	bindings   map[string]func(string)
	mainFrame  cdp.FrameID
	lastURL    string
	pendingURL string
	nestedID   page.ScriptIdentifier

	fetchHistory func()
	closed       atomic.Bool
}

func newPage(ctx context.Context, cancel context.CancelFunc) (*Page, error) {
	evals, err := uiloop.New()
	if err != nil {
		return nil, err
	}
	return &Page{
		ctx:      ctx,
		cancel:   cancel,
		evals:    evals,
		bindings: make(map[string]func(string)),
	}, nil
}

func (p *Page) SetListener(l Listener) {
	p.mu.Lock()
	p.listener = l
	p.mu.Unlock()
}

func (p *Page) currentListener() Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listener
}

func (p *Page) setMainFrame(id cdp.FrameID) {
	p.mu.Lock()
	p.mainFrame = id
	p.mu.Unlock()
}

func (p *Page) mainFrameID() cdp.FrameID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mainFrame
}

// URL returns the last committed main-frame URL.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastURL
}

// ExposeBinding makes window[name](string) call fn in every document.
func (p *Page) ExposeBinding(name string, fn func(payload string)) error {
	if p.closed.Load() {
		return types.NewError(types.CodeEngineUnavailable, "page closed", nil)
	}
	p.mu.Lock()
	p.bindings[name] = fn
	p.mu.Unlock()
	if err := chromedp.Run(p.ctx, runtime.AddBinding(name)); err != nil {
		return types.NewError(types.CodeEngineUnavailable, "add binding", err)
	}
	return nil
}

// AddScriptOnNewDocument registers script to run before any page script.
func (p *Page) AddScriptOnNewDocument(script string) (string, error) {
	if p.closed.Load() {
		return "", types.NewError(types.CodeEngineUnavailable, "page closed", nil)
	}
	var id page.ScriptIdentifier
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		id, err = page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))
	if err != nil {
		return "", types.NewError(types.CodeEngineUnavailable, "add new document script", err)
	}
	return string(id), nil
}

func (p *Page) RemoveScriptOnNewDocument(id string) error {
	if id == "" || p.closed.Load() {
		return nil
	}
	if err := chromedp.Run(p.ctx, page.RemoveScriptToEvaluateOnNewDocument(page.ScriptIdentifier(id))); err != nil {
		return types.NewError(types.CodeEngineUnavailable, "remove new document script", err)
	}
	return nil
}

// Evaluate queues script behind earlier evaluations. done, when non-nil,
// receives the JSON encoded result on the evaluation goroutine.
func (p *Page) Evaluate(script string, done func(result string, err error)) {
	queued := p.evals.Post(func() {
		if done == nil {
			if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, nil)); err != nil {
				slog.Warn("engine evaluate failed", "error", err)
			}
			return
		}
		var res []byte
		if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &res)); err != nil {
			done("", types.NewError(types.CodeEvalFailure, "evaluate", err))
			return
		}
		done(string(res), nil)
	})
	if !queued && done != nil {
		done("", types.NewError(types.CodeEngineUnavailable, "page closed", nil))
	}
}

// Navigate starts loading url and returns without waiting.
func (p *Page) Navigate(url string) {
	if p.closed.Load() {
		return
	}
	p.mu.Lock()
	p.pendingURL = url
	p.mu.Unlock()

	go func() {
		if err := chromedp.Run(p.ctx, chromedp.Navigate(url)); err != nil && !p.closed.Load() {
			slog.Warn("engine navigate failed", "url", url, "error", err)
		}
	}()
}

// PrintPDF renders the current document.
func (p *Page) PrintPDF(ctx context.Context) ([]byte, error) {
	if p.closed.Load() {
		return nil, types.NewError(types.CodeEngineUnavailable, "page closed", nil)
	}
	var data []byte
	err := runWithin(ctx, p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		data, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, types.NewError(types.CodeEngineUnavailable, "print to pdf", err)
	}
	return data, nil
}

// ExitFullscreen forces an active fullscreen element closed.
func (p *Page) ExitFullscreen(ctx context.Context) error {
	if p.closed.Load() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, exitFullscreenTimeout)
	defer cancel()
	var exited bool
	if err := runWithin(ctx, p.ctx, chromedp.Evaluate(exitFullscreenJS, &exited)); err != nil {
		return types.NewError(types.CodeEvalFailure, "exit fullscreen", err)
	}
	slog.Debug("engine exit fullscreen", "exited", exited)
	return nil
}

// SetNestedScroll contains overscroll inside the document so an
// enclosing scroller does not take over the gesture.
func (p *Page) SetNestedScroll(enabled bool) error {
	script := nestedScrollJS(enabled)

	p.mu.Lock()
	old := p.nestedID
	p.mu.Unlock()
	if err := p.RemoveScriptOnNewDocument(string(old)); err != nil {
		return err
	}
	p.mu.Lock()
	if p.nestedID == old {
		p.nestedID = ""
	}
	p.mu.Unlock()
	id, err := p.AddScriptOnNewDocument(script)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.nestedID = page.ScriptIdentifier(id)
	p.mu.Unlock()
	p.Evaluate(script, nil)
	return nil
}

// Close releases the tab. It is safe to call more than once.
func (p *Page) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	p.evals.Stop()
	slog.Info("engine tab closed", "url", p.URL())
}

func (p *Page) refreshHistory() {
	if p.closed.Load() {
		return
	}
	go func() {
		var (
			index   int64
			entries []*page.NavigationEntry
		)
		err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			index, entries, err = page.GetNavigationHistory().Do(ctx)
			return err
		}))
		if err != nil {
			if !p.closed.Load() {
				slog.Debug("engine history lookup failed", "error", err)
			}
			return
		}
		if fn := p.currentListener().OnHistory; fn != nil {
			fn(historyFromEntries(index, entries))
		}
	}()
}

// runWithin runs actions on the page while honouring the caller's ctx.
func runWithin(ctx, pageCtx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(pageCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func historyFromEntries(index int64, entries []*page.NavigationEntry) History {
	h := History{
		CanGoBack:    index > 0,
		CanGoForward: index >= 0 && int(index) < len(entries)-1,
	}
	if index >= 0 && int(index) < len(entries) && entries[index] != nil {
		h.URL = entries[index].URL
		h.Title = entries[index].Title
	}
	return h
}
