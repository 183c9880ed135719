package engine

import (
	"encoding/json"
	"log/slog"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

// lifecycleProgress maps main-frame lifecycle milestones to a load
// fraction.
var lifecycleProgress = map[string]float64{
	"init":                 0.1,
	"firstPaint":           0.3,
	"DOMContentLoaded":     0.5,
	"firstContentfulPaint": 0.6,
	"load":                 0.8,
	"networkAlmostIdle":    0.9,
	"networkIdle":          1.0,
}

func (p *Page) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventBindingCalled:
		p.onBinding(e.Name, e.Payload)

	case *page.EventFrameStartedLoading:
		if e.FrameID != p.mainFrameID() {
			return
		}
		p.mu.Lock()
		url := p.pendingURL
		p.pendingURL = ""
		p.mu.Unlock()
		if fn := p.currentListener().OnLoadStart; fn != nil {
			fn(url)
		}

	case *page.EventLifecycleEvent:
		if e.FrameID != p.mainFrameID() {
			return
		}
		progress, ok := lifecycleProgress[e.Name]
		if !ok {
			return
		}
		if fn := p.currentListener().OnLoadProgress; fn != nil {
			fn(progress)
		}

	case *page.EventLoadEventFired:
		if fn := p.currentListener().OnLoadFinish; fn != nil {
			fn(p.URL())
		}
		p.history()

	case *page.EventFrameNavigated:
		if e.Frame == nil || e.Frame.ParentID != "" {
			return
		}
		p.urlChanged(e.Frame.URL)

	case *page.EventNavigatedWithinDocument:
		if e.FrameID != p.mainFrameID() {
			return
		}
		p.urlChanged(e.URL)
	}
}

func (p *Page) urlChanged(url string) {
	p.mu.Lock()
	p.lastURL = url
	p.mu.Unlock()
	if fn := p.currentListener().OnURLChanged; fn != nil {
		fn(url)
	}
	p.history()
}

func (p *Page) history() {
	if p.fetchHistory != nil {
		p.fetchHistory()
	}
}

func (p *Page) onBinding(name, payload string) {
	l := p.currentListener()
	switch name {
	case bindScroll:
		s, ok := parseScrollSample(payload)
		if ok && l.OnScroll != nil {
			l.OnScroll(s)
		}
	case bindResize:
		w, h, ok := parseSize(payload)
		if ok && l.OnSizeChange != nil {
			l.OnSizeChange(w, h)
		}
	case bindSelection:
		switch payload {
		case "start":
			if l.OnSelectionStart != nil {
				l.OnSelectionStart()
			}
		case "clear":
			if l.OnSelectionClear != nil {
				l.OnSelectionClear()
			}
		}
	case bindFullscreen:
		if l.OnFullscreen != nil {
			l.OnFullscreen(payload == "enter")
		}
	default:
		p.mu.Lock()
		fn := p.bindings[name]
		p.mu.Unlock()
		if fn == nil {
			slog.Debug("engine binding without handler", "name", name)
			return
		}
		fn(payload)
	}
}

func parseScrollSample(payload string) (types.ScrollSample, bool) {
	var s types.ScrollSample
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		slog.Debug("engine scroll sample unparsable", "error", err)
		return types.ScrollSample{}, false
	}
	return s, true
}

func parseSize(payload string) (int, int, bool) {
	var v struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		slog.Debug("engine size payload unparsable", "error", err)
		return 0, 0, false
	}
	return v.Width, v.Height, true
}
