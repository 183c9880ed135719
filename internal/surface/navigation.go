package surface

import "github.com/dgnsrekt/surfacebridge/internal/engine"

// navigationState tracks what the host is told about the current page.
// It is owned by the UI loop.
type navigationState struct {
	target       int
	url          string
	title        string
	loading      bool
	progress     float64
	canGoBack    bool
	canGoForward bool
}

// EventBase returns a fresh map so callers may add fields freely.
func (n *navigationState) EventBase() map[string]any {
	return map[string]any{
		"target":       n.target,
		"url":          n.url,
		"title":        n.title,
		"loading":      n.loading,
		"canGoBack":    n.canGoBack,
		"canGoForward": n.canGoForward,
	}
}

func (n *navigationState) applyHistory(h engine.History) {
	if h.URL != "" {
		n.url = h.URL
	}
	n.title = h.Title
	n.canGoBack = h.CanGoBack
	n.canGoForward = h.CanGoForward
}
