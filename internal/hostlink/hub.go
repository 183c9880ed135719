// Package hostlink is the direct-call channel into named host modules.
// A host module connects over WebSocket and receives every call as a
// JSON frame, in call order.
package hostlink

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/dgnsrekt/surfacebridge/internal/metrics"
)

const linkBacklog = 1024

var (
	errLinkClosed = errors.New("hostlink: link closed")
	errLinkFull   = errors.New("hostlink: backlog full")
)

// Frame is what a host module receives for one call.
type Frame struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Hub tracks one live link per module name.
type Hub struct {
	mu      sync.RWMutex
	links   map[string]*Link
	metrics *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{links: make(map[string]*Link), metrics: m}
}

// Sink returns the live link for module, or nil.
func (h *Hub) Sink(module string) *Link {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.links[module]
}

// Modules lists connected module names.
func (h *Hub) Modules() []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.links))
	for name := range h.links {
		out = append(out, name)
	}
	h.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Handler upgrades GET ?module=NAME to a WebSocket link. A second
// connection for the same module replaces the first.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module := r.URL.Query().Get("module")
		if module == "" {
			http.Error(w, "module query parameter is required", http.StatusBadRequest)
			return
		}

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Warn("hostlink upgrade failed", "module", module, "error", err)
			return
		}

		link := newLink(module, conn)
		h.register(link)
		go link.writeLoop()

		link.readLoop()
		h.unregister(link)
		link.Close()
	}
}

// Close drops every link.
func (h *Hub) Close() {
	h.mu.Lock()
	links := h.links
	h.links = make(map[string]*Link)
	h.mu.Unlock()

	for _, l := range links {
		l.Close()
		h.metrics.HostLinkChanged(-1)
	}
}

func (h *Hub) register(l *Link) {
	h.mu.Lock()
	old := h.links[l.module]
	h.links[l.module] = l
	h.mu.Unlock()

	if old != nil {
		old.Close()
	} else {
		h.metrics.HostLinkChanged(1)
	}
	slog.Info("hostlink connected", "module", l.module, "replaced", old != nil)
}

func (h *Hub) unregister(l *Link) {
	h.mu.Lock()
	current := h.links[l.module] == l
	if current {
		delete(h.links, l.module)
	}
	h.mu.Unlock()

	if current {
		h.metrics.HostLinkChanged(-1)
		slog.Info("hostlink disconnected", "module", l.module)
	}
}

// Link is one connected host module.
type Link struct {
	module string
	conn   net.Conn
	out    chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newLink(module string, conn net.Conn) *Link {
	return &Link{
		module: module,
		conn:   conn,
		out:    make(chan []byte, linkBacklog),
		done:   make(chan struct{}),
	}
}

func (l *Link) Module() string { return l.module }

// CallFunction queues a call frame. It never blocks; frames are written
// in the order they were queued.
func (l *Link) CallFunction(module, method string, args []any) error {
	data, err := json.Marshal(Frame{Module: module, Method: method, Args: args})
	if err != nil {
		return fmt.Errorf("hostlink: marshal call: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errLinkClosed
	}
	select {
	case l.out <- data:
		return nil
	default:
		return errLinkFull
	}
}

// Close shuts the connection. It is safe to call more than once.
func (l *Link) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.done)
	l.mu.Unlock()
	l.conn.Close()
}

func (l *Link) writeLoop() {
	for {
		select {
		case data := <-l.out:
			if err := wsutil.WriteServerText(l.conn, data); err != nil {
				slog.Debug("hostlink write failed", "module", l.module, "error", err)
				l.Close()
				return
			}
		case <-l.done:
			return
		}
	}
}

// readLoop consumes client frames until the connection ends. Control
// frames are answered by wsutil.
func (l *Link) readLoop() {
	for {
		data, op, err := wsutil.ReadClientData(l.conn)
		if err != nil {
			slog.Debug("hostlink read loop exit", "module", l.module, "error", err)
			return
		}
		if op == ws.OpText {
			slog.Debug("hostlink frame from host", "module", l.module, "bytes", len(data))
		}
	}
}
