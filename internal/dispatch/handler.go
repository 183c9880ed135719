package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

// Filter selects events by target tag and kind. Empty sets match all.
type Filter struct {
	Targets map[int]bool
	Kinds   map[types.EventKind]bool
}

func (f Filter) Match(ev types.Event) bool {
	if len(f.Targets) > 0 && !f.Targets[ev.Target] {
		return false
	}
	if len(f.Kinds) > 0 && !f.Kinds[ev.Kind] {
		return false
	}
	return true
}

// ParseFilter reads ?targets=1,2 and ?kinds=message,scroll.
func ParseFilter(targets, kinds string) (Filter, error) {
	var f Filter
	for _, s := range splitList(targets) {
		tag, err := strconv.Atoi(s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid target %q", s)
		}
		if f.Targets == nil {
			f.Targets = make(map[int]bool)
		}
		f.Targets[tag] = true
	}
	for _, s := range splitList(kinds) {
		if f.Kinds == nil {
			f.Kinds = make(map[types.EventKind]bool)
		}
		f.Kinds[types.EventKind(s)] = true
	}
	return f, nil
}

func splitList(q string) []string {
	var out []string
	for _, s := range strings.Split(q, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SSEHandler streams dispatched events as SSE.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		q := r.URL.Query()
		filter, err := ParseFilter(q.Get("targets"), q.Get("kinds"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if !filter.Match(ev) {
					continue
				}
				data, err := json.Marshal(ev)
				if err != nil {
					slog.Error("dispatch event marshal failed", "seq", ev.Seq, "error", err)
					continue
				}
				fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Kind, data)
				flusher.Flush()
			}
		}
	}
}
