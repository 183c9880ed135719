// Package bridge implements the named channel through which content
// scripts post string messages to the host and read host provided state.
package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// InterfaceName is the global the content context sees.
const InterfaceName = "ReactNativeWebView"

const (
	bindingName     = "__ReactNativeWebViewPostMessage"
	injectedSlotVar = "__ReactNativeWebViewInjectedObject"
)

// Conn is the content side of the bridge, implemented by the engine.
type Conn interface {
	ExposeBinding(name string, fn func(payload string)) error
	AddScriptOnNewDocument(script string) (string, error)
	RemoveScriptOnNewDocument(id string) error
	Evaluate(script string, done func(result string, err error))
}

// Bridge receives postMessage calls from content script. PostMessage and
// InjectedObjectJSON may run on engine goroutines; every other method is
// called from the UI loop.
type Bridge struct {
	deliver func(payload string)

	enabled  atomic.Bool
	injected atomic.Pointer[string]

	mu             sync.Mutex
	conn           Conn
	injectedScript string
}

// New creates a bridge that hands enabled messages to deliver. deliver is
// responsible for moving onto the UI loop.
func New(deliver func(payload string)) *Bridge {
	return &Bridge{deliver: deliver}
}

// PostMessage is the entry point content script calls. It never panics
// back into the engine.
func (b *Bridge) PostMessage(payload string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bridge postMessage handler panicked", "panic", fmt.Sprint(r))
		}
	}()

	if !b.enabled.Load() {
		slog.Warn("bridge postMessage called but messaging is disabled, pass an onMessage handler to enable it",
			"interface", InterfaceName)
		return
	}
	b.deliver(payload)
}

// InjectedObjectJSON returns the current slot value; ok is false when the
// host never set one.
func (b *Bridge) InjectedObjectJSON() (string, bool) {
	v := b.injected.Load()
	if v == nil {
		return "", false
	}
	return *v, true
}

// SetInjectedObjectJSON replaces the slot and republishes it into the
// content context when connected. Last write wins.
func (b *Bridge) SetInjectedObjectJSON(v string) error {
	b.injected.Store(&v)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	return b.publishInjectedLocked()
}

// ClearInjectedObjectJSON empties the slot. Content then reads null.
func (b *Bridge) ClearInjectedObjectJSON() error {
	b.injected.Store(nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	return b.publishInjectedLocked()
}

// SetEnabled toggles messaging. It reports whether the value changed.
func (b *Bridge) SetEnabled(enabled bool) bool {
	return b.enabled.Swap(enabled) != enabled
}

// Enabled reports whether messaging is enabled.
func (b *Bridge) Enabled() bool {
	return b.enabled.Load()
}

// Connected reports whether the interface has been exposed to content.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Connect exposes the interface to the content context once. Later calls
// are no-ops.
func (b *Bridge) Connect(conn Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return nil
	}

	if err := conn.ExposeBinding(bindingName, b.PostMessage); err != nil {
		return fmt.Errorf("bridge: expose binding: %w", err)
	}
	script := bootstrapScript()
	if _, err := conn.AddScriptOnNewDocument(script); err != nil {
		return fmt.Errorf("bridge: install bootstrap: %w", err)
	}
	conn.Evaluate(script, nil)

	b.conn = conn
	if b.injected.Load() != nil {
		if err := b.publishInjectedLocked(); err != nil {
			return err
		}
	}
	slog.Debug("bridge connected", "interface", InterfaceName)
	return nil
}

func (b *Bridge) publishInjectedLocked() error {
	script := injectedObjectScript(b.injected.Load())

	if b.injectedScript != "" {
		if err := b.conn.RemoveScriptOnNewDocument(b.injectedScript); err != nil {
			slog.Debug("bridge remove stale injected object script failed", "error", err)
		}
		b.injectedScript = ""
	}
	id, err := b.conn.AddScriptOnNewDocument(script)
	if err != nil {
		return fmt.Errorf("bridge: publish injected object: %w", err)
	}
	b.injectedScript = id
	b.conn.Evaluate(script, nil)
	return nil
}

func bootstrapScript() string {
	return `(function(){
if (window.` + InterfaceName + ` && window.` + InterfaceName + `.__bridged) { return; }
var post = window.` + bindingName + `;
window.` + InterfaceName + ` = {
  __bridged: true,
  postMessage: function(message) { post(String(message)); },
  injectedObjectJson: function() {
    var v = window.` + injectedSlotVar + `;
    return v === undefined ? null : v;
  }
};
})();`
}

func injectedObjectScript(v *string) string {
	literal := "null"
	if v != nil {
		b, _ := json.Marshal(*v)
		literal = string(b)
	}
	return "window." + injectedSlotVar + " = " + literal + ";"
}
