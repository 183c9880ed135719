// Package selection drives the custom text-selection menu. A click asks
// the content context for the selected text and emits a
// customMenuSelection event once the evaluation resolves.
package selection

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/surfacebridge/internal/metrics"
	"github.com/dgnsrekt/surfacebridge/internal/types"
)

// Script returns the current selection wrapped in an object.
const Script = `(function(){return {selection: window.getSelection().toString()}})()`

// State is the action-mode lifecycle.
type State int

const (
	Inactive State = iota
	Creating
	Active
	ResolvingSelection
	Finished
	Destroyed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Creating:
		return "creating"
	case Active:
		return "active"
	case ResolvingSelection:
		return "resolving_selection"
	case Finished:
		return "finished"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

var errTimedOut = errors.New("selection resolution timed out")

// Evaluator runs a script in the content context and reports the result
// asynchronously, possibly on another goroutine.
type Evaluator interface {
	Evaluate(script string, done func(result string, err error))
}

// Entry is a configured menu item with its stable id.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Key   string `json:"key"`
}

// Config wires the controller to its surface.
type Config struct {
	Evaluator Evaluator
	// Post hops a completion back onto the UI loop.
	Post func(fn func()) bool
	// Deliver emits the resolved event.
	Deliver func(ev types.CustomMenuSelectionEvent)
	// OnFinish is told when the action mode ends.
	OnFinish func()
	// Timeout bounds the selection evaluation. Zero waits forever.
	Timeout time.Duration
	Metrics *metrics.Metrics
	NewID   func() string
}

// Snapshot describes the action mode for the host.
type Snapshot struct {
	State    string  `json:"state"`
	Override bool    `json:"override"`
	Items    []Entry `json:"items"`
	Pending  string  `json:"pendingItemId,omitempty"`
}

// Controller is used only from the UI loop.
type Controller struct {
	cfg   Config
	items []Entry
	state State

	override  bool
	seq       uint64
	pendingID string
	// evalInFlight stays set until the evaluator answers, even when the
	// timeout already finished the action mode.
	evalInFlight bool
}

func New(cfg Config) *Controller {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Post == nil {
		cfg.Post = func(fn func()) bool {
			fn()
			return true
		}
	}
	return &Controller{cfg: cfg}
}

// SetItems replaces the item list wholesale and assigns fresh ids.
func (c *Controller) SetItems(items []types.MenuItem) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{ID: c.cfg.NewID(), Label: item.Label, Key: item.Key})
	}
	c.items = entries
	return c.Items()
}

func (c *Controller) Items() []Entry {
	out := make([]Entry, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) State() State { return c.state }

// Start begins an action mode for a new selection. With no custom items
// it returns override=false and the platform default menu applies.
func (c *Controller) Start() ([]Entry, bool) {
	switch c.state {
	case Destroyed:
		return nil, false
	case ResolvingSelection:
		return c.Items(), c.override
	}

	c.state = Creating
	if len(c.items) == 0 {
		c.override = false
		c.state = Active
		return nil, false
	}
	c.override = true
	c.state = Active
	return c.Items(), true
}

// Click resolves the current selection for the item with id. The item is
// looked up again when the evaluation completes.
func (c *Controller) Click(id string) error {
	switch c.state {
	case Destroyed:
		return types.NewError(types.CodeSurfaceDestroyed, "surface destroyed", nil)
	case ResolvingSelection:
		return types.NewError(types.CodeSelectionBusy, "selection resolution already pending", nil)
	case Active:
	default:
		return types.NewError(types.CodeValidation, "action mode not active", nil)
	}
	if !c.override {
		return types.NewError(types.CodeValidation, "action mode has no custom items", nil)
	}
	if c.cfg.Evaluator == nil {
		return types.NewError(types.CodeEngineUnavailable, "no script evaluator", nil)
	}
	if c.evalInFlight {
		return types.NewError(types.CodeSelectionBusy, "previous selection evaluation still outstanding", nil)
	}

	c.seq++
	seq := c.seq
	c.state = ResolvingSelection
	c.pendingID = id

	if c.cfg.Timeout > 0 {
		time.AfterFunc(c.cfg.Timeout, func() {
			c.cfg.Post(func() { c.complete(seq, "", errTimedOut) })
		})
	}

	c.evalInFlight = true
	c.cfg.Evaluator.Evaluate(Script, func(result string, err error) {
		c.cfg.Post(func() {
			c.evalInFlight = false
			c.complete(seq, result, err)
		})
	})
	return nil
}

// End closes the action mode when the selection is cleared. A pending
// resolution still completes.
func (c *Controller) End() {
	if c.state == Active || c.state == Creating {
		c.finish()
	}
}

// Destroy makes every later completion a no-op.
func (c *Controller) Destroy() {
	c.state = Destroyed
	c.seq++
	c.pendingID = ""
	c.items = nil
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:    c.state.String(),
		Override: c.override,
		Items:    c.Items(),
		Pending:  c.pendingID,
	}
}

func (c *Controller) complete(seq uint64, result string, err error) {
	if c.state != ResolvingSelection || seq != c.seq {
		return
	}
	id := c.pendingID
	c.pendingID = ""

	text := ""
	if err != nil {
		slog.Warn("selection resolution failed", "item_id", id, "error", err)
	} else {
		text = ParseSelection(result)
	}

	entry, ok := c.lookup(id)
	if !ok {
		slog.Warn("selection item not found", "item_id", id)
		c.cfg.Metrics.Drop(metrics.DropUnknownItem)
	} else if c.cfg.Deliver != nil {
		c.cfg.Deliver(types.CustomMenuSelectionEvent{
			Label:        entry.Label,
			Key:          entry.Key,
			SelectedText: text,
		})
	}
	c.finish()
}

func (c *Controller) finish() {
	c.state = Finished
	c.override = false
	if c.cfg.OnFinish != nil {
		c.cfg.OnFinish()
	}
}

func (c *Controller) lookup(id string) (Entry, bool) {
	for _, e := range c.items {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseSelection extracts the selection field from an evaluation result.
// The result may be the object itself or a JSON string wrapping it.
// Anything unparsable yields "".
func ParseSelection(result string) string {
	var out struct {
		Selection string `json:"selection"`
	}
	if err := json.Unmarshal([]byte(result), &out); err == nil {
		return out.Selection
	}

	var wrapped string
	if err := json.Unmarshal([]byte(result), &wrapped); err != nil {
		return ""
	}
	if err := json.Unmarshal([]byte(wrapped), &out); err != nil {
		return ""
	}
	return out.Selection
}
