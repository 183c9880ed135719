package progress

import "sync/atomic"

// State is the progress gate state.
type State int

const (
	Idle State = iota
	WaitingForLoad
)

func (s State) String() string {
	if s == WaitingForLoad {
		return "waiting_for_load"
	}
	return "idle"
}

// Gate suppresses stale navigation progress while a host issued load
// command has not yet started navigating. There is no timeout: if the
// navigation never starts the gate stays closed.
type Gate struct {
	waiting atomic.Bool
}

// New returns an idle gate.
func New() *Gate {
	return &Gate{}
}

func (g *Gate) SetWaitingForCommandLoadURL(waiting bool) {
	g.waiting.Store(waiting)
}

func (g *Gate) IsWaitingForCommandLoadURL() bool {
	return g.waiting.Load()
}

func (g *Gate) State() State {
	if g.waiting.Load() {
		return WaitingForLoad
	}
	return Idle
}
