package progress

import "testing"

func TestGateTransitions(t *testing.T) {
	g := New()
	if g.State() != Idle {
		t.Fatalf("State() = %v; want %v", g.State(), Idle)
	}

	g.SetWaitingForCommandLoadURL(true)
	if !g.IsWaitingForCommandLoadURL() {
		t.Fatal("IsWaitingForCommandLoadURL() = false; want true")
	}
	if g.State() != WaitingForLoad {
		t.Fatalf("State() = %v; want %v", g.State(), WaitingForLoad)
	}

	g.SetWaitingForCommandLoadURL(false)
	if g.State() != Idle {
		t.Fatalf("State() = %v; want %v", g.State(), Idle)
	}
}

func TestStateString(t *testing.T) {
	if got := WaitingForLoad.String(); got != "waiting_for_load" {
		t.Fatalf("String() = %q; want %q", got, "waiting_for_load")
	}
	if got := Idle.String(); got != "idle" {
		t.Fatalf("String() = %q; want %q", got, "idle")
	}
}
