package fsm

import "testing"

func TestCanTransition(t *testing.T) {
	if !CanTransition(StateIdle, StateDebouncing) {
		t.Fatal("expected idle -> debouncing to be allowed")
	}
	if CanTransition(StateIdle, StateFetching) {
		t.Fatal("unexpected transition allowed: idle -> fetching")
	}
	if !CanTransition(StateDebouncing, StateDebouncing) {
		t.Fatal("expected debouncing to re-enter itself on a keystroke")
	}
	if !CanTransition(StateFetching, StateDebouncing) {
		t.Fatal("expected fetching -> debouncing to be allowed")
	}
	if CanTransition(StateDebouncing, StateSuggested) {
		t.Fatal("unexpected transition allowed: debouncing -> suggested")
	}
	if !CanTransition(StateFailed, StateIdle) {
		t.Fatal("expected failed -> idle to be allowed")
	}
	if CanTransition(State("bogus"), StateIdle) {
		t.Fatal("unknown state must not transition")
	}
}
