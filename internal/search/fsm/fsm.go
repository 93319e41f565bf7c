package fsm

// State is a location suggestion fetcher state.
type State string

// Status constants used by the suggestion state machine.
const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateFetching   State = "fetching"
	StateSuggested  State = "suggested"
	StateFailed     State = "failed"
)

var transitions = map[State]map[State]struct{}{
	StateIdle: {StateDebouncing: {}},
	StateDebouncing: {
		StateFetching: {},
		StateIdle:     {},
	},
	StateFetching: {
		StateSuggested:  {},
		StateFailed:     {},
		StateDebouncing: {},
		StateIdle:       {},
	},
	StateSuggested: {
		StateDebouncing: {},
		StateIdle:       {},
	},
	StateFailed: {
		StateDebouncing: {},
		StateIdle:       {},
	},
}

// CanTransition returns whether the fetcher can move from the current state to the target state.
// Every keystroke re-enters debouncing, so a self transition is always allowed.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
