package backtest

import "fmt"

// State is the lifecycle of a backtest run
type State string

const (
	StateInitialized State = "INITIALIZED"
	StateDownloading State = "DOWNLOADING"
	StateSimulating  State = "SIMULATING"
	StateCompleted   State = "COMPLETED"
	StateFailed      State = "FAILED"
)

// allowed transitions
var transitions = map[State][]State{
	StateInitialized: {StateDownloading},
	StateDownloading: {StateSimulating, StateFailed},
	StateSimulating:  {StateCompleted},
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (r *Result) moveTo(next State) error {
	if !CanTransition(r.State, next) {
		return fmt.Errorf("illegal state transition %s -> %s", r.State, next)
	}
	r.State = next
	return nil
}
