package domain

import "fmt"

// ProviderState is a stage of the provider lifecycle.
type ProviderState string

const (
	StateUninitialized ProviderState = "uninitialized"
	StateInitialized   ProviderState = "initialized"
	StateCollecting    ProviderState = "collecting"
	StateGenerating    ProviderState = "generating"
	StateReported      ProviderState = "reported"
	StateCleaned       ProviderState = "cleaned"
)

var transitions = map[ProviderState][]ProviderState{
	StateUninitialized: {StateInitialized},
	// merge mode reads finished results and skips collection
	StateInitialized: {StateCollecting, StateGenerating, StateCleaned},
	StateCollecting:  {StateGenerating, StateCleaned},
	StateGenerating:  {StateReported, StateCleaned},
	// watch-mode reruns start a new cycle
	StateReported: {StateCollecting},
	StateCleaned:  {StateCollecting},
}

// CanTransition reports whether moving from s to next is allowed.
func (s ProviderState) CanTransition(next ProviderState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a cycle has ended.
func (s ProviderState) IsTerminal() bool {
	return s == StateReported || s == StateCleaned
}

// Lifecycle tracks the state of the active provider. It is owned by the
// controller goroutine and is not safe for concurrent use.
type Lifecycle struct {
	state ProviderState
}

// NewLifecycle starts a lifecycle in StateUninitialized.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateUninitialized}
}

// State returns the current state.
func (l *Lifecycle) State() ProviderState {
	return l.state
}

// To moves to next or returns an error for an illegal transition.
func (l *Lifecycle) To(next ProviderState) error {
	if !l.state.CanTransition(next) {
		return fmt.Errorf("illegal provider transition %s -> %s", l.state, next)
	}
	l.state = next
	return nil
}
