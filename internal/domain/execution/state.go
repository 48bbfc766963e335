// Package execution provides benchmark execution domain models.
package execution

// RunState represents the state of one configuration's benchmark.
type RunState string

const (
	StateUnstarted       RunState = "unstarted"        // Created, nothing executed
	StateContextReady    RunState = "context_ready"    // Shared backend context available
	StatePlanConstructed RunState = "plan_constructed" // Plan built and buffers allocated
	StateWarmingUp       RunState = "warming_up"       // Timed runs excluded from statistics
	StateMeasuring       RunState = "measuring"        // Timed runs reported
	StateCompleted       RunState = "completed"        // All runs finished
	StateFailed          RunState = "failed"           // A step failed, remaining runs skipped
)

// IsValid checks if the state is valid.
func (s RunState) IsValid() bool {
	switch s {
	case StateUnstarted, StateContextReady, StatePlanConstructed,
		StateWarmingUp, StateMeasuring, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the state is a terminal state (no further transitions possible).
func (s RunState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransitionTo checks if a transition from current state to target state is valid.
func (s RunState) CanTransitionTo(target RunState) bool {
	transitions := map[RunState][]RunState{
		StateUnstarted:       {StateContextReady},
		StateContextReady:    {StatePlanConstructed, StateFailed},
		StatePlanConstructed: {StateWarmingUp, StateMeasuring, StateFailed},
		// WarmingUp may complete directly when no measured runs are configured.
		StateWarmingUp: {StateMeasuring, StateCompleted, StateFailed},
		StateMeasuring: {StateCompleted, StateFailed},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}

// String implements Stringer interface.
func (s RunState) String() string {
	return string(s)
}
