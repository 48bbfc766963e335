// Package execution provides unit tests for run state machine.
package execution

import (
	"testing"
)

// TestRunState_IsValid tests valid state detection.
func TestRunState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state RunState
		want  bool
	}{
		{"unstarted is valid", StateUnstarted, true},
		{"context_ready is valid", StateContextReady, true},
		{"plan_constructed is valid", StatePlanConstructed, true},
		{"warming_up is valid", StateWarmingUp, true},
		{"measuring is valid", StateMeasuring, true},
		{"completed is valid", StateCompleted, true},
		{"failed is valid", StateFailed, true},
		{"invalid state", RunState("invalid"), false},
		{"empty state", RunState(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("RunState.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRunState_IsTerminal tests terminal state detection.
func TestRunState_IsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state RunState
		want  bool
	}{
		{"completed is terminal", StateCompleted, true},
		{"failed is terminal", StateFailed, true},
		{"unstarted is not terminal", StateUnstarted, false},
		{"context_ready is not terminal", StateContextReady, false},
		{"plan_constructed is not terminal", StatePlanConstructed, false},
		{"warming_up is not terminal", StateWarmingUp, false},
		{"measuring is not terminal", StateMeasuring, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.want {
				t.Errorf("RunState.IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRunState_CanTransitionTo tests valid state transitions.
func TestRunState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   RunState
		to     RunState
		wantOk bool
	}{
		// Happy path
		{"unstarted -> context_ready", StateUnstarted, StateContextReady, true},
		{"context_ready -> plan_constructed", StateContextReady, StatePlanConstructed, true},
		{"plan_constructed -> warming_up", StatePlanConstructed, StateWarmingUp, true},
		{"warming_up -> measuring", StateWarmingUp, StateMeasuring, true},
		{"measuring -> completed", StateMeasuring, StateCompleted, true},

		// Protocols without warmups or without measured runs
		{"plan_constructed -> measuring", StatePlanConstructed, StateMeasuring, true},
		{"warming_up -> completed", StateWarmingUp, StateCompleted, true},

		// Failure transitions
		{"context_ready -> failed", StateContextReady, StateFailed, true},
		{"plan_constructed -> failed", StatePlanConstructed, StateFailed, true},
		{"warming_up -> failed", StateWarmingUp, StateFailed, true},
		{"measuring -> failed", StateMeasuring, StateFailed, true},

		// Invalid transitions
		{"unstarted -> measuring (skip)", StateUnstarted, StateMeasuring, false},
		{"unstarted -> failed (no context)", StateUnstarted, StateFailed, false},
		{"context_ready -> measuring (skip)", StateContextReady, StateMeasuring, false},
		{"measuring -> warming_up (backwards)", StateMeasuring, StateWarmingUp, false},
		{"completed -> measuring (terminal)", StateCompleted, StateMeasuring, false},
		{"failed -> measuring (terminal)", StateFailed, StateMeasuring, false},
		{"measuring -> measuring (no change)", StateMeasuring, StateMeasuring, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOk := tt.from.CanTransitionTo(tt.to)
			if gotOk != tt.wantOk {
				t.Errorf("RunState.CanTransitionTo() = %v, want %v", gotOk, tt.wantOk)
			}
		})
	}
}

// TestRunState_String tests string representation.
func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{StateUnstarted, "unstarted"},
		{StateContextReady, "context_ready"},
		{StatePlanConstructed, "plan_constructed"},
		{StateWarmingUp, "warming_up"},
		{StateMeasuring, "measuring"},
		{StateCompleted, "completed"},
		{StateFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("RunState.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
