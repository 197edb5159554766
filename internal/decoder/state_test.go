package decoder

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StatePreparing, "Preparing"},
		{StateReady, "Ready"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStatePredicates(t *testing.T) {
	tests := []struct {
		state     State
		isActive  bool
		canPause  bool
		canResume bool
	}{
		{StateIdle, false, false, false},
		{StatePreparing, false, false, false},
		{StateReady, false, false, false},
		{StatePlaying, true, true, false},
		{StatePaused, true, false, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.isActive {
			t.Errorf("%s.IsActive() = %v, want %v", tt.state, got, tt.isActive)
		}
		if got := tt.state.CanPause(); got != tt.canPause {
			t.Errorf("%s.CanPause() = %v, want %v", tt.state, got, tt.canPause)
		}
		if got := tt.state.CanResume(); got != tt.canResume {
			t.Errorf("%s.CanResume() = %v, want %v", tt.state, got, tt.canResume)
		}
	}
}
