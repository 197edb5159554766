package decoder

// State represents the decoder transport state machine.
//
// Valid transitions:
//   - Idle      → Preparing (via Prepare)
//   - Preparing → Ready     (decode succeeded)
//   - Preparing → Idle      (decode failed or stopped)
//   - Ready     → Playing   (via Play)
//   - Playing   → Paused    (via Pause)
//   - Paused    → Playing   (via Resume)
//   - any       → Idle      (via Stop or reassignment)
//
// A decoder entering Preparing for a new source must first pass through Idle;
// the pipeline's attempt executor enforces this before every assignment.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateReady
	StatePlaying
	StatePaused
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePreparing:
		return "Preparing"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if the decoder holds a playable stream.
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == StatePlaying
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == StatePaused
}
