// Package decoder abstracts the media decoder a playback slot drives. The
// runtime only ever talks to the Decoder interface; the concrete Beep
// implementation decodes audio files, and Mock is a scriptable test double.
package decoder

import "time"

// EventKind identifies a decoder event.
type EventKind int

const (
	// EventReady fires when a prepared source is ready for playback.
	EventReady EventKind = iota
	// EventError fires when the decoder rejects the assigned source.
	EventError
	// EventFinished fires when a non-looping source plays to its end.
	EventFinished
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "Ready"
	case EventError:
		return "Error"
	case EventFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Event is published to subscribers when the decoder changes readiness.
// Source identifies the assignment the event belongs to so that subscribers
// can discard stale events from an earlier assignment on the same decoder.
type Event struct {
	Kind   EventKind
	Source string
	Err    error
}

// Decoder defines the playback-slot contract for dependency injection and
// testing.
type Decoder interface {
	// Assign binds a source and loop flag. The decoder must be Idle.
	Assign(source string, loop bool)
	// Source returns the currently assigned source, or "" when Idle.
	Source() string
	// Prepare starts decoding the assigned source asynchronously. The result
	// arrives as an EventReady or EventError on subscribed channels.
	Prepare()
	// Stop aborts any activity, releases the source and returns to Idle.
	Stop()
	Play()
	Pause()
	Resume()
	State() State
	// Seekable reports whether the decoder can honour SetPosition right now.
	Seekable() bool
	Position() time.Duration
	Duration() time.Duration
	SetPosition(d time.Duration) error
	// Subscribe registers an event channel. The returned function
	// unregisters it; callers must always invoke it when done.
	Subscribe() (<-chan Event, func())
	Close() error
}
