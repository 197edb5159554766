package decoder

import (
	"sync"
	"time"
)

// Mock is a scriptable test double for a Decoder. Prepare can be configured
// to succeed after a delay, fail with an error, or never signal at all.
type Mock struct {
	mu sync.Mutex
	hub

	state    State
	source   string
	loop     bool
	position time.Duration
	duration time.Duration

	prepareDelay time.Duration
	prepareErr   error
	silent       bool
	notSeekable  bool

	assigns          []string
	prepares         int
	stops            int
	plays            int
	pauses           int
	resumes          int
	setPositionCalls []time.Duration
}

// Verify Mock implements Decoder at compile time.
var _ Decoder = (*Mock)(nil)

// NewMock creates a mock decoder that prepares successfully and immediately.
func NewMock() *Mock {
	return &Mock{state: StateIdle, duration: 3 * time.Minute}
}

func (m *Mock) Assign(source string, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigns = append(m.assigns, source)
	m.source = source
	m.loop = loop
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Prepare() {
	m.mu.Lock()
	m.prepares++
	src := m.source
	m.state = StatePreparing
	delay, prepErr, silent := m.prepareDelay, m.prepareErr, m.silent
	m.mu.Unlock()

	if silent {
		return
	}
	finish := func() {
		m.mu.Lock()
		if m.state != StatePreparing || m.source != src {
			// Stopped or reassigned while preparing.
			m.mu.Unlock()
			return
		}
		if prepErr != nil {
			m.state = StateIdle
			m.mu.Unlock()
			m.publish(Event{Kind: EventError, Source: src, Err: prepErr})
			return
		}
		m.state = StateReady
		m.mu.Unlock()
		m.publish(Event{Kind: EventReady, Source: src})
	}
	if delay <= 0 {
		finish()
	} else {
		time.AfterFunc(delay, finish)
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.state = StateIdle
	m.source = ""
	m.loop = false
	m.position = 0
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
	switch m.state {
	case StateReady:
		m.state = StatePlaying
	case StatePaused:
		m.state = StatePlaying
	default:
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	if m.state.CanPause() {
		m.state = StatePaused
	}
}

func (m *Mock) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumes++
	if m.state.CanResume() {
		m.state = StatePlaying
	}
}

func (m *Mock) Seekable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notSeekable {
		return false
	}
	return m.state == StateReady || m.state.IsActive()
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetPosition(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setPositionCalls = append(m.setPositionCalls, d)
	m.position = d
	return nil
}

func (m *Mock) Subscribe() (<-chan Event, func()) {
	return m.subscribe()
}

func (m *Mock) Close() error {
	m.Stop()
	return nil
}

// Test helpers

// SetPrepareDelay makes Prepare signal readiness after the given delay.
func (m *Mock) SetPrepareDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareDelay = d
}

// SetPrepareError makes Prepare fail with err.
func (m *Mock) SetPrepareError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareErr = err
}

// SetSilent controls whether Prepare signals at all; a silent mock simulates
// a stalled decoder.
func (m *Mock) SetSilent(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silent = v
}

// Publish injects a raw event, bypassing the transport state machine.
func (m *Mock) Publish(e Event) {
	m.publish(e)
}

// SetNotSeekable forces Seekable to report false.
func (m *Mock) SetNotSeekable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notSeekable = v
}

// SetState forces the transport state.
func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// SetDuration sets the reported duration.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// SimulateFinished publishes a Finished event for the current source.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	src := m.source
	if m.state == StatePlaying {
		m.state = StateIdle
	}
	m.mu.Unlock()
	m.publish(Event{Kind: EventFinished, Source: src})
}

func (m *Mock) AssignCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.assigns...)
}

func (m *Mock) PrepareCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepares
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *Mock) ResumeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumes
}

func (m *Mock) SetPositionCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.setPositionCalls...)
}

// SubscriberCount reports the number of live event subscriptions; the
// pipeline must always unregister its one-shot listeners.
func (m *Mock) SubscriberCount() int {
	return m.subscriberCount()
}

// Loop reports the loop flag of the current assignment.
func (m *Mock) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}
