package decoder

import (
	"errors"
	"testing"
	"time"
)

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMockPrepareSignalsReady(t *testing.T) {
	m := NewMock()
	events, unsub := m.Subscribe()
	defer unsub()

	m.Assign("song.mp3", true)
	m.Prepare()

	e := waitEvent(t, events, time.Second)
	if e.Kind != EventReady || e.Source != "song.mp3" {
		t.Errorf("event = %s/%s, want Ready/song.mp3", e.Kind, e.Source)
	}
	if got := m.State(); got != StateReady {
		t.Errorf("state = %s, want Ready", got)
	}
	if !m.Loop() {
		t.Error("loop flag lost on assignment")
	}
}

func TestMockPrepareSignalsError(t *testing.T) {
	m := NewMock()
	wantErr := errors.New("corrupt stream")
	m.SetPrepareError(wantErr)
	events, unsub := m.Subscribe()
	defer unsub()

	m.Assign("song.mp3", false)
	m.Prepare()

	e := waitEvent(t, events, time.Second)
	if e.Kind != EventError {
		t.Fatalf("event = %s, want Error", e.Kind)
	}
	if !errors.Is(e.Err, wantErr) {
		t.Errorf("event error = %v, want %v", e.Err, wantErr)
	}
	if got := m.State(); got != StateIdle {
		t.Errorf("state = %s, want Idle after failed prepare", got)
	}
}

func TestMockDelayedPrepare(t *testing.T) {
	m := NewMock()
	m.SetPrepareDelay(20 * time.Millisecond)
	events, unsub := m.Subscribe()
	defer unsub()

	m.Assign("song.mp3", false)
	m.Prepare()

	if got := m.State(); got != StatePreparing {
		t.Fatalf("state = %s, want Preparing before the delay elapses", got)
	}
	e := waitEvent(t, events, time.Second)
	if e.Kind != EventReady {
		t.Errorf("event = %s, want Ready", e.Kind)
	}
}

func TestMockStopDuringPrepareSuppressesSignal(t *testing.T) {
	m := NewMock()
	m.SetPrepareDelay(20 * time.Millisecond)
	events, unsub := m.Subscribe()
	defer unsub()

	m.Assign("song.mp3", false)
	m.Prepare()
	m.Stop()

	select {
	case e := <-events:
		t.Fatalf("stopped prepare still signalled %s", e.Kind)
	case <-time.After(60 * time.Millisecond):
	}
	if got := m.State(); got != StateIdle {
		t.Errorf("state = %s, want Idle", got)
	}
}

func TestMockSilentPrepareNeverSignals(t *testing.T) {
	m := NewMock()
	m.SetSilent(true)
	events, unsub := m.Subscribe()
	defer unsub()

	m.Assign("song.mp3", false)
	m.Prepare()

	select {
	case e := <-events:
		t.Fatalf("silent mock signalled %s", e.Kind)
	case <-time.After(30 * time.Millisecond):
	}
	if got := m.State(); got != StatePreparing {
		t.Errorf("state = %s, want Preparing (stalled)", got)
	}
}

func TestMockTransport(t *testing.T) {
	m := NewMock()
	m.Assign("song.mp3", false)
	m.Prepare()

	m.Play()
	if got := m.State(); got != StatePlaying {
		t.Fatalf("state after Play = %s, want Playing", got)
	}
	m.Pause()
	if got := m.State(); got != StatePaused {
		t.Fatalf("state after Pause = %s, want Paused", got)
	}
	m.Resume()
	if got := m.State(); got != StatePlaying {
		t.Fatalf("state after Resume = %s, want Playing", got)
	}

	if err := m.SetPosition(42 * time.Second); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if got := m.Position(); got != 42*time.Second {
		t.Errorf("position = %s, want 42s", got)
	}
}

func TestHubUnsubscribeRemovesListener(t *testing.T) {
	m := NewMock()

	_, unsub1 := m.Subscribe()
	_, unsub2 := m.Subscribe()
	if got := m.SubscriberCount(); got != 2 {
		t.Fatalf("subscribers = %d, want 2", got)
	}

	unsub1()
	if got := m.SubscriberCount(); got != 1 {
		t.Errorf("subscribers = %d, want 1", got)
	}
	unsub2()
	unsub2() // double unsubscribe is harmless
	if got := m.SubscriberCount(); got != 0 {
		t.Errorf("subscribers = %d, want 0", got)
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	m := NewMock()
	events, unsub := m.Subscribe()
	defer unsub()

	// Overfill the subscriber buffer; extra events are dropped, not queued.
	for i := 0; i < eventBufferSize*2; i++ {
		m.Publish(Event{Kind: EventFinished, Source: "song.mp3"})
	}
	if got := len(events); got != eventBufferSize {
		t.Errorf("buffered events = %d, want %d", got, eventBufferSize)
	}
}

func TestMockSimulateFinished(t *testing.T) {
	m := NewMock()
	m.Assign("song.mp3", false)
	m.Prepare()
	m.Play()
	events, unsub := m.Subscribe()
	defer unsub()

	m.SimulateFinished()

	e := waitEvent(t, events, time.Second)
	if e.Kind != EventFinished || e.Source != "song.mp3" {
		t.Errorf("event = %s/%s, want Finished/song.mp3", e.Kind, e.Source)
	}
	if got := m.State(); got != StateIdle {
		t.Errorf("state = %s, want Idle after natural end", got)
	}
}
