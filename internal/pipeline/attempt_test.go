package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/llehouerou/pulse/internal/decoder"
)

func TestTryPrepareSuccess(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	slot := p.pair.Standby()

	out := p.tryPrepare(context.Background(), slot, "song.mp3", true)

	if out.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %s, want Success", out.Kind)
	}
	if got := b.State(); got != decoder.StateReady {
		t.Errorf("slot state = %s, want Ready", got)
	}
	if !b.Loop() {
		t.Error("loop flag was not assigned")
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("%d listeners leaked", got)
	}
}

func TestTryPrepareTimeoutStopsSlot(t *testing.T) {
	cfg := fastConfig()
	cfg.PrepareTimeout = 20 * time.Millisecond
	p, _, b := newTestPipeline(cfg)
	defer p.Close()
	b.SetSilent(true)

	out := p.tryPrepare(context.Background(), p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeTimeout {
		t.Fatalf("outcome = %s, want Timeout", out.Kind)
	}
	// A late ready-signal must not be able to complete the dead attempt.
	if got := b.State(); got != decoder.StateIdle {
		t.Errorf("slot state = %s, want Idle after timeout stop", got)
	}
	if b.StopCalls() == 0 {
		t.Error("slot was not explicitly stopped on timeout")
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("%d listeners leaked", got)
	}
}

func TestTryPrepareErrorSignal(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	wantErr := errors.New("bad stream header")
	b.SetPrepareError(wantErr)

	out := p.tryPrepare(context.Background(), p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeError {
		t.Fatalf("outcome = %s, want Error", out.Kind)
	}
	if !errors.Is(out.Err, wantErr) {
		t.Errorf("outcome error = %v, want %v", out.Err, wantErr)
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("%d listeners leaked", got)
	}
}

func TestTryPrepareCancelledBeforeStart(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.tryPrepare(ctx, p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeCancelled {
		t.Fatalf("outcome = %s, want Cancelled", out.Kind)
	}
	if got := len(b.AssignCalls()); got != 0 {
		t.Errorf("cancelled attempt assigned %d sources", got)
	}
}

func TestTryPrepareCancelledDuringWaitCleansUp(t *testing.T) {
	cfg := fastConfig()
	cfg.PrepareTimeout = time.Second
	p, _, b := newTestPipeline(cfg)
	defer p.Close()
	b.SetSilent(true)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	out := p.tryPrepare(ctx, p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeCancelled {
		t.Fatalf("outcome = %s, want Cancelled", out.Kind)
	}
	// A cancelled attempt still runs its cleanup before unwinding.
	if got := b.State(); got != decoder.StateIdle {
		t.Errorf("slot state = %s, want Idle", got)
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("%d listeners leaked", got)
	}
}

func TestTryPrepareIgnoresStaleEvents(t *testing.T) {
	cfg := fastConfig()
	cfg.PrepareTimeout = 40 * time.Millisecond
	p, _, b := newTestPipeline(cfg)
	defer p.Close()
	b.SetSilent(true)

	// Events for a different source must not complete this attempt.
	time.AfterFunc(10*time.Millisecond, func() {
		b.Publish(decoder.Event{Kind: decoder.EventReady, Source: "old_song.mp3"})
	})

	out := p.tryPrepare(context.Background(), p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeTimeout {
		t.Fatalf("outcome = %s, want Timeout: stale event was accepted", out.Kind)
	}
}

func TestTryPrepareRevalidatesReadySignal(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	b.SetSilent(true)

	// A ready signal whose slot is not actually Ready (a stop raced it)
	// must not count as success.
	time.AfterFunc(10*time.Millisecond, func() {
		b.Publish(decoder.Event{Kind: decoder.EventReady, Source: "song.mp3"})
	})

	out := p.tryPrepare(context.Background(), p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeError {
		t.Fatalf("outcome = %s, want Error", out.Kind)
	}
}

func TestTryPrepareForcesSlotIdleFirst(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	b.Assign("previous.mp3", false)
	b.SetState(decoder.StatePlaying)

	out := p.tryPrepare(context.Background(), p.pair.Standby(), "song.mp3", false)

	if out.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %s, want Success", out.Kind)
	}
	if b.StopCalls() == 0 {
		t.Error("busy slot was not forced to Idle before reassignment")
	}
	if got := b.Source(); got != "song.mp3" {
		t.Errorf("slot source = %q, want %q", got, "song.mp3")
	}
}
