package pipeline

import (
	"testing"
	"time"

	"github.com/llehouerou/pulse/internal/decoder"
)

// loadAndPlay prepares source on the pipeline and starts playback; m is the
// decoder expected to become Active.
func loadAndPlay(t *testing.T, p *Pipeline, m *decoder.Mock, source string) {
	t.Helper()
	ready := make(chan struct{})
	p.Load(source, false, func() { close(ready) })
	waitClosed(t, ready, time.Second, "load callback")
	p.Play()
	if got := m.State(); got != decoder.StatePlaying {
		t.Fatalf("setup: decoder state = %s, want Playing", got)
	}
}

func TestSeekAppliesClampedTarget(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	b.SetDuration(10 * time.Second)
	loadAndPlay(t, p, b, "track_a")

	p.Seek(-5 * time.Second)
	eventually(t, time.Second, "negative target clamped to zero", func() bool {
		calls := b.SetPositionCalls()
		return len(calls) == 1 && calls[0] == 0
	})

	p.Seek(time.Minute)
	eventually(t, time.Second, "target clamped to duration", func() bool {
		calls := b.SetPositionCalls()
		return len(calls) == 2 && calls[1] == 10*time.Second
	})
}

func TestSeekPausesAndResumesPlayback(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	b.SetDuration(10 * time.Second)
	loadAndPlay(t, p, b, "track_a")

	p.Seek(3 * time.Second)

	eventually(t, time.Second, "seek completed and playback resumed", func() bool {
		return b.State() == decoder.StatePlaying && len(b.SetPositionCalls()) == 1
	})
	if b.PauseCalls() == 0 {
		t.Error("seek did not pause before applying the position")
	}
	if b.ResumeCalls() == 0 {
		t.Error("seek did not resume after applying the position")
	}
}

func TestSeekDoesNotResumeAPausedStream(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	b.SetDuration(10 * time.Second)
	loadAndPlay(t, p, b, "track_a")
	p.Pause()

	p.Seek(3 * time.Second)

	eventually(t, time.Second, "seek applied", func() bool {
		return len(b.SetPositionCalls()) == 1
	})
	time.Sleep(20 * time.Millisecond)
	if got := b.State(); got != decoder.StatePaused {
		t.Errorf("decoder state = %s, want Paused: seek must not start playback", got)
	}
}

func TestSeekRejectedWhilePreparing(t *testing.T) {
	p, a, _ := newTestPipeline(fastConfig())
	defer p.Close()

	// The active slot is mid-preparation; scrubbing it is refused.
	a.SetState(decoder.StatePreparing)
	p.Seek(3 * time.Second)

	time.Sleep(50 * time.Millisecond)
	if got := len(a.SetPositionCalls()); got != 0 {
		t.Errorf("seek against a preparing slot applied %d positions", got)
	}
}

func TestSeekAbandonedWhenNeverSeekable(t *testing.T) {
	cfg := fastConfig()
	cfg.SeekReadyBudget = 30 * time.Millisecond
	p, _, b := newTestPipeline(cfg)
	defer p.Close()
	loadAndPlay(t, p, b, "track_a")
	b.SetNotSeekable(true)

	p.Seek(3 * time.Second)

	time.Sleep(100 * time.Millisecond)
	if got := len(b.SetPositionCalls()); got != 0 {
		t.Errorf("seek against a non-seekable slot applied %d positions", got)
	}
}

func TestSwapRetiresSeekOnOutgoingSlot(t *testing.T) {
	cfg := fastConfig()
	cfg.SeekSettle = 150 * time.Millisecond
	p, a, b := newTestPipeline(cfg)
	defer p.Close()
	b.SetDuration(10 * time.Second)
	loadAndPlay(t, p, b, "track_a")

	// The seek pauses playback and sits in its settle window.
	p.Seek(3 * time.Second)
	eventually(t, time.Second, "seek paused playback", func() bool {
		return b.State() == decoder.StatePaused && len(b.SetPositionCalls()) == 1
	})

	// track_b swaps in mid-settle. The outgoing slot was left Paused to keep
	// its last frame; the stale seek must not resume it.
	ready := make(chan struct{})
	p.Load("track_b", false, func() { close(ready) })
	waitClosed(t, ready, time.Second, "track_b callback")
	p.Play()

	time.Sleep(250 * time.Millisecond)
	if got := b.State(); got != decoder.StatePaused {
		t.Errorf("outgoing Standby slot state = %s, want Paused", got)
	}
	if got := a.State(); got != decoder.StatePlaying {
		t.Errorf("active slot state = %s, want Playing", got)
	}
}

func TestLatestSeekWins(t *testing.T) {
	p, _, b := newTestPipeline(fastConfig())
	defer p.Close()
	b.SetDuration(time.Minute)
	loadAndPlay(t, p, b, "track_a")

	p.Seek(10 * time.Second)
	p.Seek(20 * time.Second)

	eventually(t, time.Second, "last seek applied", func() bool {
		calls := b.SetPositionCalls()
		return len(calls) > 0 && calls[len(calls)-1] == 20*time.Second
	})
}
