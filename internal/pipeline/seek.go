package pipeline

import (
	"context"
	"time"

	"github.com/llehouerou/pulse/internal/decoder"
)

// Seek scrubs the Active slot to target. Each call cancels the previous
// seek's scope; seeks are independent of any in-flight preparation and never
// touch the Standby slot. A seek against a slot that is mid-preparation is
// rejected outright.
func (p *Pipeline) Seek(target time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	dec := p.pair.Current().Decoder
	if dec.State() == decoder.StatePreparing {
		p.mu.Unlock()
		p.log.Debug().Dur("target", target).Msg("seek rejected: slot is preparing")
		return
	}

	if p.seekCancel != nil {
		p.seekCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.seekCancel = cancel
	prevDone := p.seekDone
	done := make(chan struct{})
	p.seekDone = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		if prevDone != nil {
			<-prevDone
		}
		p.runSeek(ctx, dec, target)
	}()
}

func (p *Pipeline) runSeek(ctx context.Context, dec decoder.Decoder, target time.Duration) {
	// Wait for the decoder to report seekable, within budget.
	deadline := time.Now().Add(p.cfg.SeekReadyBudget)
	for !dec.Seekable() {
		if time.Now().After(deadline) {
			p.log.Debug().Dur("target", target).Msg("seek abandoned: slot not seekable")
			return
		}
		if err := sleepCtx(ctx, 10*time.Millisecond); err != nil {
			return
		}
	}

	// Clamp to [0, duration].
	target = max(target, 0)
	if d := dec.Duration(); d > 0 && target > d {
		target = d
	}

	// The decoder reference predates the suspension points above; pause only
	// if it still holds the Active role.
	p.mu.Lock()
	if p.closed || p.pair.Current().Decoder != dec {
		p.mu.Unlock()
		return
	}
	wasPlaying := dec.State() == decoder.StatePlaying
	if wasPlaying {
		dec.Pause()
	}
	p.mu.Unlock()

	if err := dec.SetPosition(target); err != nil {
		p.log.Warn().Err(err).Dur("target", target).Msg("seek failed")
	}

	// Yield so the position change takes effect before playback resumes.
	if err := sleepCtx(ctx, p.cfg.SeekSettle); err != nil {
		// Superseded mid-seek; the newer seek owns the resume decision.
		return
	}

	// A swap may have demoted the slot during the settle; resuming it then
	// would undo the pause that preserves its last frame.
	p.mu.Lock()
	if wasPlaying && !p.closed && ctx.Err() == nil && p.pair.Current().Decoder == dec {
		dec.Resume()
	}
	p.mu.Unlock()
}
