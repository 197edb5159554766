// Package pipeline implements the double-buffered media preparation
// pipeline: a new source is prepared on the Standby slot while the Active
// slot keeps playing, then the two roles are swapped without a gap. The
// outgoing stream is paused, not stopped, so its last decoded frame stays on
// its surface for cross-fade transitions.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/pulse/internal/decoder"
	"github.com/llehouerou/pulse/internal/log"
	"github.com/llehouerou/pulse/internal/surface"
)

// ErrSurfaceActive is returned when a configuration change would reallocate
// the surface of a playing Active slot.
var ErrSurfaceActive = errors.New("surface is bound to the playing active slot")

// ErrClosed is returned from operations on a closed pipeline.
var ErrClosed = errors.New("pipeline is closed")

// Pipeline coordinates the buffer pair, the per-request cancellation
// hierarchy, the retry policy and the role swap. All shared state mutates
// under one mutex, which stands in for the single scheduling context of the
// host frame loop: the swap and the public transport calls can never
// interleave.
type Pipeline struct {
	mu     sync.Mutex
	pair   *BufferPair
	alloc  *surface.Allocator
	cfg    Config
	log    zerolog.Logger
	closed bool

	// gen is the issued-at ordinal of the most recent request. master is
	// that request, or nil when none is in flight.
	gen    uint64
	master *request

	seekCancel context.CancelFunc
	seekDone   chan struct{}
}

// New creates a pipeline owning the two decoders and their surfaces.
func New(a, b decoder.Decoder, alloc *surface.Allocator, cfg Config) *Pipeline {
	return &Pipeline{
		pair:  NewBufferPair(a, b, alloc),
		alloc: alloc,
		cfg:   cfg.withDefaults(),
		log:   log.WithComponent("pipeline"),
	}
}

// Load prepares source on the Standby slot and swaps it Active once ready,
// then invokes onReady exactly once. A Load issued while another is in
// flight supersedes it: the earlier request's callback never fires, no
// matter how close to completion it was. Total failure is silent apart from
// logging; the Active stream, if any, keeps playing untouched.
func (p *Pipeline) Load(source string, loop bool, onReady func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	prev := p.master
	p.gen++
	ctx, cancel := context.WithCancel(context.Background())
	req := &request{
		gen:     p.gen,
		source:  source,
		loop:    loop,
		onReady: onReady,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	p.master = req
	slot := p.pair.Standby()
	p.mu.Unlock()

	// Retire the previous master scope; its operation scope cancels with it.
	if prev != nil {
		prev.cancel()
	}

	go func() {
		// The standby slot stays owned by the previous request until its
		// retry loop has unwound and run its cleanup.
		if prev != nil {
			<-prev.done
		}
		p.runPrepare(req, slot)
	}()
}

// completeSwap is the swap coordinator. It runs once per successful attempt
// and is a no-op for late finishers: a request superseded after its local
// steps completed must have no observable effect.
func (p *Pipeline) completeSwap(req *request, slot *Slot) {
	p.mu.Lock()
	if req.gen != p.gen || p.closed {
		p.mu.Unlock()
		p.log.Debug().Str("source", req.source).Msg("discarding superseded prepare result")
		// Leave nothing half-prepared behind; the superseding request owns
		// the slot only after our done channel closes.
		slot.Decoder.Stop()
		return
	}

	// Pause, not stop: stopping would blank the outgoing surface, and the
	// presentation layer cross-fades from its last frame.
	outgoing := p.pair.Current()
	if outgoing.Decoder.State() == decoder.StatePlaying {
		outgoing.Decoder.Pause()
	}

	p.pair.SwapRoles()

	// A seek in flight against the outgoing slot must not outlive the swap:
	// resuming that slot would undo the pause above.
	if p.seekCancel != nil {
		p.seekCancel()
		p.seekCancel = nil
	}

	cb := req.onReady
	req.onReady = nil
	p.mu.Unlock()

	p.log.Info().Str("source", req.source).Msg("prepared and swapped active")
	if cb != nil {
		cb()
	}
}

// Play starts the Active slot if Ready, or resumes it if Paused.
func (p *Pipeline) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	dec := p.pair.Current().Decoder
	switch dec.State() {
	case decoder.StateReady:
		dec.Play()
	case decoder.StatePaused:
		dec.Resume()
	default:
	}
}

// Pause pauses the Active slot.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pair.Current().Decoder.Pause()
}

// Resume resumes the Active slot.
func (p *Pipeline) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pair.Current().Decoder.Resume()
}

// Stop stops the Active slot and retires any in-flight prepare request.
// It shares the pipeline mutex with the swap coordinator, so it can never
// interleave with a swap in progress.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	// Bump the generation so any late finisher fails its guard. The retired
	// request stays referenced so the next Load still waits for its retry
	// loop to unwind before touching the standby slot.
	p.gen++
	master := p.master
	dec := p.pair.Current().Decoder
	p.mu.Unlock()

	if master != nil {
		master.cancel()
	}
	dec.Stop()
}

// Position returns the Active slot's playback position.
func (p *Pipeline) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pair.Current().Decoder.Position()
}

// Duration returns the Active slot's stream duration.
func (p *Pipeline) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pair.Current().Decoder.Duration()
}

// CurrentSurface returns the Active slot's render surface. The reference is
// stale after the next swap; callers must re-fetch per frame.
func (p *Pipeline) CurrentSurface() *surface.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pair.Current().Surface()
}

// PreviousSurface returns the Standby slot's surface, which holds the last
// frame of the previously active stream until the slot is next reassigned.
func (p *Pipeline) PreviousSurface() *surface.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pair.Standby().Surface()
}

// SetSurfaceSettings reallocates the surface of the slot holding role with
// new settings. Reallocating the Active slot's surface while it is playing
// is refused; that would pull the frame out from under the presenter.
func (p *Pipeline) SetSurfaceSettings(role Role, settings surface.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	var slot *Slot
	if role == RoleActive {
		slot = p.pair.Current()
		if slot.Decoder.State() == decoder.StatePlaying {
			return ErrSurfaceActive
		}
	} else {
		slot = p.pair.Standby()
	}
	slot.setSurface(p.alloc.AllocateWith(settings))
	return nil
}

// Close retires any in-flight request, stops both slots and releases the
// decoders. The pipeline is unusable afterwards.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.gen++
	master := p.master
	p.master = nil
	seekCancel := p.seekCancel
	seekDone := p.seekDone
	p.mu.Unlock()

	if master != nil {
		master.cancel()
		<-master.done
	}
	if seekCancel != nil {
		seekCancel()
	}
	if seekDone != nil {
		<-seekDone
	}
	return p.pair.Close()
}
