package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/llehouerou/pulse/internal/decoder"
)

// tryPrepare runs one preparation attempt against the slot under the given
// operation scope. Every exit path is a tagged Outcome; errors never
// propagate past this boundary. Side effects are confined to the slot: on
// any non-success exit the slot is stopped if it still holds the requested
// source, so a late ready-signal can never silently complete a dead attempt
// and the slot is never left attached to a half-prepared source.
func (p *Pipeline) tryPrepare(ctx context.Context, slot *Slot, source string, loop bool) (out Outcome) {
	dec := slot.Decoder

	defer func() {
		if out.Kind != OutcomeSuccess &&
			dec.Source() == source && dec.State() != decoder.StateIdle {
			dec.Stop()
		}
	}()

	// Pre-delay before touching the slot.
	if err := sleepCtx(ctx, p.cfg.PreDelay); err != nil {
		return cancelled()
	}

	// Force the slot to Idle: any prior assignment is explicitly stopped
	// before reassignment. This is a hard precondition, not an assumption.
	if dec.State() != decoder.StateIdle {
		dec.Stop()
	}
	if st := dec.State(); st != decoder.StateIdle {
		return failed(fmt.Errorf("slot not idle after stop: %s", st))
	}

	if err := sleepCtx(ctx, p.cfg.SettleDelay); err != nil {
		return cancelled()
	}
	if ctx.Err() != nil {
		return cancelled()
	}

	// One-shot listener scoped to this exact (slot, source) pair; the
	// unregister runs on every exit so listeners never accumulate across
	// repeated attempts.
	events, unsubscribe := dec.Subscribe()
	defer unsubscribe()

	dec.Assign(source, loop)
	dec.Prepare()

	timeout := time.NewTimer(p.cfg.PrepareTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return cancelled()

		case <-timeout.C:
			return timedOut()

		case ev, ok := <-events:
			if !ok {
				return failed(fmt.Errorf("event stream closed while preparing %q", source))
			}
			if ev.Source != source {
				// Stale event from a previous source on the same slot.
				continue
			}
			switch ev.Kind {
			case decoder.EventReady:
				// Re-validate: a stop may have raced the signal.
				if dec.State() == decoder.StateReady && dec.Source() == source {
					return succeeded()
				}
				return failed(fmt.Errorf("ready signal for %q but slot is %s holding %q",
					source, dec.State(), dec.Source()))
			case decoder.EventError:
				return failed(ev.Err)
			default:
				continue
			}
		}
	}
}
