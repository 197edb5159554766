package pipeline

import "context"

// runPrepare drives the bounded retry loop for one request. It owns the
// request's lifetime: the done channel closes only after the loop has fully
// unwound, which is what allows a superseding request to safely take over
// the standby slot.
//
// Timeout and Cancelled are retryable (cancellation ends the loop anyway via
// the master scope); Error halts immediately since it indicates a malformed
// or unsupported source rather than transient unavailability. Exhausting all
// attempts is logged non-fatal: the caller learns of total failure only by
// the completion callback never firing.
func (p *Pipeline) runPrepare(req *request, slot *Slot) {
	defer close(req.done)

	attempts := p.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if req.ctx.Err() != nil {
			p.log.Debug().Str("source", req.source).Msg("prepare superseded")
			return
		}

		// Operation scope: child of the request's master scope.
		opCtx, opCancel := context.WithCancel(req.ctx)
		out := p.tryPrepare(opCtx, slot, req.source, req.loop)
		opCancel()

		switch out.Kind {
		case OutcomeSuccess:
			p.completeSwap(req, slot)
			return

		case OutcomeError:
			p.log.Error().Err(out.Err).Str("source", req.source).
				Int("attempt", attempt+1).Msg("prepare failed, not retrying")
			return

		case OutcomeCancelled:
			if req.ctx.Err() != nil {
				p.log.Debug().Str("source", req.source).Msg("prepare superseded")
				return
			}

		case OutcomeTimeout:
			p.log.Warn().Str("source", req.source).
				Int("attempt", attempt+1).Int("max_attempts", attempts).
				Msg("prepare attempt timed out")
		}

		if attempt < attempts-1 {
			if err := sleepCtx(req.ctx, p.cfg.RetryDelay); err != nil {
				p.log.Debug().Str("source", req.source).Msg("prepare superseded during retry delay")
				return
			}
		}
	}

	p.log.Warn().Str("source", req.source).Int("attempts", attempts).
		Msg("prepare exhausted all attempts")
}
