package pipeline

import (
	"context"
	"time"
)

// request is one prepare request together with its master cancellation
// scope. At most one request is live; issuing a new one cancels the previous
// master, which cascades to the in-flight attempt's operation scope.
//
// gen is the issued-at ordinal. A finishing attempt must verify its gen
// still matches the pipeline's before mutating shared state or firing the
// callback; this is the late-finisher guard.
type request struct {
	gen     uint64
	source  string
	loop    bool
	onReady func()

	ctx    context.Context
	cancel context.CancelFunc
	// done is closed when the request's retry loop has fully unwound. The
	// next request waits on it before touching the standby slot.
	done chan struct{}
}

// sleepCtx waits for d or until the scope is cancelled, whichever is first.
// Returns the scope's error when cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
