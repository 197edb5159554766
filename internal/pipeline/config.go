package pipeline

import "time"

// Config holds the preparation and seek timing knobs.
type Config struct {
	// PrepareTimeout bounds one attempt's wait for the decoder's
	// ready/error signal.
	PrepareTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt; a request
	// makes at most MaxRetries+1 attempts.
	MaxRetries int
	// RetryDelay is the cancellable wait between attempts.
	RetryDelay time.Duration
	// PreDelay runs before each attempt touches the slot. Compensates for
	// devices where rapid reassignment causes a stutter.
	PreDelay time.Duration
	// SettleDelay runs after the slot has been forced Idle, before the new
	// source is assigned.
	SettleDelay time.Duration
	// SeekSettle is the yield after applying a seek, letting the position
	// change take effect before playback resumes.
	SeekSettle time.Duration
	// SeekReadyBudget bounds the wait for the decoder to become seekable.
	SeekReadyBudget time.Duration
}

// DefaultConfig returns the production timing defaults.
func DefaultConfig() Config {
	return Config{
		PrepareTimeout:  3 * time.Second,
		MaxRetries:      2,
		RetryDelay:      500 * time.Millisecond,
		PreDelay:        0,
		SettleDelay:     50 * time.Millisecond,
		SeekSettle:      100 * time.Millisecond,
		SeekReadyBudget: time.Second,
	}
}

// withDefaults clamps unusable values back to the defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PrepareTimeout <= 0 {
		c.PrepareTimeout = def.PrepareTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.PreDelay < 0 {
		c.PreDelay = 0
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.SeekSettle < 0 {
		c.SeekSettle = 0
	}
	if c.SeekReadyBudget <= 0 {
		c.SeekReadyBudget = def.SeekReadyBudget
	}
	return c
}
