package pipeline

// OutcomeKind classifies how a preparation attempt ended.
type OutcomeKind int

const (
	// OutcomeSuccess: the slot is Ready with the requested source.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeTimeout: the decoder never signalled within budget. Retryable.
	OutcomeTimeout
	// OutcomeError: the decoder rejected the source or produced an invalid
	// ready state. Not retryable.
	OutcomeError
	// OutcomeCancelled: the attempt was superseded. Silently discarded.
	OutcomeCancelled
)

// String returns the outcome kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeTimeout:
		return "Timeout"
	case OutcomeError:
		return "Error"
	case OutcomeCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged result of one preparation attempt. Err is set only
// for OutcomeError. Attempts never leak errors any other way.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

func succeeded() Outcome       { return Outcome{Kind: OutcomeSuccess} }
func timedOut() Outcome        { return Outcome{Kind: OutcomeTimeout} }
func failed(err error) Outcome { return Outcome{Kind: OutcomeError, Err: err} }
func cancelled() Outcome       { return Outcome{Kind: OutcomeCancelled} }
