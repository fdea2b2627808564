package gate

import (
	"time"

	"github.com/metalblueberry/fretscribe/pkg/pitch"
)

/*
 * Data structure representing the rules deciding whether a pitch estimate
 * becomes a note event.
 */
type Policy struct {
	MinConfidence float64
	Interval      time.Duration
}

/*
 * Data structure representing the memory of the gate between estimates.
 *
 * The zero value is the state of a gate which has not accepted anything
 * yet.
 */
type State struct {
	LastAcceptedMs int64
	Accepted       bool
}

/*
 * Returns the default detection policy.
 */
func DefaultPolicy() Policy {

	/*
	 * Create default policy.
	 */
	p := Policy{
		MinConfidence: 0.3,
		Interval:      200 * time.Millisecond,
	}

	return p
}

/*
 * Decide whether an estimate is admitted.
 *
 * Returns the state to carry forward and whether the estimate was
 * accepted. The first confident estimate is always accepted. Rejected
 * estimates leave the state unchanged.
 */
func (p Policy) Admit(state State, est pitch.Estimate) (State, bool) {

	/*
	 * Weak estimates are never accepted.
	 */
	if est.Confidence() < p.MinConfidence {
		return state, false
	}

	ts := est.TimestampMs()

	/*
	 * Enforce minimum spacing between events.
	 */
	if state.Accepted && ts-state.LastAcceptedMs < p.Interval.Milliseconds() {
		return state, false
	}

	next := State{
		LastAcceptedMs: ts,
		Accepted:       true,
	}

	return next, true
}

/*
 * Reports why an estimate would be rejected, or the empty string if it
 * would be accepted.
 */
func (p Policy) Reason(state State, est pitch.Estimate) string {

	if est.Confidence() < p.MinConfidence {
		return "confidence"
	} else if state.Accepted && est.TimestampMs()-state.LastAcceptedMs < p.Interval.Milliseconds() {
		return "debounce"
	}

	return ""
}
