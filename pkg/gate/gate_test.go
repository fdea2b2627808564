package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/metalblueberry/fretscribe/pkg/pitch"
)

func TestAdmitSpacing(t *testing.T) {
	tests := []struct {
		name     string
		spacing  int64
		accepted int
	}{
		{"too close", 100, 1},
		{"exactly interval", 200, 2},
		{"far apart", 250, 2},
	}

	policy := DefaultPolicy()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{}
			count := 0

			for _, ts := range []int64{1000, 1000 + tt.spacing} {
				var ok bool
				state, ok = policy.Admit(state, pitch.NewEstimate(110, 0.9, ts))

				if ok {
					count++
				}

			}

			assert.Equal(t, tt.accepted, count)
		})
	}
}

func TestAdmitFirstEstimateAtTimeZero(t *testing.T) {
	state, ok := DefaultPolicy().Admit(State{}, pitch.NewEstimate(110, 0.9, 0))
	assert.True(t, ok)
	assert.True(t, state.Accepted)
	assert.Equal(t, int64(0), state.LastAcceptedMs)
}

func TestAdmitRejectsLowConfidence(t *testing.T) {
	policy := DefaultPolicy()
	state := State{LastAcceptedMs: 10, Accepted: true}

	next, ok := policy.Admit(state, pitch.NewEstimate(110, 0.29, 5000))
	assert.False(t, ok)
	assert.Equal(t, state, next)
	assert.Equal(t, "confidence", policy.Reason(state, pitch.NewEstimate(110, 0.29, 5000)))

	_, ok = policy.Admit(state, pitch.NewEstimate(110, 0.3, 5000))
	assert.True(t, ok)
}

func TestRejectedEstimateDoesNotRestartInterval(t *testing.T) {
	policy := DefaultPolicy()
	state := State{}
	offers := []struct {
		ts   int64
		want bool
	}{
		{1000, true},
		{1150, false},
		{1200, true},
		{1210, false},
	}

	for _, o := range offers {
		var ok bool
		state, ok = policy.Admit(state, pitch.NewEstimate(110, 0.9, o.ts))
		assert.Equal(t, o.want, ok, "offer at %d", o.ts)
	}

	assert.Equal(t, int64(1200), state.LastAcceptedMs)
}

func TestReason(t *testing.T) {
	policy := Policy{MinConfidence: 0.5, Interval: time.Second}
	state := State{LastAcceptedMs: 1000, Accepted: true}

	assert.Equal(t, "debounce", policy.Reason(state, pitch.NewEstimate(110, 0.9, 1500)))
	assert.Equal(t, "", policy.Reason(state, pitch.NewEstimate(110, 0.9, 2000)))
}
