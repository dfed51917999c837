// File: internal/engine/timing/timing_test.go
package timing

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSampler(seed int64) *Sampler {
	return NewSampler(rand.New(rand.NewSource(seed)))
}

func TestBaseIntervalMs(t *testing.T) {
	assert.InDelta(t, 120.0, BaseIntervalMs(100), 1e-9)
	assert.InDelta(t, 40.0, BaseIntervalMs(300), 1e-9)
	assert.InDelta(t, 1200.0, BaseIntervalMs(10), 1e-9)
	// Guard against a zero divisor.
	assert.InDelta(t, 12000.0, BaseIntervalMs(0), 1e-9)
}

func TestDriftCorrection_SignAndClamp(t *testing.T) {
	base := 100.0

	// Behind schedule: elapsed exceeds ideal, correction must be negative.
	behind := Input{BaseMs: base, Elapsed: 2 * time.Second, Position: 10, Remaining: 40}
	assert.Less(t, DriftCorrectionMs(behind), 0.0)

	// Ahead of schedule: correction must be positive.
	ahead := Input{BaseMs: base, Elapsed: 500 * time.Millisecond, Position: 10, Remaining: 40}
	assert.Greater(t, DriftCorrectionMs(ahead), 0.0)

	// Massive drift clamps at half the base interval.
	wild := Input{BaseMs: base, Elapsed: time.Hour, Position: 10, Remaining: 2}
	assert.InDelta(t, -50.0, DriftCorrectionMs(wild), 1e-9)

	wildAhead := Input{BaseMs: base, Elapsed: 0, Position: 1000, Remaining: 2}
	assert.InDelta(t, 50.0, DriftCorrectionMs(wildAhead), 1e-9)
}

func TestDriftCorrection_ZeroRemaining(t *testing.T) {
	in := Input{BaseMs: 100, Elapsed: time.Second, Position: 5, Remaining: 0}
	// Remaining is floored to one instead of dividing by zero.
	got := DriftCorrectionMs(in)
	assert.False(t, math.IsNaN(got))
	assert.False(t, math.IsInf(got, 0))
}

func TestLogNormalMs_FlooredAndFinite(t *testing.T) {
	s := newTestSampler(42)
	for i := 0; i < 1000; i++ {
		v := s.LogNormalMs(50, Sigma)
		require.GreaterOrEqual(t, v, MinDelayMs)
		require.False(t, math.IsInf(v, 0))
	}
}

func TestLogNormalMs_MeanRoughlyMatches(t *testing.T) {
	s := newTestSampler(7)
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		sum += s.LogNormalMs(100, Sigma)
	}
	// The sample mean of a log-normal converges slowly; 10% is plenty tight
	// for a seeded run of this size.
	assert.InDelta(t, 100.0, sum/n, 10.0)
}

func TestNextDelay_StrictIsDeterministic(t *testing.T) {
	in := Input{BaseMs: 120, Remaining: 10, Strict: true}
	a := newTestSampler(1).NextDelay(in)
	b := newTestSampler(2).NextDelay(in)
	assert.Equal(t, a, b)
	assert.Equal(t, 120*time.Millisecond, a)
}

func TestNextDelay_StrictSessionTracksIdealPace(t *testing.T) {
	s := newTestSampler(1)
	const (
		n      = 50
		baseMs = 100.0
	)

	// Feed each delay back as elapsed time: a session that sleeps exactly
	// what the model asks for stays on the ideal pace, so every correction
	// is zero and the total is exactly n times the base interval.
	var elapsed time.Duration
	for i := 0; i < n; i++ {
		d := s.NextDelay(Input{
			BaseMs:    baseMs,
			Elapsed:   elapsed,
			Position:  i,
			Remaining: n - i,
			Strict:    true,
		})
		require.Equal(t, 100*time.Millisecond, d)
		elapsed += d
	}
	assert.Equal(t, n*100*time.Millisecond, elapsed)
}

func TestNextDelay_StrictRecoversFromHiccup(t *testing.T) {
	s := newTestSampler(1)

	// A 300 ms stall at character 10 of 50 puts the session behind the
	// ideal pace; the next delays must come in under the base interval.
	in := Input{
		BaseMs:    100.0,
		Elapsed:   10*100*time.Millisecond + 300*time.Millisecond,
		Position:  10,
		Remaining: 40,
		Strict:    true,
	}
	d := s.NextDelay(in)
	assert.Less(t, d, 100*time.Millisecond)
	// Clamped at half the base even for a much larger stall.
	in.Elapsed = time.Minute
	assert.Equal(t, 50*time.Millisecond, s.NextDelay(in))
}

func TestNextDelay_NeverBelowFloor(t *testing.T) {
	s := newTestSampler(99)
	in := Input{BaseMs: 4, Remaining: 5, JitterFrac: 0.45}
	for i := 0; i < 1000; i++ {
		require.GreaterOrEqual(t, s.NextDelay(in), time.Duration(MinDelayMs)*time.Millisecond)
	}
}

func TestUniformMs_RangeAndSwap(t *testing.T) {
	s := newTestSampler(3)
	for i := 0; i < 200; i++ {
		d := s.UniformMs(40, 140)
		require.GreaterOrEqual(t, d, 40*time.Millisecond)
		require.LessOrEqual(t, d, 140*time.Millisecond)
	}
	// Inverted bounds behave as if swapped.
	d := s.UniformMs(100, 20)
	assert.GreaterOrEqual(t, d, 20*time.Millisecond)
	assert.LessOrEqual(t, d, 100*time.Millisecond)
	// Degenerate range is exact.
	assert.Equal(t, 50*time.Millisecond, s.UniformMs(50, 50))
}

func TestPercent_Extremes(t *testing.T) {
	s := newTestSampler(5)
	for i := 0; i < 100; i++ {
		require.False(t, s.Percent(0))
		require.True(t, s.Percent(100))
	}
}

func TestSessionDraws_WithinBounds(t *testing.T) {
	s := newTestSampler(11)
	for i := 0; i < 500; i++ {
		m := s.SessionSpeedMultiplier()
		require.GreaterOrEqual(t, m, 0.9)
		require.LessOrEqual(t, m, 1.1)

		j := s.SessionWPMJitter()
		require.GreaterOrEqual(t, j, -2)
		require.LessOrEqual(t, j, 2)
	}
}

func TestNewSampler_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewSampler(nil) })
}
