// File: internal/engine/timing/timing.go
// Package timing computes per-character inter-keystroke intervals. The model
// is closed-loop: a drift correction steers the session back toward the
// target pace, and a log-normal sample layered with multiplicative jitter
// gives the heavy right tail of real typing. Strict mode reduces the model
// to the corrected base interval.
package timing

import (
	"math"
	"math/rand"
	"time"
)

const (
	// MinDelayMs floors every sampled interval so jitter can never produce a
	// zero or negative delay.
	MinDelayMs = 3.0
	// correctionLimit caps the drift correction at ±50% of the base
	// interval so the controller converges without oscillating.
	correctionLimit = 0.5
	// Sigma is the log-normal shape parameter. Higher values thicken the
	// tail of slow keystrokes.
	Sigma = 0.7
)

// BaseIntervalMs converts words-per-minute into a per-character interval
// using the standard 5-characters-per-word convention.
func BaseIntervalMs(wpm int) float64 {
	if wpm < 1 {
		wpm = 1
	}
	return 60000.0 / (float64(wpm) * 5.0)
}

// Sampler draws timing values from an injectable random source so tests can
// seed deterministic sequences.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler wraps the given source. A nil source panics; the engine always
// owns one RNG per controller.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		panic("timing: nil rng")
	}
	return &Sampler{rng: rng}
}

// Gaussian returns a standard normal variate via the Box–Muller transform
// over two independent uniform samples.
func (s *Sampler) Gaussian() float64 {
	// Float64 is in [0,1); shift to (0,1] so the log is finite.
	u1 := 1.0 - s.rng.Float64()
	u2 := 1.0 - s.rng.Float64()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}

// LogNormalMs samples a log-normal value whose mean equals meanMs, floored
// at MinDelayMs.
func (s *Sampler) LogNormalMs(meanMs, sigma float64) float64 {
	if meanMs < MinDelayMs {
		meanMs = MinDelayMs
	}
	// mean = exp(mu + sigma^2/2), so solve for mu.
	mu := math.Log(meanMs) - 0.5*sigma*sigma
	val := math.Exp(mu + sigma*s.Gaussian())
	if val < MinDelayMs {
		val = MinDelayMs
	}
	return val
}

// UniformMs returns a uniform sample in [lo, hi] milliseconds as a duration.
func (s *Sampler) UniformMs(lo, hi int) time.Duration {
	if hi < lo {
		lo, hi = hi, lo
	}
	ms := lo
	if hi > lo {
		ms = lo + s.rng.Intn(hi-lo+1)
	}
	return time.Duration(ms) * time.Millisecond
}

// Percent rolls a [0,100) die against pct.
func (s *Sampler) Percent(pct int) bool {
	if pct <= 0 {
		return false
	}
	return s.rng.Intn(100) < pct
}

// Intn forwards to the underlying source.
func (s *Sampler) Intn(n int) int { return s.rng.Intn(n) }

// SessionSpeedMultiplier draws the once-per-session ±10% pace multiplier.
func (s *Sampler) SessionSpeedMultiplier() float64 {
	return 1.0 + float64(s.rng.Intn(21)-10)/100.0
}

// SessionWPMJitter draws the once-per-session ±2 WPM offset.
func (s *Sampler) SessionWPMJitter() int {
	return s.rng.Intn(5) - 2
}

// Input carries everything NextDelay needs for one character.
type Input struct {
	// BaseMs is the target per-character interval, already scaled by the
	// session speed multiplier.
	BaseMs float64
	// Elapsed is wall-clock time since the session started.
	Elapsed time.Duration
	// Position is the cursor index; Remaining counts characters left
	// including the current one.
	Position  int
	Remaining int
	// JitterFrac is the multiplicative jitter amplitude in [0,1].
	JitterFrac float64
	Strict     bool
}

// DriftCorrectionMs compares actual elapsed time against the ideal pace and
// returns a per-character adjustment clamped to ±50% of the base interval.
func DriftCorrectionMs(in Input) float64 {
	remaining := in.Remaining
	if remaining < 1 {
		remaining = 1
	}
	ideal := float64(in.Position) * in.BaseMs
	errMs := float64(in.Elapsed)/float64(time.Millisecond) - ideal
	correction := -errMs / float64(remaining)

	limit := in.BaseMs * correctionLimit
	if correction > limit {
		correction = limit
	}
	if correction < -limit {
		correction = -limit
	}
	return correction
}

// NextDelay computes the inter-keystroke interval for one character. Strict
// mode skips the log-normal tail and jitter and targets exact pacing.
func (s *Sampler) NextDelay(in Input) time.Duration {
	target := in.BaseMs + DriftCorrectionMs(in)
	if target < MinDelayMs {
		target = MinDelayMs
	}
	if in.Strict {
		return time.Duration(target * float64(time.Millisecond))
	}

	delay := s.LogNormalMs(target, Sigma)
	// Multiplicative jitter: scale by 1 + U(-1,1)*jitterFrac.
	jitterFactor := 1.0 + (s.rng.Float64()*2.0-1.0)*in.JitterFrac
	delay *= jitterFactor
	if delay < MinDelayMs {
		delay = MinDelayMs
	}
	return time.Duration(delay * float64(time.Millisecond))
}
