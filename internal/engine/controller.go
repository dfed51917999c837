// File: internal/engine/controller.go
// Package engine implements the humanized keystroke emission engine: the
// session state machine (Idle -> Running <-> Paused -> Idle), the emission
// loop with its cooperative suspension points, and the mistake injector.
//
// The emission loop runs in its own goroutine; control plane calls arrive
// from HTTP handler goroutines. Session state and the live typing config are
// therefore guarded by a mutex, and the stop/pause flags the loop polls at
// wait points are atomics. The sink is only ever invoked from the engine
// goroutine.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/engine/timing"
	"github.com/xkilldash9x/ghosttype/internal/keylog"
	"github.com/xkilldash9x/ghosttype/internal/sink"
	"github.com/xkilldash9x/ghosttype/internal/textprep"
)

// State is the session controller state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// pollInterval bounds how long a stop or pause request can go unobserved
// inside a wait.
const pollInterval = time.Millisecond

// Status is a point-in-time snapshot for the control plane.
type Status struct {
	State         State               `json:"state"`
	SessionID     string              `json:"sessionId,omitempty"`
	Cursor        int                 `json:"cursor"`
	Length        int                 `json:"length"`
	Emitted       int                 `json:"emitted"`
	SinkAvailable bool                `json:"sinkAvailable"`
	Typing        config.TypingConfig `json:"typing"`
}

// session is the ephemeral per-run state, owned by the emission goroutine.
type session struct {
	id    string
	text  []rune
	start time.Time

	cursor  int
	emitted int // pressCharacter calls, including mistake chunks and retypes

	mistakeStreak    int // consecutive mistakes, reset by any correct char
	mistakesInFlight int // mistakes begun this session, capped by config

	speedMult float64
	wpmJitter int
}

// Controller drives typing sessions against a sink.
type Controller struct {
	logger *zap.Logger
	snk    sink.Sink
	klog   *keylog.Log

	mu      sync.Mutex
	cfg     config.TypingConfig
	sampler *timing.Sampler // used only by the emission goroutine
	sess    *session
	done    chan struct{}

	stopFlag  atomic.Bool
	pauseFlag atomic.Bool
}

// New creates a controller with a time-seeded RNG. klog may be nil when
// keystroke logging is not wired at all.
func New(cfg config.TypingConfig, snk sink.Sink, klog *keylog.Log, logger *zap.Logger) *Controller {
	return NewSeeded(cfg, snk, klog, logger, time.Now().UnixNano())
}

// NewSeeded creates a controller with a deterministic RNG. Tests use this to
// assert exact mistake and timing choices.
func NewSeeded(cfg config.TypingConfig, snk sink.Sink, klog *keylog.Log, logger *zap.Logger, seed int64) *Controller {
	cfg.Clamp()
	return &Controller{
		logger:  logger.With(zap.String("component", "engine")),
		snk:     snk,
		klog:    klog,
		cfg:     cfg,
		sampler: timing.NewSampler(rand.New(rand.NewSource(seed))),
	}
}

// Start begins a new typing session. The text is preprocessed under the
// current config; the emission loop runs in its own goroutine until natural
// completion, a stop request, sink loss, or ctx cancellation.
func (c *Controller) Start(ctx context.Context, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		return ErrBusy
	}
	if !c.snk.Available() {
		return ErrSinkUnavailable
	}

	prepared := textprep.Prepare(raw, textprep.OptionsFrom(c.cfg))
	if len(prepared) == 0 {
		return ErrEmptyInput
	}

	sess := &session{
		id:        uuid.NewString(),
		text:      []rune(prepared),
		start:     time.Now(),
		speedMult: c.sampler.SessionSpeedMultiplier(),
		wpmJitter: c.sampler.SessionWPMJitter(),
	}
	done := make(chan struct{})

	c.sess = sess
	c.done = done
	c.stopFlag.Store(false)
	c.pauseFlag.Store(false)

	c.logger.Info("Typing session started",
		zap.String("session_id", sess.id),
		zap.Int("chars", len(sess.text)),
		zap.Float64("speed_multiplier", sess.speedMult),
		zap.Int("wpm_jitter", sess.wpmJitter))

	go c.run(ctx, sess, done)
	return nil
}

// Stop requests the active session to halt. Idempotent; a no-op when Idle.
// The loop observes the request within one poll interval.
func (c *Controller) Stop() {
	c.mu.Lock()
	active := c.sess != nil
	c.mu.Unlock()
	if active {
		c.stopFlag.Store(true)
	}
}

// TogglePause flips Running <-> Paused. Rejected when Idle.
func (c *Controller) TogglePause() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return StateIdle, ErrNotRunning
	}
	if c.pauseFlag.Load() {
		c.pauseFlag.Store(false)
		c.logger.Info("Session resumed", zap.String("session_id", c.sess.id))
		return StateRunning, nil
	}
	c.pauseFlag.Store(true)
	c.logger.Info("Session paused", zap.String("session_id", c.sess.id))
	return StatePaused, nil
}

// SetLiveRate updates the target WPM, clamped to [10,300]. The new rate is
// picked up at the next character boundary. Returns the effective value.
func (c *Controller) SetLiveRate(wpm int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.WPM = wpm
	c.cfg.Clamp()
	return c.cfg.WPM
}

// UpdateConfig applies a partial config patch with per-field clamping and
// reports whether anything actually changed.
func (c *Controller) UpdateConfig(patch config.TypingPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := patch.Apply(&c.cfg)
	if changed {
		c.logger.Debug("Typing config updated", zap.Any("config", c.cfg))
	}
	return changed
}

// SetKeylogEnabled toggles keystroke history recording.
func (c *Controller) SetKeylogEnabled(enabled bool) {
	if c.klog != nil {
		c.klog.SetEnabled(enabled)
	}
}

// KeylogEnabled reports whether keystroke history recording is on.
func (c *Controller) KeylogEnabled() bool {
	return c.klog != nil && c.klog.Enabled()
}

// ReadLog returns the retained keystroke history in emission order, or nil
// when logging is disabled.
func (c *Controller) ReadLog() []keylog.Entry {
	if c.klog == nil || !c.klog.Enabled() {
		return nil
	}
	return c.klog.Snapshot()
}

// Status reports the current state, cursor, and a full config snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:         StateIdle,
		SinkAvailable: c.snk.Available(),
		Typing:        c.cfg,
	}
	if c.sess != nil {
		st.State = StateRunning
		if c.pauseFlag.Load() {
			st.State = StatePaused
		}
		st.SessionID = c.sess.id
		st.Cursor = c.sess.cursor
		st.Length = len(c.sess.text)
		st.Emitted = c.sess.emitted
	}
	return st
}

// Wait blocks until the active session (if any) finishes or ctx expires.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	active := c.sess != nil
	c.mu.Unlock()
	if !active || done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// coopWait sleeps for d while polling the stop/pause flags and ctx at
// pollInterval granularity. The deadline is wall-clock, so time spent Paused
// inside a wait still counts against it. Returns false when the session
// must abort.
func (c *Controller) coopWait(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if c.stopFlag.Load() || ctx.Err() != nil {
			return false
		}
		for c.pauseFlag.Load() {
			if c.stopFlag.Load() || ctx.Err() != nil {
				return false
			}
			time.Sleep(pollInterval)
		}
		now := time.Now()
		if !now.Before(deadline) {
			return true
		}
		rest := deadline.Sub(now)
		if rest > pollInterval {
			rest = pollInterval
		}
		time.Sleep(rest)
	}
}

// snapshotConfig returns the live config under the lock. The loop calls this
// once per character so control-plane updates land on character boundaries.
func (c *Controller) snapshotConfig() config.TypingConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}
