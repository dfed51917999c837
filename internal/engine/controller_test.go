// File: internal/engine/controller_test.go
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/keylog"
	"github.com/xkilldash9x/ghosttype/internal/sink"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fastConfig is tuned so sessions finish in tens of milliseconds: maximum
// rate, no holds, no pauses, no mistakes unless a test opts in.
func fastConfig() config.TypingConfig {
	cfg := config.NewDefaultConfig().Typing
	cfg.WPM = 300
	cfg.TyposEnabled = false
	cfg.HoldEnabled = false
	cfg.LongPauseEnabled = false
	cfg.ThinkPct = 0
	cfg.PunctPauseExtra = false
	return cfg
}

func newTestController(t *testing.T, cfg config.TypingConfig, snk sink.Sink) *Controller {
	t.Helper()
	return NewSeeded(cfg, snk, nil, zap.NewNop(), 12345)
}

// waitDone blocks until the controller returns to Idle.
func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func TestSession_TypesEverything(t *testing.T) {
	capture := sink.NewCapture()
	c := newTestController(t, fastConfig(), capture)

	require.NoError(t, c.Start(context.Background(), "hello world"))
	waitDone(t, c)

	assert.Equal(t, "hello world", capture.Transcript())
	for _, ev := range capture.Events() {
		assert.Equal(t, sink.EventChar, ev.Kind, "no backspaces with typos disabled")
	}

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Empty(t, st.SessionID)
}

func TestStart_RejectsSecondSession(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.WPM = 10 // slow enough that the first session is still running
	c := newTestController(t, cfg, capture)

	require.NoError(t, c.Start(context.Background(), "a long enough text"))
	err := c.Start(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	c.Stop()
	waitDone(t, c)
}

func TestStart_EmptyAfterPreprocessing(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.Newline = config.NewlineDrop
	c := newTestController(t, cfg, capture)

	err := c.Start(context.Background(), "\n\r\n\n")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestStart_SinkUnavailable(t *testing.T) {
	capture := sink.NewCapture()
	capture.SetAvailable(false)
	c := newTestController(t, fastConfig(), capture)

	err := c.Start(context.Background(), "text")
	assert.ErrorIs(t, err, ErrSinkUnavailable)
}

func TestMistakes_TranscriptStillCorrect(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.TyposEnabled = true
	cfg.MistakePct = 100
	cfg.MaxTypoChars = 2
	cfg.MaxConcurrentMistakes = 10
	cfg.MistakeStreakLimit = 3
	c := newTestController(t, cfg, capture)

	const text = "abcdef"
	require.NoError(t, c.Start(context.Background(), text))
	waitDone(t, c)

	// Every wrong insertion is erased by exactly one backspace, so the
	// replayed transcript matches the input.
	assert.Equal(t, text, capture.Transcript())

	var inserted, backspaces int
	for _, ev := range capture.Events() {
		if ev.Kind == sink.EventBackspace {
			backspaces++
		}
	}
	inserted = len(capture.Events()) - backspaces - len(text)
	require.Positive(t, backspaces, "pct 100 must produce at least one mistake")
	assert.Equal(t, inserted, backspaces)
}

func TestMistakes_ChunkNeverPassesEnd(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.TyposEnabled = true
	cfg.MistakePct = 100
	cfg.MaxTypoChars = 6
	cfg.MaxConcurrentMistakes = 10
	c := newTestController(t, cfg, capture)

	// Shorter than the max chunk length; the chunk must cap to what is left.
	require.NoError(t, c.Start(context.Background(), "ab"))
	waitDone(t, c)

	assert.Equal(t, "ab", capture.Transcript())
}

func TestPause_FreezesCursor(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.WPM = 10
	c := newTestController(t, cfg, capture)

	require.NoError(t, c.Start(context.Background(), "pause me somewhere in the middle"))

	state, err := c.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, StatePaused, state)

	before := c.Status().Cursor
	time.Sleep(50 * time.Millisecond)
	after := c.Status().Cursor
	assert.Equal(t, before, after, "cursor must not move while paused")
	assert.Equal(t, StatePaused, c.Status().State)

	state, err = c.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)

	c.Stop()
	waitDone(t, c)
}

func TestTogglePause_Idle(t *testing.T) {
	c := newTestController(t, fastConfig(), sink.NewCapture())
	state, err := c.TogglePause()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, StateIdle, state)
}

func TestStop_HaltsPromptly(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.WPM = 10
	c := newTestController(t, cfg, capture)

	require.NoError(t, c.Start(context.Background(), "this text is far too long to finish at ten wpm"))
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	c.Stop()
	waitDone(t, c)
	assert.Less(t, time.Since(start), 2*time.Second)

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
}

func TestStop_WhenIdleIsNoop(t *testing.T) {
	capture := sink.NewCapture()
	c := newTestController(t, fastConfig(), capture)
	c.Stop()

	// A stale stop request must not kill the next session.
	require.NoError(t, c.Start(context.Background(), "ok"))
	waitDone(t, c)
	assert.Equal(t, "ok", capture.Transcript())
}

func TestSinkLoss_AbortsSession(t *testing.T) {
	capture := sink.NewCapture()
	capture.FailAfter(3)
	c := newTestController(t, fastConfig(), capture)

	require.NoError(t, c.Start(context.Background(), "unreachable tail"))
	waitDone(t, c)

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.False(t, st.SinkAvailable)
	assert.Len(t, capture.Events(), 3)
}

func TestContextCancel_AbortsSession(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.WPM = 10
	c := newTestController(t, cfg, capture)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, "cancelled before completion"))
	time.Sleep(10 * time.Millisecond)
	cancel()
	waitDone(t, c)

	assert.Equal(t, StateIdle, c.Status().State)
}

func TestStrictSession_PacesAtConfiguredRate(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.Strict = true
	c := newTestController(t, cfg, capture)

	// 25 characters at 300 WPM: the nominal duration is 25 x 40 ms = 1 s.
	// The per-session speed multiplier (±10%) and WPM jitter widen that, and
	// the settle tail adds 120-420 ms after the last character.
	const text = "abcdefghijklmnopqrstuvwxy"
	start := time.Now()
	require.NoError(t, c.Start(context.Background(), text))
	waitDone(t, c)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 3*time.Second)
	assert.Equal(t, text, capture.Transcript())
}

func TestSetLiveRate_TakesEffectNextCharacter(t *testing.T) {
	capture := sink.NewCapture()
	cfg := fastConfig()
	cfg.Strict = true
	c := newTestController(t, cfg, capture)

	require.NoError(t, c.Start(context.Background(), "abcdefghij"))
	time.Sleep(150 * time.Millisecond) // a few characters at 40 ms each

	c.SetLiveRate(10)
	// Let the wait computed at the old rate drain; everything after it uses
	// the new 6 s base, which even fully drift-corrected stays above 3 s.
	time.Sleep(100 * time.Millisecond)
	before := c.Status().Cursor
	time.Sleep(400 * time.Millisecond)
	after := c.Status().Cursor

	require.Equal(t, StateRunning, c.Status().State)
	assert.LessOrEqual(t, after-before, 1, "new rate must slow the very next character")

	c.Stop()
	waitDone(t, c)
}

func TestSetLiveRate_Clamps(t *testing.T) {
	c := newTestController(t, fastConfig(), sink.NewCapture())
	assert.Equal(t, 300, c.SetLiveRate(1000))
	assert.Equal(t, 10, c.SetLiveRate(1))
	assert.Equal(t, 150, c.SetLiveRate(150))
	assert.Equal(t, 150, c.Status().Typing.WPM)
}

func TestUpdateConfig_ReportsChange(t *testing.T) {
	c := newTestController(t, fastConfig(), sink.NewCapture())

	jitter := 20
	assert.True(t, c.UpdateConfig(config.TypingPatch{JitterPct: &jitter}))
	assert.False(t, c.UpdateConfig(config.TypingPatch{JitterPct: &jitter}))
	assert.Equal(t, 20, c.Status().Typing.JitterPct)
}

func TestKeylog_RecordsSession(t *testing.T) {
	capture := sink.NewCapture()
	klog := keylog.New(64)
	c := NewSeeded(fastConfig(), capture, klog, zap.NewNop(), 12345)

	assert.Nil(t, c.ReadLog(), "disabled log reads as nil")

	c.SetKeylogEnabled(true)
	require.NoError(t, c.Start(context.Background(), "abc"))
	waitDone(t, c)

	entries := c.ReadLog()
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Char)
	assert.Equal(t, keylog.KindTyped, entries[0].Kind)

	c.SetKeylogEnabled(false)
	assert.Nil(t, c.ReadLog())
}

func TestStatus_ReflectsProgress(t *testing.T) {
	capture := sink.NewCapture()
	c := newTestController(t, fastConfig(), capture)

	require.NoError(t, c.Start(context.Background(), "progress"))
	st := c.Status()
	assert.Equal(t, StateRunning, st.State)
	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, len("progress"), st.Length)

	waitDone(t, c)
	final := c.Status()
	assert.Equal(t, StateIdle, final.State)
	assert.Zero(t, final.Cursor)
	assert.Zero(t, final.Length)
}
