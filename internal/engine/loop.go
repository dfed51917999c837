// File: internal/engine/loop.go
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/engine/timing"
	"github.com/xkilldash9x/ghosttype/internal/keylog"
)

// run is the emission loop. It owns the session exclusively; the controller
// only reads session fields under the mutex for status snapshots.
func (c *Controller) run(ctx context.Context, sess *session, done chan struct{}) {
	completed := c.emit(ctx, sess)

	if completed {
		// Settle tail after natural completion, mirroring a human lifting
		// their hands off the keyboard.
		c.coopWait(ctx, 120*time.Millisecond+c.sampler.UniformMs(0, 300))
	}

	c.mu.Lock()
	c.sess = nil
	c.done = nil
	c.pauseFlag.Store(false)
	c.stopFlag.Store(false)
	c.mu.Unlock()

	c.logger.Info("Typing session finished",
		zap.String("session_id", sess.id),
		zap.Bool("completed", completed),
		zap.Int("cursor", sess.cursor),
		zap.Int("emitted", sess.emitted))
	close(done)
}

// emit walks the prepared text. Returns true on natural completion, false
// when the session aborted (stop request, ctx cancellation, sink loss).
func (c *Controller) emit(ctx context.Context, sess *session) bool {
	text := sess.text
	n := len(text)

	for sess.cursor < n {
		if c.stopFlag.Load() || ctx.Err() != nil {
			return false
		}
		if !c.snk.Available() {
			c.logger.Warn("Sink lost mid-session; stopping",
				zap.String("session_id", sess.id), zap.Int("cursor", sess.cursor))
			return false
		}
		if !c.waitWhilePaused(ctx) {
			return false
		}

		cfg := c.snapshotConfig()
		ch := text[sess.cursor]
		delay := c.nextDelay(cfg, sess, n)

		// Occasional long pause before a word boundary.
		if !cfg.Strict && cfg.LongPauseEnabled && ch == ' ' && c.sampler.Percent(cfg.LongPausePct) {
			if !c.coopWait(ctx, c.sampler.UniformMs(cfg.LongPauseMinMs, cfg.LongPauseMaxMs)) {
				return false
			}
		}

		if c.shouldMistake(cfg, sess, ch) {
			if !c.runMistake(ctx, cfg, sess, delay) {
				return false
			}
		} else {
			if !c.typeCorrect(ctx, cfg, sess, ch, delay) {
				return false
			}
			sess.mistakeStreak = 0
			c.advance(sess, 1)
		}

		// Thinking pause after a space: the typist looks at what comes next.
		if !cfg.Strict && ch == ' ' && c.sampler.Percent(cfg.ThinkPct) {
			if !c.coopWait(ctx, c.sampler.UniformMs(400, 1000)) {
				return false
			}
		}
	}
	return true
}

// nextDelay computes the inter-keystroke interval from the live config and
// the session's drift against ideal pacing.
func (c *Controller) nextDelay(cfg config.TypingConfig, sess *session, total int) time.Duration {
	wpm := cfg.WPM + sess.wpmJitter
	if wpm < 10 {
		wpm = 10
	}
	if wpm > 300 {
		wpm = 300
	}
	base := timing.BaseIntervalMs(wpm) * sess.speedMult

	return c.sampler.NextDelay(timing.Input{
		BaseMs:     base,
		Elapsed:    time.Since(sess.start),
		Position:   sess.cursor,
		Remaining:  total - sess.cursor,
		JitterFrac: float64(cfg.EffectiveJitterPct()) / 100.0,
		Strict:     cfg.Strict,
	})
}

// typeCorrect emits one correct character with its situational extras and
// simulated key hold.
func (c *Controller) typeCorrect(ctx context.Context, cfg config.TypingConfig, sess *session, ch rune, delay time.Duration) bool {
	hold := c.holdTime(cfg)
	if !c.press(ctx, sess, ch, hold, keylog.KindTyped) {
		return false
	}

	var extra time.Duration
	if !cfg.Strict {
		switch {
		case ch == ' ':
			extra += c.sampler.UniformMs(40, 140)
		case isSentencePunct(ch) && cfg.PunctPauseExtra:
			extra += c.sampler.UniformMs(80, 220)
		case ch == '\n' || ch == '\r':
			extra += c.sampler.UniformMs(120, 320)
		}
	}

	return c.coopWait(ctx, delay+extra+hold)
}

// press sends one character through the sink and records it. A sink failure
// is fatal to the session, never retried.
func (c *Controller) press(ctx context.Context, sess *session, ch rune, hold time.Duration, kind keylog.Kind) bool {
	if err := c.snk.PressCharacter(ctx, ch); err != nil {
		c.logger.Warn("Character press failed; stopping session",
			zap.String("session_id", sess.id), zap.Error(err))
		return false
	}
	c.mu.Lock()
	sess.emitted++
	c.mu.Unlock()
	c.record(keylog.Entry{At: time.Now(), Char: string(ch), Hold: hold, Kind: kind})
	return true
}

// backspace sends one erasure through the sink.
func (c *Controller) backspace(ctx context.Context, sess *session) bool {
	if err := c.snk.PressBackspace(ctx); err != nil {
		c.logger.Warn("Backspace press failed; stopping session",
			zap.String("session_id", sess.id), zap.Error(err))
		return false
	}
	c.record(keylog.Entry{At: time.Now(), Char: "\b", Kind: keylog.KindErased})
	return true
}

func (c *Controller) record(e keylog.Entry) {
	if c.klog != nil {
		c.klog.Record(e)
	}
}

// holdTime samples the simulated key-down dwell, zero when disabled.
func (c *Controller) holdTime(cfg config.TypingConfig) time.Duration {
	if !cfg.HoldEnabled {
		return 0
	}
	return c.sampler.UniformMs(cfg.HoldMinMs, cfg.HoldMaxMs)
}

// advance moves the cursor past count characters under the lock so status
// snapshots never observe a torn update.
func (c *Controller) advance(sess *session, count int) {
	c.mu.Lock()
	sess.cursor += count
	c.mu.Unlock()
}

// waitWhilePaused spins at poll granularity while Paused. The cursor is
// frozen here; wall time keeps running.
func (c *Controller) waitWhilePaused(ctx context.Context) bool {
	for c.pauseFlag.Load() {
		if c.stopFlag.Load() || ctx.Err() != nil {
			return false
		}
		time.Sleep(pollInterval)
	}
	return true
}

func isSentencePunct(ch rune) bool {
	switch ch {
	case '.', ',', '!', '?', ';', ':':
		return true
	}
	return false
}

func isASCIIAlnum(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
