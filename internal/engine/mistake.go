// File: internal/engine/mistake.go
package engine

import (
	"context"
	"time"
	"unicode"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/keylog"
)

// shouldMistake decides whether the current character diverts into the
// mistake branch. Only alphanumerics are eligible, and the streak and
// per-session caps must not be exhausted.
func (c *Controller) shouldMistake(cfg config.TypingConfig, sess *session, ch rune) bool {
	if !cfg.MistakesPossible() || !isASCIIAlnum(ch) {
		return false
	}
	if sess.mistakeStreak >= cfg.MistakeStreakLimit {
		return false
	}
	if sess.mistakesInFlight >= cfg.MaxConcurrentMistakes {
		return false
	}
	return c.sampler.Percent(cfg.MistakePct)
}

// runMistake performs one full mistake cycle: emit a wrong chunk, hesitate,
// erase it exactly, retype the correct span, and advance the cursor past the
// span in one step. Every wait is a suspension point; on abort the wrong
// chunk may be left uncorrected on the target.
func (c *Controller) runMistake(ctx context.Context, cfg config.TypingConfig, sess *session, delay time.Duration) bool {
	remaining := len(sess.text) - sess.cursor
	length := 1 + c.sampler.Intn(cfg.MaxTypoChars)
	if length > remaining {
		length = remaining
	}

	correct := sess.text[sess.cursor : sess.cursor+length]
	wrong := c.composeWrongChunk(correct[0], length)

	// Emit the wrong chunk with per-key holds.
	for _, wc := range wrong {
		hold := c.holdTime(cfg)
		if !c.press(ctx, sess, wc, hold, keylog.KindInserted) {
			return false
		}
		if !c.coopWait(ctx, hold) {
			return false
		}
	}

	// Hesitate: long enough to look like noticing the error.
	hesitation := delay
	if hesitation < 40*time.Millisecond {
		hesitation = 40 * time.Millisecond
	}
	if !c.coopWait(ctx, hesitation) {
		return false
	}

	// Erase exactly one backspace per wrong character. The erasure length
	// always equals the chunk length so the visible text is never left
	// incorrect after a completed correction.
	for i := 0; i < length; i++ {
		if !c.backspace(ctx, sess) {
			return false
		}
		if !c.coopWait(ctx, c.sampler.UniformMs(20, 60)) {
			return false
		}
	}

	// Retype the correct span.
	for _, rc := range correct {
		hold := c.holdTime(cfg)
		if !c.press(ctx, sess, rc, hold, keylog.KindTyped) {
			return false
		}
		wait := delay / 2
		if hold > wait {
			wait = hold
		}
		if !c.coopWait(ctx, wait) {
			return false
		}
	}

	sess.mistakeStreak++
	sess.mistakesInFlight++
	c.advance(sess, length)
	return true
}

// composeWrongChunk synthesizes length wrong letters, case-matched to the
// first correct character about half the time.
func (c *Controller) composeWrongChunk(correct rune, length int) []rune {
	out := make([]rune, length)
	upper := unicode.IsUpper(correct)
	for i := range out {
		wc := rune('a' + c.sampler.Intn(26))
		if upper && c.sampler.Intn(2) == 1 {
			wc = unicode.ToUpper(wc)
		}
		out[i] = wc
	}
	return out
}
