// File: internal/config/typing.go
package config

import "github.com/spf13/viper"

// NewlinePolicy selects how newlines are handled outside code mode.
type NewlinePolicy string

const (
	NewlineKeep  NewlinePolicy = "keep"
	NewlineSpace NewlinePolicy = "space"
	NewlineDrop  NewlinePolicy = "drop"
)

// IndentStripMode selects which leading characters code mode discards at the
// start of each line. Both variants exist in the wild; the choice is an
// explicit mode rather than a silent merge.
type IndentStripMode string

const (
	// IndentStripAll drops any leading whitespace (space, tab, etc.).
	IndentStripAll IndentStripMode = "all"
	// IndentStripSpaces drops only the ASCII space character.
	IndentStripSpaces IndentStripMode = "spaces"
)

// TypingConfig holds every live-tunable knob of the emission engine. All
// fields follow clamp-on-write semantics: an out-of-range value is forced to
// the nearest bound and inverted ranges are swapped, never rejected. The
// engine reads a snapshot of this struct on every character, so updates take
// effect at the next character boundary.
type TypingConfig struct {
	WPM       int  `mapstructure:"wpm" yaml:"wpm" json:"wpm"`
	Strict    bool `mapstructure:"strict" yaml:"strict" json:"strict"`
	JitterPct int  `mapstructure:"jitter_pct" yaml:"jitter_pct" json:"jitterPct"`

	TyposEnabled          bool `mapstructure:"typos_enabled" yaml:"typos_enabled" json:"typosEnabled"`
	MistakePct            int  `mapstructure:"mistake_pct" yaml:"mistake_pct" json:"mistakePct"`
	MaxTypoChars          int  `mapstructure:"max_typo_chars" yaml:"max_typo_chars" json:"maxTypoChars"`
	MaxConcurrentMistakes int  `mapstructure:"max_concurrent_mistakes" yaml:"max_concurrent_mistakes" json:"maxConcurrentMistakes"`
	// MistakeStreakLimit caps consecutive mistakes without an intervening
	// correct character. Zero disables mistakes entirely.
	MistakeStreakLimit int `mapstructure:"mistake_streak_limit" yaml:"mistake_streak_limit" json:"mistakeStreakLimit"`

	HoldEnabled bool `mapstructure:"hold_enabled" yaml:"hold_enabled" json:"holdEnabled"`
	HoldMinMs   int  `mapstructure:"hold_min_ms" yaml:"hold_min_ms" json:"holdMinMs"`
	HoldMaxMs   int  `mapstructure:"hold_max_ms" yaml:"hold_max_ms" json:"holdMaxMs"`

	LongPauseEnabled bool `mapstructure:"long_pause_enabled" yaml:"long_pause_enabled" json:"longPauseEnabled"`
	LongPausePct     int  `mapstructure:"long_pause_pct" yaml:"long_pause_pct" json:"longPausePct"`
	LongPauseMinMs   int  `mapstructure:"long_pause_min_ms" yaml:"long_pause_min_ms" json:"longPauseMinMs"`
	LongPauseMaxMs   int  `mapstructure:"long_pause_max_ms" yaml:"long_pause_max_ms" json:"longPauseMaxMs"`

	// ThinkPct is the chance of an extended "thinking" pause after a space.
	ThinkPct        int  `mapstructure:"think_pct" yaml:"think_pct" json:"thinkPct"`
	PunctPauseExtra bool `mapstructure:"punct_pause_extra" yaml:"punct_pause_extra" json:"punctPauseExtra"`

	Newline     NewlinePolicy   `mapstructure:"newline" yaml:"newline" json:"newline"`
	CodeMode    bool            `mapstructure:"code_mode" yaml:"code_mode" json:"codeMode"`
	IndentStrip IndentStripMode `mapstructure:"indent_strip" yaml:"indent_strip" json:"indentStrip"`
}

func setTypingDefaults(v *viper.Viper) {
	v.SetDefault("typing.wpm", 100)
	v.SetDefault("typing.strict", false)
	v.SetDefault("typing.jitter_pct", 12)
	v.SetDefault("typing.typos_enabled", true)
	v.SetDefault("typing.mistake_pct", 3)
	v.SetDefault("typing.max_typo_chars", 1)
	v.SetDefault("typing.max_concurrent_mistakes", 1)
	v.SetDefault("typing.mistake_streak_limit", 3)
	v.SetDefault("typing.hold_enabled", true)
	v.SetDefault("typing.hold_min_ms", 18)
	v.SetDefault("typing.hold_max_ms", 100)
	v.SetDefault("typing.long_pause_enabled", true)
	v.SetDefault("typing.long_pause_pct", 5)
	v.SetDefault("typing.long_pause_min_ms", 600)
	v.SetDefault("typing.long_pause_max_ms", 1200)
	v.SetDefault("typing.think_pct", 0)
	v.SetDefault("typing.punct_pause_extra", true)
	v.SetDefault("typing.newline", string(NewlineSpace))
	v.SetDefault("typing.code_mode", false)
	v.SetDefault("typing.indent_strip", string(IndentStripAll))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp normalizes every field into its valid range in place. Inverted
// min/max pairs are swapped. Safe to call repeatedly.
func (t *TypingConfig) Clamp() {
	t.WPM = clampInt(t.WPM, 10, 300)
	t.JitterPct = clampInt(t.JitterPct, 5, 45)
	t.MistakePct = clampInt(t.MistakePct, 0, 100)
	t.MaxTypoChars = clampInt(t.MaxTypoChars, 1, 6)
	t.MaxConcurrentMistakes = clampInt(t.MaxConcurrentMistakes, 1, 10)
	t.MistakeStreakLimit = clampInt(t.MistakeStreakLimit, 0, 10)

	t.HoldMinMs = clampInt(t.HoldMinMs, 2, 1000)
	t.HoldMaxMs = clampInt(t.HoldMaxMs, 2, 2000)
	if t.HoldMinMs > t.HoldMaxMs {
		t.HoldMinMs, t.HoldMaxMs = t.HoldMaxMs, t.HoldMinMs
	}

	t.LongPausePct = clampInt(t.LongPausePct, 0, 100)
	t.LongPauseMinMs = clampInt(t.LongPauseMinMs, 50, 20000)
	t.LongPauseMaxMs = clampInt(t.LongPauseMaxMs, 50, 30000)
	if t.LongPauseMinMs > t.LongPauseMaxMs {
		t.LongPauseMinMs, t.LongPauseMaxMs = t.LongPauseMaxMs, t.LongPauseMinMs
	}

	t.ThinkPct = clampInt(t.ThinkPct, 0, 100)

	switch t.Newline {
	case NewlineKeep, NewlineSpace, NewlineDrop:
	default:
		t.Newline = NewlineSpace
	}
	switch t.IndentStrip {
	case IndentStripAll, IndentStripSpaces:
	default:
		t.IndentStrip = IndentStripAll
	}
}

// EffectiveJitterPct applies the high-speed cap: past 140 WPM, jitter above
// 8% makes pacing collapse, so it is capped regardless of the configured
// value.
func (t TypingConfig) EffectiveJitterPct() int {
	if t.WPM >= 140 && t.JitterPct > 8 {
		return 8
	}
	return t.JitterPct
}

// MistakesPossible reports whether the mistake branch can ever fire under
// the current settings.
func (t TypingConfig) MistakesPossible() bool {
	return t.TyposEnabled && !t.Strict && t.MistakePct > 0 && t.MistakeStreakLimit > 0
}

// TypingPatch is a partial update to TypingConfig. Nil fields are left
// untouched; set fields are clamped and applied independently.
type TypingPatch struct {
	WPM       *int  `json:"wpm,omitempty"`
	Strict    *bool `json:"strict,omitempty"`
	JitterPct *int  `json:"jitterPct,omitempty"`

	TyposEnabled          *bool `json:"typosEnabled,omitempty"`
	MistakePct            *int  `json:"mistakePct,omitempty"`
	MaxTypoChars          *int  `json:"maxTypoChars,omitempty"`
	MaxConcurrentMistakes *int  `json:"maxConcurrentMistakes,omitempty"`
	MistakeStreakLimit    *int  `json:"mistakeStreakLimit,omitempty"`

	HoldEnabled *bool `json:"holdEnabled,omitempty"`
	HoldMinMs   *int  `json:"holdMinMs,omitempty"`
	HoldMaxMs   *int  `json:"holdMaxMs,omitempty"`

	LongPauseEnabled *bool `json:"longPauseEnabled,omitempty"`
	LongPausePct     *int  `json:"longPausePct,omitempty"`
	LongPauseMinMs   *int  `json:"longPauseMinMs,omitempty"`
	LongPauseMaxMs   *int  `json:"longPauseMaxMs,omitempty"`

	ThinkPct        *int  `json:"thinkPct,omitempty"`
	PunctPauseExtra *bool `json:"punctPauseExtra,omitempty"`

	Newline     *NewlinePolicy   `json:"newline,omitempty"`
	CodeMode    *bool            `json:"codeMode,omitempty"`
	IndentStrip *IndentStripMode `json:"indentStrip,omitempty"`
}

// Apply merges the patch into cfg, clamps the result, and reports whether
// any field actually changed value.
func (p TypingPatch) Apply(cfg *TypingConfig) bool {
	before := *cfg

	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&cfg.WPM, p.WPM)
	setBool(&cfg.Strict, p.Strict)
	setInt(&cfg.JitterPct, p.JitterPct)
	setBool(&cfg.TyposEnabled, p.TyposEnabled)
	setInt(&cfg.MistakePct, p.MistakePct)
	setInt(&cfg.MaxTypoChars, p.MaxTypoChars)
	setInt(&cfg.MaxConcurrentMistakes, p.MaxConcurrentMistakes)
	setInt(&cfg.MistakeStreakLimit, p.MistakeStreakLimit)
	setBool(&cfg.HoldEnabled, p.HoldEnabled)
	setInt(&cfg.HoldMinMs, p.HoldMinMs)
	setInt(&cfg.HoldMaxMs, p.HoldMaxMs)
	setBool(&cfg.LongPauseEnabled, p.LongPauseEnabled)
	setInt(&cfg.LongPausePct, p.LongPausePct)
	setInt(&cfg.LongPauseMinMs, p.LongPauseMinMs)
	setInt(&cfg.LongPauseMaxMs, p.LongPauseMaxMs)
	setInt(&cfg.ThinkPct, p.ThinkPct)
	setBool(&cfg.PunctPauseExtra, p.PunctPauseExtra)
	if p.Newline != nil {
		cfg.Newline = *p.Newline
	}
	setBool(&cfg.CodeMode, p.CodeMode)
	if p.IndentStrip != nil {
		cfg.IndentStrip = *p.IndentStrip
	}

	cfg.Clamp()
	return *cfg != before
}
