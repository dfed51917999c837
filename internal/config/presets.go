// File: internal/config/presets.go
package config

import (
	"fmt"
	"sort"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

// presets are named behavior bundles applied as partial config patches.
// "bot-flat" deliberately produces a mechanical signature for exercising
// typing-pattern detectors; the human presets aim for realism.
var presets = map[string]TypingPatch{
	"human-slow": {
		WPM:          intp(70),
		JitterPct:    intp(18),
		MaxTypoChars: intp(1),
		MistakePct:   intp(6),
		TyposEnabled: boolp(true),
		Strict:       boolp(false),
	},
	"human-fast": {
		WPM:          intp(120),
		JitterPct:    intp(10),
		MaxTypoChars: intp(1),
		MistakePct:   intp(2),
		TyposEnabled: boolp(true),
		Strict:       boolp(false),
	},
	"bot-flat": {
		WPM:              intp(110),
		JitterPct:        intp(5),
		MistakePct:       intp(0),
		TyposEnabled:     boolp(false),
		Strict:           boolp(true),
		LongPauseEnabled: boolp(false),
	},
}

// Preset returns the named preset patch.
func Preset(name string) (TypingPatch, error) {
	p, ok := presets[name]
	if !ok {
		return TypingPatch{}, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the available presets in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
