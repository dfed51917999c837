// File: internal/textprep/textprep.go
// Package textprep turns raw input into the canonical character sequence the
// emission engine walks. It has no failure modes: any input maps to some
// (possibly empty) output, and an empty output means the session is a no-op.
package textprep

import (
	"strings"
	"unicode"

	"github.com/xkilldash9x/ghosttype/internal/config"
)

// Options selects the preprocessing behavior.
type Options struct {
	Newline     config.NewlinePolicy
	CodeMode    bool
	IndentStrip config.IndentStripMode
}

// OptionsFrom extracts preprocessing options from a typing config snapshot.
func OptionsFrom(t config.TypingConfig) Options {
	return Options{
		Newline:     t.Newline,
		CodeMode:    t.CodeMode,
		IndentStrip: t.IndentStrip,
	}
}

// Prepare produces the canonical sequence for raw under the given options.
// In code mode the newline policy is ignored: CR, LF, and CRLF all become a
// single '\n' and per-line leading indentation is discarded.
func Prepare(raw string, opts Options) string {
	if opts.CodeMode {
		return prepareCode(raw, opts.IndentStrip)
	}
	return applyNewlinePolicy(raw, opts.Newline)
}

func applyNewlinePolicy(raw string, policy config.NewlinePolicy) string {
	if policy == config.NewlineKeep {
		return raw
	}
	var out strings.Builder
	out.Grow(len(raw))
	for _, c := range raw {
		if c == '\r' || c == '\n' {
			if policy == config.NewlineSpace {
				out.WriteByte(' ')
			}
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}

// prepareCode normalizes line endings to '\n' and strips leading indentation
// at the start of the text and after every newline. Which characters count
// as indentation depends on the strip mode.
func prepareCode(raw string, strip config.IndentStripMode) string {
	var out strings.Builder
	out.Grow(len(raw))

	runes := []rune(raw)
	startOfLine := true
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if c == '\r' {
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++ // collapse CRLF
			}
			out.WriteByte('\n')
			startOfLine = true
			continue
		}
		if c == '\n' {
			out.WriteByte('\n')
			startOfLine = true
			continue
		}

		if startOfLine && isIndent(c, strip) {
			continue
		}

		out.WriteRune(c)
		startOfLine = false
	}
	return out.String()
}

func isIndent(c rune, strip config.IndentStripMode) bool {
	if strip == config.IndentStripSpaces {
		return c == ' '
	}
	return unicode.IsSpace(c)
}
