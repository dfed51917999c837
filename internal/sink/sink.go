// File: internal/sink/sink.go
// Package sink defines the keystroke sink contract: the capability that
// turns a logical keystroke into a real keyboard-emulation event. The engine
// polls availability and treats any press failure as loss of availability;
// sinks never surface richer failure modes than that.
package sink

import "context"

// Sink is the abstract keystroke output device.
type Sink interface {
	// Available reports whether the sink can currently deliver keystrokes.
	Available() bool
	// PressCharacter emits a single printable character (or '\n').
	PressCharacter(ctx context.Context, ch rune) error
	// PressBackspace emits a single backspace.
	PressBackspace(ctx context.Context) error
}
