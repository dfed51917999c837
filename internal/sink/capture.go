// File: internal/sink/capture.go
package sink

import (
	"context"
	"strings"
	"sync"
)

// EventKind distinguishes the two press operations a sink supports.
type EventKind string

const (
	EventChar      EventKind = "char"
	EventBackspace EventKind = "backspace"
)

// Event is one recorded press.
type Event struct {
	Kind EventKind
	Char rune
}

// Capture is an in-memory sink used for dry runs and tests. It records every
// press and can simulate availability loss at a chosen point.
type Capture struct {
	mu        sync.Mutex
	events    []Event
	available bool
	// failAfter, when >= 0, makes the sink unavailable once that many
	// presses have been recorded.
	failAfter int
}

// NewCapture creates an available capture sink.
func NewCapture() *Capture {
	return &Capture{available: true, failAfter: -1}
}

// SetAvailable toggles simulated connectivity.
func (c *Capture) SetAvailable(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = v
}

// FailAfter makes the sink go unavailable after n successful presses.
func (c *Capture) FailAfter(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAfter = n
}

// Available implements Sink.
func (c *Capture) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

// PressCharacter implements Sink.
func (c *Capture) PressCharacter(_ context.Context, ch rune) error {
	return c.record(Event{Kind: EventChar, Char: ch})
}

// PressBackspace implements Sink.
func (c *Capture) PressBackspace(context.Context) error {
	return c.record(Event{Kind: EventBackspace})
}

func (c *Capture) record(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return ErrUnavailable
	}
	c.events = append(c.events, e)
	if c.failAfter >= 0 && len(c.events) >= c.failAfter {
		c.available = false
	}
	return nil
}

// Events returns a copy of everything recorded so far.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Transcript renders the recorded presses as the text a target device would
// display: characters append, backspaces delete the previous character.
func (c *Capture) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b []rune
	for _, e := range c.events {
		switch e.Kind {
		case EventChar:
			b = append(b, e.Char)
		case EventBackspace:
			if len(b) > 0 {
				b = b[:len(b)-1]
			}
		}
	}
	var sb strings.Builder
	for _, r := range b {
		sb.WriteRune(r)
	}
	return sb.String()
}
