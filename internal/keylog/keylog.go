// File: internal/keylog/keylog.go
// Package keylog records emitted keystrokes into a bounded in-memory ring
// for later retrieval over the control plane. Recording is best-effort by
// design: the engine never blocks on the log and entries are silently
// dropped while the log is disabled.
package keylog

import (
	"sync"
	"time"

	json "github.com/json-iterator/go"
)

// Kind tags a log entry with the emission phase that produced it.
type Kind string

const (
	// KindTyped is a normally emitted character.
	KindTyped Kind = "typed"
	// KindInserted is a wrong character emitted during a mistake chunk.
	KindInserted Kind = "inserted"
	// KindErased is a backspace erasing part of a mistake chunk.
	KindErased Kind = "erased"
)

// Entry is one recorded keystroke.
type Entry struct {
	At   time.Time     `json:"at"`
	Char string        `json:"char"`
	Hold time.Duration `json:"-"`
	Kind Kind          `json:"kind"`
}

// MarshalJSON emits the hold duration in milliseconds; a raw time.Duration
// would serialize as nanoseconds under a field named holdMs.
func (e Entry) MarshalJSON() ([]byte, error) {
	type wireEntry struct {
		At     time.Time `json:"at"`
		Char   string    `json:"char"`
		HoldMs int64     `json:"holdMs"`
		Kind   Kind      `json:"kind"`
	}
	return json.Marshal(wireEntry{
		At:     e.At,
		Char:   e.Char,
		HoldMs: e.Hold.Milliseconds(),
		Kind:   e.Kind,
	})
}

// Log is a concurrency-safe keystroke history with ring semantics.
type Log struct {
	mu      sync.Mutex
	ring    *Ring[Entry]
	enabled bool
}

// New creates a log with the given capacity. The log starts disabled;
// SetEnabled turns recording on.
func New(capacity int) *Log {
	return &Log{ring: NewRing[Entry](capacity)}
}

// SetEnabled toggles recording. Disabling does not clear retained entries.
func (l *Log) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Enabled reports whether recording is on.
func (l *Log) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Record appends an entry if recording is enabled; otherwise it is a no-op.
func (l *Log) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	l.ring.Append(e)
}

// Snapshot returns all retained entries in emission order.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ring.Snapshot()
}
