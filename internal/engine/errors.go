// File: internal/engine/errors.go
package engine

import "errors"

// Rejected-request sentinels. These map one-to-one onto control plane
// responses and never mutate session state.
var (
	// ErrBusy means a session is already Running or Paused.
	ErrBusy = errors.New("engine: session already active")
	// ErrSinkUnavailable means the keystroke sink reports no connection.
	ErrSinkUnavailable = errors.New("engine: sink unavailable")
	// ErrEmptyInput means preprocessing produced nothing to type.
	ErrEmptyInput = errors.New("engine: empty input")
	// ErrNotRunning means pause/resume was requested while Idle.
	ErrNotRunning = errors.New("engine: no active session")
)
