// File: internal/sink/errors.go
package sink

import "errors"

// ErrUnavailable is returned by press operations when the sink has lost its
// connection to the target. Callers treat it as an implicit stop, not a
// retryable fault.
var ErrUnavailable = errors.New("sink: unavailable")
