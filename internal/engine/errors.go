package engine

import "errors"

// ErrUnexpectedFrame marks a received frame whose command or identity
// fields did not match what the current state expected. It is never
// fatal: the engine logs and drops the frame.
var ErrUnexpectedFrame = errors.New("engine: unexpected frame")
