package link

import "errors"

// ErrInvalidField is returned by the codec when an input value is out of
// range for its bit-packed slot. Callers treat this as a programmer
// error; it never surfaces from a correctly constructed RadioConfig or
// Frame.
var ErrInvalidField = errors.New("link: field value out of range")
