package serialization

import (
	"errors"
	"fmt"
)

// ErrCorrupt matches every structural corruption error.
var ErrCorrupt = errors.New("corrupt work graph stream")

// CorruptionError describes why and where a stream could not be decoded.
type CorruptionError struct {
	Offset int    // byte offset at which decoding failed
	Reason string // human-readable cause
	Err    error  // optional underlying error, e.g. io.ErrUnexpectedEOF
}

func (e *CorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v at offset %d: %s: %v", ErrCorrupt, e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v at offset %d: %s", ErrCorrupt, e.Offset, e.Reason)
}

// Unwrap exposes both ErrCorrupt and the underlying cause.
func (e *CorruptionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCorrupt, e.Err}
	}
	return []error{ErrCorrupt}
}

// IsCorrupt reports whether err signals structural corruption.
func IsCorrupt(err error) bool { return errors.Is(err, ErrCorrupt) }
