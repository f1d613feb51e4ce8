package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for relay termination. Callers distinguish them with
// errors.Is.
var (
	// ErrCancelled is returned when the transfer was aborted by its caller.
	// It is a neutral terminal status, not a failure.
	ErrCancelled = errors.New("relay: cancelled")

	// ErrEndpointClaimed is returned when a source or sink that already
	// belongs to a running relay is handed to another one.
	ErrEndpointClaimed = errors.New("relay: endpoint already claimed")
)

// Op identifies which side of a relay failed.
type Op string

// Relay operations.
const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Error reports a source read or sink write failure. It wraps the
// underlying I/O error.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRead reports whether err is a relay read failure.
func IsRead(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Op == OpRead
}

// IsWrite reports whether err is a relay write failure.
func IsWrite(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Op == OpWrite
}
