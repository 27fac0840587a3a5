// Package errors provides the decoder's typed error taxonomy, mirroring the
// three condition classes of §7: stall (not represented here — it is not an
// error), caller contract violation (InvalidArgumentError), and framing or
// semantic anomalies (ProtocolError).
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// protocolMarker is implemented by all decoder error types so callers can
// classify an error without a type switch.
type protocolMarker interface {
	error
	isProtocol()
}

// ProtocolError represents a fatal framing or semantic anomaly (§7.3): an
// unknown format code, length_bits == 0 on a non-list item, a payload length
// overflowing the declared message body, or a cursor invariant violation.
// The decoder's state is invalidated once this is returned; reset() is
// required before further use.
type ProtocolError struct {
	Op  string // e.g. "decode.item_header", "buffer.compact"
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("hsms: protocol error: %s", e.Op)
	}
	return fmt.Sprintf("hsms: protocol error: %s: %v", e.Op, e.Err)
}
func (e *ProtocolError) Unwrap() error { return e.Err }
func (e *ProtocolError) isProtocol()   {}

// InvalidArgumentError represents a caller contract violation (§7.2), such
// as calling decode(n) with n <= 0. State is left untouched.
type InvalidArgumentError struct {
	Op  string
	Err error
}

func (e *InvalidArgumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("hsms: invalid argument: %s", e.Op)
	}
	return fmt.Sprintf("hsms: invalid argument: %s: %v", e.Op, e.Err)
}
func (e *InvalidArgumentError) Unwrap() error { return e.Err }
func (e *InvalidArgumentError) isProtocol()   {}

// NewProtocolError builds a ProtocolError, wrapping cause with errors.Wrap
// (github.com/pkg/errors) so a stack trace is attached at the point of
// origin for debug logging.
func NewProtocolError(op string, cause error) error {
	if cause != nil {
		cause = errors.Wrap(cause, op)
	}
	return &ProtocolError{Op: op, Err: cause}
}

// NewInvalidArgumentError builds an InvalidArgumentError.
func NewInvalidArgumentError(op string, cause error) error {
	if cause != nil {
		cause = errors.Wrap(cause, op)
	}
	return &InvalidArgumentError{Op: op, Err: cause}
}

// IsProtocolError reports whether err is (or wraps) a ProtocolError or an
// InvalidArgumentError — any decoder-originated error.
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var pm protocolMarker
	return stdErrors.As(err, &pm)
}

// IsInvalidArgument reports whether err is (or wraps) an InvalidArgumentError
// specifically, distinguishing caller-contract violations from fatal framing
// anomalies.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var ia *InvalidArgumentError
	return stdErrors.As(err, &ia)
}
