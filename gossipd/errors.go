package gossipd

import "fmt"

// ProtocolError represents a peer protocol violation (spec.md §7 severity
// 2): malformed framing, a concurrent inbound SCID query, a
// reply_channel_range outside the query window, overlapping reply
// coverage, an unexpected terminator, or an unknown message type. The
// session sends this back to the peer as a wire Error and drops the
// connection.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("peer protocol violation: %s", e.Reason)
}

// InvariantViolation represents an internal invariant violation (spec.md §7
// severity 6): an unknown SCID envelope tag reaching the codec, a
// keep-alive of a nonexistent channel, or similar. It is returned to the
// caller like any other error; nothing in this package aborts the process
// on it.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Reason)
}

// ControlProtocolError represents a malformed control-plane command
// (spec.md §7 severity 4). No code in this package currently returns it,
// and nothing here aborts the engine on it.
type ControlProtocolError struct {
	Reason string
}

func (e *ControlProtocolError) Error() string {
	return fmt.Sprintf("control protocol violation: %s", e.Reason)
}

// SignerError represents a signer I/O failure (spec.md §7 severity 5). It
// is returned to the caller; nothing in this package aborts the process on
// it.
type SignerError struct {
	Cause error
}

func (e *SignerError) Error() string {
	return fmt.Sprintf("signer failure: %v", e.Cause)
}

func (e *SignerError) Unwrap() error { return e.Cause }
