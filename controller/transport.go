package controller

import "errors"

var (
	// ErrDetached indicates the controller's transport reported the device
	// gone; queued and in-flight work is completed with a transport-error
	// status.
	ErrDetached = errors.New("controller: transport detached")

	// ErrResponseTimeout indicates no response arrived within the
	// transport's reply timeout.
	ErrResponseTimeout = errors.New("controller: response timeout")
)

// Outcome is the transport-level result of one submitted frame: either
// response bytes, or a timeout / I/O failure.
type Outcome struct {
	// Frame holds the raw response bytes. Nil when Err is non-nil, and
	// for broadcast submissions that expect no reply.
	Frame []byte

	// Err is the transport failure: ErrResponseTimeout on reply-timer
	// expiry, or the underlying I/O error. Nil when the submission
	// completed normally.
	Err error
}

// Transport is the capability set a bus driver must provide to plug into
// the transaction sequencer and the discovery engine.
//
// Submit transmits one frame. When expectsReply is true the transport
// arms its reply timeout and eventually invokes complete with exactly one
// Outcome: the response bytes, a timeout, or an I/O error. When
// expectsReply is false the transport invokes complete as soon as the
// frame is on the wire, with an empty Outcome on success.
//
// The transport owns all timeouts; a mismatched transaction-number echo
// is folded into an I/O error before the sequencer sees it. complete must
// be invoked exactly once per submission.
type Transport interface {
	Submit(frame []byte, expectsReply bool, complete func(Outcome))
}
