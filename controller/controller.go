// Package controller implements the RDM transaction sequencer: it
// serializes all outgoing requests for one controller port so that at
// most one transaction is in flight at a time, assigns wrapping
// transaction numbers, matches transport outcomes to the originating
// request, and drives queued work after each completion.
//
// The underlying bus is half-duplex and delivers exactly one response
// per request, in order; the one-in-flight rule is what makes response
// matching unambiguous.
package controller

import (
	"errors"
	"fmt"
	"sync"

	"github.com/digitalshow/ola/internal/queue"
	"github.com/digitalshow/ola/logger"
	"github.com/digitalshow/ola/rdm"
	"github.com/digitalshow/ola/uid"
)

var (
	// ErrBroadcastGet indicates a get-class request addressed to a
	// broadcast UID; broadcasts cannot produce the unicast reply a get
	// requires.
	ErrBroadcastGet = errors.New("controller: get requests cannot be broadcast")

	// ErrNilCallback indicates a submission without a completion callback.
	ErrNilCallback = errors.New("controller: completion callback is nil")
)

// Callback receives the classified outcome of a parameter transaction.
// rsp is non-nil only when a response was delivered and parsed; its
// ParamData is decoded with the param package when status is valid.
type Callback func(status *rdm.ResponseStatus, rsp *rdm.Response)

// MuteCallback receives the outcome of a DISC_MUTE transaction. muted is
// true only when the target acknowledged the mute with a well-formed
// response.
type MuteCallback func(status *rdm.ResponseStatus, muted bool)

// UnmuteCallback receives the outcome of a broadcast DISC_UN_MUTE
// transaction; the status is always broadcast or transport-error.
type UnmuteCallback func(status *rdm.ResponseStatus)

// BranchCallback receives the outcome of a DISC_UNIQUE_BRANCH probe.
// data holds the raw discovery response bytes when any responder
// transmitted; it is nil on timeout (no device in the probed range).
type BranchCallback func(status *rdm.ResponseStatus, data []byte)

// pendingTransaction is one submission owned by the sequencer between
// issuance and completion. complete is invoked exactly once.
type pendingTransaction struct {
	request *rdm.Request

	// branch marks a DISC_UNIQUE_BRANCH probe: the response is raw DUB
	// framing, not an RDM packet, and is handed to the callback undecoded.
	branch bool

	complete func(status *rdm.ResponseStatus, rsp *rdm.Response, raw []byte)

	tn   uint8
	done bool
}

// completion pairs a finished transaction with its transport outcome,
// queued for in-order dispatch.
type completion struct {
	pt  *pendingTransaction
	out Outcome
}

// Controller sequences RDM transactions for one port.
//
// All submission methods may be called from any goroutine, including
// from within completion callbacks; continuations are always invoked in
// submission order, without the controller lock held.
type Controller struct {
	cfg       *Config
	transport Transport
	logger    logger.Logger

	mu          sync.Mutex
	tn          uint8
	inflight    *pendingTransaction
	pending     *queue.FIFO[*pendingTransaction]
	outcomes    *queue.FIFO[completion]
	dispatching bool
	detached    bool
}

// New creates a Controller on the given transport.
func New(transport Transport, cfg *Config) (*Controller, error) {
	if transport == nil {
		return nil, errors.New("controller: transport is nil")
	}
	if cfg == nil {
		return nil, errors.New("controller: config is nil")
	}

	return &Controller{
		cfg:       cfg,
		transport: transport,
		logger:    cfg.logger,
		pending:   queue.NewFIFO[*pendingTransaction](cfg.queuePrealloc),
		outcomes:  queue.NewFIFO[completion](2),
	}, nil
}

// UID returns the controller's own UID.
func (c *Controller) UID() uid.UID {
	return c.cfg.srcUID
}

// SendGet submits a GET_COMMAND request for the given parameter.
//
// It returns an error for requests that are invalid before submission
// (broadcast destination, oversized payload, bad sub-device); all other
// outcomes are delivered through complete.
func (c *Controller) SendGet(dest uid.UID, subDevice uint16, pid rdm.PID, data []byte, complete Callback) error {
	if dest.IsBroadcast() {
		return ErrBroadcastGet
	}

	return c.sendParam(dest, subDevice, rdm.GetCommand, pid, data, complete)
}

// SendSet submits a SET_COMMAND request for the given parameter.
//
// Set requests may be broadcast, either by destination UID or by the
// all-sub-devices sentinel; such requests complete with a broadcast
// status without waiting for a reply.
func (c *Controller) SendSet(dest uid.UID, subDevice uint16, pid rdm.PID, data []byte, complete Callback) error {
	return c.sendParam(dest, subDevice, rdm.SetCommand, pid, data, complete)
}

func (c *Controller) sendParam(dest uid.UID, subDevice uint16, cc rdm.CommandClass, pid rdm.PID, data []byte, complete Callback) error {
	if complete == nil {
		return ErrNilCallback
	}

	req := &rdm.Request{
		DestUID:      dest,
		SrcUID:       c.cfg.srcUID,
		PortID:       c.cfg.portID,
		SubDevice:    subDevice,
		CommandClass: cc,
		ParamID:      pid,
		ParamData:    data,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	c.submitTransaction(&pendingTransaction{
		request: req,
		complete: func(status *rdm.ResponseStatus, rsp *rdm.Response, _ []byte) {
			complete(status, rsp)
		},
	})

	return nil
}

// MuteDevice submits a unicast DISC_MUTE to the target. A device that
// acknowledges the mute stops answering DISC_UNIQUE_BRANCH probes until
// unmuted. muted is false for every non-valid outcome, including a
// malformed mute acknowledgement.
func (c *Controller) MuteDevice(target uid.UID, complete MuteCallback) {
	req := &rdm.Request{
		DestUID:      target,
		SrcUID:       c.cfg.srcUID,
		PortID:       c.cfg.portID,
		SubDevice:    rdm.RootDevice,
		CommandClass: rdm.DiscoverCommand,
		ParamID:      rdm.PIDDiscMute,
	}

	c.submitTransaction(&pendingTransaction{
		request: req,
		complete: func(status *rdm.ResponseStatus, rsp *rdm.Response, _ []byte) {
			muted := false
			if status.Ok() {
				// A mute acknowledgement carries a 2-byte control field,
				// optionally followed by a 6-byte binding UID.
				switch len(rsp.ParamData) {
				case 2, 2 + uid.Size:
					muted = true
				default:
					status.Malformed(fmt.Sprintf("mute response data size: got %d, want 2 or 8", len(rsp.ParamData)))
				}
			}
			complete(status, muted)
		},
	})
}

// UnMuteAll submits a broadcast DISC_UN_MUTE, reawakening every muted
// device on the bus. No reply is waited on.
func (c *Controller) UnMuteAll(complete UnmuteCallback) {
	req := &rdm.Request{
		DestUID:      uid.Broadcast(),
		SrcUID:       c.cfg.srcUID,
		PortID:       c.cfg.portID,
		SubDevice:    rdm.RootDevice,
		CommandClass: rdm.DiscoverCommand,
		ParamID:      rdm.PIDDiscUnMute,
	}

	c.submitTransaction(&pendingTransaction{
		request: req,
		complete: func(status *rdm.ResponseStatus, _ *rdm.Response, _ []byte) {
			complete(status)
		},
	})
}

// Branch submits a broadcast DISC_UNIQUE_BRANCH probe for the UID range
// [lower, upper]. Every unmuted device whose UID falls inside the range
// answers; the raw (possibly garbled) response bytes are handed to
// complete for DUB decoding.
func (c *Controller) Branch(lower, upper uid.UID, complete BranchCallback) {
	req := &rdm.Request{
		DestUID:      uid.Broadcast(),
		SrcUID:       c.cfg.srcUID,
		PortID:       c.cfg.portID,
		SubDevice:    rdm.RootDevice,
		CommandClass: rdm.DiscoverCommand,
		ParamID:      rdm.PIDDiscUniqueBranch,
		ParamData:    rdm.PackDUBParams(lower, upper),
	}

	c.submitTransaction(&pendingTransaction{
		request: req,
		branch:  true,
		complete: func(status *rdm.ResponseStatus, _ *rdm.Response, raw []byte) {
			complete(status, raw)
		},
	})
}

// Detach completes every queued and in-flight submission with a
// transport-error status, in original submission order, and rejects all
// future submissions. It is invoked when the transport reports the
// device gone. Detach is idempotent.
func (c *Controller) Detach() {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()

		return
	}
	c.detached = true

	drained := make([]*pendingTransaction, 0, c.pending.Len()+1)
	if c.inflight != nil && !c.inflight.done {
		c.inflight.done = true
		drained = append(drained, c.inflight)
		c.inflight = nil
	}
	for {
		pt, ok := c.pending.Dequeue()
		if !ok {
			break
		}
		pt.done = true
		drained = append(drained, pt)
	}
	c.mu.Unlock()

	if len(drained) > 0 {
		c.logger.Debug("controller: detach draining transactions", "count", len(drained))
	}

	for _, pt := range drained {
		pt.complete(detachedStatus(), nil, nil)
	}
}

func detachedStatus() *rdm.ResponseStatus {
	return &rdm.ResponseStatus{Type: rdm.TransportError, Message: ErrDetached.Error()}
}

// --- Sequencing ---

// submitTransaction accepts a transaction: issues it immediately when
// the controller is idle, otherwise appends it to the pending queue.
func (c *Controller) submitTransaction(pt *pendingTransaction) {
	c.mu.Lock()
	if c.detached {
		pt.done = true
		c.mu.Unlock()
		pt.complete(detachedStatus(), nil, nil)

		return
	}

	if c.inflight != nil {
		c.pending.Enqueue(pt)
		c.mu.Unlock()

		return
	}

	frame, expectsReply, err := c.issueLocked(pt)
	c.mu.Unlock()

	c.dispatchSubmit(pt, frame, expectsReply, err)
}

// issueLocked assigns the next transaction number to pt, marks it
// in-flight and packs its frame. Caller holds the lock.
func (c *Controller) issueLocked(pt *pendingTransaction) (frame []byte, expectsReply bool, err error) {
	pt.tn = c.tn
	c.tn++ // wraps mod 256
	pt.request.TransactionNumber = pt.tn
	c.inflight = pt

	frame, err = pt.request.Pack()

	// A branch probe is addressed as a broadcast but listens for the
	// special discovery response; everything else waits only when
	// unicast.
	expectsReply = pt.branch || !pt.request.IsBroadcast()

	return frame, expectsReply, err
}

// dispatchSubmit hands an issued frame to the transport, or fails the
// transaction when packing rejected the request.
func (c *Controller) dispatchSubmit(pt *pendingTransaction, frame []byte, expectsReply bool, packErr error) {
	if packErr != nil {
		c.handleOutcome(pt, Outcome{Err: packErr})

		return
	}

	c.transport.Submit(frame, expectsReply, func(out Outcome) {
		c.handleOutcome(pt, out)
	})
}

// handleOutcome queues a transport outcome and, unless a dispatch loop
// is already running, drains the outcome queue: for each completed
// transaction it issues the next pending submission first, then invokes
// the finished continuation. This ordering guarantees forward progress
// without requiring callers to re-drive the queue, and keeps
// continuations in submission order even with transports that complete
// synchronously.
func (c *Controller) handleOutcome(pt *pendingTransaction, out Outcome) {
	c.mu.Lock()
	c.outcomes.Enqueue(completion{pt: pt, out: out})
	if c.dispatching {
		c.mu.Unlock()

		return
	}
	c.dispatching = true

	for {
		comp, ok := c.outcomes.Dequeue()
		if !ok {
			break
		}

		finished := comp.pt
		if finished.done {
			if c.detached {
				// Late transport completion for a transaction already
				// drained by Detach.
				continue
			}

			panic("controller: transaction completed twice")
		}
		finished.done = true
		if c.inflight == finished {
			c.inflight = nil
		}

		status, rsp, raw := c.evaluate(finished, comp.out)

		var (
			next      *pendingTransaction
			frame     []byte
			expects   bool
			issueErr  error
		)
		if !c.detached && c.inflight == nil {
			if n, ok2 := c.pending.Dequeue(); ok2 {
				next = n
				frame, expects, issueErr = c.issueLocked(n)
			}
		}
		c.mu.Unlock()

		if next != nil {
			c.dispatchSubmit(next, frame, expects, issueErr)
		}

		finished.complete(status, rsp, raw)

		c.mu.Lock()
	}

	c.dispatching = false
	c.mu.Unlock()
}

// evaluate derives the response status and, where applicable, the parsed
// response for a completed transaction.
func (c *Controller) evaluate(pt *pendingTransaction, out Outcome) (*rdm.ResponseStatus, *rdm.Response, []byte) {
	if pt.branch {
		if out.Err != nil {
			return &rdm.ResponseStatus{Type: rdm.TransportError, Message: out.Err.Error()}, nil, nil
		}

		return &rdm.ResponseStatus{Type: rdm.BroadcastRequest}, nil, out.Frame
	}

	wasBroadcast := pt.request.IsBroadcast()
	if out.Err != nil || wasBroadcast {
		return rdm.Classify(out.Err, wasBroadcast, nil), nil, nil
	}

	rsp, err := rdm.ParseResponse(out.Frame)
	if err != nil {
		status := &rdm.ResponseStatus{Type: rdm.MalformedResponse, Message: err.Error()}

		return status, nil, nil
	}

	if rsp.CommandClass != pt.request.CommandClass.ResponseFor() {
		status := &rdm.ResponseStatus{
			Type: rdm.MalformedResponse,
			Message: fmt.Sprintf("unexpected command class: got %s, want %s",
				rsp.CommandClass, pt.request.CommandClass.ResponseFor()),
		}

		return status, nil, nil
	}

	if rsp.ParamID != pt.request.ParamID {
		status := &rdm.ResponseStatus{
			Type: rdm.MalformedResponse,
			Message: fmt.Sprintf("unexpected PID in response: got 0x%04x, want 0x%04x",
				uint16(rsp.ParamID), uint16(pt.request.ParamID)),
		}

		return status, nil, nil
	}

	return rdm.Classify(nil, false, rsp), rsp, out.Frame
}
