// Package widget adapts a blocking frame-level port, such as a USB or
// serial RDM widget driver, to the asynchronous transport contract of
// the transaction sequencer.
//
// A widget owns two goroutines: a reader that blocks on the device and
// a worker that serializes submissions onto the half-duplex bus. Reply
// timeouts are armed per submission with pooled timers. When the device
// reports an I/O failure the widget detaches: the in-flight submission
// fails with the device error, later submissions fail with ErrDetached,
// and the detach hook fires once so the owner can drain its controller.
package widget

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/digitalshow/ola/controller"
	"github.com/digitalshow/ola/internal/pool"
	"github.com/digitalshow/ola/logger"
	"github.com/digitalshow/ola/rdm"
)

var (
	// ErrTransactionMismatch indicates the response frame echoed a
	// transaction number other than the one just issued; the response
	// belongs to an earlier, already timed-out request.
	ErrTransactionMismatch = errors.New("widget: response transaction number mismatch")
)

// DefaultReplyTimeout is how long the widget waits for a response frame
// after transmitting a request that expects one.
const DefaultReplyTimeout = 200 * time.Millisecond

// Frame layout offsets used for the transaction-number echo check and
// for recognizing discovery probes, whose responses use the special
// discovery framing without a transaction number.
const (
	transactionOffset  = 15
	commandClassOffset = 20
	paramIDOffset      = 21
)

// FrameDevice is the blocking driver surface a physical widget exposes.
//
// SendFrame transmits one request frame. RecvFrame blocks until a
// response frame arrives or the device fails; it never returns a frame
// together with an error. Close releases the device and unblocks a
// pending RecvFrame.
type FrameDevice interface {
	SendFrame(frame []byte) error
	RecvFrame() ([]byte, error)
	Close() error
}

type submission struct {
	frame        []byte
	expectsReply bool
	complete     func(controller.Outcome)
}

type recvResult struct {
	frame []byte
	err   error
}

// Widget adapts a FrameDevice to controller.Transport.
type Widget struct {
	dev    FrameDevice
	logger logger.Logger

	replyTimeout time.Duration
	onDetach     func(error)

	submissions chan submission
	recvCh      chan recvResult

	closeCh    chan struct{}
	detachOnce sync.Once
	wg         sync.WaitGroup

	// submitMu orders Submit against detach: once closed is set no new
	// submission may enter the channel, so the worker's final drain sees
	// every accepted submission and each completes exactly once.
	submitMu sync.Mutex
	closed   bool
}

// WidgetOption is a functional option for configuring a Widget.
type WidgetOption func(*Widget)

// WithReplyTimeout sets the per-request response deadline.
func WithReplyTimeout(d time.Duration) WidgetOption {
	return func(w *Widget) {
		if d > 0 {
			w.replyTimeout = d
		}
	}
}

// WithLogger sets the logger for the widget.
func WithLogger(l logger.Logger) WidgetOption {
	return func(w *Widget) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDetachHook registers a function invoked exactly once, from its
// own goroutine, when the device fails or the widget is closed. The
// hook receives the device error, or ErrDetached on a plain Close.
func WithDetachHook(hook func(error)) WidgetOption {
	return func(w *Widget) {
		w.onDetach = hook
	}
}

// Open starts the widget's goroutines on the given device.
func Open(dev FrameDevice, opts ...WidgetOption) (*Widget, error) {
	if dev == nil {
		return nil, errors.New("widget: device is nil")
	}

	w := &Widget{
		dev:          dev,
		logger:       logger.GetLogger(),
		replyTimeout: DefaultReplyTimeout,
		// The sequencer keeps at most one transaction in flight, so a
		// single slot never blocks Submit.
		submissions: make(chan submission, 1),
		recvCh:      make(chan recvResult, 1),
		closeCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(2)
	go w.readLoop()
	go w.workLoop()

	return w, nil
}

// Close detaches the widget and releases the device. Safe to call more
// than once.
func (w *Widget) Close() error {
	w.detach(controller.ErrDetached)
	w.wg.Wait()

	return nil
}

// Submit implements controller.Transport.
//
// The sequencer keeps at most one submission outstanding, so the send
// below never blocks.
func (w *Widget) Submit(frame []byte, expectsReply bool, complete func(controller.Outcome)) {
	w.submitMu.Lock()
	if w.closed {
		w.submitMu.Unlock()
		complete(controller.Outcome{Err: controller.ErrDetached})

		return
	}
	w.submissions <- submission{frame: frame, expectsReply: expectsReply, complete: complete}
	w.submitMu.Unlock()
}

// detach closes the widget once: the device is released, both loops
// unblock, and the hook fires with the triggering error.
func (w *Widget) detach(cause error) {
	w.detachOnce.Do(func() {
		if !errors.Is(cause, controller.ErrDetached) {
			w.logger.Warn("widget: device detached", "cause", cause.Error())
		}

		w.submitMu.Lock()
		w.closed = true
		w.submitMu.Unlock()

		close(w.closeCh)
		_ = w.dev.Close()

		if w.onDetach != nil {
			go w.onDetach(cause)
		}
	})
}

// readLoop blocks on the device and forwards frames to the worker. A
// device error terminates the loop and detaches the widget.
func (w *Widget) readLoop() {
	defer w.wg.Done()

	for {
		frame, err := w.dev.RecvFrame()

		select {
		case w.recvCh <- recvResult{frame: frame, err: err}:
		case <-w.closeCh:
			return
		}

		if err != nil {
			w.detach(err)

			return
		}
	}
}

// workLoop serializes submissions onto the bus.
func (w *Widget) workLoop() {
	defer w.wg.Done()

	for {
		select {
		case sub := <-w.submissions:
			w.process(sub)
		case <-w.closeCh:
			w.drain()

			return
		}
	}
}

// drain fails any submission accepted but not yet processed.
func (w *Widget) drain() {
	for {
		select {
		case sub := <-w.submissions:
			sub.complete(controller.Outcome{Err: controller.ErrDetached})
		default:
			return
		}
	}
}

// process transmits one frame and, when a reply is expected, waits for
// the response or the reply timeout.
func (w *Widget) process(sub submission) {
	if err := w.dev.SendFrame(sub.frame); err != nil {
		sub.complete(controller.Outcome{Err: fmt.Errorf("widget: send frame: %w", err)})
		w.detach(err)

		return
	}

	if !sub.expectsReply {
		sub.complete(controller.Outcome{})

		return
	}

	timer := pool.GetTimer(w.replyTimeout)
	defer pool.PutTimer(timer)

	for {
		select {
		case r := <-w.recvCh:
			if r.err != nil {
				sub.complete(controller.Outcome{Err: fmt.Errorf("widget: recv frame: %w", r.err)})

				return
			}

			if err := w.checkEcho(sub.frame, r.frame); err != nil {
				// A stale echo from an earlier request; keep waiting for
				// the real response until the timer fires.
				w.logger.Debug("widget: dropping stale response", "cause", err.Error())

				continue
			}

			sub.complete(controller.Outcome{Frame: r.frame})

			return
		case <-timer.C:
			sub.complete(controller.Outcome{Err: controller.ErrResponseTimeout})

			return
		case <-w.closeCh:
			sub.complete(controller.Outcome{Err: controller.ErrDetached})

			return
		}
	}
}

// checkEcho rejects responses whose transaction number does not echo
// the request's. Discovery probes are exempt: their responses use the
// preamble framing, which carries no transaction number. Frames too
// short to carry a transaction number pass through for the sequencer to
// classify as malformed.
func (w *Widget) checkEcho(request, response []byte) error {
	if w.isBranchProbe(request) {
		return nil
	}

	if len(response) <= transactionOffset || response[0] != rdm.StartCode {
		return nil
	}

	if response[transactionOffset] != request[transactionOffset] {
		return fmt.Errorf("%w: got %d, want %d",
			ErrTransactionMismatch, response[transactionOffset], request[transactionOffset])
	}

	return nil
}

func (w *Widget) isBranchProbe(request []byte) bool {
	if len(request) <= paramIDOffset+1 {
		return false
	}

	cc := rdm.CommandClass(request[commandClassOffset])
	pid := rdm.PID(uint16(request[paramIDOffset])<<8 | uint16(request[paramIDOffset+1]))

	return cc == rdm.DiscoverCommand && pid == rdm.PIDDiscUniqueBranch
}
