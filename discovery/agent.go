// Package discovery implements the RDM Discover-Unique-Branch (DUB)
// binary-search algorithm: it enumerates every responding device on a
// bus by probing UID ranges, muting devices as they are isolated, and
// bisecting ranges on collisions.
//
// The walk is iterative over an explicit worklist of UID ranges rather
// than recursive, bounding memory to the number of outstanding ranges
// and allowing cancellation between steps.
package discovery

import (
	"errors"
	"sync"

	"github.com/digitalshow/ola/controller"
	"github.com/digitalshow/ola/internal/queue"
	"github.com/digitalshow/ola/logger"
	"github.com/digitalshow/ola/rdm"
	"github.com/digitalshow/ola/uid"
)

var (
	// ErrInProgress indicates a discovery run was started while another
	// run on the same agent had not yet completed.
	ErrInProgress = errors.New("discovery: run already in progress")
)

// defaultMaxMuteAttempts bounds the number of times a single device may
// fail to mute before its range is abandoned. Without the bound, a
// responder that answers branch probes but never acknowledges a mute
// would keep the walk re-probing the same range forever.
const defaultMaxMuteAttempts = 3

// Target is the capability set the discovery agent requires from a
// controller: the three discovery primitives, sequenced through the
// same one-in-flight queue as ordinary parameter requests.
type Target interface {
	MuteDevice(target uid.UID, complete controller.MuteCallback)
	UnMuteAll(complete controller.UnmuteCallback)
	Branch(lower, upper uid.UID, complete controller.BranchCallback)
}

// Callback delivers the result of a discovery run. uids is owned by the
// receiver. ok is false when the run was cancelled or the initial
// broadcast unmute failed at the transport; the set still holds every
// device found before the interruption.
type Callback func(ok bool, uids *uid.Set)

// uidRange is one unexplored [lower, upper] segment of the UID space.
type uidRange struct {
	lower, upper uint64
}

// Agent walks the UID space of one bus. An agent runs at most one
// discovery at a time; runs on different buses use different agents.
type Agent struct {
	target Target
	logger logger.Logger

	maxMuteAttempts int

	mu           sync.Mutex
	running      bool
	cancelled    bool
	transportOK  bool
	ranges       *queue.FIFO[uidRange]
	found        *uid.Set
	muteFailures map[uid.UID]int
	callback     Callback
}

// AgentOption is a functional option for configuring an Agent.
type AgentOption func(*Agent)

// WithLogger sets the logger for the agent.
func WithLogger(l logger.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMaxMuteAttempts sets how many failed mutes of one device are
// tolerated before its range is abandoned.
func WithMaxMuteAttempts(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxMuteAttempts = n
		}
	}
}

// NewAgent creates a discovery agent for the given target.
func NewAgent(target Target, opts ...AgentOption) *Agent {
	a := &Agent{
		target:          target,
		logger:          logger.GetLogger(),
		maxMuteAttempts: defaultMaxMuteAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// RunFull walks the entire legal, non-broadcast UID space and delivers
// the set of responding devices to callback.
func (a *Agent) RunFull(callback Callback) error {
	// The legal space stops just short of the broadcast UID.
	full := uidRange{lower: 0, upper: uid.Broadcast().Uint64() - 1}

	return a.run(callback, []uidRange{full})
}

// RunIncremental walks only the ranges of previously known UIDs, a
// cheaper pass for buses whose population is expected to be stable.
// Behavior on collisions is identical to a full walk. When known is
// empty, it falls back to a full walk.
func (a *Agent) RunIncremental(known *uid.Set, callback Callback) error {
	if known == nil || known.Size() == 0 {
		return a.RunFull(callback)
	}

	seeds := make([]uidRange, 0, known.Size())
	for _, u := range known.List() {
		v := u.Uint64()
		seeds = append(seeds, uidRange{lower: v, upper: v})
	}

	return a.run(callback, seeds)
}

// Cancel abandons the remaining worklist. The devices found so far are
// reported through the run's callback once the in-flight transaction
// completes; nothing further is muted or unmuted.
func (a *Agent) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		a.cancelled = true
	}
}

func (a *Agent) run(callback Callback, seeds []uidRange) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()

		return ErrInProgress
	}
	a.running = true
	a.cancelled = false
	a.transportOK = true
	a.found = uid.NewSet()
	a.muteFailures = make(map[uid.UID]int)
	a.callback = callback
	a.ranges = queue.NewFIFO[uidRange](len(seeds))
	for _, r := range seeds {
		a.ranges.Enqueue(r)
	}
	a.mu.Unlock()

	a.logger.Debug("discovery: starting run", "ranges", len(seeds))

	// Wake every muted device first so earlier runs don't hide responders.
	// A transport failure here is not fatal to the walk but is reported
	// once, at the end.
	a.target.UnMuteAll(func(status *rdm.ResponseStatus) {
		if status.Type == rdm.TransportError {
			a.mu.Lock()
			a.transportOK = false
			a.mu.Unlock()

			a.logger.Warn("discovery: broadcast unmute failed", "status", status.String())
		}

		a.probeNext()
	})

	return nil
}

// probeNext pops the next unexplored range and issues its branch probe.
// It terminates the run when the worklist is exhausted or the run was
// cancelled.
func (a *Agent) probeNext() {
	a.mu.Lock()
	for {
		if a.cancelled {
			a.finishLocked(false)

			return
		}

		r, ok := a.ranges.Dequeue()
		if !ok {
			a.finishLocked(a.transportOK)

			return
		}
		if r.lower > r.upper {
			continue
		}

		a.mu.Unlock()
		a.target.Branch(uid.FromUint64(r.lower), uid.FromUint64(r.upper), func(status *rdm.ResponseStatus, data []byte) {
			a.handleBranch(r, status, data)
		})

		return
	}
}

// finishLocked completes the run and hands the discovered set to the
// caller. Caller holds the lock; the callback is invoked without it.
func (a *Agent) finishLocked(ok bool) {
	found := a.found
	callback := a.callback

	a.running = false
	a.found = nil
	a.callback = nil
	a.ranges = nil
	a.muteFailures = nil
	a.mu.Unlock()

	a.logger.Info("discovery: run complete", "devices", found.Size(), "ok", ok)

	if callback != nil {
		callback(ok, found)
	}
}

// handleBranch processes the outcome of one DUB probe.
func (a *Agent) handleBranch(r uidRange, status *rdm.ResponseStatus, data []byte) {
	// No response at all: the range holds no unmuted devices.
	if status.Type == rdm.TransportError || len(data) == 0 {
		a.probeNext()

		return
	}

	u, err := rdm.ParseDUBResponse(data)
	if err != nil {
		a.handleCollision(r, err)

		return
	}

	// Exactly one unmuted device claimed the range.
	a.mu.Lock()
	if a.cancelled {
		a.finishLocked(false)

		return
	}
	a.found.Add(u)
	a.mu.Unlock()

	a.logger.Debug("discovery: isolated device", "uid", u.String(),
		"lower", uid.FromUint64(r.lower).String(), "upper", uid.FromUint64(r.upper).String())

	a.target.MuteDevice(u, func(muteStatus *rdm.ResponseStatus, muted bool) {
		a.handleMute(r, u, muteStatus, muted)
	})
}

// handleCollision bisects a range in which multiple devices answered
// simultaneously.
func (a *Agent) handleCollision(r uidRange, cause error) {
	a.mu.Lock()

	if r.lower == r.upper {
		// A single-address range cannot collide; a garbled response here
		// is a responder fault. Drop the range so the walk terminates.
		a.logger.Warn("discovery: garbled response for single-UID range",
			"uid", uid.FromUint64(r.lower).String(), "cause", cause.Error())
		a.mu.Unlock()
		a.probeNext()

		return
	}

	mid := r.lower + (r.upper-r.lower)/2
	a.ranges.Enqueue(uidRange{lower: r.lower, upper: mid})
	a.ranges.Enqueue(uidRange{lower: mid + 1, upper: r.upper})
	a.mu.Unlock()

	a.probeNext()
}

// handleMute processes the outcome of muting an isolated device and
// re-queues the same range: further devices may be hiding behind the
// one just muted, and each pass removes one more until the range falls
// silent.
func (a *Agent) handleMute(r uidRange, u uid.UID, status *rdm.ResponseStatus, muted bool) {
	a.mu.Lock()

	requeue := true
	if !muted {
		// Assume the device is still unmuted and re-probe; that cannot
		// under-count. Bound the retries so a responder that never
		// acknowledges a mute cannot stall the walk.
		a.muteFailures[u]++
		if a.muteFailures[u] >= a.maxMuteAttempts {
			a.logger.Warn("discovery: device failed to mute, abandoning range",
				"uid", u.String(), "attempts", a.muteFailures[u], "status", status.String())
			requeue = false
		}
	}

	if requeue {
		a.ranges.Enqueue(r)
	}
	a.mu.Unlock()

	a.probeNext()
}
