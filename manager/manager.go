// Package manager tracks the controllers of a multi-port installation:
// it owns one transaction sequencer and one discovery agent per
// attached port, runs full or incremental discovery on demand, and
// caches each port's last known device set for presentation layers.
package manager

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/digitalshow/ola/controller"
	"github.com/digitalshow/ola/discovery"
	"github.com/digitalshow/ola/logger"
	"github.com/digitalshow/ola/uid"
)

var (
	// ErrPortExists indicates an attach for a port ID already registered.
	ErrPortExists = errors.New("manager: port already attached")

	// ErrUnknownPort indicates an operation on a port ID never attached or
	// already detached.
	ErrUnknownPort = errors.New("manager: unknown port")
)

// port bundles the per-port collaborators and the cached discovery
// result.
type port struct {
	id    string
	ctrl  *controller.Controller
	agent *discovery.Agent

	mu       sync.Mutex
	lastSeen *uid.Set
	lastOK   bool
	lastRun  time.Time
}

// snapshot returns a copy of the cached device set with its run
// metadata. The set is empty until the first discovery completes.
func (p *port) snapshot() (*uid.Set, time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastSeen == nil {
		return uid.NewSet(), time.Time{}, false
	}

	return p.lastSeen.Clone(), p.lastRun, p.lastOK
}

func (p *port) store(uids *uid.Set, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastSeen = uids
	p.lastOK = ok
	p.lastRun = time.Now()
}

// Manager is a registry of attached ports. All methods are safe for
// concurrent use.
type Manager struct {
	ports  *xsync.MapOf[string, *port]
	logger logger.Logger
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager and the collaborators it
// creates.
func WithLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		ports:  xsync.NewMapOf[string, *port](),
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Attach registers a port: it builds a controller with the given source
// UID on the transport and pairs it with a discovery agent. The
// returned controller is ready for requests immediately.
func (m *Manager) Attach(portID string, transport controller.Transport, srcUID uid.UID, opts ...controller.Option) (*controller.Controller, error) {
	opts = append([]controller.Option{controller.WithLogger(m.logger)}, opts...)
	cfg, err := controller.NewConfig(srcUID, opts...)
	if err != nil {
		return nil, fmt.Errorf("manager: attach port %s: %w", portID, err)
	}

	ctrl, err := controller.New(transport, cfg)
	if err != nil {
		return nil, fmt.Errorf("manager: attach port %s: %w", portID, err)
	}

	p := &port{
		id:    portID,
		ctrl:  ctrl,
		agent: discovery.NewAgent(ctrl, discovery.WithLogger(m.logger)),
	}

	if _, loaded := m.ports.LoadOrStore(portID, p); loaded {
		return nil, fmt.Errorf("%w: %s", ErrPortExists, portID)
	}

	m.logger.Info("manager: port attached", "port", portID, "uid", srcUID.String())

	return ctrl, nil
}

// Detach removes a port: an in-progress discovery is cancelled and
// every queued transaction completes with a transport-error status.
// The cached device set is discarded with the port.
func (m *Manager) Detach(portID string) error {
	p, ok := m.ports.LoadAndDelete(portID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPort, portID)
	}

	p.agent.Cancel()
	p.ctrl.Detach()

	m.logger.Info("manager: port detached", "port", portID)

	return nil
}

// Controller returns the controller of an attached port.
func (m *Manager) Controller(portID string) (*controller.Controller, bool) {
	p, ok := m.ports.Load(portID)
	if !ok {
		return nil, false
	}

	return p.ctrl, true
}

// Discover starts a discovery run on the given port. A full run walks
// the whole UID space; an incremental run reuses the port's cached
// device set as seeds. The result updates the cache before callback is
// invoked.
func (m *Manager) Discover(portID string, full bool, callback discovery.Callback) error {
	p, ok := m.ports.Load(portID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPort, portID)
	}

	wrapped := func(ok bool, uids *uid.Set) {
		p.store(uids, ok)

		m.logger.Info("manager: discovery finished",
			"port", portID, "devices", uids.Size(), "ok", ok)

		if callback != nil {
			callback(ok, uids.Clone())
		}
	}

	if full {
		return p.agent.RunFull(wrapped)
	}

	known, _, _ := p.snapshot()

	return p.agent.RunIncremental(known, wrapped)
}

// Devices returns a copy of the port's cached device set along with the
// completion time and success flag of the run that produced it.
func (m *Manager) Devices(portID string) (*uid.Set, time.Time, bool, error) {
	p, ok := m.ports.Load(portID)
	if !ok {
		return nil, time.Time{}, false, fmt.Errorf("%w: %s", ErrUnknownPort, portID)
	}

	uids, at, runOK := p.snapshot()

	return uids, at, runOK, nil
}

// Ports returns the attached port IDs in ascending order.
func (m *Manager) Ports() []string {
	ids := make([]string, 0, m.ports.Size())
	m.ports.Range(func(id string, _ *port) bool {
		ids = append(ids, id)

		return true
	})
	sort.Strings(ids)

	return ids
}

// Close detaches every port.
func (m *Manager) Close() {
	for _, id := range m.Ports() {
		_ = m.Detach(id)
	}
}
