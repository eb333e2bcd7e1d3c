package manager

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitalshow/ola/controller"
	"github.com/digitalshow/ola/logger"
	"github.com/digitalshow/ola/rdm"
	"github.com/digitalshow/ola/uid"
)

var ctrlUID = uid.New(0x7a70, 0xfffffe00)

// busTransport answers controller frames like a small population of
// responders would: discovery probes, mutes and unmutes are simulated
// at the wire level, everything else is acknowledged.
type busTransport struct {
	mu      sync.Mutex
	devices map[uid.UID]bool // true when muted
}

func newBusTransport(uids ...uid.UID) *busTransport {
	b := &busTransport{devices: make(map[uid.UID]bool)}
	for _, u := range uids {
		b.devices[u] = false
	}

	return b
}

func (b *busTransport) addDevice(u uid.UID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.devices[u] = false
}

// respond fabricates the acknowledgement frame a responder would send
// back for the given request frame.
func respond(request []byte, data []byte) []byte {
	req, err := rdm.ParseRequest(request)
	if err != nil {
		panic(err)
	}

	frame, err := (&rdm.Response{
		DestUID:           req.SrcUID,
		SrcUID:            req.DestUID,
		TransactionNumber: req.TransactionNumber,
		ResponseType:      rdm.ResponseTypeAck,
		SubDevice:         req.SubDevice,
		CommandClass:      req.CommandClass.ResponseFor(),
		ParamID:           req.ParamID,
		ParamData:         data,
	}).Pack()
	if err != nil {
		panic(err)
	}

	return frame
}

// Submit computes the outcome under the lock but completes outside it:
// the sequencer issues its next frame from within complete, which
// re-enters Submit.
func (b *busTransport) Submit(frame []byte, expectsReply bool, complete func(controller.Outcome)) {
	out := b.handle(frame, expectsReply)
	complete(out)
}

func (b *busTransport) handle(frame []byte, expectsReply bool) controller.Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	pid := rdm.PID(binary.BigEndian.Uint16(frame[21:23]))

	if !expectsReply {
		if pid == rdm.PIDDiscUnMute {
			for u := range b.devices {
				b.devices[u] = false
			}
		}

		return controller.Outcome{}
	}

	switch pid {
	case rdm.PIDDiscMute:
		dest, _ := uid.FromBytes(frame[3:9])
		if _, ok := b.devices[dest]; !ok {
			return controller.Outcome{Err: controller.ErrResponseTimeout}
		}
		b.devices[dest] = true

		return controller.Outcome{Frame: respond(frame, []byte{0x00, 0x00})}
	case rdm.PIDDiscUniqueBranch:
		lower, _ := uid.FromBytes(frame[24:30])
		upper, _ := uid.FromBytes(frame[30:36])

		var responders []uid.UID
		for u, muted := range b.devices {
			if muted {
				continue
			}
			if lower.Compare(u) <= 0 && u.Compare(upper) <= 0 {
				responders = append(responders, u)
			}
		}

		switch {
		case len(responders) == 0:
			return controller.Outcome{Err: controller.ErrResponseTimeout}
		case len(responders) == 1:
			return controller.Outcome{Frame: rdm.PackDUBResponse(responders[0])}
		default:
			garbage := make([]byte, 24)
			for i := range garbage {
				garbage[i] = 0xFE
			}

			return controller.Outcome{Frame: garbage}
		}
	default:
		return controller.Outcome{Frame: respond(frame, nil)}
	}
}

func newTestManager() *Manager {
	return NewManager(WithLogger(logger.NewNop()))
}

func TestManager_AttachDetach(t *testing.T) {
	require := require.New(t)

	m := newTestManager()

	ctrl, err := m.Attach("port-1", newBusTransport(), ctrlUID)
	require.NoError(err)
	require.NotNil(ctrl)
	require.Equal(ctrlUID, ctrl.UID())

	got, ok := m.Controller("port-1")
	require.True(ok)
	require.Same(ctrl, got)

	_, err = m.Attach("port-1", newBusTransport(), ctrlUID)
	require.ErrorIs(err, ErrPortExists)

	_, err = m.Attach("port-0", newBusTransport(), uid.Broadcast())
	require.Error(err)

	require.NoError(m.Detach("port-1"))
	_, ok = m.Controller("port-1")
	require.False(ok)

	require.ErrorIs(m.Detach("port-1"), ErrUnknownPort)
}

func TestManager_Ports(t *testing.T) {
	require := require.New(t)

	m := newTestManager()

	for _, id := range []string{"uni-2", "uni-1", "uni-3"} {
		_, err := m.Attach(id, newBusTransport(), ctrlUID)
		require.NoError(err)
	}

	require.Equal([]string{"uni-1", "uni-2", "uni-3"}, m.Ports())
}

func TestManager_Discover(t *testing.T) {
	require := require.New(t)

	devices := []uid.UID{
		uid.New(0x7a70, 0x00000001),
		uid.New(0x7a70, 0x00000005),
		uid.New(0x4d50, 0x00001000),
	}
	bus := newBusTransport(devices...)

	m := newTestManager()
	_, err := m.Attach("uni-1", bus, ctrlUID)
	require.NoError(err)

	var gotUIDs *uid.Set
	err = m.Discover("uni-1", true, func(ok bool, uids *uid.Set) {
		require.True(ok)
		gotUIDs = uids
	})
	require.NoError(err)
	require.Equal(uid.NewSet(devices...).List(), gotUIDs.List())

	// The run result is cached for snapshot queries.
	cached, at, ok, err := m.Devices("uni-1")
	require.NoError(err)
	require.True(ok)
	require.False(at.IsZero())
	require.Equal(gotUIDs.List(), cached.List())

	// Snapshots are copies; mutating one leaves the cache intact.
	cached.Remove(devices[0])
	again, _, _, err := m.Devices("uni-1")
	require.NoError(err)
	require.Equal(len(devices), again.Size())
}

func TestManager_DiscoverIncremental(t *testing.T) {
	require := require.New(t)

	known := uid.New(0x7a70, 0x00000001)
	bus := newBusTransport(known)

	m := newTestManager()
	_, err := m.Attach("uni-1", bus, ctrlUID)
	require.NoError(err)

	err = m.Discover("uni-1", true, nil)
	require.NoError(err)

	// A device added after the full run is invisible to the incremental
	// pass, which only probes the cached addresses.
	newcomer := uid.New(0x7a70, 0x00000009)
	bus.addDevice(newcomer)

	var gotUIDs *uid.Set
	err = m.Discover("uni-1", false, func(_ bool, uids *uid.Set) {
		gotUIDs = uids
	})
	require.NoError(err)
	require.True(gotUIDs.Contains(known))
	require.False(gotUIDs.Contains(newcomer))

	// A full run picks the newcomer up.
	err = m.Discover("uni-1", true, func(_ bool, uids *uid.Set) {
		gotUIDs = uids
	})
	require.NoError(err)
	require.True(gotUIDs.Contains(newcomer))
}

func TestManager_DiscoverUnknownPort(t *testing.T) {
	require := require.New(t)

	m := newTestManager()

	require.ErrorIs(m.Discover("nope", true, nil), ErrUnknownPort)

	_, _, _, err := m.Devices("nope")
	require.ErrorIs(err, ErrUnknownPort)
}

func TestManager_Close(t *testing.T) {
	require := require.New(t)

	m := newTestManager()

	ctrl, err := m.Attach("uni-1", newBusTransport(), ctrlUID)
	require.NoError(err)
	_, err = m.Attach("uni-2", newBusTransport(), ctrlUID)
	require.NoError(err)

	m.Close()
	require.Empty(m.Ports())

	// Detached controllers fail new work immediately.
	var gotStatus *rdm.ResponseStatus
	err = ctrl.SendGet(uid.New(0x7a70, 1), rdm.RootDevice, rdm.PIDDeviceInfo, nil, func(status *rdm.ResponseStatus, _ *rdm.Response) {
		gotStatus = status
	})
	require.NoError(err)
	require.Equal(rdm.TransportError, gotStatus.Type)
}
