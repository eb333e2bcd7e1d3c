// Package uid provides the 48-bit device address (UID) used to identify
// responders on an RDM bus, and a deduplicated set type for discovery
// results.
//
// A UID is composed of a 16-bit manufacturer ID (ESTA ID) and a 32-bit
// device ID. UIDs are immutable value types; they compare and sort as
// unsigned 48-bit integers.
package uid

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the number of bytes a UID occupies on the wire.
const Size = 6

// AllManufacturers is the manufacturer ID that addresses devices of every
// manufacturer. Combined with AllDevices it forms the broadcast UID.
const AllManufacturers uint16 = 0xFFFF

// AllDevices is the device ID that addresses every device of a manufacturer.
const AllDevices uint32 = 0xFFFFFFFF

var (
	// ErrShortBuffer indicates the input buffer holds fewer than Size bytes.
	ErrShortBuffer = errors.New("uid: buffer shorter than 6 bytes")
)

// UID is a 48-bit RDM unique identifier: a 16-bit manufacturer ID followed
// by a 32-bit device ID. The zero value is UID 0000:00000000.
type UID struct {
	manufacturerID uint16
	deviceID       uint32
}

// New creates a UID from a manufacturer ID and a device ID.
func New(manufacturerID uint16, deviceID uint32) UID {
	return UID{manufacturerID: manufacturerID, deviceID: deviceID}
}

// FromUint64 creates a UID from the lower 48 bits of v.
func FromUint64(v uint64) UID {
	return UID{
		manufacturerID: uint16(v >> 32), //nolint:gosec // intentional truncation to 48 bits
		deviceID:       uint32(v),       //nolint:gosec // intentional truncation
	}
}

// FromBytes parses a UID from the first 6 bytes of data in big-endian order.
func FromBytes(data []byte) (UID, error) {
	if len(data) < Size {
		return UID{}, fmt.Errorf("%w: got %d", ErrShortBuffer, len(data))
	}

	return UID{
		manufacturerID: binary.BigEndian.Uint16(data[0:2]),
		deviceID:       binary.BigEndian.Uint32(data[2:6]),
	}, nil
}

// Broadcast returns the all-devices, all-manufacturers broadcast UID
// (FFFF:FFFFFFFF).
func Broadcast() UID {
	return UID{manufacturerID: AllManufacturers, deviceID: AllDevices}
}

// VendorcastAll returns the UID that addresses all devices of the given
// manufacturer (manufacturerID:FFFFFFFF).
func VendorcastAll(manufacturerID uint16) UID {
	return UID{manufacturerID: manufacturerID, deviceID: AllDevices}
}

// ManufacturerID returns the 16-bit manufacturer (ESTA) ID.
func (u UID) ManufacturerID() uint16 {
	return u.manufacturerID
}

// DeviceID returns the 32-bit device ID.
func (u UID) DeviceID() uint32 {
	return u.deviceID
}

// Uint64 returns the UID as an unsigned 48-bit integer in the lower bits
// of a uint64.
func (u UID) Uint64() uint64 {
	return uint64(u.manufacturerID)<<32 | uint64(u.deviceID)
}

// IsBroadcast returns true if the UID is any broadcast pattern, i.e. the
// device ID is all-ones. This covers both the full broadcast UID and the
// per-manufacturer vendorcast UIDs.
func (u UID) IsBroadcast() bool {
	return u.deviceID == AllDevices
}

// Equal returns true if both UIDs have the same manufacturer and device IDs.
func (u UID) Equal(other UID) bool {
	return u == other
}

// Compare returns -1, 0 or 1 if u is less than, equal to, or greater than
// other, comparing as unsigned 48-bit integers.
func (u UID) Compare(other UID) int {
	a, b := u.Uint64(), other.Uint64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less returns true if u sorts before other.
func (u UID) Less(other UID) bool {
	return u.Uint64() < other.Uint64()
}

// Bytes returns the 6-byte big-endian wire encoding of the UID.
func (u UID) Bytes() []byte {
	buf := make([]byte, Size)
	u.Put(buf)

	return buf
}

// Put writes the 6-byte big-endian wire encoding into buf.
// Panics if buf is shorter than Size.
func (u UID) Put(buf []byte) {
	binary.BigEndian.PutUint16(buf[0:2], u.manufacturerID)
	binary.BigEndian.PutUint32(buf[2:6], u.deviceID)
}

// String formats the UID in the conventional MMMM:DDDDDDDD hex form,
// e.g. "7a70:00000001".
func (u UID) String() string {
	return fmt.Sprintf("%04x:%08x", u.manufacturerID, u.deviceID)
}
