package rdm

import "errors"

var (
	// ErrInvalidStartCode indicates the packet does not begin with the RDM
	// start code (0xCC).
	ErrInvalidStartCode = errors.New("rdm: invalid start code")

	// ErrInvalidSubStartCode indicates the packet's sub-start code is not
	// 0x01.
	ErrInvalidSubStartCode = errors.New("rdm: invalid sub-start code")

	// ErrPacketTooShort indicates the packet is shorter than the minimum
	// RDM packet size.
	ErrPacketTooShort = errors.New("rdm: packet too short")

	// ErrLengthMismatch indicates the message-length field disagrees with
	// the number of bytes received.
	ErrLengthMismatch = errors.New("rdm: message length mismatch")

	// ErrParamDataTooLong indicates a parameter data length above the
	// 231-byte limit.
	ErrParamDataTooLong = errors.New("rdm: parameter data exceeds 231 bytes")

	// ErrChecksumMismatch indicates the packet checksum does not match the
	// computed value.
	ErrChecksumMismatch = errors.New("rdm: checksum mismatch")

	// ErrInvalidSubDevice indicates a sub-device outside [0, 0x0200] that
	// is not the all-sub-devices sentinel.
	ErrInvalidSubDevice = errors.New("rdm: sub-device must be <= 0x0200 or 0xffff")

	// ErrSubDeviceBroadcast indicates the all-sub-devices sentinel was used
	// with a command class that does not permit it.
	ErrSubDeviceBroadcast = errors.New("rdm: sub-device 0xffff is only valid for set commands")
)

var (
	// ErrDUBShortResponse indicates a discovery response too short to hold
	// the encoded UID and checksum.
	ErrDUBShortResponse = errors.New("rdm: discovery response too short")

	// ErrDUBNoPreambleSeparator indicates the discovery response preamble
	// separator (0xAA) was not found.
	ErrDUBNoPreambleSeparator = errors.New("rdm: discovery response preamble separator not found")

	// ErrDUBChecksumMismatch indicates the discovery response checksum does
	// not match; usually the result of colliding responders.
	ErrDUBChecksumMismatch = errors.New("rdm: discovery response checksum mismatch")
)
