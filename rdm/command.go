// Package rdm implements the RDM (E1.20) wire layer: request/response
// packet encoding and decoding, the discovery (DUB) response codec, and
// the response-status taxonomy shared by the transaction sequencer and
// the discovery engine.
package rdm

import (
	"encoding/binary"
	"fmt"

	"github.com/digitalshow/ola/uid"
)

// packetHeaderSize is the number of bytes from the start code through the
// PDL field, inclusive.
const packetHeaderSize = 24

// checksumSize is the size of the trailing additive checksum in bytes.
const checksumSize = 2

// MinPacketSize is the smallest valid RDM packet: header plus checksum,
// with no parameter data.
const MinPacketSize = packetHeaderSize + checksumSize

// Request represents a controller-originated RDM request (GET, SET or
// DISCOVER class).
type Request struct {
	DestUID           uid.UID
	SrcUID            uid.UID
	TransactionNumber uint8
	PortID            uint8
	SubDevice         uint16
	CommandClass      CommandClass
	ParamID           PID
	ParamData         []byte
}

// IsBroadcast returns true if the request is addressed so that no unicast
// reply may be expected: either the destination UID is a broadcast pattern
// or the sub-device is the all-sub-devices sentinel.
func (r *Request) IsBroadcast() bool {
	return r.DestUID.IsBroadcast() || r.SubDevice == AllSubDevices
}

// Validate checks the addressing and parameter data constraints of the
// request without serializing it.
func (r *Request) Validate() error {
	if len(r.ParamData) > MaxParamDataLength {
		return fmt.Errorf("%w: got %d", ErrParamDataTooLong, len(r.ParamData))
	}

	if r.SubDevice > MaxSubDevice {
		if r.SubDevice != AllSubDevices {
			return fmt.Errorf("%w: got 0x%04x", ErrInvalidSubDevice, r.SubDevice)
		}
		if r.CommandClass != SetCommand {
			return ErrSubDeviceBroadcast
		}
	}

	return nil
}

// Pack serializes the request to its wire format:
//
//	[0xCC][0x01][MsgLen][DestUID(6)][SrcUID(6)][TN][PortID][MsgCount=0]
//	[SubDevice(2)][CC][PID(2)][PDL][ParamData...][Checksum(2)]
//
// All multi-byte integers are big-endian. The checksum is the 16-bit sum
// of every preceding byte.
func (r *Request) Pack() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	msgLen := packetHeaderSize + len(r.ParamData)
	buf := make([]byte, msgLen+checksumSize)

	buf[0] = StartCode
	buf[1] = SubStartCode
	buf[2] = byte(msgLen)
	r.DestUID.Put(buf[3:9])
	r.SrcUID.Put(buf[9:15])
	buf[15] = r.TransactionNumber
	buf[16] = r.PortID
	buf[17] = 0 // message count, always 0 in requests
	binary.BigEndian.PutUint16(buf[18:20], r.SubDevice)
	buf[20] = byte(r.CommandClass)
	binary.BigEndian.PutUint16(buf[21:23], uint16(r.ParamID))
	buf[23] = byte(len(r.ParamData))
	copy(buf[packetHeaderSize:], r.ParamData)

	binary.BigEndian.PutUint16(buf[msgLen:], Checksum(buf[:msgLen]))

	return buf, nil
}

// ParseRequest deserializes a controller-originated request from its wire
// bytes, applying the same framing validation as ParseResponse. It is the
// responder-side half of the codec, used by responder emulations and bus
// test fixtures.
func ParseRequest(data []byte) (*Request, error) {
	pdl, err := checkFrame(data)
	if err != nil {
		return nil, err
	}

	destUID, _ := uid.FromBytes(data[3:9])
	srcUID, _ := uid.FromBytes(data[9:15])

	req := &Request{
		DestUID:           destUID,
		SrcUID:            srcUID,
		TransactionNumber: data[15],
		PortID:            data[16],
		SubDevice:         binary.BigEndian.Uint16(data[18:20]),
		CommandClass:      CommandClass(data[20]),
		ParamID:           PID(binary.BigEndian.Uint16(data[21:23])),
	}

	if pdl > 0 {
		req.ParamData = make([]byte, pdl)
		copy(req.ParamData, data[packetHeaderSize:packetHeaderSize+pdl])
	}

	return req, nil
}

// Response represents a responder-originated RDM response packet.
type Response struct {
	DestUID           uid.UID
	SrcUID            uid.UID
	TransactionNumber uint8
	ResponseType      ResponseType
	MessageCount      uint8
	SubDevice         uint16
	CommandClass      CommandClass
	ParamID           PID
	ParamData         []byte
}

// Pack serializes the response to its wire format. The layout matches
// the request layout with the response type and message count fields in
// place of the port ID and reserved count. Used by responder emulations
// and bus test fixtures.
func (r *Response) Pack() ([]byte, error) {
	if len(r.ParamData) > MaxParamDataLength {
		return nil, fmt.Errorf("%w: got %d", ErrParamDataTooLong, len(r.ParamData))
	}

	msgLen := packetHeaderSize + len(r.ParamData)
	buf := make([]byte, msgLen+checksumSize)

	buf[0] = StartCode
	buf[1] = SubStartCode
	buf[2] = byte(msgLen)
	r.DestUID.Put(buf[3:9])
	r.SrcUID.Put(buf[9:15])
	buf[15] = r.TransactionNumber
	buf[16] = byte(r.ResponseType)
	buf[17] = r.MessageCount
	binary.BigEndian.PutUint16(buf[18:20], r.SubDevice)
	buf[20] = byte(r.CommandClass)
	binary.BigEndian.PutUint16(buf[21:23], uint16(r.ParamID))
	buf[23] = byte(len(r.ParamData))
	copy(buf[packetHeaderSize:], r.ParamData)

	binary.BigEndian.PutUint16(buf[msgLen:], Checksum(buf[:msgLen]))

	return buf, nil
}

// checkFrame validates the framing shared by requests and responses:
// start codes, the message-length field against the received byte count,
// the PDL against the message length, and the trailing checksum. It
// returns the parameter data length.
func checkFrame(data []byte) (int, error) {
	if len(data) < MinPacketSize {
		return 0, fmt.Errorf("%w: got %d bytes, want >= %d", ErrPacketTooShort, len(data), MinPacketSize)
	}

	if data[0] != StartCode {
		return 0, fmt.Errorf("%w: got 0x%02X", ErrInvalidStartCode, data[0])
	}
	if data[1] != SubStartCode {
		return 0, fmt.Errorf("%w: got 0x%02X", ErrInvalidSubStartCode, data[1])
	}

	msgLen := int(data[2])
	if msgLen < packetHeaderSize || msgLen+checksumSize != len(data) {
		return 0, fmt.Errorf("%w: length field %d, packet size %d", ErrLengthMismatch, msgLen, len(data))
	}

	pdl := int(data[23])
	if pdl > MaxParamDataLength {
		return 0, fmt.Errorf("%w: got %d", ErrParamDataTooLong, pdl)
	}
	if packetHeaderSize+pdl != msgLen {
		return 0, fmt.Errorf("%w: PDL %d does not match message length %d", ErrLengthMismatch, pdl, msgLen)
	}

	wireChecksum := binary.BigEndian.Uint16(data[msgLen:])
	calcChecksum := Checksum(data[:msgLen])
	if wireChecksum != calcChecksum {
		return 0, fmt.Errorf("%w: wire=0x%04X, computed=0x%04X", ErrChecksumMismatch, wireChecksum, calcChecksum)
	}

	return pdl, nil
}

// ParseResponse deserializes an RDM response from its wire bytes,
// validating the framing via checkFrame. ParamData is copied out of the
// input buffer.
func ParseResponse(data []byte) (*Response, error) {
	pdl, err := checkFrame(data)
	if err != nil {
		return nil, err
	}

	destUID, _ := uid.FromBytes(data[3:9])
	srcUID, _ := uid.FromBytes(data[9:15])

	rsp := &Response{
		DestUID:           destUID,
		SrcUID:            srcUID,
		TransactionNumber: data[15],
		ResponseType:      ResponseType(data[16]),
		MessageCount:      data[17],
		SubDevice:         binary.BigEndian.Uint16(data[18:20]),
		CommandClass:      CommandClass(data[20]),
		ParamID:           PID(binary.BigEndian.Uint16(data[21:23])),
	}

	if pdl > 0 {
		rsp.ParamData = make([]byte, pdl)
		copy(rsp.ParamData, data[packetHeaderSize:packetHeaderSize+pdl])
	}

	return rsp, nil
}

// Checksum computes the 16-bit additive RDM checksum: the arithmetic sum
// of all unsigned byte values, truncated to 16 bits.
func Checksum(data []byte) uint16 {
	var sum uint32
	for _, v := range data {
		sum += uint32(v)
	}

	return uint16(sum & 0xFFFF) //nolint:gosec // intentional truncation
}
