package rdm

import (
	"fmt"

	"github.com/digitalshow/ola/uid"
)

// Discovery (DISC_UNIQUE_BRANCH) response framing, E1.20 §7.5.
//
// A DUB response is not a regular RDM packet: the responder transmits up
// to 7 preamble bytes (0xFE), a preamble separator (0xAA), then the EUID
// (each of the 6 UID bytes emitted twice, first OR'd with 0xAA, then OR'd
// with 0x55), followed by a 16-bit checksum of the 12 EUID bytes encoded
// the same way.

const (
	dubPreamble          byte = 0xFE
	dubPreambleSeparator byte = 0xAA

	// dubEUIDSize is the encoded UID: 6 bytes, each sent twice.
	dubEUIDSize = 12

	// dubChecksumSize is the encoded checksum: 2 bytes, each sent twice.
	dubChecksumSize = 4

	// maxDUBPreambleSize is the maximum number of preamble bytes before
	// the separator.
	maxDUBPreambleSize = 7
)

// PackDUBParams encodes the parameter data of a DISC_UNIQUE_BRANCH request:
// the lower and upper bounds of the probed UID range, 6 bytes each.
func PackDUBParams(lower, upper uid.UID) []byte {
	buf := make([]byte, 2*uid.Size)
	lower.Put(buf[0:6])
	upper.Put(buf[6:12])

	return buf
}

// PackDUBResponse encodes a single responder's DUB response, preamble
// included. Used by responder emulations and bus test fixtures.
func PackDUBResponse(u uid.UID) []byte {
	buf := make([]byte, 0, maxDUBPreambleSize+1+dubEUIDSize+dubChecksumSize)
	for i := 0; i < maxDUBPreambleSize; i++ {
		buf = append(buf, dubPreamble)
	}
	buf = append(buf, dubPreambleSeparator)

	euid := make([]byte, 0, dubEUIDSize)
	for _, b := range u.Bytes() {
		euid = append(euid, b|0xAA, b|0x55)
	}
	buf = append(buf, euid...)

	cs := Checksum(euid)
	csHi, csLo := byte(cs>>8), byte(cs)
	buf = append(buf, csHi|0xAA, csHi|0x55, csLo|0xAA, csLo|0x55)

	return buf
}

// ParseDUBResponse decodes a DUB response into the responding UID.
//
// Any framing violation (missing separator, short data, checksum
// mismatch) returns an error. During discovery such an error indicates a
// collision (multiple responders transmitting simultaneously), not a
// protocol failure; the discovery engine treats it as a branch signal.
func ParseDUBResponse(data []byte) (uid.UID, error) {
	// Skip preamble bytes and locate the separator. Responders may send
	// 0-7 preamble bytes, and leading line noise can corrupt some of them,
	// so scan rather than count.
	start := -1
	for i := 0; i < len(data) && i <= maxDUBPreambleSize; i++ {
		if data[i] == dubPreambleSeparator {
			start = i + 1

			break
		}
	}
	if start < 0 {
		return uid.UID{}, ErrDUBNoPreambleSeparator
	}

	body := data[start:]
	if len(body) < dubEUIDSize+dubChecksumSize {
		return uid.UID{}, fmt.Errorf("%w: got %d bytes after separator, want %d",
			ErrDUBShortResponse, len(body), dubEUIDSize+dubChecksumSize)
	}
	body = body[:dubEUIDSize+dubChecksumSize]

	euid := body[:dubEUIDSize]

	var raw [uid.Size]byte
	for i := 0; i < uid.Size; i++ {
		// Each UID byte arrives as (b|0xAA, b|0x55); AND recovers b.
		raw[i] = euid[2*i] & euid[2*i+1]
	}

	wireChecksum := uint16(body[dubEUIDSize]&body[dubEUIDSize+1])<<8 |
		uint16(body[dubEUIDSize+2]&body[dubEUIDSize+3])
	calcChecksum := Checksum(euid)
	if wireChecksum != calcChecksum {
		return uid.UID{}, fmt.Errorf("%w: wire=0x%04X, computed=0x%04X",
			ErrDUBChecksumMismatch, wireChecksum, calcChecksum)
	}

	u, err := uid.FromBytes(raw[:])
	if err != nil {
		return uid.UID{}, err
	}

	return u, nil
}
