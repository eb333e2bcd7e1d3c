package param

import (
	"encoding/binary"
	"fmt"

	"github.com/digitalshow/ola/rdm"
)

// PackBool encodes a 1-byte boolean payload, e.g. for SET IDENTIFY_DEVICE.
func PackBool(v bool) []byte {
	if v {
		return []byte{1}
	}

	return []byte{0}
}

// PackUint8 encodes a 1-byte payload, e.g. a sensor number or personality.
func PackUint8(v uint8) []byte {
	return []byte{v}
}

// PackUint16 encodes a 2-byte big-endian payload, e.g. for
// SET DMX_START_ADDRESS or a slot/status query.
func PackUint16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)

	return buf
}

// PackUint32 encodes a 4-byte big-endian payload.
func PackUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)

	return buf
}

// PackLabel encodes a label payload for SET DEVICE_LABEL and friends.
// The label is sent without padding or NUL termination; labels longer
// than the 32-byte protocol maximum are rejected.
func PackLabel(label string) ([]byte, error) {
	if len(label) > rdm.MaxLabelSize {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrLabelTooLong, len(label), rdm.MaxLabelSize)
	}

	return []byte(label), nil
}

// PackLanguage encodes a 2-character ISO 639-1 language code for
// SET LANGUAGE.
func PackLanguage(lang string) ([]byte, error) {
	if len(lang) != 2 {
		return nil, fmt.Errorf("%w: got %d, want 2", ErrLengthMismatch, len(lang))
	}

	return []byte(lang), nil
}
