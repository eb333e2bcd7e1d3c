package param

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/digitalshow/ola/rdm"
	"github.com/digitalshow/ola/uid"
)

var (
	// ErrLengthMismatch indicates parameter data whose length violates the
	// parameter's exact-length rule.
	ErrLengthMismatch = errors.New("param: parameter data length mismatch")

	// ErrLengthOutOfRange indicates parameter data whose length falls
	// outside the parameter's [min, max] range.
	ErrLengthOutOfRange = errors.New("param: parameter data length out of range")

	// ErrNotRecordMultiple indicates list parameter data whose length is
	// not a multiple of the record size.
	ErrNotRecordMultiple = errors.New("param: parameter data not a multiple of record size")

	// ErrLabelTooLong indicates a label longer than the 32-byte protocol
	// maximum.
	ErrLabelTooLong = errors.New("param: label exceeds 32 byte maximum")
)

// checkExact validates that data is exactly want bytes.
func checkExact(data []byte, want int) error {
	if len(data) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(data), want)
	}

	return nil
}

// checkRange validates that len(data) is within [min, max] inclusive.
func checkRange(data []byte, minLen, maxLen int) error {
	if len(data) < minLen || len(data) > maxLen {
		return fmt.Errorf("%w: got %d, want %d-%d", ErrLengthOutOfRange, len(data), minLen, maxLen)
	}

	return nil
}

// checkMultiple validates that len(data) is a non-negative multiple of
// recordSize.
func checkMultiple(data []byte, recordSize int) error {
	if len(data)%recordSize != 0 {
		return fmt.Errorf("%w: got %d, record size %d", ErrNotRecordMultiple, len(data), recordSize)
	}

	return nil
}

// trimLabel converts a fixed-size label field to a string, stopping at the
// first NUL. Labels are padded on the wire and never NUL-terminated, but
// are always exposed NUL-free to callers.
func trimLabel(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	return string(data)
}

// DecodeEmpty validates a response that must carry no parameter data,
// e.g. the acknowledgement of most SET commands.
func DecodeEmpty(data []byte) error {
	return checkExact(data, 0)
}

// DecodeBool decodes a 1-byte boolean parameter such as IDENTIFY_DEVICE
// or FACTORY_DEFAULTS.
func DecodeBool(data []byte) (bool, error) {
	if err := checkExact(data, 1); err != nil {
		return false, err
	}

	return data[0] != 0, nil
}

// DecodeUint8 decodes a 1-byte unsigned parameter.
func DecodeUint8(data []byte) (uint8, error) {
	if err := checkExact(data, 1); err != nil {
		return 0, err
	}

	return data[0], nil
}

// DecodeUint16 decodes a 2-byte big-endian unsigned parameter such as
// DMX_START_ADDRESS.
func DecodeUint16(data []byte) (uint16, error) {
	if err := checkExact(data, 2); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(data), nil
}

// DecodeUint32 decodes a 4-byte big-endian unsigned parameter such as
// BOOT_SOFTWARE_VERSION_ID.
func DecodeUint32(data []byte) (uint32, error) {
	if err := checkExact(data, 4); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(data), nil
}

// DecodeLabel decodes a variable-length label parameter such as
// DEVICE_LABEL or MANUFACTURER_LABEL.
//
// A payload longer than the protocol's 32-byte label maximum is rejected
// even though the bytes are present; length validity is part of the
// contract.
func DecodeLabel(data []byte) (string, error) {
	if len(data) > rdm.MaxLabelSize {
		return "", fmt.Errorf("%w: got %d, max %d", ErrLabelTooLong, len(data), rdm.MaxLabelSize)
	}

	return trimLabel(data), nil
}

// DecodeDeviceInfo decodes a DEVICE_INFO response (19 bytes).
func DecodeDeviceInfo(data []byte) (DeviceInfo, error) {
	const size = 19
	if err := checkExact(data, size); err != nil {
		return DeviceInfo{}, err
	}

	return DeviceInfo{
		ProtocolVersion:    binary.BigEndian.Uint16(data[0:2]),
		DeviceModel:        binary.BigEndian.Uint16(data[2:4]),
		ProductCategory:    binary.BigEndian.Uint16(data[4:6]),
		SoftwareVersion:    binary.BigEndian.Uint32(data[6:10]),
		DMXFootprint:       binary.BigEndian.Uint16(data[10:12]),
		CurrentPersonality: data[12],
		PersonalityCount:   data[13],
		DMXStartAddress:    binary.BigEndian.Uint16(data[14:16]),
		SubDeviceCount:     binary.BigEndian.Uint16(data[16:18]),
		SensorCount:        data[18],
	}, nil
}

// DecodeProxiedDeviceCount decodes a PROXIED_DEVICE_COUNT response (3 bytes).
func DecodeProxiedDeviceCount(data []byte) (ProxiedDeviceCount, error) {
	if err := checkExact(data, 3); err != nil {
		return ProxiedDeviceCount{}, err
	}

	return ProxiedDeviceCount{
		DeviceCount: binary.BigEndian.Uint16(data[0:2]),
		ListChange:  data[2] != 0,
	}, nil
}

// DecodeUIDList decodes a UID-list response such as PROXIED_DEVICES:
// a sequence of 6-byte UIDs, wire order preserved.
func DecodeUIDList(data []byte) (UIDList, error) {
	if err := checkMultiple(data, uid.Size); err != nil {
		return nil, err
	}

	uids := make(UIDList, 0, len(data)/uid.Size)
	for i := 0; i < len(data); i += uid.Size {
		u, err := uid.FromBytes(data[i : i+uid.Size])
		if err != nil {
			return nil, err
		}
		uids = append(uids, u)
	}

	return uids, nil
}

// DecodeUint16List decodes a list of 2-byte big-endian values such as
// SUPPORTED_PARAMETERS or PRODUCT_DETAIL_ID_LIST.
func DecodeUint16List(data []byte) ([]uint16, error) {
	if err := checkMultiple(data, 2); err != nil {
		return nil, err
	}

	values := make([]uint16, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		values = append(values, binary.BigEndian.Uint16(data[i:i+2]))
	}

	return values, nil
}

// DecodeCommsStatus decodes a COMMS_STATUS response (6 bytes).
func DecodeCommsStatus(data []byte) (CommsStatus, error) {
	if err := checkExact(data, 6); err != nil {
		return CommsStatus{}, err
	}

	return CommsStatus{
		ShortMessage:   binary.BigEndian.Uint16(data[0:2]),
		LengthMismatch: binary.BigEndian.Uint16(data[2:4]),
		ChecksumFail:   binary.BigEndian.Uint16(data[4:6]),
	}, nil
}

// DecodeParameterDescription decodes a PARAMETER_DESCRIPTION response:
// 20 fixed bytes plus a trailing 0-32 byte description.
func DecodeParameterDescription(data []byte) (ParameterDescription, error) {
	const fixed = 20
	if err := checkRange(data, fixed, fixed+rdm.MaxLabelSize); err != nil {
		return ParameterDescription{}, err
	}

	return ParameterDescription{
		PID:          binary.BigEndian.Uint16(data[0:2]),
		PDLSize:      data[2],
		DataType:     data[3],
		CommandClass: data[4],
		Unit:         data[6],
		Prefix:       data[7],
		MinValue:     binary.BigEndian.Uint32(data[8:12]),
		DefaultValue: binary.BigEndian.Uint32(data[12:16]),
		MaxValue:     binary.BigEndian.Uint32(data[16:20]),
		Description:  trimLabel(data[fixed:]),
	}, nil
}

// DecodeDMXPersonality decodes a DMX_PERSONALITY response (2 bytes).
func DecodeDMXPersonality(data []byte) (DMXPersonality, error) {
	if err := checkExact(data, 2); err != nil {
		return DMXPersonality{}, err
	}

	return DMXPersonality{Current: data[0], Count: data[1]}, nil
}

// DecodePersonalityDescription decodes a DMX_PERSONALITY_DESCRIPTION
// response: 3 fixed bytes plus a trailing 0-32 byte description.
func DecodePersonalityDescription(data []byte) (PersonalityDescription, error) {
	const fixed = 3
	if err := checkRange(data, fixed, fixed+rdm.MaxLabelSize); err != nil {
		return PersonalityDescription{}, err
	}

	return PersonalityDescription{
		Personality: data[0],
		DMXSlots:    binary.BigEndian.Uint16(data[1:3]),
		Description: trimLabel(data[fixed:]),
	}, nil
}

// DecodeSlotInfo decodes a SLOT_INFO response: 5-byte records.
func DecodeSlotInfo(data []byte) ([]SlotInfo, error) {
	const recordSize = 5
	if err := checkMultiple(data, recordSize); err != nil {
		return nil, err
	}

	slots := make([]SlotInfo, 0, len(data)/recordSize)
	for i := 0; i < len(data); i += recordSize {
		slots = append(slots, SlotInfo{
			Offset:  binary.BigEndian.Uint16(data[i : i+2]),
			Type:    data[i+2],
			LabelID: binary.BigEndian.Uint16(data[i+3 : i+5]),
		})
	}

	return slots, nil
}

// DecodeSlotDescription decodes a SLOT_DESCRIPTION response: 2 fixed bytes
// plus a trailing 0-32 byte description.
func DecodeSlotDescription(data []byte) (SlotDescription, error) {
	const fixed = 2
	if err := checkRange(data, fixed, fixed+rdm.MaxLabelSize); err != nil {
		return SlotDescription{}, err
	}

	return SlotDescription{
		Offset:      binary.BigEndian.Uint16(data[0:2]),
		Description: trimLabel(data[fixed:]),
	}, nil
}

// DecodeSlotDefaults decodes a DEFAULT_SLOT_VALUE response: 3-byte records.
func DecodeSlotDefaults(data []byte) ([]SlotDefault, error) {
	const recordSize = 3
	if err := checkMultiple(data, recordSize); err != nil {
		return nil, err
	}

	slots := make([]SlotDefault, 0, len(data)/recordSize)
	for i := 0; i < len(data); i += recordSize {
		slots = append(slots, SlotDefault{
			Offset: binary.BigEndian.Uint16(data[i : i+2]),
			Value:  data[i+2],
		})
	}

	return slots, nil
}

// DecodeSensorDefinition decodes a SENSOR_DEFINITION response: 13 fixed
// bytes plus a trailing 0-32 byte description.
func DecodeSensorDefinition(data []byte) (SensorDefinition, error) {
	const fixed = 13
	if err := checkRange(data, fixed, fixed+rdm.MaxLabelSize); err != nil {
		return SensorDefinition{}, err
	}

	return SensorDefinition{
		Number:               data[0],
		Type:                 data[1],
		Unit:                 data[2],
		Prefix:               data[3],
		RangeMin:             int16(binary.BigEndian.Uint16(data[4:6])),   //nolint:gosec // signed per E1.20
		RangeMax:             int16(binary.BigEndian.Uint16(data[6:8])),   //nolint:gosec // signed per E1.20
		NormalMin:            int16(binary.BigEndian.Uint16(data[8:10])),  //nolint:gosec // signed per E1.20
		NormalMax:            int16(binary.BigEndian.Uint16(data[10:12])), //nolint:gosec // signed per E1.20
		RecordedValueSupport: data[12],
		Description:          trimLabel(data[fixed:]),
	}, nil
}

// DecodeSensorValue decodes a SENSOR_VALUE response (9 bytes).
func DecodeSensorValue(data []byte) (SensorValue, error) {
	if err := checkExact(data, 9); err != nil {
		return SensorValue{}, err
	}

	return SensorValue{
		Number:       data[0],
		PresentValue: int16(binary.BigEndian.Uint16(data[1:3])), //nolint:gosec // signed per E1.20
		Lowest:       int16(binary.BigEndian.Uint16(data[3:5])), //nolint:gosec // signed per E1.20
		Highest:      int16(binary.BigEndian.Uint16(data[5:7])), //nolint:gosec // signed per E1.20
		Recorded:     int16(binary.BigEndian.Uint16(data[7:9])), //nolint:gosec // signed per E1.20
	}, nil
}

// DecodeStatusMessages decodes a STATUS_MESSAGES response: 9-byte records.
func DecodeStatusMessages(data []byte) ([]StatusMessage, error) {
	const recordSize = 9
	if err := checkMultiple(data, recordSize); err != nil {
		return nil, err
	}

	messages := make([]StatusMessage, 0, len(data)/recordSize)
	for i := 0; i < len(data); i += recordSize {
		messages = append(messages, StatusMessage{
			SubDevice:  binary.BigEndian.Uint16(data[i : i+2]),
			StatusType: data[i+2],
			MessageID:  binary.BigEndian.Uint16(data[i+3 : i+5]),
			Value1:     int16(binary.BigEndian.Uint16(data[i+5 : i+7])), //nolint:gosec // signed per E1.20
			Value2:     int16(binary.BigEndian.Uint16(data[i+7 : i+9])), //nolint:gosec // signed per E1.20
		})
	}

	return messages, nil
}

// DecodeLanguage decodes a LANGUAGE response: a 2-character ISO 639-1 code.
func DecodeLanguage(data []byte) (string, error) {
	if err := checkExact(data, 2); err != nil {
		return "", err
	}

	return string(data), nil
}

// DecodeLanguageCapabilities decodes a LANGUAGE_CAPABILITIES response:
// a list of 2-character language codes.
func DecodeLanguageCapabilities(data []byte) ([]string, error) {
	if err := checkMultiple(data, 2); err != nil {
		return nil, err
	}

	languages := make([]string, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		languages = append(languages, string(data[i:i+2]))
	}

	return languages, nil
}
