// Package param implements the typed parameter codec: the mapping between
// RDM parameter data payloads and Go values, with per-parameter length and
// shape validation.
//
// Every decoder enforces one of three shapes: an exact length, a length
// within an inclusive [min, max] range (fixed header plus a variable
// trailing label), or a length that is an exact multiple of a fixed record
// size. A violation is returned as an error naming the expected and actual
// sizes; decoders never read past the declared payload length.
package param

import "github.com/digitalshow/ola/uid"

// DeviceInfo is the DEVICE_INFO parameter (PID 0x0060), 19 bytes.
type DeviceInfo struct {
	ProtocolVersion    uint16
	DeviceModel        uint16
	ProductCategory    uint16
	SoftwareVersion    uint32
	DMXFootprint       uint16
	CurrentPersonality uint8
	PersonalityCount   uint8
	DMXStartAddress    uint16
	SubDeviceCount     uint16
	SensorCount        uint8
}

// ProxiedDeviceCount is the PROXIED_DEVICE_COUNT parameter (PID 0x0011),
// 3 bytes.
type ProxiedDeviceCount struct {
	DeviceCount uint16
	ListChange  bool
}

// CommsStatus is the COMMS_STATUS parameter (PID 0x0015), 6 bytes.
type CommsStatus struct {
	ShortMessage   uint16
	LengthMismatch uint16
	ChecksumFail   uint16
}

// ParameterDescription is the PARAMETER_DESCRIPTION parameter (PID 0x0051),
// 20 fixed bytes plus a 0-32 byte description.
type ParameterDescription struct {
	PID          uint16
	PDLSize      uint8
	DataType     uint8
	CommandClass uint8
	Unit         uint8
	Prefix       uint8
	MinValue     uint32
	DefaultValue uint32
	MaxValue     uint32
	Description  string
}

// DMXPersonality is the DMX_PERSONALITY parameter (PID 0x00E0), 2 bytes.
type DMXPersonality struct {
	Current uint8
	Count   uint8
}

// PersonalityDescription is the DMX_PERSONALITY_DESCRIPTION parameter
// (PID 0x00E1), 3 fixed bytes plus a 0-32 byte description.
type PersonalityDescription struct {
	Personality uint8
	DMXSlots    uint16
	Description string
}

// SlotInfo is one record of the SLOT_INFO parameter (PID 0x0120),
// 5 bytes per slot.
type SlotInfo struct {
	Offset  uint16
	Type    uint8
	LabelID uint16
}

// SlotDescription is the SLOT_DESCRIPTION parameter (PID 0x0121),
// 2 fixed bytes plus a 0-32 byte description.
type SlotDescription struct {
	Offset      uint16
	Description string
}

// SlotDefault is one record of the DEFAULT_SLOT_VALUE parameter
// (PID 0x0122), 3 bytes per slot.
type SlotDefault struct {
	Offset uint16
	Value  uint8
}

// SensorDefinition is the SENSOR_DEFINITION parameter (PID 0x0200),
// 13 fixed bytes plus a 0-32 byte description.
type SensorDefinition struct {
	Number               uint8
	Type                 uint8
	Unit                 uint8
	Prefix               uint8
	RangeMin             int16
	RangeMax             int16
	NormalMin            int16
	NormalMax            int16
	RecordedValueSupport uint8
	Description          string
}

// SensorValue is the SENSOR_VALUE parameter (PID 0x0201), 9 bytes.
type SensorValue struct {
	Number       uint8
	PresentValue int16
	Lowest       int16
	Highest      int16
	Recorded     int16
}

// StatusMessage is one record of the STATUS_MESSAGES parameter
// (PID 0x0030), 9 bytes per message.
type StatusMessage struct {
	SubDevice  uint16
	StatusType uint8
	MessageID  uint16
	Value1     int16
	Value2     int16
}

// UIDList is the decoded form of a UID-list parameter such as
// PROXIED_DEVICES (PID 0x0010): one UID per 6-byte record, wire order
// preserved.
type UIDList []uid.UID
