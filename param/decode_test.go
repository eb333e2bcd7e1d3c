package param

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitalshow/ola/uid"
)

func TestDecodeEmpty(t *testing.T) {
	require := require.New(t)

	require.NoError(DecodeEmpty(nil))
	require.NoError(DecodeEmpty([]byte{}))
	require.ErrorIs(DecodeEmpty([]byte{0}), ErrLengthMismatch)
}

func TestDecodeBool(t *testing.T) {
	require := require.New(t)

	v, err := DecodeBool([]byte{0})
	require.NoError(err)
	require.False(v)

	v, err = DecodeBool([]byte{1})
	require.NoError(err)
	require.True(v)

	// Any non-zero byte counts as true.
	v, err = DecodeBool([]byte{0xFF})
	require.NoError(err)
	require.True(v)

	_, err = DecodeBool(nil)
	require.ErrorIs(err, ErrLengthMismatch)
	_, err = DecodeBool([]byte{1, 0})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestDecodeUints(t *testing.T) {
	require := require.New(t)

	v8, err := DecodeUint8([]byte{0x2A})
	require.NoError(err)
	require.Equal(uint8(0x2A), v8)

	v16, err := DecodeUint16([]byte{0x01, 0x9A})
	require.NoError(err)
	require.Equal(uint16(0x019A), v16)

	v32, err := DecodeUint32([]byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(err)
	require.Equal(uint32(0x01020304), v32)

	_, err = DecodeUint16([]byte{0x01})
	require.ErrorIs(err, ErrLengthMismatch)
	_, err = DecodeUint32([]byte{0x01, 0x02, 0x03})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestDecodeLabel(t *testing.T) {
	require := require.New(t)

	label, err := DecodeLabel([]byte("dimmer 12"))
	require.NoError(err)
	require.Equal("dimmer 12", label)

	// NUL-padded labels are trimmed at the first NUL.
	label, err = DecodeLabel([]byte{'a', 'b', 0x00, 'c'})
	require.NoError(err)
	require.Equal("ab", label)

	label, err = DecodeLabel(nil)
	require.NoError(err)
	require.Equal("", label)

	label, err = DecodeLabel(bytes.Repeat([]byte{'x'}, 32))
	require.NoError(err)
	require.Len(label, 32)

	_, err = DecodeLabel(bytes.Repeat([]byte{'x'}, 40))
	require.ErrorIs(err, ErrLabelTooLong)
	require.Contains(err.Error(), "got 40")
	require.Contains(err.Error(), "max 32")
}

func TestDecodeDeviceInfo(t *testing.T) {
	require := require.New(t)

	data := []byte{
		0x01, 0x00, // protocol version 1.0
		0x00, 0x2A, // device model
		0x05, 0x08, // product category
		0x00, 0x00, 0x03, 0x09, // software version
		0x00, 0x10, // DMX footprint
		0x02,       // current personality
		0x04,       // personality count
		0x00, 0x01, // DMX start address
		0x00, 0x00, // sub-device count
		0x03, // sensor count
	}

	info, err := DecodeDeviceInfo(data)
	require.NoError(err)
	require.Equal(DeviceInfo{
		ProtocolVersion:    0x0100,
		DeviceModel:        0x002A,
		ProductCategory:    0x0508,
		SoftwareVersion:    0x00000309,
		DMXFootprint:       16,
		CurrentPersonality: 2,
		PersonalityCount:   4,
		DMXStartAddress:    1,
		SubDeviceCount:     0,
		SensorCount:        3,
	}, info)

	_, err = DecodeDeviceInfo(data[:18])
	require.ErrorIs(err, ErrLengthMismatch)
	_, err = DecodeDeviceInfo(append(data, 0))
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestDecodeProxiedDeviceCount(t *testing.T) {
	require := require.New(t)

	count, err := DecodeProxiedDeviceCount([]byte{0x00, 0x05, 0x01})
	require.NoError(err)
	require.Equal(ProxiedDeviceCount{DeviceCount: 5, ListChange: true}, count)

	_, err = DecodeProxiedDeviceCount([]byte{0x00, 0x05})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestDecodeUIDList(t *testing.T) {
	require := require.New(t)

	a := uid.New(0x7a70, 1)
	b := uid.New(0x7a70, 2)
	data := append(a.Bytes(), b.Bytes()...)

	uids, err := DecodeUIDList(data)
	require.NoError(err)
	require.Equal(UIDList{a, b}, uids)

	uids, err = DecodeUIDList(nil)
	require.NoError(err)
	require.Empty(uids)

	_, err = DecodeUIDList(data[:7])
	require.ErrorIs(err, ErrNotRecordMultiple)
}

func TestDecodeUint16List(t *testing.T) {
	require := require.New(t)

	values, err := DecodeUint16List([]byte{0x00, 0x60, 0x00, 0x82})
	require.NoError(err)
	require.Equal([]uint16{0x0060, 0x0082}, values)

	_, err = DecodeUint16List([]byte{0x00, 0x60, 0x00})
	require.ErrorIs(err, ErrNotRecordMultiple)
}

func TestDecodeCommsStatus(t *testing.T) {
	require := require.New(t)

	status, err := DecodeCommsStatus([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03})
	require.NoError(err)
	require.Equal(CommsStatus{ShortMessage: 1, LengthMismatch: 2, ChecksumFail: 3}, status)

	_, err = DecodeCommsStatus([]byte{0x00})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestDecodeParameterDescription(t *testing.T) {
	require := require.New(t)

	fixed := []byte{
		0x80, 0x00, // PID
		0x04,       // PDL size
		0x03,       // data type
		0x02,       // command class
		0x00,       // reserved type field
		0x00,       // unit
		0x00,       // prefix
		0x00, 0x00, 0x00, 0x00, // min
		0x00, 0x00, 0x00, 0x10, // default
		0x00, 0x00, 0xFF, 0xFF, // max
	}

	desc, err := DecodeParameterDescription(append(fixed, []byte("strobe rate")...))
	require.NoError(err)
	require.Equal(uint16(0x8000), desc.PID)
	require.Equal(uint8(4), desc.PDLSize)
	require.Equal(uint32(0x10), desc.DefaultValue)
	require.Equal(uint32(0xFFFF), desc.MaxValue)
	require.Equal("strobe rate", desc.Description)

	_, err = DecodeParameterDescription(fixed[:19])
	require.ErrorIs(err, ErrLengthOutOfRange)

	long := append(fixed, bytes.Repeat([]byte{'x'}, 33)...)
	_, err = DecodeParameterDescription(long)
	require.ErrorIs(err, ErrLengthOutOfRange)
}

func TestDecodePersonality(t *testing.T) {
	require := require.New(t)

	p, err := DecodeDMXPersonality([]byte{2, 4})
	require.NoError(err)
	require.Equal(DMXPersonality{Current: 2, Count: 4}, p)

	desc, err := DecodePersonalityDescription(append([]byte{0x02, 0x00, 0x10}, []byte("16 channel")...))
	require.NoError(err)
	require.Equal(PersonalityDescription{
		Personality: 2,
		DMXSlots:    16,
		Description: "16 channel",
	}, desc)

	_, err = DecodePersonalityDescription([]byte{0x02})
	require.ErrorIs(err, ErrLengthOutOfRange)
}

func TestDecodeSlots(t *testing.T) {
	require := require.New(t)

	slots, err := DecodeSlotInfo([]byte{
		0x00, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x01, 0x01, 0x00, 0x02,
	})
	require.NoError(err)
	require.Equal([]SlotInfo{
		{Offset: 0, Type: 0, LabelID: 1},
		{Offset: 1, Type: 1, LabelID: 2},
	}, slots)

	_, err = DecodeSlotInfo([]byte{0x00, 0x00, 0x00})
	require.ErrorIs(err, ErrNotRecordMultiple)

	desc, err := DecodeSlotDescription(append([]byte{0x00, 0x01}, []byte("pan")...))
	require.NoError(err)
	require.Equal(SlotDescription{Offset: 1, Description: "pan"}, desc)

	defaults, err := DecodeSlotDefaults([]byte{0x00, 0x00, 0x80, 0x00, 0x01, 0x00})
	require.NoError(err)
	require.Equal([]SlotDefault{
		{Offset: 0, Value: 0x80},
		{Offset: 1, Value: 0x00},
	}, defaults)
}

func TestDecodeSensors(t *testing.T) {
	require := require.New(t)

	fixed := []byte{
		0x00,       // number
		0x00,       // type: temperature
		0x01,       // unit
		0x00,       // prefix
		0xFF, 0xD8, // range min -40
		0x00, 0x78, // range max 120
		0x00, 0x00, // normal min 0
		0x00, 0x50, // normal max 80
		0x01, // recorded value support
	}

	def, err := DecodeSensorDefinition(append(fixed, []byte("ambient")...))
	require.NoError(err)
	require.Equal(int16(-40), def.RangeMin)
	require.Equal(int16(120), def.RangeMax)
	require.Equal(int16(80), def.NormalMax)
	require.Equal("ambient", def.Description)

	_, err = DecodeSensorDefinition(fixed[:12])
	require.ErrorIs(err, ErrLengthOutOfRange)

	value, err := DecodeSensorValue([]byte{
		0x00,
		0x00, 0x19,
		0xFF, 0xFF,
		0x00, 0x20,
		0x00, 0x00,
	})
	require.NoError(err)
	require.Equal(SensorValue{
		Number:       0,
		PresentValue: 25,
		Lowest:       -1,
		Highest:      32,
		Recorded:     0,
	}, value)

	_, err = DecodeSensorValue([]byte{0x00})
	require.ErrorIs(err, ErrLengthMismatch)
}

func TestDecodeStatusMessages(t *testing.T) {
	require := require.New(t)

	messages, err := DecodeStatusMessages([]byte{
		0x00, 0x00, // sub-device
		0x02,       // status type
		0x00, 0x01, // message ID
		0x00, 0x05, // value 1
		0xFF, 0xFE, // value 2
	})
	require.NoError(err)
	require.Equal([]StatusMessage{{
		SubDevice:  0,
		StatusType: 2,
		MessageID:  1,
		Value1:     5,
		Value2:     -2,
	}}, messages)

	_, err = DecodeStatusMessages([]byte{0x00, 0x00, 0x02})
	require.ErrorIs(err, ErrNotRecordMultiple)
}

func TestDecodeLanguage(t *testing.T) {
	require := require.New(t)

	lang, err := DecodeLanguage([]byte("en"))
	require.NoError(err)
	require.Equal("en", lang)

	_, err = DecodeLanguage([]byte("eng"))
	require.ErrorIs(err, ErrLengthMismatch)

	languages, err := DecodeLanguageCapabilities([]byte("ende"))
	require.NoError(err)
	require.Equal([]string{"en", "de"}, languages)

	_, err = DecodeLanguageCapabilities([]byte("e"))
	require.ErrorIs(err, ErrNotRecordMultiple)
}

func TestPackHelpers(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{1}, PackBool(true))
	require.Equal([]byte{0}, PackBool(false))
	require.Equal([]byte{0x2A}, PackUint8(0x2A))
	require.Equal([]byte{0x01, 0x9A}, PackUint16(0x019A))
	require.Equal([]byte{0x01, 0x02, 0x03, 0x04}, PackUint32(0x01020304))

	data, err := PackLabel("dimmer 12")
	require.NoError(err)
	require.Equal([]byte("dimmer 12"), data)

	_, err = PackLabel(string(bytes.Repeat([]byte{'x'}, 33)))
	require.ErrorIs(err, ErrLabelTooLong)

	data, err = PackLanguage("en")
	require.NoError(err)
	require.Equal([]byte("en"), data)

	_, err = PackLanguage("eng")
	require.ErrorIs(err, ErrLengthMismatch)
}
