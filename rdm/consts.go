package rdm

// StartCode is the RDM alternate start code (SC_RDM).
const StartCode byte = 0xCC

// SubStartCode is the RDM sub-start code (SC_SUB_MESSAGE).
const SubStartCode byte = 0x01

// MaxParamDataLength is the maximum parameter data length (PDL) a single
// request or response may carry.
const MaxParamDataLength = 231

// RootDevice addresses the root device (sub-device 0).
const RootDevice uint16 = 0x0000

// MaxSubDevice is the highest addressable sub-device number.
const MaxSubDevice uint16 = 0x0200

// AllSubDevices addresses every sub-device of a responder. Only legal for
// set-class commands.
const AllSubDevices uint16 = 0xFFFF

// MaxLabelSize is the maximum length of any label/description field.
const MaxLabelSize = 32

// CommandClass identifies the class of an RDM message.
type CommandClass byte

// RDM command classes (E1.20 Table A-1).
const (
	DiscoverCommand         CommandClass = 0x10
	DiscoverCommandResponse CommandClass = 0x11
	GetCommand              CommandClass = 0x20
	GetCommandResponse      CommandClass = 0x21
	SetCommand              CommandClass = 0x30
	SetCommandResponse      CommandClass = 0x31
)

// IsRequest returns true for the controller-originated command classes.
func (cc CommandClass) IsRequest() bool {
	return cc == DiscoverCommand || cc == GetCommand || cc == SetCommand
}

// ResponseFor returns the response command class paired with a request
// command class. For non-request classes it returns the class unchanged.
func (cc CommandClass) ResponseFor() CommandClass {
	if cc.IsRequest() {
		return cc | 0x01
	}

	return cc
}

func (cc CommandClass) String() string {
	switch cc {
	case DiscoverCommand:
		return "DISCOVER_COMMAND"
	case DiscoverCommandResponse:
		return "DISCOVER_COMMAND_RESPONSE"
	case GetCommand:
		return "GET_COMMAND"
	case GetCommandResponse:
		return "GET_COMMAND_RESPONSE"
	case SetCommand:
		return "SET_COMMAND"
	case SetCommandResponse:
		return "SET_COMMAND_RESPONSE"
	default:
		return "UNKNOWN_COMMAND_CLASS"
	}
}

// ResponseType is the response type field of a response packet.
type ResponseType byte

// RDM response types (E1.20 Table A-2).
const (
	ResponseTypeAck         ResponseType = 0x00
	ResponseTypeAckTimer    ResponseType = 0x01
	ResponseTypeNackReason  ResponseType = 0x02
	ResponseTypeAckOverflow ResponseType = 0x03
)

func (rt ResponseType) String() string {
	switch rt {
	case ResponseTypeAck:
		return "ACK"
	case ResponseTypeAckTimer:
		return "ACK_TIMER"
	case ResponseTypeNackReason:
		return "NACK_REASON"
	case ResponseTypeAckOverflow:
		return "ACK_OVERFLOW"
	default:
		return "UNKNOWN_RESPONSE_TYPE"
	}
}

// NackReason is the 2-byte reason code carried by a NACK_REASON response.
type NackReason uint16

// RDM NACK reason codes (E1.20 Table A-17).
const (
	NackUnknownPID      NackReason = 0x0000
	NackFormatError     NackReason = 0x0001
	NackHardwareFault   NackReason = 0x0002
	NackProxyReject     NackReason = 0x0003
	NackWriteProtect    NackReason = 0x0004
	NackUnsupportedCC   NackReason = 0x0005
	NackDataOutOfRange  NackReason = 0x0006
	NackBufferFull      NackReason = 0x0007
	NackPacketSizeUnsup NackReason = 0x0008
	NackSubDeviceRange  NackReason = 0x0009
	NackProxyBufferFull NackReason = 0x000A
)

func (r NackReason) String() string {
	switch r {
	case NackUnknownPID:
		return "unknown PID"
	case NackFormatError:
		return "format error"
	case NackHardwareFault:
		return "hardware fault"
	case NackProxyReject:
		return "proxy reject"
	case NackWriteProtect:
		return "write protect"
	case NackUnsupportedCC:
		return "unsupported command class"
	case NackDataOutOfRange:
		return "data out of range"
	case NackBufferFull:
		return "buffer full"
	case NackPacketSizeUnsup:
		return "packet size unsupported"
	case NackSubDeviceRange:
		return "sub-device out of range"
	case NackProxyBufferFull:
		return "proxy buffer full"
	default:
		return "unknown reason"
	}
}

// PID is a 16-bit parameter identifier.
type PID uint16

// RDM parameter IDs (E1.20 Table A-3), the subset exercised by this stack.
const (
	// Network management.
	PIDDiscUniqueBranch   PID = 0x0001
	PIDDiscMute           PID = 0x0002
	PIDDiscUnMute         PID = 0x0003
	PIDProxiedDevices     PID = 0x0010
	PIDProxiedDeviceCount PID = 0x0011
	PIDCommsStatus        PID = 0x0015

	// Status collection.
	PIDQueuedMessage       PID = 0x0020
	PIDStatusMessages      PID = 0x0030
	PIDStatusIDDescription PID = 0x0031
	PIDClearStatusID       PID = 0x0032
	PIDSubDeviceReporting  PID = 0x0033

	// RDM information.
	PIDSupportedParameters   PID = 0x0050
	PIDParameterDescription  PID = 0x0051

	// Product information.
	PIDDeviceInfo               PID = 0x0060
	PIDProductDetailIDList      PID = 0x0070
	PIDDeviceModelDescription   PID = 0x0080
	PIDManufacturerLabel        PID = 0x0081
	PIDDeviceLabel              PID = 0x0082
	PIDFactoryDefaults          PID = 0x0090
	PIDLanguageCapabilities     PID = 0x00A0
	PIDLanguage                 PID = 0x00B0
	PIDSoftwareVersionLabel     PID = 0x00C0
	PIDBootSoftwareVersionID    PID = 0x00C1
	PIDBootSoftwareVersionLabel PID = 0x00C2

	// DMX512 setup.
	PIDDMXPersonality            PID = 0x00E0
	PIDDMXPersonalityDescription PID = 0x00E1
	PIDDMXStartAddress           PID = 0x00F0
	PIDSlotInfo                  PID = 0x0120
	PIDSlotDescription           PID = 0x0121
	PIDDefaultSlotValue          PID = 0x0122

	// Sensors.
	PIDSensorDefinition PID = 0x0200
	PIDSensorValue      PID = 0x0201
	PIDRecordSensors    PID = 0x0202

	// Control.
	PIDIdentifyDevice PID = 0x1000
	PIDResetDevice    PID = 0x1001
)
