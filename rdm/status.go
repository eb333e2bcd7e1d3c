package rdm

import "fmt"

// StatusType is the closed set of outcomes a completed transaction can
// have. Exactly one holds per transaction.
type StatusType int

const (
	// ValidResponse means a response was delivered and acknowledged;
	// parameter data is ready for decoding.
	ValidResponse StatusType = iota

	// BroadcastRequest means the request was addressed as a broadcast and
	// no unicast reply was expected.
	BroadcastRequest

	// RequestNacked means the responder explicitly refused the request
	// with a reason code.
	RequestNacked

	// MalformedResponse means a response was delivered but violates the
	// parameter's shape rules.
	MalformedResponse

	// TransportError means no usable response was delivered: timeout,
	// device unreachable, or an underlying I/O failure.
	TransportError
)

func (t StatusType) String() string {
	switch t {
	case ValidResponse:
		return "valid"
	case BroadcastRequest:
		return "broadcast"
	case RequestNacked:
		return "nacked"
	case MalformedResponse:
		return "malformed"
	case TransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// ResponseStatus is the classified outcome of one completed transaction.
//
// NackReason is meaningful only when Type is RequestNacked; Message holds
// the human-readable description for MalformedResponse and TransportError.
type ResponseStatus struct {
	Type       StatusType
	NackReason NackReason
	Message    string
}

// Classify derives the response status from a transport outcome.
//
// transportErr is the transport-level failure, nil when frame bytes were
// delivered. wasBroadcast reports whether the original request was
// addressed as a broadcast. rsp is the parsed response, nil unless bytes
// were delivered and parsed.
//
// The rules are evaluated in order: I/O failure wins over everything,
// broadcasts never inspect the response, a NACK must carry its 2-byte
// reason code, and anything else is valid with decoding deferred to the
// parameter codec.
func Classify(transportErr error, wasBroadcast bool, rsp *Response) *ResponseStatus {
	if transportErr != nil {
		return &ResponseStatus{Type: TransportError, Message: transportErr.Error()}
	}

	if wasBroadcast {
		return &ResponseStatus{Type: BroadcastRequest}
	}

	if rsp != nil && rsp.ResponseType == ResponseTypeNackReason {
		if len(rsp.ParamData) < 2 {
			return &ResponseStatus{
				Type:    MalformedResponse,
				Message: fmt.Sprintf("NACK reason data too small: got %d bytes, want 2", len(rsp.ParamData)),
			}
		}

		reason := NackReason(uint16(rsp.ParamData[0])<<8 | uint16(rsp.ParamData[1]))

		return &ResponseStatus{Type: RequestNacked, NackReason: reason}
	}

	return &ResponseStatus{Type: ValidResponse}
}

// Ok returns true when the status is ValidResponse.
func (s *ResponseStatus) Ok() bool {
	return s.Type == ValidResponse
}

// Malformed downgrades the status to MalformedResponse with the given
// description. Used when parameter decoding rejects an otherwise valid
// response.
func (s *ResponseStatus) Malformed(desc string) {
	s.Type = MalformedResponse
	s.Message = desc
}

// String formats the status for logs and error messages.
func (s *ResponseStatus) String() string {
	switch s.Type {
	case RequestNacked:
		return fmt.Sprintf("nacked: %s (0x%04x)", s.NackReason, uint16(s.NackReason))
	case MalformedResponse, TransportError:
		return fmt.Sprintf("%s: %s", s.Type, s.Message)
	default:
		return s.Type.String()
	}
}
