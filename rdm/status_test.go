package rdm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_TransportError(t *testing.T) {
	require := require.New(t)

	cause := errors.New("read: device not configured")

	status := Classify(cause, false, nil)
	require.Equal(TransportError, status.Type)
	require.Equal(cause.Error(), status.Message)
	require.False(status.Ok())

	// An I/O failure wins even for broadcasts.
	status = Classify(cause, true, nil)
	require.Equal(TransportError, status.Type)
}

func TestClassify_Broadcast(t *testing.T) {
	require := require.New(t)

	status := Classify(nil, true, nil)
	require.Equal(BroadcastRequest, status.Type)

	// Broadcasts never inspect a response, even a NACK.
	status = Classify(nil, true, &Response{
		ResponseType: ResponseTypeNackReason,
		ParamData:    []byte{0x00, 0x05},
	})
	require.Equal(BroadcastRequest, status.Type)
}

func TestClassify_Nack(t *testing.T) {
	require := require.New(t)

	status := Classify(nil, false, &Response{
		ResponseType: ResponseTypeNackReason,
		ParamData:    []byte{0x00, 0x06},
	})
	require.Equal(RequestNacked, status.Type)
	require.Equal(NackDataOutOfRange, status.NackReason)
	require.Equal("nacked: data out of range (0x0006)", status.String())
}

func TestClassify_NackShortReason(t *testing.T) {
	require := require.New(t)

	status := Classify(nil, false, &Response{
		ResponseType: ResponseTypeNackReason,
		ParamData:    []byte{0x00},
	})
	require.Equal(MalformedResponse, status.Type)
	require.Contains(status.Message, "want 2")
}

func TestClassify_Valid(t *testing.T) {
	require := require.New(t)

	for _, rt := range []ResponseType{ResponseTypeAck, ResponseTypeAckTimer, ResponseTypeAckOverflow} {
		status := Classify(nil, false, &Response{ResponseType: rt})
		require.Equal(ValidResponse, status.Type)
		require.True(status.Ok())
	}
}

func TestResponseStatus_Malformed(t *testing.T) {
	require := require.New(t)

	status := Classify(nil, false, &Response{ResponseType: ResponseTypeAck})
	require.True(status.Ok())

	status.Malformed("device info size: got 18, want 19")
	require.Equal(MalformedResponse, status.Type)
	require.False(status.Ok())
	require.Equal("malformed: device info size: got 18, want 19", status.String())
}

func TestNackReason_String(t *testing.T) {
	require := require.New(t)

	require.Equal("unknown PID", NackUnknownPID.String())
	require.Equal("write protect", NackWriteProtect.String())
	require.Equal("unknown reason", NackReason(0x7777).String())
}
