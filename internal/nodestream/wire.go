package nodestream

import (
	"encoding/binary"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
)

// Node wire protocol type_ids. Distinct type space from internal/lobby's,
// per spec.md §6 ("same framing, different type space"). As with the lobby
// wire layer, the protobuf-encoded body is out of scope; only type_id
// dispatch and a minimal decode layer are supplied.
const (
	FrameTypeClientConnect uint8 = iota + 1
	FrameTypeClientConnectAccept
	FrameTypeClientConnectReject

	FrameTypeUpdateSlotClientStatus
	FrameTypeUpdateSlotClientStatusReject
	FrameTypeNodeGameStatusUpdate
	FrameTypeW3GS
)

// EncodeClientConnect builds the outgoing handshake frame.
func EncodeClientConnect(version uint32, token domain.NodeConnectToken) frame.Frame {
	payload := make([]byte, 4+16)
	binary.BigEndian.PutUint32(payload[:4], version)
	copy(payload[4:], token.Bytes())
	return frame.Frame{TypeID: FrameTypeClientConnect, Payload: payload}
}

func decodeClientConnectAccept(payload []byte) (GameInitialStatus, bool) {
	if len(payload) < 16 {
		return GameInitialStatus{}, false
	}
	return GameInitialStatus{
		GameID:     int32(binary.BigEndian.Uint32(payload[0:4])),
		PlayerID:   int32(binary.BigEndian.Uint32(payload[4:8])),
		Version:    binary.BigEndian.Uint32(payload[8:12]),
		GameStatus: domain.GameStatus(binary.BigEndian.Uint32(payload[12:16])),
	}, true
}

func decodeClientConnectReject(payload []byte) *NodeConnectionRejected {
	if len(payload) < 1 {
		return &NodeConnectionRejected{Reason: domain.RejectReasonUnknown}
	}
	return &NodeConnectionRejected{
		Reason:  domain.RejectReason(payload[0]),
		Message: string(payload[1:]),
	}
}

func decodeUpdateSlotClientStatus(payload []byte) (SlotClientStatusUpdate, bool) {
	if len(payload) < 9 {
		return SlotClientStatusUpdate{}, false
	}
	return SlotClientStatusUpdate{
		PlayerID: int32(binary.BigEndian.Uint32(payload[0:4])),
		GameID:   int32(binary.BigEndian.Uint32(payload[4:8])),
		Status:   domain.SlotClientStatus(payload[8]),
	}, true
}

func decodeNodeGameStatusUpdate(payload []byte) (GameStatusUpdate, bool) {
	if len(payload) < 5 {
		return GameStatusUpdate{}, false
	}
	return GameStatusUpdate{
		GameID: int32(binary.BigEndian.Uint32(payload[0:4])),
		Status: domain.GameStatus(payload[4]),
	}, true
}

// EncodeReportSlotStatus builds the outgoing status-report frame.
func EncodeReportSlotStatus(playerID, gameID int32, status domain.SlotClientStatus) frame.Frame {
	payload := make([]byte, 9)
	binary.BigEndian.PutUint32(payload[0:4], uint32(playerID))
	binary.BigEndian.PutUint32(payload[4:8], uint32(gameID))
	payload[8] = byte(status)
	return frame.Frame{TypeID: FrameTypeUpdateSlotClientStatus, Payload: payload}
}

// EncodeW3GS wraps an opaque in-game packet for tunneling.
func EncodeW3GS(payload []byte) frame.Frame {
	return frame.Frame{TypeID: FrameTypeW3GS, Payload: payload}
}

// --- Server-originated frame builders, used by tests to simulate a node. ---

// EncodeClientConnectAccept builds a node-originated handshake acceptance.
func EncodeClientConnectAccept(gameID, playerID int32, version uint32, status domain.GameStatus) frame.Frame {
	payload := make([]byte, 16)
	binary.BigEndian.PutUint32(payload[0:4], uint32(gameID))
	binary.BigEndian.PutUint32(payload[4:8], uint32(playerID))
	binary.BigEndian.PutUint32(payload[8:12], version)
	binary.BigEndian.PutUint32(payload[12:16], uint32(status))
	return frame.Frame{TypeID: FrameTypeClientConnectAccept, Payload: payload}
}

// EncodeClientConnectReject builds a node-originated handshake rejection.
func EncodeClientConnectReject(reason domain.RejectReason, message string) frame.Frame {
	payload := append([]byte{byte(reason)}, []byte(message)...)
	return frame.Frame{TypeID: FrameTypeClientConnectReject, Payload: payload}
}

// EncodeUpdateSlotClientStatusReject builds a node-originated status rejection.
func EncodeUpdateSlotClientStatusReject() frame.Frame {
	return frame.Frame{TypeID: FrameTypeUpdateSlotClientStatusReject}
}

// EncodeNodeGameStatusUpdate builds a node-originated game-status update.
func EncodeNodeGameStatusUpdate(gameID int32, status domain.GameStatus) frame.Frame {
	payload := make([]byte, 5)
	binary.BigEndian.PutUint32(payload[0:4], uint32(gameID))
	payload[4] = byte(status)
	return frame.Frame{TypeID: FrameTypeNodeGameStatusUpdate, Payload: payload}
}
