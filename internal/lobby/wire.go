package lobby

import (
	"encoding/binary"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
)

// The lobby wire protocol's protobuf-encoded body is out of scope per
// spec.md §1 ("the specific wire schema of packets"); this file supplies
// only the type_id constants and a minimal decode layer the core depends
// on by semantic identity (spec.md §6), standing in for a real
// protobuf-generated codec. The constants are exported since spec.md §6
// treats these message types, not their byte layout, as part of the
// external interface.
const (
	FrameTypeAuthenticate uint8 = iota + 1
	FrameTypeSessionFull
	FrameTypeSessionPartial
	FrameTypeGameInfoUpdate
	FrameTypeGameStarting
	FrameTypeGameStarted

	FrameTypeGamePlayerPingMapUpdate
	FrameTypeGameStartPlayerClientInfo
)

func decodeGameID(payload []byte) int32 {
	if len(payload) < 4 {
		return 0
	}
	return int32(binary.BigEndian.Uint32(payload))
}

func decodeFullSession(payload []byte) domain.PlayerSession {
	if len(payload) < 4 {
		return domain.PlayerSession{}
	}
	return domain.PlayerSession{
		PlayerID: int32(binary.BigEndian.Uint32(payload)),
		Status:   domain.StatusIdle,
	}
}

func decodePartialSession(payload []byte) PartialSessionUpdate {
	if len(payload) < 5 {
		return PartialSessionUpdate{}
	}
	gid := int32(binary.BigEndian.Uint32(payload))
	status := domain.SessionStatus(payload[4])
	return PartialSessionUpdate{GameID: &gid, Status: status}
}

func decodeGameInfo(payload []byte) *domain.LobbyGameInfo {
	if len(payload) == 0 {
		return nil
	}
	return &domain.LobbyGameInfo{
		GameID:  decodeGameID(payload),
		Players: map[int32]domain.PlayerInfo{},
	}
}

func decodeGameStarted(payload []byte) GameStarted {
	if len(payload) < 24 {
		return GameStarted{}
	}
	gameID := int32(binary.BigEndian.Uint32(payload[:4]))
	nodeID := binary.BigEndian.Uint32(payload[4:8])
	token, _ := domain.NodeConnectTokenFromBytes(payload[8:24])
	return GameStarted{GameID: gameID, NodeID: nodeID, Token: token}
}

// EncodeGamePlayerPingMapUpdate builds the outgoing frame for a ping-map
// upload to the lobby.
func EncodeGamePlayerPingMapUpdate(gameID int32, pings map[uint32]int64) frame.Frame {
	payload := make([]byte, 4, 4+len(pings)*12)
	binary.BigEndian.PutUint32(payload, uint32(gameID))
	for nodeID, ms := range pings {
		var entry [12]byte
		binary.BigEndian.PutUint32(entry[:4], nodeID)
		binary.BigEndian.PutUint64(entry[4:], uint64(ms))
		payload = append(payload, entry[:]...)
	}
	return frame.Frame{TypeID: FrameTypeGamePlayerPingMapUpdate, Payload: payload}
}

// EncodeGameStartPlayerClientInfo builds the outgoing frame responding to
// a GameStarting event.
func EncodeGameStartPlayerClientInfo(gameID int32, war3Version uint32, mapSHA1 [20]byte) frame.Frame {
	payload := make([]byte, 4+4+20)
	binary.BigEndian.PutUint32(payload[:4], uint32(gameID))
	binary.BigEndian.PutUint32(payload[4:8], war3Version)
	copy(payload[8:], mapSHA1[:])
	return frame.Frame{TypeID: FrameTypeGameStartPlayerClientInfo, Payload: payload}
}

// --- Server-originated frame builders, used by tests across packages to
// simulate a lobby server without a real protobuf codec. ---

// EncodeSessionFull builds a server-originated full session replacement frame.
func EncodeSessionFull(playerID int32) frame.Frame {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(playerID))
	return frame.Frame{TypeID: FrameTypeSessionFull, Payload: payload}
}

// EncodeSessionPartial builds a server-originated partial session update
// frame (GameID, Status only).
func EncodeSessionPartial(gameID int32, status domain.SessionStatus) frame.Frame {
	payload := make([]byte, 5)
	binary.BigEndian.PutUint32(payload[:4], uint32(gameID))
	payload[4] = byte(status)
	return frame.Frame{TypeID: FrameTypeSessionPartial, Payload: payload}
}

// EncodeGameInfoUpdate builds a server-originated game-info update frame.
// A nil gameID encodes "left the game" (empty payload).
func EncodeGameInfoUpdate(gameID *int32) frame.Frame {
	if gameID == nil {
		return frame.Frame{TypeID: FrameTypeGameInfoUpdate}
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(*gameID))
	return frame.Frame{TypeID: FrameTypeGameInfoUpdate, Payload: payload}
}

// EncodeGameStarting builds a server-originated game-starting frame.
func EncodeGameStarting(gameID int32) frame.Frame {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(gameID))
	return frame.Frame{TypeID: FrameTypeGameStarting, Payload: payload}
}

// EncodeGameStartedFrame builds a server-originated game-started frame.
func EncodeGameStartedFrame(gameID int32, nodeID uint32, token domain.NodeConnectToken) frame.Frame {
	payload := make([]byte, 24)
	binary.BigEndian.PutUint32(payload[:4], uint32(gameID))
	binary.BigEndian.PutUint32(payload[4:8], nodeID)
	copy(payload[8:], token.Bytes())
	return frame.Frame{TypeID: FrameTypeGameStarted, Payload: payload}
}
