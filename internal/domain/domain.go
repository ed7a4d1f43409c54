// Package domain holds the data model types shared across the lobby, node
// and coordinator packages: PlayerSession, LobbyGameInfo and the opaque
// NodeConnectToken. None of these carry wire-encoding logic; that belongs
// to whatever parses frame.Frame payloads on each side.
package domain

import (
	"fmt"

	"github.com/udisondev/flo-client/internal/frame"
)

// SessionStatus is the player's status inside the current lobby connection.
type SessionStatus int

const (
	StatusIdle SessionStatus = iota
	StatusConnecting
	StatusJoining
	StatusInGame
)

func (s SessionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusJoining:
		return "joining"
	case StatusInGame:
		return "in_game"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// PlayerSession is the authenticated identity inside the current lobby
// connection. GameID is nil when the player has not joined a game.
type PlayerSession struct {
	PlayerID   int32
	PlayerName string
	GameID     *int32
	Status     SessionStatus
}

// Clone returns a deep copy, since GameID is a pointer.
func (s PlayerSession) Clone() PlayerSession {
	if s.GameID == nil {
		return s
	}
	gid := *s.GameID
	s.GameID = &gid
	return s
}

// PlayerInfo is a minimal player identity as carried inside LobbyGameInfo.
type PlayerInfo struct {
	PlayerID   int32
	PlayerName string
}

// LobbyGameInfo is an immutable snapshot of the game the player has joined.
// Callers must never mutate a LobbyGameInfo in place; replace the whole
// value instead (spec invariant: current_game_info is replaced atomically).
type LobbyGameInfo struct {
	GameID      int32
	MapPath     string
	MapSHA1     [20]byte
	MapChecksum uint32
	Players     map[int32]PlayerInfo
	HostPlayer  *PlayerInfo
}

// NodeConnectToken is an opaque 16-byte credential issued by the lobby and
// forwarded verbatim to a game node; the coordinator performs no
// cryptographic operation on it.
type NodeConnectToken [16]byte

// Bytes returns the token's 16 raw bytes.
func (t NodeConnectToken) Bytes() []byte {
	out := make([]byte, 16)
	copy(out, t[:])
	return out
}

// NodeConnectTokenFromBytes constructs a token from v. ok is false iff
// len(v) != 16, in which case the zero token is returned.
func NodeConnectTokenFromBytes(v []byte) (token NodeConnectToken, ok bool) {
	if len(v) != 16 {
		return NodeConnectToken{}, false
	}
	copy(token[:], v)
	return token, true
}

// RejectReason is why a node or lobby rejected a request.
type RejectReason int

const (
	RejectReasonUnknown RejectReason = iota
	RejectReasonTokenInvalid
	RejectReasonGameFull
	RejectReasonGameNotFound
)

func (r RejectReason) String() string {
	switch r {
	case RejectReasonTokenInvalid:
		return "token_invalid"
	case RejectReasonGameFull:
		return "game_full"
	case RejectReasonGameNotFound:
		return "game_not_found"
	default:
		return "unknown"
	}
}

// SlotClientStatus is per-player readiness state inside a game.
type SlotClientStatus int

const (
	SlotStatusConnecting SlotClientStatus = iota
	SlotStatusLoaded
	SlotStatusInGame
	SlotStatusDisconnected
)

// GameStatus is the node's reported overall game status.
type GameStatus int

const (
	GameStatusCreated GameStatus = iota
	GameStatusRunning
	GameStatusEnded
)

// DisconnectReason qualifies an OutgoingDisconnect sent to the UI.
type DisconnectReason int

const (
	DisconnectReasonUnknown DisconnectReason = iota
	DisconnectReasonConnectionError
)

func (r DisconnectReason) String() string {
	if r == DisconnectReasonConnectionError {
		return "connection_error"
	}
	return "unknown"
}

// OutgoingUIMessage is the sum of messages the coordinator and lobby stream
// push toward the local control socket for relay to the UI.
type OutgoingUIMessage interface {
	isOutgoingUIMessage()
}

// OutgoingPingUpdate reports one node's latest ping to the UI.
type OutgoingPingUpdate struct {
	NodeID uint32
	PingMs *int64
}

func (OutgoingPingUpdate) isOutgoingUIMessage() {}

// OutgoingDisconnect tells the UI the lobby connection has ended.
type OutgoingDisconnect struct {
	Reason  DisconnectReason
	Message string
}

func (OutgoingDisconnect) isOutgoingUIMessage() {}

// OutgoingLobbyFrame passes a raw lobby frame through to the UI unchanged.
type OutgoingLobbyFrame struct {
	Frame frame.Frame
}

func (OutgoingLobbyFrame) isOutgoingUIMessage() {}

// UISender pushes an OutgoingUIMessage back to one connected UI client.
// localsocket's connSender implements this; lobby.Stream holds one to
// notify the UI directly when its own write fails or its read side ends (the stream-side half
// of send-frame-or-disconnect).
type UISender interface {
	Send(OutgoingUIMessage) error
}
