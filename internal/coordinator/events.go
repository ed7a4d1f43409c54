package coordinator

import "github.com/udisondev/flo-client/internal/domain"

// ControllerEvent is the sum of events the coordinator forwards outward
// (§7: "it exposes state snapshots and outward-facing ControllerEvents").
// A caller (cmd/flo) fans these out to whatever needs to observe them —
// typically relaying to the UI via localsocket and to logs.
type ControllerEvent interface {
	isControllerEvent()
}

// Connected mirrors a lobby Stream's Connected event outward.
type Connected struct{ ID uint64 }

func (Connected) isControllerEvent() {}

// Disconnected reports the current lobby connection has ended, for
// whatever reason (clean disconnect or error — both collapse to this
// outward event per §4.4's reaction table).
type Disconnected struct{ ID uint64 }

func (Disconnected) isControllerEvent() {}

// WsWorkerError is the single escape hatch for truly unrecoverable local
// control socket failures (§7).
type WsWorkerError struct{ Err error }

func (WsWorkerError) isControllerEvent() {}

// GameInfoUpdate forwards the lobby's latest game-info snapshot.
type GameInfoUpdate struct {
	GameInfo *domain.LobbyGameInfo
}

func (GameInfoUpdate) isControllerEvent() {}

// GameStarted forwards the node assignment together with the game info
// that was current when it arrived.
type GameStarted struct {
	NodeID      uint32
	GameID      int32
	NodeAddress string
	Token       domain.NodeConnectToken
	GameInfo    domain.LobbyGameInfo
}

func (GameStarted) isControllerEvent() {}
