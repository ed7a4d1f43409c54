package lobby

import "github.com/udisondev/flo-client/internal/domain"

// StreamEvent is the sum of events a LobbyStream delivers to the
// coordinator via its event sender channel.
type StreamEvent interface {
	isStreamEvent()
}

// Connected reports that the dial succeeded and the Authenticate frame was
// written to the lobby server. No reply from the server is awaited, so it
// does not confirm that the server accepted the token.
type Connected struct{ ID uint64 }

func (Connected) isStreamEvent() {}

// SessionUpdateKind distinguishes a full replacement from a partial mutation.
type SessionUpdateKind int

const (
	SessionFull SessionUpdateKind = iota
	SessionPartial
)

// PartialSessionUpdate carries the fields a Partial update is allowed to
// change: GameID and Status only.
type PartialSessionUpdate struct {
	GameID *int32
	Status domain.SessionStatus
}

// PlayerSessionUpdate is either a Full session replacement or a Partial
// mutation of the existing session's GameID/Status.
type PlayerSessionUpdate struct {
	ID      uint64
	Kind    SessionUpdateKind
	Full    domain.PlayerSession
	Partial PartialSessionUpdate
}

func (PlayerSessionUpdate) isStreamEvent() {}

// GameInfoUpdate reports the player joining or leaving a game lobby. A nil
// GameInfo means the player left.
type GameInfoUpdate struct {
	ID       uint64
	GameInfo *domain.LobbyGameInfo
}

func (GameInfoUpdate) isStreamEvent() {}

// GameStarting signals the lobby has scheduled a game start; the
// coordinator must respond with a GameStartPlayerClientInfo frame.
type GameStarting struct {
	ID     uint64
	GameID int32
}

func (GameStarting) isStreamEvent() {}

// GameStarted carries the node where the match will run and the
// credentials needed to open a NodeStream.
type GameStarted struct {
	ID          uint64
	NodeID      uint32
	GameID      int32
	NodeAddress string
	Token       domain.NodeConnectToken
}

func (GameStarted) isStreamEvent() {}

// Disconnected reports a clean stream termination. ID is the LobbyConn.id
// that produced it, used by the coordinator to discard stale events.
type Disconnected struct{ ID uint64 }

func (Disconnected) isStreamEvent() {}

// ConnectionError reports an I/O failure terminating the stream.
type ConnectionError struct {
	ID  uint64
	Err error
}

func (ConnectionError) isStreamEvent() {}
