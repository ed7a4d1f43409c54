// Package nodestream owns the socket to a game node for the duration of
// one match, performing the ClientConnect handshake and then demultiplexing
// frames into typed events: W3GS passthrough, slot-status updates, and
// game-status updates. Grounded on internal/gameserver/client.go's
// per-connection write-pump idiom (bounded send channel, explicit close
// signal, best-effort drain on exit), now expressed for the node handshake
// instead of a GS login handshake.
package nodestream

import "github.com/udisondev/flo-client/internal/domain"

// Event is the sum of events a NodeStream delivers on its event channel.
type Event interface {
	isNodeEvent()
}

// GameInitialStatus is the snapshot derived from ClientConnectAccept. It is
// always the first event emitted by a successfully connected stream.
type GameInitialStatus struct {
	GameID     int32
	PlayerID   int32
	Version    uint32
	GameStatus domain.GameStatus
}

func (GameInitialStatus) isNodeEvent() {}

// W3GSFrame carries an opaque in-game packet tunneled unchanged.
type W3GSFrame struct {
	Payload []byte
}

func (W3GSFrame) isNodeEvent() {}

// SlotClientStatusUpdate reports a per-player readiness change inside the game.
type SlotClientStatusUpdate struct {
	PlayerID int32
	GameID   int32
	Status   domain.SlotClientStatus
}

func (SlotClientStatusUpdate) isNodeEvent() {}

// GameStatusUpdate reports a change in overall game status.
type GameStatusUpdate struct {
	GameID int32
	Status domain.GameStatus
}

func (GameStatusUpdate) isNodeEvent() {}

// Disconnected is the terminal event; no event follows it. Err is nil for a
// clean shutdown (outgoing channel closed, context cancelled) and non-nil
// for a socket error or a status-report rejection.
type Disconnected struct {
	Err error
}

func (Disconnected) isNodeEvent() {}

// NodeConnectionRejected is returned directly by Connect (not delivered as
// an Event) when the node refuses the handshake.
type NodeConnectionRejected struct {
	Reason  domain.RejectReason
	Message string
}

func (e *NodeConnectionRejected) Error() string {
	return "node connection rejected: " + e.Reason.String() + ": " + e.Message
}
