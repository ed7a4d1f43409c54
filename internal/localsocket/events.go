package localsocket

import (
	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
)

// WsEvent is the sum of events the local control socket worker delivers to
// the coordinator.
type WsEvent interface {
	isWsEvent()
}

// ConnectLobby reports the UI has initialized and wants a lobby connection
// opened. Sender is the handle used to push messages back to this UI
// client; Token authenticates the lobby connection.
type ConnectLobby struct {
	Sender domain.UISender
	Token  domain.NodeConnectToken
}

func (ConnectLobby) isWsEvent() {}

// ListNodes reports that the UI asked for the current known node list.
type ListNodes struct{}

func (ListNodes) isWsEvent() {}

// LobbyFrame is a raw lobby frame the UI wants forwarded (e.g. a
// matchmaking command).
type LobbyFrame struct {
	Frame frame.Frame
}

func (LobbyFrame) isWsEvent() {}

// WorkerError reports that the local socket worker itself failed.
type WorkerError struct {
	Err error
}

func (WorkerError) isWsEvent() {}
