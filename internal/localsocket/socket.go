// Package localsocket hosts the single-client local control socket on
// 127.0.0.1:<local_port>, translating UI messages into WsEvents and
// accepting outgoing messages for relay to the UI. Grounded on
// gorilla/websocket usage in gmackie-power-grid-backend/handlers/lobby_handler.go
// (Upgrader, tagged Message{Type, Data} envelope, per-connection write
// mutex) and the nvremote heartbeat file's WSMessage{Type, Payload}
// envelope shape; the teacher itself has no websocket dependency, so this
// package is enriched entirely from the rest of the retrieval pack.
package localsocket

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// envelope is the tagged JSON message exchanged with the UI.
type envelope struct {
	Type string `json:"type"`

	Token string `json:"token,omitempty"`
	Bytes string `json:"bytes,omitempty"`

	NodeID  uint32 `json:"node_id,omitempty"`
	PingMs  *int64 `json:"ping_ms,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	tagConnectLobby = "connect_lobby"
	tagListNodes    = "list_nodes"
	tagLobbyFrame   = "lobby_frame"

	tagPingUpdate = "ping_update"
	tagDisconnect = "disconnect"
)

// connSender is the Sender handle pushed into ConnectLobby, wrapping a
// *websocket.Conn with a write mutex (gmackie's PlayerSession.ConnMutex
// idiom: gorilla connections are not safe for concurrent writers).
type connSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *connSender) Send(msg domain.OutgoingUIMessage) error {
	env, err := encodeOutgoing(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(env)
}

func encodeOutgoing(msg domain.OutgoingUIMessage) (envelope, error) {
	switch m := msg.(type) {
	case domain.OutgoingPingUpdate:
		return envelope{Type: tagPingUpdate, NodeID: m.NodeID, PingMs: m.PingMs}, nil
	case domain.OutgoingDisconnect:
		return envelope{Type: tagDisconnect, Reason: m.Reason.String(), Message: m.Message}, nil
	case domain.OutgoingLobbyFrame:
		return envelope{
			Type:  fmt.Sprintf("lobby_frame_%d", m.Frame.TypeID),
			Bytes: base64.StdEncoding.EncodeToString(m.Frame.Payload),
		}, nil
	default:
		return envelope{}, fmt.Errorf("unsupported outgoing UI message type %T", msg)
	}
}

// Socket hosts the single-client local control socket.
type Socket struct {
	addr   string
	events chan<- WsEvent

	mu     sync.Mutex
	connID string
	srv    *http.Server
}

// New constructs a Socket bound to addr ("127.0.0.1:<local_port>") that
// will deliver WsEvents on events.
func New(addr string, events chan<- WsEvent) *Socket {
	return &Socket{addr: addr, events: events}
}

// Serve runs the HTTP/websocket listener until ctx is cancelled. Only one
// client connection is accepted at a time; a second client is rejected
// with an HTTP error while the first remains active.
func (s *Socket) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	srv := &http.Server{Addr: s.addr, Handler: mux}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("local control socket listen: %w", err)
		}
		return nil
	}
}

func (s *Socket) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.connID != "" {
		s.mu.Unlock()
		http.Error(w, "local control socket already in use", http.StatusConflict)
		return
	}
	id := uuid.New().String()
	s.connID = id
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.connID == id {
			s.connID = ""
		}
		s.mu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("local control socket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sender := &connSender{conn: conn}
	s.readLoop(conn, sender)
}

func (s *Socket) readLoop(conn *websocket.Conn, sender *connSender) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.events <- WorkerError{Err: fmt.Errorf("local control socket read: %w", err)}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Warn("malformed local control socket message", "error", err)
			continue
		}

		ev, ok := decodeInbound(env, sender)
		if !ok {
			slog.Warn("unrecognized local control socket message", "type", env.Type)
			continue
		}
		s.events <- ev
	}
}

func decodeInbound(env envelope, sender domain.UISender) (WsEvent, bool) {
	switch env.Type {
	case tagConnectLobby:
		tokenBytes, err := hex.DecodeString(env.Token)
		if err != nil {
			slog.Warn("invalid connect_lobby token encoding", "error", err)
			return nil, false
		}
		token, ok := domain.NodeConnectTokenFromBytes(tokenBytes)
		if !ok {
			slog.Warn("connect_lobby token has wrong length", "len", len(tokenBytes))
			return nil, false
		}
		return ConnectLobby{Sender: sender, Token: token}, true
	case tagListNodes:
		return ListNodes{}, true
	case tagLobbyFrame:
		raw, err := base64.StdEncoding.DecodeString(env.Bytes)
		if err != nil {
			slog.Warn("invalid lobby_frame payload encoding", "error", err)
			return nil, false
		}
		return LobbyFrame{Frame: frame.Frame{Payload: raw}}, true
	default:
		return nil, false
	}
}
