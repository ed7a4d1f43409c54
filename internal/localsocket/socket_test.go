package localsocket

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/flo-client/internal/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, chan WsEvent) {
	t.Helper()
	events := make(chan WsEvent, 8)
	s := New("", events)
	srv := httptest.NewServer(http.HandlerFunc(s.handleUpgrade))
	t.Cleanup(srv.Close)
	return srv, events
}

func TestConnectLobbyMessageDecoded(t *testing.T) {
	srv, events := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	token := domain.NodeConnectToken{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	msg := envelope{Type: tagConnectLobby, Token: hex.EncodeToString(token.Bytes())}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	select {
	case ev := <-events:
		cl, ok := ev.(ConnectLobby)
		if !ok {
			t.Fatalf("expected ConnectLobby event, got %T", ev)
		}
		if cl.Token != token {
			t.Errorf("Token = %v, want %v", cl.Token, token)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ConnectLobby event")
	}
}

func TestSenderDeliversPingUpdate(t *testing.T) {
	srv, events := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	token := domain.NodeConnectToken{}
	if err := conn.WriteJSON(envelope{Type: tagConnectLobby, Token: hex.EncodeToString(token.Bytes())}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	select {
	case ev := <-events:
		cl := ev.(ConnectLobby)
		ms := int64(42)
		if err := cl.Sender.Send(domain.OutgoingPingUpdate{NodeID: 7, PingMs: &ms}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ConnectLobby event")
	}

	var got envelope
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != tagPingUpdate || got.NodeID != 7 || got.PingMs == nil || *got.PingMs != 42 {
		t.Errorf("unexpected envelope: %+v", got)
	}
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	srv, events := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(envelope{Type: "nonsense"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := conn.WriteJSON(envelope{Type: tagListNodes}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	select {
	case ev := <-events:
		if _, ok := ev.(ListNodes); !ok {
			t.Fatalf("expected ListNodes event (nonsense message should be skipped), got %T", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ListNodes event")
	}
}
