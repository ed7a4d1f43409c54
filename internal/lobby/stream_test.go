package lobby

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
	"github.com/udisondev/flo-client/internal/testutil"
)

type pipeDialer struct {
	conn net.Conn
}

func (d pipeDialer) DialContext(_ context.Context, _, _ string) (net.Conn, error) {
	return d.conn, nil
}

func TestConnectAuthenticatesThenDeliversConnected(t *testing.T) {
	client, server := testutil.PipeConn(t)

	events := make(chan StreamEvent, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Connect(ctx, pipeDialer{conn: client}, 1, "lobby.example:6100", domain.NodeConnectToken{}, events, nil)

	authFrame, err := frame.ReadFrame(server)
	if err != nil {
		t.Fatalf("reading auth frame: %v", err)
	}
	if authFrame.TypeID != FrameTypeAuthenticate {
		t.Fatalf("expected authenticate frame, got type %d", authFrame.TypeID)
	}

	select {
	case ev := <-events:
		if _, ok := ev.(Connected); !ok {
			t.Fatalf("expected Connected event, got %T", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Connected event")
	}
}

func TestGameInfoUpdateSetsCurrentGameID(t *testing.T) {
	client, server := testutil.PipeConn(t)

	events := make(chan StreamEvent, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := Connect(ctx, pipeDialer{conn: client}, 1, "lobby.example:6100", domain.NodeConnectToken{}, events, nil)

	if _, err := frame.ReadFrame(server); err != nil {
		t.Fatalf("reading auth frame: %v", err)
	}
	<-events // Connected

	payload := make([]byte, 4)
	payload[3] = 42
	if err := frame.WriteFrame(server, frame.Frame{TypeID: FrameTypeGameInfoUpdate, Payload: payload}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	select {
	case ev := <-events:
		gi, ok := ev.(GameInfoUpdate)
		if !ok {
			t.Fatalf("expected GameInfoUpdate, got %T", ev)
		}
		if gi.GameInfo == nil || gi.GameInfo.GameID != 42 {
			t.Fatalf("unexpected game info: %+v", gi)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for GameInfoUpdate")
	}

	deadline := time.After(time.Second)
	for {
		if gid, ok := s.CurrentGameID(); ok && gid == 42 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for CurrentGameID to update")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServerCloseYieldsDisconnected(t *testing.T) {
	client, server := testutil.PipeConn(t)

	events := make(chan StreamEvent, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Connect(ctx, pipeDialer{conn: client}, 5, "lobby.example:6100", domain.NodeConnectToken{}, events, nil)

	if _, err := frame.ReadFrame(server); err != nil {
		t.Fatalf("reading auth frame: %v", err)
	}
	<-events // Connected

	server.Close()

	select {
	case ev := <-events:
		switch e := ev.(type) {
		case Disconnected:
			if e.ID != 5 {
				t.Errorf("ID = %d, want 5", e.ID)
			}
		case ConnectionError:
			if e.ID != 5 {
				t.Errorf("ID = %d, want 5", e.ID)
			}
		default:
			t.Fatalf("expected Disconnected or ConnectionError, got %T", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for terminal event")
	}
}
