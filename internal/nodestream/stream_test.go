package nodestream

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

func TestConnectAcceptYieldsInitialStatusThenHandle(t *testing.T) {
	client, server := testutil.PipeConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	w3gs := make(chan W3GSFrame, 8)

	done := make(chan struct{})
	var handle Handle
	var connectErr error
	go func() {
		handle, connectErr = Connect(ctx, pipeDialer{conn: client}, "node.example:6200", 1, domain.NodeConnectToken{}, events, w3gs)
		close(done)
	}()

	hs, err := frame.ReadFrame(server)
	if err != nil {
		t.Fatalf("reading handshake: %v", err)
	}
	if hs.TypeID != FrameTypeClientConnect {
		t.Fatalf("expected ClientConnect, got type %d", hs.TypeID)
	}

	if err := frame.WriteFrame(server, EncodeClientConnectAccept(10, 7, 1, domain.GameStatusCreated)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	<-done
	if connectErr != nil {
		t.Fatalf("unexpected Connect error: %v", connectErr)
	}

	select {
	case ev := <-events:
		snap, ok := ev.(GameInitialStatus)
		if !ok {
			t.Fatalf("expected GameInitialStatus, got %T", ev)
		}
		if snap.GameID != 10 || snap.PlayerID != 7 {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for GameInitialStatus")
	}

	handle.ReportSlotStatus(7, 10, domain.SlotStatusLoaded)
	reported, err := frame.ReadFrame(server)
	if err != nil {
		t.Fatalf("reading status report: %v", err)
	}
	if reported.TypeID != FrameTypeUpdateSlotClientStatus {
		t.Fatalf("unexpected frame type %d", reported.TypeID)
	}
}

// Scenario 6 (spec.md §8): node handshake reject.
func TestConnectRejectYieldsNodeConnectionRejectedNoWorker(t *testing.T) {
	client, server := testutil.PipeConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	w3gs := make(chan W3GSFrame, 8)

	done := make(chan struct{})
	var connectErr error
	go func() {
		_, connectErr = Connect(ctx, pipeDialer{conn: client}, "node.example:6200", 1, domain.NodeConnectToken{}, events, w3gs)
		close(done)
	}()

	if _, err := frame.ReadFrame(server); err != nil {
		t.Fatalf("reading handshake: %v", err)
	}
	if err := frame.WriteFrame(server, EncodeClientConnectReject(domain.RejectReasonTokenInvalid, "bad")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	<-done
	rejected, ok := connectErr.(*NodeConnectionRejected)
	if !ok {
		t.Fatalf("expected *NodeConnectionRejected, got %T (%v)", connectErr, connectErr)
	}
	if rejected.Reason != domain.RejectReasonTokenInvalid || rejected.Message != "bad" {
		t.Fatalf("unexpected rejection: %+v", rejected)
	}

	select {
	case ev := <-events:
		t.Fatalf("expected no worker events after rejection, got %T", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestW3GSFramePassesThrough(t *testing.T) {
	client, server := testutil.PipeConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	w3gs := make(chan W3GSFrame, 8)

	done := make(chan struct{})
	go func() {
		Connect(ctx, pipeDialer{conn: client}, "node.example:6200", 1, domain.NodeConnectToken{}, events, w3gs)
		close(done)
	}()

	if _, err := frame.ReadFrame(server); err != nil {
		t.Fatalf("reading handshake: %v", err)
	}
	if err := frame.WriteFrame(server, EncodeClientConnectAccept(10, 7, 1, domain.GameStatusCreated)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	<-done
	<-events // GameInitialStatus

	payload := []byte{1, 2, 3}
	if err := frame.WriteFrame(server, EncodeW3GS(payload)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	select {
	case f := <-w3gs:
		if string(f.Payload) != string(payload) {
			t.Fatalf("unexpected payload %v", f.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for W3GSFrame")
	}
}

func TestStatusRejectIsFatal(t *testing.T) {
	pipe := testutil.NewFramePipe(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	w3gs := make(chan W3GSFrame, 8)

	done := make(chan struct{})
	go func() {
		Connect(ctx, pipeDialer{conn: pipe.Client}, "node.example:6200", 1, domain.NodeConnectToken{}, events, w3gs)
		close(done)
	}()

	pipe.ReadOnServer(t)
	pipe.WriteFromServer(t, EncodeClientConnectAccept(10, 7, 1, domain.GameStatusCreated))
	<-done
	<-events // GameInitialStatus

	pipe.WriteFromServer(t, EncodeUpdateSlotClientStatusReject())

	select {
	case ev := <-events:
		if _, ok := ev.(Disconnected); !ok {
			t.Fatalf("expected Disconnected, got %T", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Disconnected")
	}
}
