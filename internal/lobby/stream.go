// Package lobby owns the socket to the lobby server for one session,
// parsing incoming frames into typed StreamEvents and accepting outgoing
// frames via a bounded channel. Grounded on internal/gslistener/connection.go
// (one state struct per persistent connection, mutex-guarded) and
// internal/gslistener/handler.go's read/write loop shape; the event set and
// frame semantics are entirely this domain's, not the teacher's GS-auth
// protocol.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
)

// outgoingQueueSize bounds the outgoing frame channel. Small, per spec §5:
// "lobby ≈ small", so a slow consumer produces backpressure rather than
// unbounded buffering.
const outgoingQueueSize = 4

// sendTimeout bounds how long Send waits for the outgoing queue to accept
// a frame, mirroring the teacher's GameClient.SendSync timeout-bounded
// enqueue rather than blocking the caller (the coordinator's event-loop
// goroutines) forever against a wedged or abandoned stream.
const sendTimeout = 2 * time.Second

// ErrStreamClosed is returned by FrameSender.Send once the owning Stream's
// worker has exited.
var ErrStreamClosed = errors.New("lobby stream closed")

// FrameSender is a cloneable handle for enqueuing outgoing frames onto a
// LobbyStream's write side.
type FrameSender struct {
	ch     chan<- frame.Frame
	closed *atomic.Bool
}

// Send enqueues f. It fails fast with ErrStreamClosed once the stream has
// exited, and otherwise blocks up to sendTimeout for the bounded queue to
// accept the frame (the intended backpressure path from the caller back
// to the network) before giving up.
func (s FrameSender) Send(f frame.Frame) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	select {
	case s.ch <- f:
		return nil
	case <-time.After(sendTimeout):
		return fmt.Errorf("enqueue timed out after %s", sendTimeout)
	}
}

// Dialer opens the transport connection to the lobby domain. The default
// implementation is net.Dialer; tests substitute a fake.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Stream is one connection attempt/session to the lobby server.
type Stream struct {
	id uint64

	outgoing chan frame.Frame
	events   chan<- StreamEvent
	wsOut    domain.UISender

	currentGameID atomic.Pointer[int32]
	closed        atomic.Bool

	conn net.Conn
}

// Connect resolves domainHost, opens a framed connection, authenticates
// with token, and begins the duplex worker in its own goroutine. It is
// non-blocking: the caller observes progress via events.
func Connect(
	ctx context.Context,
	dialer Dialer,
	id uint64,
	domainHost string,
	token domain.NodeConnectToken,
	events chan<- StreamEvent,
	wsOut domain.UISender,
) *Stream {
	s := &Stream{
		id:       id,
		outgoing: make(chan frame.Frame, outgoingQueueSize),
		events:   events,
		wsOut:    wsOut,
	}

	go s.run(ctx, dialer, domainHost, token)

	return s
}

// Sender returns an additional handle for sending outgoing frames.
func (s *Stream) Sender() FrameSender {
	return FrameSender{ch: s.outgoing, closed: &s.closed}
}

// CurrentGameID is a fast, lock-free snapshot of the game the session
// believes it is currently in, used when attaching per-node pings.
func (s *Stream) CurrentGameID() (gameID int32, ok bool) {
	p := s.currentGameID.Load()
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (s *Stream) setCurrentGameID(id *int32) {
	if id == nil {
		s.currentGameID.Store(nil)
		return
	}
	v := *id
	s.currentGameID.Store(&v)
}

func (s *Stream) run(ctx context.Context, dialer Dialer, domainHost string, token domain.NodeConnectToken) {
	defer s.closed.Store(true)

	conn, err := dialer.DialContext(ctx, "tcp", domainHost)
	if err != nil {
		s.events <- ConnectionError{ID: s.id, Err: fmt.Errorf("dialing lobby %s: %w", domainHost, err)}
		return
	}
	s.conn = conn
	defer conn.Close()

	if err := s.authenticate(token); err != nil {
		s.events <- ConnectionError{ID: s.id, Err: err}
		return
	}

	s.events <- Connected{ID: s.id}

	readErrCh := make(chan error, 1)
	go s.readLoop(readErrCh)

	s.writeLoop(ctx, readErrCh)
}

func (s *Stream) authenticate(token domain.NodeConnectToken) error {
	if err := frame.WriteFrame(s.conn, frame.Frame{TypeID: FrameTypeAuthenticate, Payload: token.Bytes()}); err != nil {
		return fmt.Errorf("authenticating lobby connection: %w", err)
	}
	return nil
}

// writeLoop drains s.outgoing and writes frames to the socket until ctx is
// cancelled, the read side ends, or a write fails. When the read side ends
// or a write fails it emits one terminal event (Disconnected or
// ConnectionError); when ctx is cancelled it exits without emitting one.
func (s *Stream) writeLoop(ctx context.Context, readErrCh chan error) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("lobby stream worker exiting", "source", "stream", "reason", "context cancelled")
			return
		case err := <-readErrCh:
			if err != nil {
				s.events <- ConnectionError{ID: s.id, Err: err}
			} else {
				s.events <- Disconnected{ID: s.id}
			}
			s.notifyDisconnect()
			return
		case f, open := <-s.outgoing:
			if !open {
				return
			}
			if err := frame.WriteFrame(s.conn, f); err != nil {
				s.events <- ConnectionError{ID: s.id, Err: fmt.Errorf("writing lobby frame: %w", err)}
				s.notifyDisconnect()
				return
			}
		}
	}
}

// notifyDisconnect is the lobby-stream half of send-frame-or-disconnect:
// when the worker's own write fails or the read side ends, the UI is told
// immediately rather than waiting on a subsequent enqueue attempt through
// the coordinator.
func (s *Stream) notifyDisconnect() {
	if s.wsOut == nil {
		return
	}
	if err := s.wsOut.Send(domain.OutgoingDisconnect{Reason: domain.DisconnectReasonUnknown}); err != nil {
		slog.Debug("local control socket send failed, assuming UI window closed", "error", err)
	}
}

func (s *Stream) readLoop(errCh chan error) {
	for {
		f, err := frame.ReadFrame(s.conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				errCh <- nil
				return
			}
			errCh <- err
			return
		}
		s.handleIncoming(f)
	}
}

// handleIncoming demultiplexes one decoded frame's semantic type and
// pushes the corresponding StreamEvent. The actual payload decoding is the
// wire codec's job (out of scope per spec.md §1); here it is stubbed by
// type_id dispatch onto the minimal fixed-layout decoders in wire.go, which
// read only the ids the core uses, matching the layering the core actually
// depends on (semantic identity, not bytes).
func (s *Stream) handleIncoming(f frame.Frame) {
	switch f.TypeID {
	case FrameTypeGameInfoUpdate:
		gi := decodeGameInfo(f.Payload)
		if gi != nil {
			gid := gi.GameID
			s.setCurrentGameID(&gid)
		} else {
			s.setCurrentGameID(nil)
		}
		s.events <- GameInfoUpdate{ID: s.id, GameInfo: gi}
	case FrameTypeSessionFull:
		sess := decodeFullSession(f.Payload)
		s.events <- PlayerSessionUpdate{ID: s.id, Kind: SessionFull, Full: sess}
	case FrameTypeSessionPartial:
		p := decodePartialSession(f.Payload)
		s.events <- PlayerSessionUpdate{ID: s.id, Kind: SessionPartial, Partial: p}
	case FrameTypeGameStarting:
		gid := decodeGameID(f.Payload)
		s.events <- GameStarting{ID: s.id, GameID: gid}
	case FrameTypeGameStarted:
		ev := decodeGameStarted(f.Payload)
		ev.ID = s.id
		s.events <- ev
	default:
		slog.Warn("unrecognized lobby frame type", "type_id", f.TypeID)
	}
}
