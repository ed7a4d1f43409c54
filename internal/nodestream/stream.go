package nodestream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
)

// outgoingQueueSize bounds the outgoing frame channel at 10, per spec.md §5
// ("node = 10"): slot-status reports and W3GS sends block the caller once
// the node connection falls behind, which is the intended flow-control
// path from in-game traffic back to the network.
const outgoingQueueSize = 10

// Dialer opens the transport connection to a game node.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Handle is the caller-facing side of a connected NodeStream: enqueue slot
// status reports and W3GS packets without touching the socket directly.
// Modeled on internal/gameserver/client.go's GameClient.Send, adapted to
// the node's two distinct outgoing message kinds.
type Handle struct {
	outgoing chan<- frame.Frame
	closed   *atomic.Bool
}

// ReportSlotStatus enqueues a status report. Per spec.md §4.5, send errors
// during shutdown are swallowed; the caller observes the Disconnected
// event shortly after.
func (h Handle) ReportSlotStatus(playerID, gameID int32, status domain.SlotClientStatus) {
	h.enqueue(EncodeReportSlotStatus(playerID, gameID, status))
}

// SendW3GS enqueues an opaque in-game packet for tunneling to the node.
func (h Handle) SendW3GS(payload []byte) {
	h.enqueue(EncodeW3GS(payload))
}

func (h Handle) enqueue(f frame.Frame) {
	if h.closed.Load() {
		return
	}
	select {
	case h.outgoing <- f:
	default:
		// Bounded queue full: block, since a saturated outgoing channel is
		// the intended backpressure path (spec.md §5), not a drop point.
		h.outgoing <- f
	}
}

// Stream is one connected session to a game node.
type Stream struct {
	conn     net.Conn
	outgoing chan frame.Frame
	events   chan<- Event
	w3gsOut  chan<- W3GSFrame
	closed   atomic.Bool

	// debugID tags this connection's log lines (a debug span, following
	// gmackie-power-grid-backend's use of uuid.New() for session IDs) so
	// interleaved node-stream logs from concurrent matches stay attributable.
	debugID string
}

// Connect performs the dial + ClientConnect handshake synchronously. On
// acceptance it starts the duplex worker in its own goroutine and returns a
// Handle; on rejection it closes the connection and returns
// *NodeConnectionRejected, leaving no worker running (spec.md §8 scenario 6).
func Connect(
	ctx context.Context,
	dialer Dialer,
	addr string,
	version uint32,
	token domain.NodeConnectToken,
	events chan<- Event,
	w3gsOut chan<- W3GSFrame,
) (Handle, error) {
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Handle{}, fmt.Errorf("dialing node %s: %w", addr, err)
	}

	if err := frame.WriteFrame(conn, EncodeClientConnect(version, token)); err != nil {
		conn.Close()
		return Handle{}, fmt.Errorf("sending ClientConnect: %w", err)
	}

	reply, err := frame.ReadFrame(conn)
	if err != nil {
		conn.Close()
		return Handle{}, fmt.Errorf("reading handshake reply: %w", err)
	}

	switch reply.TypeID {
	case FrameTypeClientConnectReject:
		conn.Close()
		return Handle{}, decodeClientConnectReject(reply.Payload)
	case FrameTypeClientConnectAccept:
		snapshot, ok := decodeClientConnectAccept(reply.Payload)
		if !ok {
			conn.Close()
			return Handle{}, errors.New("malformed ClientConnectAccept")
		}
		s := &Stream{
			conn:     conn,
			outgoing: make(chan frame.Frame, outgoingQueueSize),
			events:   events,
			w3gsOut:  w3gsOut,
			debugID:  uuid.NewString(),
		}
		events <- snapshot
		go s.run(ctx)
		return Handle{outgoing: s.outgoing, closed: &s.closed}, nil
	default:
		conn.Close()
		return Handle{}, fmt.Errorf("unexpected handshake reply type %d", reply.TypeID)
	}
}

// run drives the duplex worker until ctx is cancelled, the socket closes,
// a write fails, or a status report is rejected (fatal). On exit it makes a
// best-effort attempt to drain and flush any already-enqueued outgoing
// frames, then emits exactly one Disconnected.
func (s *Stream) run(ctx context.Context) {
	defer s.closed.Store(true)

	readErrCh := make(chan error, 1)
	incomingCh := make(chan frame.Frame, 1)
	go s.readLoop(readErrCh, incomingCh)

	var exitErr error
loop:
	for {
		select {
		case <-ctx.Done():
			slog.Debug("node stream worker exiting", "source", "node", "stream_id", s.debugID, "reason", "context cancelled")
			break loop
		case err := <-readErrCh:
			exitErr = err
			break loop
		case f := <-incomingCh:
			if exit, err := s.handleIncoming(ctx, f); exit {
				exitErr = err
				break loop
			}
		case f, open := <-s.outgoing:
			if !open {
				break loop
			}
			if err := frame.WriteFrame(s.conn, f); err != nil {
				exitErr = fmt.Errorf("writing node frame: %w", err)
				break loop
			}
		}
	}

	s.drainOutgoing()
	s.conn.Close()
	s.events <- Disconnected{Err: exitErr}
}

// drainOutgoing best-effort flushes frames already enqueued before shutdown,
// per spec.md §4.5 ("drains remaining outgoing frames"). It never blocks.
func (s *Stream) drainOutgoing() {
	for {
		select {
		case f, open := <-s.outgoing:
			if !open {
				return
			}
			_ = frame.WriteFrame(s.conn, f)
		default:
			return
		}
	}
}

func (s *Stream) readLoop(errCh chan error, incomingCh chan frame.Frame) {
	for {
		f, err := frame.ReadFrame(s.conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				errCh <- nil
			} else {
				errCh <- err
			}
			return
		}
		incomingCh <- f
	}
}

// handleIncoming demultiplexes one frame. It returns exit=true iff the
// worker must stop: either a fatal status rejection (err set) or ctx being
// cancelled while a W3GS frame waits to be taken by w3gsOut's receiver.
// A receiver that stops reading without ctx being cancelled is not
// detected: the W3GS send keeps blocking.
func (s *Stream) handleIncoming(ctx context.Context, f frame.Frame) (exit bool, err error) {
	switch f.TypeID {
	case FrameTypeW3GS:
		select {
		case s.w3gsOut <- W3GSFrame{Payload: f.Payload}:
		case <-ctx.Done():
			return true, nil
		}
	case FrameTypeUpdateSlotClientStatus:
		if ev, ok := decodeUpdateSlotClientStatus(f.Payload); ok {
			s.events <- ev
		}
	case FrameTypeUpdateSlotClientStatusReject:
		return true, errors.New("status report rejected by node")
	case FrameTypeNodeGameStatusUpdate:
		if ev, ok := decodeNodeGameStatusUpdate(f.Payload); ok {
			s.events <- ev
		}
	default:
		slog.Warn("unrecognized node frame type", "type_id", f.TypeID)
	}
	return false, nil
}
