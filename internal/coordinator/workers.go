package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/frame"
	"github.com/udisondev/flo-client/internal/localsocket"
	"github.com/udisondev/flo-client/internal/lobby"
	"github.com/udisondev/flo-client/internal/noderegistry"
)

// Run starts the three single-consumer event workers and blocks until ctx
// is cancelled or one of them returns an error. Each worker is a
// separately scheduled goroutine per spec.md §5; errgroup supervises them
// together exactly as cmd/gameserver/main.go supervises its listeners.
func (s *State) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.runWsWorker(ctx)
		return nil
	})
	g.Go(func() error {
		s.runStreamWorker(ctx)
		return nil
	})
	g.Go(func() error {
		s.runPingWorker(ctx)
		return nil
	})

	return g.Wait()
}

func (s *State) runWsWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker exiting", "source", "ws")
			return
		case ev, open := <-s.wsEvents:
			if !open {
				slog.Debug("worker exiting", "source", "ws", "reason", "receiver dropped")
				return
			}
			s.handleWsEvent(ctx, ev)
		}
	}
}

func (s *State) handleWsEvent(ctx context.Context, ev localsocket.WsEvent) {
	switch e := ev.(type) {
	case localsocket.ConnectLobby:
		s.handleConnectLobby(ctx, e)
	case localsocket.LobbyFrame:
		s.sendFrameOrDisconnectWs(e.Frame)
	case localsocket.WorkerError:
		s.outward <- WsWorkerError{Err: e.Err}
	case localsocket.ListNodes:
		// Not in the reaction table: the UI already learns the known node
		// set incrementally from forwarded PingUpdates.
	default:
		slog.Debug("unhandled ws event", "type", fmt.Sprintf("%T", ev))
	}
}

func (s *State) handleConnectLobby(ctx context.Context, e localsocket.ConnectLobby) {
	id := s.idCounter.Add(1) - 1

	connCtx, cancel := context.WithCancel(ctx)
	stream := lobby.Connect(connCtx, s.dialer, id, s.lobbyDomain, e.Token, s.streamEventSender(), e.Sender)

	newConn := &LobbyConn{
		id:            id,
		cancel:        cancel,
		frameSender:   stream.Sender(),
		wsSender:      e.Sender,
		currentGameID: stream.CurrentGameID,
	}

	s.connMu.Lock()
	old := s.conn
	s.conn = newConn
	s.connMu.Unlock()

	if old != nil {
		old.close()
	}
}

// sendFrameOrDisconnectWs is send-frame-or-disconnect: attempt to enqueue
// f on the current conn's frame sender; on failure, tell the conn's UI
// sender the connection is gone. If no conn exists, the frame is silently
// discarded (spec.md §4.4).
func (s *State) sendFrameOrDisconnectWs(f frame.Frame) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	if err := conn.frameSender.Send(f); err != nil {
		if sendErr := conn.wsSender.Send(domain.OutgoingDisconnect{Reason: domain.DisconnectReasonUnknown}); sendErr != nil {
			slog.Debug("local control socket send failed, assuming UI window closed", "error", sendErr)
		}
	}
}

func (s *State) runStreamWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker exiting", "source", "stream")
			return
		case ev, open := <-s.streamEvents:
			if !open {
				slog.Debug("worker exiting", "source", "stream", "reason", "receiver dropped")
				return
			}
			s.handleStreamEvent(ctx, ev)
		}
	}
}

func (s *State) handleStreamEvent(ctx context.Context, ev lobby.StreamEvent) {
	switch e := ev.(type) {
	case lobby.Connected:
		s.outward <- Connected{ID: e.ID}
	case lobby.Disconnected:
		s.dropConnAndSessionIfCurrent(e.ID)
	case lobby.ConnectionError:
		slog.Error("lobby connection error", "id", e.ID, "error", e.Err)
		s.dropConnAndSessionIfCurrent(e.ID)
	case lobby.PlayerSessionUpdate:
		s.applySessionUpdate(e)
	case lobby.GameInfoUpdate:
		s.gameInfoMu.Lock()
		s.gameInfo = e.GameInfo
		s.gameInfoMu.Unlock()
		s.outward <- GameInfoUpdate{GameInfo: e.GameInfo}
	case lobby.GameStarting:
		s.handleGameStart(ctx, e.GameID)
	case lobby.GameStarted:
		s.handleGameStarted(e)
	default:
		slog.Debug("unhandled stream event", "type", fmt.Sprintf("%T", ev))
	}
}

// dropConnAndSessionIfCurrent implements both Stream::Disconnected and
// Stream::ConnectionError reactions. Per invariant 2 (spec.md §8), an
// event whose id does not match the live conn's id must leave conn,
// current_session and current_game_info entirely unchanged — so the id
// check gates the whole operation, not just the conn drop.
func (s *State) dropConnAndSessionIfCurrent(id uint64) {
	s.connMu.Lock()
	if s.conn == nil || s.conn.id != id {
		s.connMu.Unlock()
		return
	}
	old := s.conn
	s.conn = nil
	s.connMu.Unlock()

	old.close()

	s.sessionMu.Lock()
	s.session = nil
	s.sessionMu.Unlock()

	s.outward <- Disconnected{ID: id}
}

func (s *State) applySessionUpdate(e lobby.PlayerSessionUpdate) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	switch e.Kind {
	case lobby.SessionFull:
		sess := e.Full
		s.session = &sess
	case lobby.SessionPartial:
		if s.session == nil {
			slog.Error("partial session update with no current session", "error", ErrPartialSessionWithoutSession)
			return
		}
		s.session.GameID = e.Partial.GameID
		s.session.Status = e.Partial.Status
	}
}

func (s *State) handleGameStarted(e lobby.GameStarted) {
	gi := s.NewHandle().CurrentGameInfo()
	if gi == nil {
		slog.Error("game started with no cached game info", "game_id", e.GameID, "error", ErrGameStartedWithoutGameInfo)
		return
	}

	s.outward <- GameStarted{
		NodeID:      e.NodeID,
		GameID:      e.GameID,
		NodeAddress: e.NodeAddress,
		Token:       e.Token,
		GameInfo:    *gi,
	}
}

// handleGameStart is handle_game_start (spec.md §4.4). The blocking
// platform work (map-open, SHA-1) is dispatched to its own goroutine so it
// never stalls the stream-event worker (spec.md §5, §9).
func (s *State) handleGameStart(ctx context.Context, gameID int32) {
	gi := s.NewHandle().CurrentGameInfo()
	if gi == nil || gi.GameID != gameID {
		return // stale: no-op per spec.md §9 open-question resolution
	}

	go s.doGameStart(ctx, *gi)
}

func (s *State) doGameStart(ctx context.Context, gi domain.LobbyGameInfo) {
	version, err := s.platform.Version(ctx)
	if err != nil {
		slog.Error("war3 installation not located", "error", ErrWar3NotLocated, "cause", err)
		return
	}

	sha1, _, err := s.platform.OpenStorageWithChecksum(ctx, gi.MapPath)
	if err != nil {
		slog.Error("failed to open map storage", "map_path", gi.MapPath, "error", err)
		return
	}

	s.sendFrameOrDisconnectWs(lobby.EncodeGameStartPlayerClientInfo(gi.GameID, version, sha1))
}

func (s *State) runPingWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker exiting", "source", "ping")
			return
		case u, open := <-s.pingEvents:
			if !open {
				slog.Debug("worker exiting", "source", "ping", "reason", "receiver dropped")
				return
			}
			s.handlePingUpdate(u)
		}
	}
}

func (s *State) handlePingUpdate(u noderegistry.PingUpdate) {
	var pingMs *int64
	if u.Ping != nil {
		ms := u.Ping.Milliseconds()
		pingMs = &ms
	}

	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn != nil && conn.wsSender != nil {
		if err := conn.wsSender.Send(domain.OutgoingPingUpdate{NodeID: u.NodeID, PingMs: pingMs}); err != nil {
			slog.Debug("local control socket send failed, assuming UI window closed", "error", err)
		}
	}

	if u.Ping == nil || conn == nil {
		return
	}

	gameID, ok := s.streamCurrentGameID(conn)
	if !ok {
		return
	}

	s.sendFrameOrDisconnectWs(lobby.EncodeGamePlayerPingMapUpdate(gameID, map[uint32]int64{u.NodeID: *pingMs}))
}

// streamCurrentGameID asks the live LobbyConn's underlying lobby.Stream for
// its current-game-id snapshot, through the CurrentGameID method value
// stored in conn.currentGameID; a conn without one reports no game.
func (s *State) streamCurrentGameID(conn *LobbyConn) (int32, bool) {
	if conn.currentGameID == nil {
		return 0, false
	}
	return conn.currentGameID()
}
