// Package coordinator is the junction box: it owns the current lobby
// connection handle, current player session and current game info, and
// consumes events from the node registry, lobby stream and local control
// socket, reacting per the table in spec.md §4.4. Grounded on
// original_source/binaries/flo/src/controller/mod.rs for semantics;
// internal/gameserver/clients.go's ClientManager (sync.RWMutex-guarded
// maps, short critical sections) and internal/gameserver/client.go's
// atomic.Int32 state / cloned-sender pattern for idiom.
package coordinator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/udisondev/flo-client/internal/domain"
	"github.com/udisondev/flo-client/internal/localsocket"
	"github.com/udisondev/flo-client/internal/lobby"
	"github.com/udisondev/flo-client/internal/noderegistry"
)

// Platform is the set of out-of-scope external collaborators the
// coordinator depends on (spec.md §1): the local game binary version
// query and the map-storage/checksum accessor. internal/platform supplies
// the default filesystem-backed implementation.
type Platform interface {
	Version(ctx context.Context) (war3Version uint32, err error)
	OpenStorageWithChecksum(ctx context.Context, mapPath string) (sha1 [20]byte, checksum uint32, err error)
}

// LobbyConn is one connection attempt/session: at most one is live inside
// State at any moment (spec.md §3 invariant). Replacing conn always calls
// close() on the outgoing value first (Supplemented Feature: the Go
// analogue of the original's impl Drop for LobbyConn), which cancels the
// stream's context so its worker goroutine exits on its next suspension
// point rather than leaking.
type LobbyConn struct {
	id uint64

	cancel    context.CancelFunc
	closeOnce sync.Once

	frameSender   lobby.FrameSender
	wsSender      domain.UISender
	currentGameID func() (int32, bool)
}

// ID is this connection's monotonically increasing generation tag.
func (c *LobbyConn) ID() uint64 { return c.id }

func (c *LobbyConn) close() {
	c.closeOnce.Do(c.cancel)
}

// State holds the three read-write-guarded cells plus the atomic id
// counter. It is constructed once by cmd/flo and driven by the three
// event workers started from Run.
type State struct {
	idCounter atomic.Uint64

	connMu sync.RWMutex
	conn   *LobbyConn

	sessionMu sync.RWMutex
	session   *domain.PlayerSession

	gameInfoMu sync.RWMutex
	gameInfo   *domain.LobbyGameInfo

	platform    Platform
	dialer      lobby.Dialer
	lobbyDomain string

	wsEvents     chan localsocket.WsEvent
	streamEvents chan lobby.StreamEvent
	pingEvents   chan noderegistry.PingUpdate

	outward chan<- ControllerEvent
}

// eventChannelCapacity bounds the three event channels into the
// coordinator. Small per spec §5 ("Event channels into C4 have small
// bounds (1–3)"): a wedged worker stalls its upstream, intentionally, so
// failures are observable rather than silently buffered.
const eventChannelCapacity = 2

// New constructs a State. outward receives ControllerEvents for the
// caller (cmd/flo) to fan out to the UI and logs.
func New(platform Platform, dialer lobby.Dialer, lobbyDomain string, outward chan<- ControllerEvent) *State {
	return &State{
		platform:     platform,
		dialer:       dialer,
		lobbyDomain:  lobbyDomain,
		wsEvents:     make(chan localsocket.WsEvent, eventChannelCapacity),
		streamEvents: make(chan lobby.StreamEvent, eventChannelCapacity),
		pingEvents:   make(chan noderegistry.PingUpdate, eventChannelCapacity),
		outward:      outward,
	}
}

// WsEvents returns the send side for the local control socket worker.
func (s *State) WsEvents() chan<- localsocket.WsEvent { return s.wsEvents }

// PingEvents returns the send side for the node registry's prober.
func (s *State) PingEvents() chan<- noderegistry.PingUpdate { return s.pingEvents }

// streamEventSender is handed to each lobby.Connect call; all LobbyConns
// across the process lifetime share this one channel, since only one is
// ever live; the stream-event worker checks the id of Disconnected and
// ConnectionError events against the live conn and ignores stale ones.
func (s *State) streamEventSender() chan<- lobby.StreamEvent { return s.streamEvents }

// Handle is the coordinator's read-only introspection surface: the only
// public read paths into its state, matching the original's
// ControllerClientHandle (current_game_info(), with_player_session(f)).
// No lock is ever exposed to callers.
type Handle struct {
	s *State
}

// NewHandle returns a Handle onto s.
func (s *State) NewHandle() Handle { return Handle{s: s} }

// CurrentGameInfo returns a snapshot of the current game info, or nil if
// the player has not joined a game. The returned pointer is never mutated
// in place by the coordinator (spec invariant 4): it is safe to read
// without copying.
func (h Handle) CurrentGameInfo() *domain.LobbyGameInfo {
	h.s.gameInfoMu.RLock()
	defer h.s.gameInfoMu.RUnlock()
	return h.s.gameInfo
}

// WithPlayerSession invokes f with the current session, or nil if none,
// while holding the read lock — the original's closure-based read, which
// never lets a session pointer escape the lock's scope uncontrolled.
func (h Handle) WithPlayerSession(f func(*domain.PlayerSession)) {
	h.s.sessionMu.RLock()
	defer h.s.sessionMu.RUnlock()
	f(h.s.session)
}
