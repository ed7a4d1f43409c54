package coordinator

import "errors"

// Error kinds named by the error-handling design: TransientNetwork surfaces
// as Disconnected and is not a distinct error value; LocalEnvironment and
// InternalInvariantBroken are represented below as sentinel errors so
// callers can use errors.Is. ProtocolReject is the
// *nodestream.NodeConnectionRejected error type, and config errors live in
// internal/config.

// ErrWar3NotLocated is logged by the game-start path when the platform
// collaborator's Version query fails (LocalEnvironment). The platform's
// own error is logged alongside it as the cause.
var ErrWar3NotLocated = errors.New("war3 installation not located")

// ErrPartialSessionWithoutSession is logged (InternalInvariantBroken) when
// a Partial session update arrives while current_session is nil.
var ErrPartialSessionWithoutSession = errors.New("partial session update with no current session")

// ErrGameStartedWithoutGameInfo is logged (InternalInvariantBroken) when a
// GameStarted event arrives while current_game_info is nil.
var ErrGameStartedWithoutGameInfo = errors.New("game started with no cached game info")
