// Command flo is the client-side connection coordinator process: it loads
// flo.toml, starts the local control socket, the node-ping registry and
// the coordinator's event workers, and wires them together. Grounded on
// cmd/gameserver/main.go's shape (flag/env config load, errgroup-supervised
// listeners, signal-driven shutdown, slog setup).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/flo-client/internal/config"
	"github.com/udisondev/flo-client/internal/coordinator"
	"github.com/udisondev/flo-client/internal/localsocket"
	"github.com/udisondev/flo-client/internal/noderegistry"
	"github.com/udisondev/flo-client/internal/nodestream"
	"github.com/udisondev/flo-client/internal/platform"
)

// nodeSeedPath is the static YAML list of known node endpoints the
// registry is seeded from at startup (spec.md is silent on discovery).
const nodeSeedPath = "nodes.yaml"

// pingInterval is how often the registry reprobes every known node.
const pingInterval = 5 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("flo exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	plat := platform.New(cfg.InstallationPath)
	dialer := &net.Dialer{}

	outward := make(chan coordinator.ControllerEvent, 16)
	coord := coordinator.New(plat, dialer, cfg.LobbyDomain, outward)

	seed, err := noderegistry.LoadSeed(nodeSeedPath)
	if err != nil {
		return fmt.Errorf("loading node seed: %w", err)
	}
	registry := noderegistry.New(ctx, seed, noderegistry.DialProber{Timeout: 2 * time.Second}, pingInterval, coord.PingEvents())
	_ = registry.IntoRef() // held for a future node-list surface; not yet an external interface

	localAddr := fmt.Sprintf("127.0.0.1:%d", cfg.LocalPort)
	socket := localsocket.New(localAddr, coord.WsEvents())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return coord.Run(ctx)
	})
	g.Go(func() error {
		return socket.Serve(ctx)
	})
	g.Go(func() error {
		return logOutwardEvents(ctx, outward, dialer, plat)
	})

	return g.Wait()
}

// logOutwardEvents is the simplest possible fan-out of ControllerEvents:
// cmd/flo has no UI of its own, so observing them here keeps the
// coordinator's one escape hatch (WsWorkerError) and its state-change
// events visible during local runs. On GameStarted it also performs the
// coordinator's other stated job (spec.md §1): dial the assigned node,
// authenticate, and start piping the game protocol.
func logOutwardEvents(ctx context.Context, outward <-chan coordinator.ControllerEvent, dialer nodestream.Dialer, plat *platform.Local) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-outward:
			switch e := ev.(type) {
			case coordinator.Connected:
				slog.Info("lobby connected", "id", e.ID)
			case coordinator.Disconnected:
				slog.Info("lobby disconnected", "id", e.ID)
			case coordinator.WsWorkerError:
				// WsWorkerError is the single escape hatch for otherwise-local
				// failures (spec.md §7); tag it with a freshly generated
				// correlation id so each occurrence can be told apart in the
				// logs. The id is not shared with the local control socket.
				slog.Error("local control socket worker failed", "error", e.Err, "correlation_id", uuid.NewString())
			case coordinator.GameInfoUpdate:
				if e.GameInfo != nil {
					slog.Info("game info updated", "game_id", e.GameInfo.GameID)
				} else {
					slog.Info("left game")
				}
			case coordinator.GameStarted:
				slog.Info("game started", "game_id", e.GameID, "node_id", e.NodeID)
				go connectToNode(ctx, dialer, plat, e)
			default:
				slog.Debug("unhandled outward event", "type", fmt.Sprintf("%T", ev))
			}
		}
	}
}

// connectToNode performs the ClientConnect handshake against the node
// assigned by GameStarted and then drains its events/W3GS traffic until
// the stream ends. Run in its own goroutine so a slow or failing node
// dial never stalls logOutwardEvents' consumption of other outward events.
func connectToNode(ctx context.Context, dialer nodestream.Dialer, plat *platform.Local, e coordinator.GameStarted) {
	version, err := plat.Version(ctx)
	if err != nil {
		slog.Error("war3 installation not located, abandoning node connect", "error", err)
		return
	}

	events := make(chan nodestream.Event, 8)
	w3gsOut := make(chan nodestream.W3GSFrame, 8)

	if _, err := nodestream.Connect(ctx, dialer, e.NodeAddress, version, e.Token, events, w3gsOut); err != nil {
		var rejected *nodestream.NodeConnectionRejected
		if errors.As(err, &rejected) {
			slog.Error("node connection rejected", "node_id", e.NodeID, "reason", rejected.Reason.String(), "message", rejected.Message)
			return
		}
		slog.Error("node connect failed", "node_id", e.NodeID, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case pkt, open := <-w3gsOut:
			if !open {
				return
			}
			slog.Debug("w3gs packet received from node", "node_id", e.NodeID, "bytes", len(pkt.Payload))
		case ev, open := <-events:
			if !open {
				return
			}
			switch ev := ev.(type) {
			case nodestream.GameInitialStatus:
				slog.Info("node session established", "node_id", e.NodeID, "player_id", ev.PlayerID, "game_status", ev.GameStatus)
			case nodestream.SlotClientStatusUpdate:
				slog.Debug("slot client status update", "node_id", e.NodeID, "player_id", ev.PlayerID, "status", ev.Status)
			case nodestream.GameStatusUpdate:
				slog.Info("game status update", "node_id", e.NodeID, "status", ev.Status)
			case nodestream.Disconnected:
				if ev.Err != nil {
					slog.Error("node stream disconnected", "node_id", e.NodeID, "error", ev.Err)
				} else {
					slog.Info("node stream disconnected", "node_id", e.NodeID)
				}
				return
			}
		}
	}
}
