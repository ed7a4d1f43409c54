package noderegistry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeProber struct {
	fail map[uint32]bool
}

func (f fakeProber) Probe(_ context.Context, ep Endpoint) (time.Duration, error) {
	if f.fail[ep.NodeID] {
		return 0, errProbe
	}
	return 42 * time.Millisecond, nil
}

var errProbe = &probeError{}

type probeError struct{}

func (*probeError) Error() string { return "probe failed" }

func TestRegistryEmitsPingUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan PingUpdate, 4)
	endpoints := []Endpoint{{NodeID: 1, Address: "127.0.0.1:6111"}}

	New(ctx, endpoints, fakeProber{}, 5*time.Millisecond, ch)

	select {
	case u := <-ch:
		if u.NodeID != 1 {
			t.Errorf("NodeID = %d, want 1", u.NodeID)
		}
		if u.Ping == nil {
			t.Error("expected successful ping, got nil")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ping update")
	}
}

func TestRegistryReportsFailedProbeAsNilPing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan PingUpdate, 4)
	endpoints := []Endpoint{{NodeID: 9, Address: "127.0.0.1:1"}}

	New(ctx, endpoints, fakeProber{fail: map[uint32]bool{9: true}}, 5*time.Millisecond, ch)

	select {
	case u := <-ch:
		if u.Ping != nil {
			t.Errorf("expected nil ping on probe failure, got %v", *u.Ping)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ping update")
	}
}

func TestLoadSeedMissingFileIsEmpty(t *testing.T) {
	eps, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(eps) != 0 {
		t.Errorf("expected empty endpoints, got %v", eps)
	}
}

func TestLoadSeedParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.yaml")
	content := "nodes:\n  - node_id: 1\n    address: \"10.0.0.1:6112\"\n  - node_id: 2\n    address: \"10.0.0.2:6112\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	eps, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(eps))
	}
	if eps[0].NodeID != 1 || eps[0].Address != "10.0.0.1:6112" {
		t.Errorf("unexpected first endpoint: %+v", eps[0])
	}
}
