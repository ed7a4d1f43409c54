package noderegistry

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DialProber measures RTT via TCP connect time. The real client probes
// nodes with UDP ping packets, out of scope per spec.md §1; this stands in
// as the default Prober so the registry is runnable end to end, and tests
// substitute a fake for deterministic ping values.
type DialProber struct {
	Dialer  net.Dialer
	Timeout time.Duration
}

// Probe dials ep.Address and reports the time to establish the connection.
func (p DialProber) Probe(ctx context.Context, ep Endpoint) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.Dialer.DialContext(ctx, "tcp", ep.Address)
	if err != nil {
		return 0, fmt.Errorf("probing node %d at %s: %w", ep.NodeID, ep.Address, err)
	}
	defer conn.Close()

	return time.Since(start), nil
}
