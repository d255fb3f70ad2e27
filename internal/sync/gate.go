package sync

import (
	"context"
	"fmt"
)

// Gate decides whether a sync attempt is worth making.
type Gate struct {
	store PendingCounter
	net   Connectivity
}

// NewGate creates a gate over the given store and connectivity probe.
func NewGate(store PendingCounter, net Connectivity) *Gate {
	return &Gate{store: store, net: net}
}

// CanSync checks, in order, that something is pending and that the network
// is reachable. The probe is consulted once and only when there is work.
func (g *Gate) CanSync(ctx context.Context) (GateResult, error) {
	pending, err := g.store.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	if pending == 0 {
		return NoPendingRecords, nil
	}
	if !g.net.Reachable(ctx) {
		return Offline, nil
	}
	return Allowed, nil
}
