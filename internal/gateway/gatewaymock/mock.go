package gatewaymock

import (
	"context"
	"sync"
	"time"

	"github.com/marketbay/marketd/internal/ports"
)

// Gateway is a programmable in-memory AssetGateway for tests and local
// runs. Outcomes are scripted per asset id; unscripted assets succeed.
type Gateway struct {
	mu       sync.Mutex
	outcomes map[string]ports.TransferOutcome
	delay    time.Duration
	requests []ports.TransferRequest
}

func New() *Gateway {
	return &Gateway{outcomes: make(map[string]ports.TransferOutcome)}
}

// Script fixes the outcome returned for assetID.
func (g *Gateway) Script(assetID string, outcome ports.TransferOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[assetID] = outcome
}

// FailWith scripts a failed transfer for assetID.
func (g *Gateway) FailWith(assetID, reason string) {
	g.Script(assetID, ports.TransferOutcome{Transferred: false, Reason: reason})
}

// SetDelay makes every transfer take d before reporting, to widen the
// pending window in race tests.
func (g *Gateway) SetDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

// Requests returns a copy of every transfer request received.
func (g *Gateway) Requests() []ports.TransferRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ports.TransferRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

func (g *Gateway) AttemptTransfer(ctx context.Context, req ports.TransferRequest) (ports.TransferOutcome, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	outcome, scripted := g.outcomes[req.AssetID]
	delay := g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ports.TransferOutcome{Transferred: false, Reason: "transfer timed out"}, ctx.Err()
		}
	}
	if !scripted {
		return ports.TransferOutcome{Transferred: true}, nil
	}
	return outcome, nil
}
