// Package walletprovider contains wallet provider adapters. The simulated
// provider stands in for a browser wallet extension: calls take a configured
// latency, honor context cancellation, and can be scripted to fail.
package walletprovider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SimulatedProvider implements ports.WalletProvider against in-memory state.
type SimulatedProvider struct {
	latency time.Duration
	network domain.NetworkID // network new wallets start on
	log     zerolog.Logger

	mu       sync.Mutex
	wallets  map[uuid.UUID]domain.NetworkID // current network per connected wallet
	failNext map[uuid.UUID]error            // one-shot failure injection
}

// NewSimulatedProvider creates a simulated provider. Wallets connect on
// startNetwork, which may differ from the network the gate requires.
func NewSimulatedProvider(latency time.Duration, startNetwork domain.NetworkID, log zerolog.Logger) *SimulatedProvider {
	return &SimulatedProvider{
		latency:  latency,
		network:  startNetwork,
		log:      log.With().Str("component", "simulated_wallet").Logger(),
		wallets:  make(map[uuid.UUID]domain.NetworkID),
		failNext: make(map[uuid.UUID]error),
	}
}

// FailNext makes the next provider call for the user fail with err.
// Used by tests and the demo endpoints to exercise rejection paths.
func (p *SimulatedProvider) FailNext(userID uuid.UUID, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext[userID] = err
}

// RequestConnection simulates the wallet connection dialog.
func (p *SimulatedProvider) RequestConnection(ctx context.Context, userID uuid.UUID) (*domain.WalletSession, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if err := p.takeFailure(userID); err != nil {
		return nil, err
	}

	p.mu.Lock()
	net, ok := p.wallets[userID]
	if !ok {
		net = p.network
		p.wallets[userID] = net
	}
	p.mu.Unlock()

	session := &domain.WalletSession{
		Connected: true,
		Address:   walletAddress(userID),
		NetworkID: &net,
	}
	p.log.Debug().Str("user_id", userID.String()).Str("network", string(net)).Msg("wallet connected")
	return session, nil
}

// RequestNetworkSwitch simulates the wallet network switch dialog.
func (p *SimulatedProvider) RequestNetworkSwitch(ctx context.Context, userID uuid.UUID, target domain.NetworkID) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	if err := p.takeFailure(userID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.wallets[userID]; !ok {
		return apperror.ErrNotConnected()
	}
	p.wallets[userID] = target
	p.log.Debug().Str("user_id", userID.String()).Str("network", string(target)).Msg("network switched")
	return nil
}

// wait blocks for the configured latency or until the context expires.
func (p *SimulatedProvider) wait(ctx context.Context) error {
	if p.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// takeFailure consumes a one-shot scripted failure.
func (p *SimulatedProvider) takeFailure(userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failNext[userID]; ok {
		delete(p.failNext, userID)
		return err
	}
	return nil
}

// walletAddress derives a stable fake address from the user ID.
func walletAddress(userID uuid.UUID) string {
	sum := sha256.Sum256(userID[:])
	return "0x" + hex.EncodeToString(sum[:20])
}
