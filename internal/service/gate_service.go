package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// userGate is the in-memory gate state for one user. All fields are guarded
// by mu. generation increments on every disconnect or new provider call so
// that callbacks from superseded calls settle as no-ops.
type userGate struct {
	mu         sync.Mutex
	phase      domain.GatePhase
	session    domain.WalletSession
	promptOpen bool
	promptDone bool // staking confirmation already acknowledged this connection
	lastErr    string
	generation uint64
}

// GateServiceImpl implements ports.GateService. Connect and SwitchNetwork
// kick off provider calls on background goroutines; the caller observes the
// outcome through Snapshot. Settled sessions are persisted to the session
// store so the gate survives a restart.
type GateServiceImpl struct {
	provider        ports.WalletProvider
	sessions        ports.WalletSessionStore
	requiredNetwork domain.NetworkID
	connectTimeout  time.Duration
	switchTimeout   time.Duration
	sessionTTL      time.Duration
	logger          zerolog.Logger

	mu     sync.RWMutex
	gates  map[uuid.UUID]*userGate
	closed bool
	wg     sync.WaitGroup
}

// NewGateService creates a new GateServiceImpl.
func NewGateService(
	provider ports.WalletProvider,
	sessions ports.WalletSessionStore,
	requiredNetwork domain.NetworkID,
	connectTimeout, switchTimeout, sessionTTL time.Duration,
	logger zerolog.Logger,
) *GateServiceImpl {
	return &GateServiceImpl{
		provider:        provider,
		sessions:        sessions,
		requiredNetwork: requiredNetwork,
		connectTimeout:  connectTimeout,
		switchTimeout:   switchTimeout,
		sessionTTL:      sessionTTL,
		logger:          logger.With().Str("component", "gate_service").Logger(),
		gates:           make(map[uuid.UUID]*userGate),
	}
}

// gate returns the in-memory gate for a user, restoring it from the session
// store on first access.
func (s *GateServiceImpl) gate(ctx context.Context, userID uuid.UUID) (*userGate, error) {
	s.mu.RLock()
	g, ok := s.gates[userID]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, apperror.InternalError(errors.New("gate service is shut down"))
	}
	if ok {
		return g, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gates[userID]; ok {
		return g, nil
	}

	g = &userGate{phase: domain.PhaseDisconnected}
	if stored, err := s.sessions.Get(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to restore wallet session")
	} else if stored != nil {
		g.session = *stored
		g.phase = phaseFor(*stored, s.requiredNetwork)
		// A restored Ready gate does not re-surface the staking prompt.
		g.promptDone = g.phase == domain.PhaseReady
	}
	s.gates[userID] = g
	return g, nil
}

// phaseFor maps a settled session onto its resting phase.
func phaseFor(session domain.WalletSession, required domain.NetworkID) domain.GatePhase {
	switch domain.ClassifyWalletSession(session, required) {
	case domain.UIReady:
		return domain.PhaseReady
	case domain.UIWrongNetwork:
		return domain.PhaseWrongNetwork
	default:
		return domain.PhaseDisconnected
	}
}

// Connect starts an asynchronous wallet connection. A connect issued while a
// provider call is already pending, or while the wallet is already connected,
// is a no-op returning the current snapshot.
func (s *GateServiceImpl) Connect(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error) {
	g, err := s.gate(ctx, userID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase.Pending() || g.session.Connected {
		return snapshotLocked(g), nil
	}

	g.phase = domain.PhaseConnecting
	g.lastErr = ""
	g.generation++
	gen := g.generation

	s.spawn(func() {
		callCtx, cancel := context.WithTimeout(context.Background(), s.connectTimeout)
		defer cancel()

		session, callErr := s.provider.RequestConnection(callCtx, userID)
		s.settleConnect(userID, g, gen, session, callErr)
	})

	return snapshotLocked(g), nil
}

// SwitchNetwork starts an asynchronous network switch to the required
// network. Requires a connected wallet; pending calls make it a no-op.
func (s *GateServiceImpl) SwitchNetwork(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error) {
	g, err := s.gate(ctx, userID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase.Pending() {
		return snapshotLocked(g), nil
	}
	if !g.session.Connected {
		return nil, apperror.ErrNotConnected()
	}
	if g.session.OnNetwork(s.requiredNetwork) {
		return snapshotLocked(g), nil
	}

	g.phase = domain.PhaseSwitching
	g.lastErr = ""
	g.generation++
	gen := g.generation

	s.spawn(func() {
		callCtx, cancel := context.WithTimeout(context.Background(), s.switchTimeout)
		defer cancel()

		callErr := s.provider.RequestNetworkSwitch(callCtx, userID, s.requiredNetwork)
		s.settleSwitch(userID, g, gen, callErr)
	})

	return snapshotLocked(g), nil
}

// settleConnect applies the outcome of a connection attempt. Stale
// generations (disconnected or superseded while in flight) are dropped.
func (s *GateServiceImpl) settleConnect(userID uuid.UUID, g *userGate, gen uint64, session *domain.WalletSession, callErr error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.generation != gen {
		s.logger.Debug().Str("user_id", userID.String()).Msg("stale connect callback dropped")
		return
	}

	if callErr != nil {
		// Failure leaves the session as it was: still disconnected, with a
		// dismissible error for the UI.
		g.phase = domain.PhaseDisconnected
		g.lastErr = gateErrorCode(callErr)
		s.logger.Warn().Err(callErr).Str("user_id", userID.String()).Str("error_code", g.lastErr).Msg("wallet connection failed")
		return
	}

	g.session = *session
	g.phase = phaseFor(g.session, s.requiredNetwork)
	if g.phase == domain.PhaseReady && !g.promptDone {
		g.promptOpen = true
	}
	s.persist(userID, g.session)
	s.logger.Info().
		Str("user_id", userID.String()).
		Str("phase", string(g.phase)).
		Msg("wallet connected")
}

// settleSwitch applies the outcome of a network switch attempt.
func (s *GateServiceImpl) settleSwitch(userID uuid.UUID, g *userGate, gen uint64, callErr error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.generation != gen {
		s.logger.Debug().Str("user_id", userID.String()).Msg("stale switch callback dropped")
		return
	}

	if callErr != nil {
		// The wallet stays connected on the old network.
		g.phase = domain.PhaseSwitchFailed
		g.lastErr = gateErrorCode(callErr)
		s.logger.Warn().Err(callErr).Str("user_id", userID.String()).Str("error_code", g.lastErr).Msg("network switch failed")
		return
	}

	net := s.requiredNetwork
	g.session.NetworkID = &net
	g.phase = domain.PhaseReady
	if !g.promptDone {
		g.promptOpen = true
	}
	s.persist(userID, g.session)
	s.logger.Info().Str("user_id", userID.String()).Msg("network switched")
}

// HandleDisconnect processes a wallet-side disconnect. Any phase, pending
// calls included, collapses to Disconnected; in-flight provider callbacks
// become no-ops and the staking prompt re-arms for the next connection.
func (s *GateServiceImpl) HandleDisconnect(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error) {
	g, err := s.gate(ctx, userID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.generation++
	g.phase = domain.PhaseDisconnected
	g.session = domain.WalletSession{}
	g.promptOpen = false
	g.promptDone = false
	g.lastErr = ""
	snap := snapshotLocked(g)
	g.mu.Unlock()

	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to delete wallet session")
	}
	s.logger.Info().Str("user_id", userID.String()).Msg("wallet disconnected")
	return snap, nil
}

// Snapshot returns the current gate state for a user.
func (s *GateServiceImpl) Snapshot(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error) {
	g, err := s.gate(ctx, userID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return snapshotLocked(g), nil
}

// AcknowledgePrompt closes the staking confirmation. It stays closed until
// the next disconnect/reconnect cycle.
func (s *GateServiceImpl) AcknowledgePrompt(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error) {
	g, err := s.gate(ctx, userID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promptOpen = false
	g.promptDone = true
	return snapshotLocked(g), nil
}

// DismissError clears the dismissible error. A dismissed switch failure
// settles back to WrongNetwork so the switch action is offered again.
func (s *GateServiceImpl) DismissError(ctx context.Context, userID uuid.UUID) (*domain.GateSnapshot, error) {
	g, err := s.gate(ctx, userID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastErr = ""
	if g.phase == domain.PhaseSwitchFailed {
		g.phase = domain.PhaseWrongNetwork
	}
	return snapshotLocked(g), nil
}

// RequireReady permits the gated action (staking) only when the gate is
// settled Ready on the required network. Refusals carry the precise reason:
// a pending provider call, a disconnected wallet, or the wrong network.
func (s *GateServiceImpl) RequireReady(ctx context.Context, userID uuid.UUID) error {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	if snap.Phase == domain.PhaseReady && snap.Session.CanAct(s.requiredNetwork) {
		return nil
	}
	if snap.Phase.Pending() {
		return apperror.ErrGateNotReady()
	}
	if !snap.Session.Connected {
		return apperror.ErrNotConnected()
	}
	if !snap.Session.OnNetwork(s.requiredNetwork) {
		return apperror.ErrNetworkMismatch(string(s.requiredNetwork))
	}
	return apperror.ErrGateNotReady()
}

// Close shuts the service down and waits for outstanding provider calls.
// Their callbacks find a bumped generation and settle as no-ops.
func (s *GateServiceImpl) Close() {
	s.mu.Lock()
	s.closed = true
	for _, g := range s.gates {
		g.mu.Lock()
		g.generation++
		g.mu.Unlock()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *GateServiceImpl) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// persist writes the settled session to the store. Failures are logged, not
// surfaced: the in-memory gate remains authoritative for this process.
func (s *GateServiceImpl) persist(userID uuid.UUID, session domain.WalletSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sessions.Save(ctx, userID, session, s.sessionTTL); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to persist wallet session")
	}
}

// snapshotLocked copies the gate state. Caller holds g.mu.
func snapshotLocked(g *userGate) *domain.GateSnapshot {
	return &domain.GateSnapshot{
		Phase:      g.phase,
		Session:    g.session,
		PromptOpen: g.promptOpen,
		LastError:  g.lastErr,
	}
}

// gateErrorCode maps a provider failure to its dismissible error code.
func gateErrorCode(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrProviderTimeout().Code
	}
	return apperror.ErrProviderUnavailable().Code
}
