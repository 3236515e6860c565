package service

import (
	"context"
	"fmt"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StakingServiceImpl implements ports.StakingService. Balance movements run
// inside a transaction with the user row locked to keep stake and balance
// consistent under concurrent requests.
type StakingServiceImpl struct {
	userRepo     ports.UserRepository
	stakeRepo    ports.StakeRepository
	transactor   ports.DBTransactor
	gateSvc      ports.GateService
	stakeAmount  int64
	faucetAmount int64
	log          zerolog.Logger
}

// NewStakingService creates a new StakingServiceImpl.
func NewStakingService(
	userRepo ports.UserRepository,
	stakeRepo ports.StakeRepository,
	transactor ports.DBTransactor,
	gateSvc ports.GateService,
	stakeAmount, faucetAmount int64,
	log zerolog.Logger,
) *StakingServiceImpl {
	return &StakingServiceImpl{
		userRepo:     userRepo,
		stakeRepo:    stakeRepo,
		transactor:   transactor,
		gateSvc:      gateSvc,
		stakeAmount:  stakeAmount,
		faucetAmount: faucetAmount,
		log:          log.With().Str("component", "staking_service").Logger(),
	}
}

// ConfirmStake performs the gated staking action. The gate must be Ready;
// the stake amount is debited from the user's balance and an active stake is
// recorded. Confirming also closes the staking prompt.
func (s *StakingServiceImpl) ConfirmStake(ctx context.Context, userID uuid.UUID) (*domain.Stake, error) {
	if err := s.gateSvc.RequireReady(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := s.stakeRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check active stake: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyStaked()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.InternalError(fmt.Errorf("user %s not found", userID))
	}

	// Re-check under the user row lock: a concurrent confirm that passed the
	// unlocked check above commits first and must be seen here, keeping at
	// most one active stake per user.
	existing, err = s.stakeRepo.GetActiveByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("recheck active stake: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyStaked()
	}

	if user.Balance < s.stakeAmount {
		return nil, apperror.ErrInsufficientBalance()
	}

	if err := s.userRepo.UpdateBalance(ctx, dbTx, userID, user.Balance-s.stakeAmount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit balance: %w", err))
	}

	stake := &domain.Stake{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    s.stakeAmount,
		Status:    domain.StakeStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.stakeRepo.Create(ctx, dbTx, stake); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create stake: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// The confirmation dialog is satisfied by the stake itself.
	if _, ackErr := s.gateSvc.AcknowledgePrompt(ctx, userID); ackErr != nil {
		s.log.Warn().Err(ackErr).Str("user_id", userID.String()).Msg("failed to close staking prompt")
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Int64("amount", stake.Amount).
		Msg("stake confirmed")

	return stake, nil
}

// Unstake releases the active stake and refunds the amount.
func (s *StakingServiceImpl) Unstake(ctx context.Context, userID uuid.UUID) (*domain.Stake, error) {
	stake, err := s.stakeRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find active stake: %w", err))
	}
	if stake == nil {
		return nil, apperror.ErrNoActiveStake()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.InternalError(fmt.Errorf("user %s not found", userID))
	}

	if err := s.userRepo.UpdateBalance(ctx, dbTx, userID, user.Balance+stake.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("refund balance: %w", err))
	}

	if err := s.stakeRepo.Release(ctx, dbTx, stake.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("release stake: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	now := time.Now().UTC()
	stake.Status = domain.StakeStatusReleased
	stake.ReleasedAt = &now

	s.log.Info().
		Str("user_id", userID.String()).
		Int64("amount", stake.Amount).
		Msg("stake released")

	return stake, nil
}

// ActiveStake returns the user's active stake, nil if none.
func (s *StakingServiceImpl) ActiveStake(ctx context.Context, userID uuid.UUID) (*domain.Stake, error) {
	stake, err := s.stakeRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find active stake: %w", err))
	}
	return stake, nil
}

// Faucet credits the configured amount of test tokens to the named account
// and returns the new balance.
func (s *StakingServiceImpl) Faucet(ctx context.Context, username string) (int64, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return 0, apperror.Validation("unknown account")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, user.ID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if locked == nil {
		return 0, apperror.Validation("unknown account")
	}

	newBalance := locked.Balance + s.faucetAmount
	if err := s.userRepo.UpdateBalance(ctx, dbTx, user.ID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("credit balance: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("username", username).
		Int64("amount", s.faucetAmount).
		Int64("new_balance", newBalance).
		Msg("faucet credit")

	return newBalance, nil
}
