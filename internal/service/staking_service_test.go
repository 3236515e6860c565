package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports/mocks"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testStakeAmount  int64 = 100
	testFaucetAmount int64 = 500
)

func setupStakingService(t *testing.T) (
	*StakingServiceImpl,
	*mocks.MockUserRepository,
	*mocks.MockStakeRepository,
	*mocks.MockGateService,
	pgxmock.PgxPoolIface,
) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	stakeRepo := mocks.NewMockStakeRepository(ctrl)
	gateSvc := mocks.NewMockGateService(ctrl)

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	svc := NewStakingService(userRepo, stakeRepo, mockPool, gateSvc, testStakeAmount, testFaucetAmount, zerolog.Nop())
	return svc, userRepo, stakeRepo, gateSvc, mockPool
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestStakingService_ConfirmStake_Success(t *testing.T) {
	svc, userRepo, stakeRepo, gateSvc, mockPool := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Balance: 250, Status: domain.UserStatusActive}

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(nil, nil)

	mockPool.ExpectBegin()
	userRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), userID).Return(user, nil)
	stakeRepo.EXPECT().GetActiveByUserIDForUpdate(ctx, gomock.Any(), userID).Return(nil, nil)
	userRepo.EXPECT().UpdateBalance(ctx, gomock.Any(), userID, int64(150)).Return(nil)
	stakeRepo.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
	mockPool.ExpectCommit()

	gateSvc.EXPECT().AcknowledgePrompt(ctx, userID).Return(&domain.GateSnapshot{}, nil)

	stake, err := svc.ConfirmStake(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stake)
	assert.Equal(t, userID, stake.UserID)
	assert.Equal(t, testStakeAmount, stake.Amount)
	assert.Equal(t, domain.StakeStatusActive, stake.Status)
}

func TestStakingService_ConfirmStake_GateNotReady(t *testing.T) {
	svc, _, _, gateSvc, _ := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(apperror.ErrGateNotReady())

	_, err := svc.ConfirmStake(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "WLT_006", appErrCode(t, err))
}

func TestStakingService_ConfirmStake_WrongNetwork(t *testing.T) {
	svc, _, _, gateSvc, _ := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(apperror.ErrNetworkMismatch("net-main"))

	_, err := svc.ConfirmStake(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "WLT_003", appErrCode(t, err))
}

func TestStakingService_ConfirmStake_AlreadyStaked(t *testing.T) {
	svc, _, stakeRepo, gateSvc, _ := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(&domain.Stake{UserID: userID}, nil)

	_, err := svc.ConfirmStake(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "STK_003", appErrCode(t, err))
}

// A stake committed by a concurrent request after the unlocked pre-check must
// be caught by the re-check under the user row lock.
func TestStakingService_ConfirmStake_StakedWhileAcquiringLock(t *testing.T) {
	svc, userRepo, stakeRepo, gateSvc, mockPool := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Balance: 250, Status: domain.UserStatusActive}

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(nil, nil)

	mockPool.ExpectBegin()
	userRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), userID).Return(user, nil)
	stakeRepo.EXPECT().GetActiveByUserIDForUpdate(ctx, gomock.Any(), userID).
		Return(&domain.Stake{UserID: userID, Status: domain.StakeStatusActive}, nil)
	mockPool.ExpectRollback()

	_, err := svc.ConfirmStake(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "STK_003", appErrCode(t, err))
}

// Two simultaneous confirms both pass the unlocked pre-check; exactly one may
// record a stake and debit the balance, the other ends with STK_003.
func TestStakingService_ConfirmStake_ConcurrentSingleWinner(t *testing.T) {
	svc, userRepo, stakeRepo, gateSvc, mockPool := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Balance: 250, Status: domain.UserStatusActive}

	mockPool.MatchExpectationsInOrder(false)
	mockPool.ExpectBegin()
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()
	mockPool.ExpectRollback()

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil).Times(2)

	// Hold both requests at the unlocked pre-check so each observes "no
	// active stake" before either transaction starts.
	var barrier sync.WaitGroup
	barrier.Add(2)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).DoAndReturn(
		func(context.Context, uuid.UUID) (*domain.Stake, error) {
			barrier.Done()
			barrier.Wait()
			return nil, nil
		},
	).Times(2)

	userRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), userID).Return(user, nil).Times(2)

	// The locked re-check serializes the two: the first through sees nothing,
	// the second sees the winner's stake.
	var won atomic.Bool
	stakeRepo.EXPECT().GetActiveByUserIDForUpdate(ctx, gomock.Any(), userID).DoAndReturn(
		func(context.Context, pgx.Tx, uuid.UUID) (*domain.Stake, error) {
			if won.CompareAndSwap(false, true) {
				return nil, nil
			}
			return &domain.Stake{UserID: userID, Status: domain.StakeStatusActive}, nil
		},
	).Times(2)

	userRepo.EXPECT().UpdateBalance(ctx, gomock.Any(), userID, int64(150)).Return(nil)
	stakeRepo.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
	gateSvc.EXPECT().AcknowledgePrompt(ctx, userID).Return(&domain.GateSnapshot{}, nil)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.ConfirmStake(ctx, userID)
			results <- err
		}()
	}

	var staked, rejected int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			staked++
			continue
		}
		assert.Equal(t, "STK_003", appErrCode(t, err))
		rejected++
	}
	assert.Equal(t, 1, staked, "exactly one confirm records a stake")
	assert.Equal(t, 1, rejected, "the other confirm is refused")
}

func TestStakingService_ConfirmStake_InsufficientBalance(t *testing.T) {
	svc, userRepo, stakeRepo, gateSvc, mockPool := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Balance: 40, Status: domain.UserStatusActive}

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(nil, nil)

	mockPool.ExpectBegin()
	userRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), userID).Return(user, nil)
	stakeRepo.EXPECT().GetActiveByUserIDForUpdate(ctx, gomock.Any(), userID).Return(nil, nil)
	mockPool.ExpectRollback()

	_, err := svc.ConfirmStake(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "STK_001", appErrCode(t, err))
}

func TestStakingService_Unstake_Success(t *testing.T) {
	svc, userRepo, stakeRepo, _, mockPool := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	stake := &domain.Stake{ID: uuid.New(), UserID: userID, Amount: testStakeAmount, Status: domain.StakeStatusActive}
	user := &domain.User{ID: userID, Balance: 150}

	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(stake, nil)

	mockPool.ExpectBegin()
	userRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), userID).Return(user, nil)
	userRepo.EXPECT().UpdateBalance(ctx, gomock.Any(), userID, int64(250)).Return(nil)
	stakeRepo.EXPECT().Release(ctx, gomock.Any(), stake.ID).Return(nil)
	mockPool.ExpectCommit()

	released, err := svc.Unstake(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StakeStatusReleased, released.Status)
	require.NotNil(t, released.ReleasedAt)
}

func TestStakingService_Unstake_NoActiveStake(t *testing.T) {
	svc, _, stakeRepo, _, _ := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()

	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(nil, nil)

	_, err := svc.Unstake(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, "STK_004", appErrCode(t, err))
}

func TestStakingService_Faucet_Success(t *testing.T) {
	svc, userRepo, _, _, mockPool := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Username: "reporter", Balance: 10}

	userRepo.EXPECT().GetByUsername(ctx, "reporter").Return(user, nil)

	mockPool.ExpectBegin()
	userRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), userID).Return(user, nil)
	userRepo.EXPECT().UpdateBalance(ctx, gomock.Any(), userID, int64(510)).Return(nil)
	mockPool.ExpectCommit()

	balance, err := svc.Faucet(ctx, "reporter")
	require.NoError(t, err)
	assert.Equal(t, int64(510), balance)
}

func TestStakingService_Faucet_UnknownAccount(t *testing.T) {
	svc, userRepo, _, _, _ := setupStakingService(t)

	ctx := context.Background()
	userRepo.EXPECT().GetByUsername(ctx, "ghost").Return(nil, nil)

	_, err := svc.Faucet(ctx, "ghost")
	require.Error(t, err)
	assert.Equal(t, "SYS_002", appErrCode(t, err))
}

func TestStakingService_ActiveStake_Passthrough(t *testing.T) {
	svc, _, stakeRepo, _, _ := setupStakingService(t)

	ctx := context.Background()
	userID := uuid.New()
	stake := &domain.Stake{ID: uuid.New(), UserID: userID, Status: domain.StakeStatusActive}

	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(stake, nil)

	got, err := svc.ActiveStake(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, stake, got)
}
