package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/internal/core/ports/mocks"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*mocks.MockUserRepository,
	*mocks.MockHashService,
	*mocks.MockTokenService,
	*gomock.Controller,
) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	svc := NewAuthService(userRepo, hashSvc, tokenSvc)
	return svc, userRepo, hashSvc, tokenSvc, ctrl
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Username: "new_reporter",
		Password: "StrongP@ss123",
	}

	userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(nil, nil)
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	user, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, domain.RoleUser, user.Role, "role defaults to user")
	assert.Equal(t, int64(0), user.Balance, "accounts start unfunded")
	assert.Equal(t, domain.UserStatusActive, user.Status)
}

func TestAuthService_Register_ExplicitAdminRole(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Username: "ops_admin",
		Password: "StrongP@ss123",
		Role:     domain.RoleAdmin,
	}

	userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(nil, nil)
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	user, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, userRepo, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{Username: "existing_user", Password: "password"}

	existing := &domain.User{Username: "existing_user"}
	userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(existing, nil)

	user, err := svc.Register(ctx, req)
	assert.Nil(t, user)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_002", appErr.Code)
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	svc, userRepo, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{Username: "x", Password: "password", Role: "superuser"}

	userRepo.EXPECT().GetByUsername(ctx, "x").Return(nil, nil)

	_, err := svc.Register(ctx, req)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SYS_002", appErr.Code)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, userRepo, hashSvc, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	user := &domain.User{
		ID:           userID,
		Username:     "test_user",
		PasswordHash: "$argon2id$hashed",
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
	}

	userRepo.EXPECT().GetByUsername(ctx, "test_user").Return(user, nil)
	hashSvc.EXPECT().Verify("correct_password", "$argon2id$hashed").Return(true, nil)
	tokenSvc.EXPECT().Generate(userID, domain.RoleUser).Return("jwt_token_here", time.Now().Add(24*time.Hour), nil)

	token, _, err := svc.Login(ctx, "test_user", "correct_password")
	require.NoError(t, err)
	assert.Equal(t, "jwt_token_here", token)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc, userRepo, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userRepo.EXPECT().GetByUsername(ctx, "nonexistent").Return(nil, nil)

	_, _, err := svc.Login(ctx, "nonexistent", "password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     "test_user",
		PasswordHash: "$argon2id$hashed",
		Status:       domain.UserStatusActive,
	}

	userRepo.EXPECT().GetByUsername(ctx, "test_user").Return(user, nil)
	hashSvc.EXPECT().Verify("wrong_password", "$argon2id$hashed").Return(false, nil)

	_, _, err := svc.Login(ctx, "test_user", "wrong_password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_AccountSuspended(t *testing.T) {
	svc, userRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     "test_user",
		PasswordHash: "$argon2id$hashed",
		Status:       domain.UserStatusSuspended,
	}

	userRepo.EXPECT().GetByUsername(ctx, "test_user").Return(user, nil)
	hashSvc.EXPECT().Verify("correct_password", "$argon2id$hashed").Return(true, nil)

	_, _, err := svc.Login(ctx, "test_user", "correct_password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_004", appErr.Code)
}
