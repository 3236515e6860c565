package postgres

import (
	"context"
	"errors"
	"fmt"

	"staked-report-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StakeRepo implements ports.StakeRepository.
type StakeRepo struct {
	pool Pool
}

// NewStakeRepo creates a new StakeRepo.
func NewStakeRepo(pool Pool) *StakeRepo {
	return &StakeRepo{pool: pool}
}

// Create inserts a new stake within a database transaction.
func (r *StakeRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.Stake) error {
	query := `INSERT INTO stakes (id, user_id, amount, status, created_at, released_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		s.ID, s.UserID, s.Amount, s.Status, s.CreatedAt, s.ReleasedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stake: %w", err)
	}
	return nil
}

// GetActiveByUserID fetches the user's active stake, nil if none. The
// staking service enforces at most one active stake per user.
func (r *StakeRepo) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.Stake, error) {
	query := `SELECT id, user_id, amount, status, created_at, released_at
		FROM stakes WHERE user_id = $1 AND status = 'active'`

	s := &domain.Stake{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Amount, &s.Status, &s.CreatedAt, &s.ReleasedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active stake: %w", err)
	}
	return s, nil
}

// GetActiveByUserIDForUpdate fetches the user's active stake within a
// transaction, locking the row. Used by the staking service to re-check for
// an active stake after acquiring the user row lock.
func (r *StakeRepo) GetActiveByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Stake, error) {
	query := `SELECT id, user_id, amount, status, created_at, released_at
		FROM stakes WHERE user_id = $1 AND status = 'active' FOR UPDATE`

	s := &domain.Stake{}
	err := tx.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Amount, &s.Status, &s.CreatedAt, &s.ReleasedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active stake for update: %w", err)
	}
	return s, nil
}

// Release marks a stake as released within a database transaction.
func (r *StakeRepo) Release(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE stakes SET status = 'released', released_at = NOW() WHERE id = $1 AND status = 'active'`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("release stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("active stake not found: %s", id)
	}
	return nil
}
