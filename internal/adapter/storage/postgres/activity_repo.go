package postgres

import (
	"context"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"

	"github.com/jackc/pgx/v5/pgxpool"
)

type activityRepo struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a PostgreSQL-backed ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) ports.ActivityRepository {
	return &activityRepo{pool: pool}
}

func (r *activityRepo) Create(ctx context.Context, log *domain.ActivityLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs (id, user_id, action, resource_type, resource_id, details, ip_address, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.UserID, string(log.Action), log.ResourceType,
		log.ResourceID, log.Details, log.IPAddress, log.CreatedAt,
	)
	return err
}
