package service

import (
	"context"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

type activityService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewActivityService creates a new activity service.
// If repo is nil, activity is only written to the logger.
func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) ports.ActivityService {
	return &activityService{repo: repo, log: log}
}

// Log records an activity entry asynchronously (fire-and-forget).
func (s *activityService) Log(ctx context.Context, entry *domain.ActivityLog) {
	go func() {
		s.log.Info().
			Str("action", string(entry.Action)).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("ip", entry.IPAddress).
			Msg("activity")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist activity log")
			}
		}
	}()
}
