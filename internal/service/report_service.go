package service

import (
	"context"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// ReportService serves the dashboard figures and the audit trail.
type ReportService struct {
	stats    repository.StatsRepository
	activity repository.ActivityRepository
}

func NewReportService(stats repository.StatsRepository, activity repository.ActivityRepository) *ReportService {
	return &ReportService{stats: stats, activity: activity}
}

func (s *ReportService) Stats(ctx context.Context) (*entity.Stats, error) {
	return s.stats.Summary(ctx)
}

func (s *ReportService) RecentActivity(ctx context.Context, limit int) ([]entity.ActivityEntry, error) {
	return s.activity.FindRecent(ctx, clampLimit(limit))
}
