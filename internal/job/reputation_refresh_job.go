package job

import (
	"VCoin/internal/pkg/logger"
	"VCoin/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// ReputationRefreshJob 重算最近活跃用户的信誉分
type ReputationRefreshJob struct {
	reputationSvc service.ReputationService
	window        time.Duration
	now           func() time.Time
}

func NewReputationRefreshJob(reputationSvc service.ReputationService) *ReputationRefreshJob {
	return &ReputationRefreshJob{
		reputationSvc: reputationSvc,
		window:        24 * time.Hour,
		now:           time.Now,
	}
}

func (s *ReputationRefreshJob) Run() {
	traceID := "job-reputation-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	count, err := s.reputationSvc.RefreshActive(ctx, s.now().Add(-s.window))
	if err != nil {
		log.ErrorContext(ctx, "refresh reputation error", "err", err)
		return
	}
	log.InfoContext(ctx, "refresh reputation success", "user_count", count)
}
