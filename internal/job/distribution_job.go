package job

import (
	"VCoin/internal/pkg/logger"
	"VCoin/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// DistributionJob 每日结算前一天的奖励
type DistributionJob struct {
	distributionSvc service.DistributionService
	now             func() time.Time
}

func NewDistributionJob(distributionSvc service.DistributionService) *DistributionJob {
	return &DistributionJob{
		distributionSvc: distributionSvc,
		now:             time.Now,
	}
}

func (s *DistributionJob) Run() {
	traceID := "job-distribution-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	date := s.now().AddDate(0, 0, -1)
	result, err := s.distributionSvc.RunDailyDistribution(ctx, date)
	if err != nil {
		log.ErrorContext(ctx, "daily distribution error", "date", date.Format(service.DateLayout), "err", err)
		return
	}
	if !result.Success {
		log.WarnContext(ctx, "daily distribution skipped", "date", result.Date, "reason", result.Reason)
		return
	}

	log.InfoContext(ctx, "daily distribution success",
		"date", result.Date,
		"distributed", result.Distributed.String(),
		"recipients", result.Recipients)
}
