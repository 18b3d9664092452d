package job

import (
	"VCoin/internal/pkg/logger"
	"VCoin/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// StakeSweepJob 将到期的质押标记为 UNLOCKED
type StakeSweepJob struct {
	stakingSvc service.StakingService
	now        func() time.Time
}

func NewStakeSweepJob(stakingSvc service.StakingService) *StakeSweepJob {
	return &StakeSweepJob{
		stakingSvc: stakingSvc,
		now:        time.Now,
	}
}

func (s *StakeSweepJob) Run() {
	traceID := "job-stake-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	rows, err := s.stakingSvc.SweepUnlocked(ctx, s.now())
	if err != nil {
		log.ErrorContext(ctx, "sweep unlocked stakes error", "err", err)
		return
	}
	if rows > 0 {
		log.InfoContext(ctx, "stakes unlocked", "count", rows)
	}
}
