package job

import (
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/logger"
	"VCoin/internal/pkg/redis"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const recentPostWindow = 24 * time.Hour

// QualityRefreshJob 重算计数发生变化的帖子质量分，脏集合不可用时回退为按更新时间扫描
type QualityRefreshJob struct {
	qualitySvc service.QualityService
	now        func() time.Time
}

func NewQualityRefreshJob(qualitySvc service.QualityService) *QualityRefreshJob {
	return &QualityRefreshJob{
		qualitySvc: qualitySvc,
		now:        time.Now,
	}
}

func (s *QualityRefreshJob) Run() {
	traceID := "job-quality-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	processingKey := consts.PostDirtyKey + consts.ProcessingSuffix
	exists, err := redis.Exists(ctx, processingKey)
	if err != nil {
		log.ErrorContext(ctx, "check post processing set error", "err", err)
		s.refreshRecent(ctx)
		return
	}

	// 上一轮未处理完的集合优先消费
	if !exists {
		moved, err := redis.MoveKey(ctx, consts.PostDirtyKey, processingKey)
		if err != nil {
			log.ErrorContext(ctx, "move post dirty set error", "err", err)
			s.refreshRecent(ctx)
			return
		}
		if !moved {
			// 计数未经过消费者时脏集合为空，按更新时间扫描兜底
			log.InfoContext(ctx, "no dirty posts, fall back to recent scan")
			s.refreshRecent(ctx)
			return
		}
	}

	members, err := redis.GetSet(ctx, processingKey)
	if err != nil {
		log.ErrorContext(ctx, "get post dirty set error", "err", err)
		return
	}

	postIDs, err := util.StrSliceToUInt64Slice(members)
	if err != nil {
		log.ErrorContext(ctx, "convert post set to int slice error", "err", err)
		return
	}

	refreshed, err := s.qualitySvc.RefreshBatch(ctx, postIDs)
	if err != nil {
		log.ErrorContext(ctx, "refresh quality scores error", "err", err)
		return
	}

	if err = redis.DeleteKey(ctx, processingKey); err != nil {
		log.ErrorContext(ctx, "delete post processing set error", "err", err)
	}

	log.InfoContext(ctx, "refresh quality scores success", "dirty", len(postIDs), "refreshed", refreshed)
}

func (s *QualityRefreshJob) refreshRecent(ctx context.Context) {
	refreshed, err := s.qualitySvc.RefreshRecent(ctx, s.now().Add(-recentPostWindow))
	if err != nil {
		log.ErrorContext(ctx, "refresh recent quality scores error", "err", err)
		return
	}
	log.InfoContext(ctx, "refresh recent quality scores success", "refreshed", refreshed)
}
