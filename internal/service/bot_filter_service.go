package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/api/dto"
	"VCoin/internal/model"
	"VCoin/internal/pkg/metrics"
	"VCoin/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FlagExcessivePosts    = "EXCESSIVE_POSTS"
	FlagExcessiveLikes    = "EXCESSIVE_LIKES"
	FlagExcessiveComments = "EXCESSIVE_COMMENTS"
	FlagExcessiveShares   = "EXCESSIVE_SHARES"
	FlagExcessiveFollows  = "EXCESSIVE_FOLLOWS"
	FlagHighVelocity      = "HIGH_VELOCITY"
	FlagLowDiversity      = "LOW_DIVERSITY"
	FlagLikeOnlyPattern   = "LIKE_ONLY_PATTERN"
)

const (
	capFactor        = 0.5
	velocityFactor   = 0.3
	diversityFactor  = 0.5
	likeOnlyFactor   = 0.3
	velocityPerHour  = 100
	diversityMinimum = 3
	diversityActions = 20
	likeOnlyLikes    = 100
	likelyBotBelow   = 0.5
)

// BotCheckResult 规则检测结果，Penalty 取值 (0,1]
type BotCheckResult struct {
	Penalty     float64  `json:"penalty"`
	Flags       []string `json:"flags"`
	IsLikelyBot bool     `json:"isLikelyBot"`
}

// Severity 按最终惩罚系数划分严重程度
func (r *BotCheckResult) Severity() string {
	switch {
	case r.Penalty < 0.3:
		return model.SeverityHigh
	case r.Penalty < 0.5:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

type BotFilterService interface {
	// Check 纯规则计算，不落库
	Check(counts *ActivityCounts) *BotCheckResult
	// Evaluate 计算并持久化命中的标记，同一 windowEnd 重复调用不会重复记录
	Evaluate(ctx context.Context, userID uint64, counts *ActivityCounts, windowEnd time.Time) (*BotCheckResult, error)
	// ResolveFlag 人工处理一条标记
	ResolveFlag(ctx context.Context, flagID uint64, resolverID uint64) error
}

type botFilterServiceImpl struct {
	caps        config.DailyCapsConfig
	botFlagRepo repository.BotFlagRepo
	publisher   EventPublisher
}

func NewBotFilterService(cfg config.RewardConfig, botFlagRepo repository.BotFlagRepo, publisher EventPublisher) BotFilterService {
	return &botFilterServiceImpl{
		caps:        cfg.DailyCaps,
		botFlagRepo: botFlagRepo,
		publisher:   publisher,
	}
}

func (s *botFilterServiceImpl) Check(counts *ActivityCounts) *BotCheckResult {
	penalty := 1.0
	flags := make([]string, 0)

	caps := []struct {
		count int64
		limit int64
		flag  string
	}{
		{counts.Posts(), s.caps.Posts, FlagExcessivePosts},
		{counts.Likes, s.caps.Likes, FlagExcessiveLikes},
		{counts.Comments, s.caps.Comments, FlagExcessiveComments},
		{counts.Shares, s.caps.Shares, FlagExcessiveShares},
		{counts.Follows, s.caps.Follows, FlagExcessiveFollows},
	}
	for _, c := range caps {
		if c.limit > 0 && c.count > c.limit {
			penalty *= capFactor
			flags = append(flags, c.flag)
		}
	}

	total := counts.Total()
	if float64(total)/24 > velocityPerHour {
		penalty *= velocityFactor
		flags = append(flags, FlagHighVelocity)
	}

	if counts.DistinctTypes() < diversityMinimum && total > diversityActions {
		penalty *= diversityFactor
		flags = append(flags, FlagLowDiversity)
	}

	if counts.Likes > likeOnlyLikes && counts.Comments == 0 && counts.Posts() == 0 {
		penalty *= likeOnlyFactor
		flags = append(flags, FlagLikeOnlyPattern)
	}

	return &BotCheckResult{
		Penalty:     penalty,
		Flags:       flags,
		IsLikelyBot: penalty < likelyBotBelow,
	}
}

func (s *botFilterServiceImpl) Evaluate(ctx context.Context, userID uint64, counts *ActivityCounts, windowEnd time.Time) (*BotCheckResult, error) {
	result := s.Check(counts)
	if len(result.Flags) == 0 {
		return result, nil
	}

	now := time.Now()
	severity := result.Severity()
	flags := make([]*model.BotDetectionFlag, 0, len(result.Flags))
	for _, flagType := range result.Flags {
		flags = append(flags, &model.BotDetectionFlag{
			UserID:         userID,
			FlagType:       flagType,
			WindowEnd:      windowEnd,
			Severity:       severity,
			PenaltyApplied: decimal.NewFromFloat(result.Penalty).Round(4),
			Status:         model.FlagStatusActive,
			FlaggedAt:      now,
		})
	}
	inserted, err := s.botFlagRepo.CreateFlags(ctx, flags)
	if err != nil {
		return nil, fmt.Errorf("persist bot flags of user %d: %w", userID, err)
	}
	if inserted == 0 {
		// 本窗口已记录过（重试或中断后重跑）
		return result, nil
	}

	for _, flagType := range result.Flags {
		metrics.BotFlags.WithLabelValues(flagType).Inc()
		event := &dto.BotFlagEvent{
			UserID:   userID,
			FlagType: flagType,
			Severity: severity,
			Penalty:  result.Penalty,
		}
		if err := s.publisher.PublishBotFlag(ctx, event); err != nil {
			log.WarnContext(ctx, "publish bot flag event error", "userID", userID, "flagType", flagType, "err", err)
		}
	}

	log.InfoContext(ctx, "bot heuristics flagged user",
		"userID", userID,
		"flags", result.Flags,
		"penalty", result.Penalty,
		"severity", severity)
	return result, nil
}

func (s *botFilterServiceImpl) ResolveFlag(ctx context.Context, flagID uint64, resolverID uint64) error {
	flag, err := s.botFlagRepo.GetFlagByID(ctx, flagID)
	if err != nil {
		return err
	}
	if flag == nil {
		return ErrFlagNotFound
	}
	if flag.Status == model.FlagStatusResolved {
		return ErrFlagResolved
	}

	affected, err := s.botFlagRepo.ResolveFlag(ctx, flagID, resolverID, time.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFlagResolved
	}
	return nil
}
