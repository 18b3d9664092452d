package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"context"
	"fmt"
	"math"
	"time"
)

// botWindow 机器人规则始终按最近 24 小时计数
const botWindow = 24 * time.Hour

// PointsBreakdown 单个用户积分计算明细
type PointsBreakdown struct {
	UserID               uint64          `json:"userId"`
	RawPoints            float64         `json:"rawPoints"`
	FilteredPoints       float64         `json:"filteredPoints"`
	BotPenalty           float64         `json:"botPenalty"`
	QualityMultiplier    float64         `json:"qualityMultiplier"`
	ReputationMultiplier float64         `json:"reputationMultiplier"`
	FinalPoints          int64           `json:"finalPoints"`
	Counts               *ActivityCounts `json:"counts"`
	Bot                  *BotCheckResult `json:"bot"`
}

type PointsService interface {
	// Calculate 计算用户截至 windowEnd 的最终积分，命中的机器人标记会落库
	Calculate(ctx context.Context, userID uint64, windowEnd time.Time) (*PointsBreakdown, error)
	// RawPoints 行为基础分乘以时间衰减后求和
	RawPoints(events []*model.ActivityEvent, windowEnd time.Time) float64
}

type pointsServiceImpl struct {
	weights     map[string]float64
	window      time.Duration
	activitySvc ActivityService
	botSvc      BotFilterService
	qualitySvc  QualityService
	repSvc      ReputationService
}

func NewPointsService(
	cfg config.RewardConfig,
	activitySvc ActivityService,
	botSvc BotFilterService,
	qualitySvc QualityService,
	repSvc ReputationService,
) PointsService {
	window := time.Duration(cfg.ActivityWindowHours) * time.Hour
	if window <= 0 {
		window = botWindow
	}
	return &pointsServiceImpl{
		weights:     cfg.ActionWeights,
		window:      window,
		activitySvc: activitySvc,
		botSvc:      botSvc,
		qualitySvc:  qualitySvc,
		repSvc:      repSvc,
	}
}

// TimeDecay 按行为距窗口结束的天数衰减
func TimeDecay(ageDays float64) float64 {
	switch {
	case ageDays <= 1:
		return 1.0
	case ageDays <= 3:
		return 0.95
	case ageDays <= 7:
		return 0.70
	case ageDays <= 14:
		return 0.45
	case ageDays <= 30:
		return 0.20
	case ageDays <= 60:
		return 0.08
	case ageDays <= 90:
		return 0.05
	default:
		return 0.03
	}
}

// FinalPoints round(raw × penalty × quality × reputation)，对每个因子单调不减
func FinalPoints(raw, penalty, quality, reputation float64) int64 {
	return int64(math.Round(raw * penalty * quality * reputation))
}

func (s *pointsServiceImpl) RawPoints(events []*model.ActivityEvent, windowEnd time.Time) float64 {
	raw := 0.0
	for _, e := range events {
		ageDays := windowEnd.Sub(e.OccurredAt).Hours() / 24
		raw += s.weights[string(e.Type)] * TimeDecay(ageDays)
	}
	return raw
}

func (s *pointsServiceImpl) Calculate(ctx context.Context, userID uint64, windowEnd time.Time) (*PointsBreakdown, error) {
	events, err := s.activitySvc.ListEvents(ctx, userID, windowEnd.Add(-s.window), windowEnd)
	if err != nil {
		return nil, err
	}
	raw := s.RawPoints(events, windowEnd)

	counts, err := s.activitySvc.Aggregate(ctx, userID, windowEnd.Add(-botWindow), windowEnd)
	if err != nil {
		return nil, err
	}
	bot, err := s.botSvc.Evaluate(ctx, userID, counts, windowEnd)
	if err != nil {
		return nil, err
	}

	quality, err := s.qualitySvc.UserMultiplier(ctx, userID, windowEnd)
	if err != nil {
		return nil, err
	}
	reputation, err := s.repSvc.GetMultiplier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reputation multiplier of user %d: %w", userID, err)
	}

	return &PointsBreakdown{
		UserID:               userID,
		RawPoints:            raw,
		FilteredPoints:       raw * bot.Penalty,
		BotPenalty:           bot.Penalty,
		QualityMultiplier:    quality,
		ReputationMultiplier: reputation,
		FinalPoints:          FinalPoints(raw, bot.Penalty, quality, reputation),
		Counts:               counts,
		Bot:                  bot,
	}, nil
}
