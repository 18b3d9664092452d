package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

const (
	historicalPostLimit = 20
	reputationFloor     = 0.3
	reputationCeiling   = 5.0
)

type ReputationService interface {
	// Compute 计算用户信誉分，不落库
	Compute(ctx context.Context, userID uint64, now time.Time) (*model.UserReputationScore, error)
	// Refresh 计算并缓存
	Refresh(ctx context.Context, userID uint64) (*model.UserReputationScore, error)
	// RefreshActive 刷新 since 之后活跃过的用户，返回成功数
	RefreshActive(ctx context.Context, since time.Time) (int, error)
	// GetMultiplier 读缓存的综合信誉分，未命中时现算并写入
	GetMultiplier(ctx context.Context, userID uint64) (float64, error)
}

type reputationServiceImpl struct {
	verificationScores map[string]float64
	userRepo           repository.UserRepo
	reputationRepo     repository.ReputationRepo
	qualityScoreRepo   repository.QualityScoreRepo
}

func NewReputationService(
	cfg config.RewardConfig,
	userRepo repository.UserRepo,
	reputationRepo repository.ReputationRepo,
	qualityScoreRepo repository.QualityScoreRepo,
) ReputationService {
	return &reputationServiceImpl{
		verificationScores: cfg.VerificationScores,
		userRepo:           userRepo,
		reputationRepo:     reputationRepo,
		qualityScoreRepo:   qualityScoreRepo,
	}
}

// AccountAgeScore 注册天数分档
func AccountAgeScore(days int) float64 {
	switch {
	case days >= 365:
		return 2.0
	case days >= 180:
		return 1.5
	case days >= 90:
		return 1.3
	case days >= 30:
		return 1.2
	default:
		return 1.0
	}
}

// HistoricalQualityScore 近期帖子综合分均值分档，没有评分记录时为 1.0
func HistoricalQualityScore(overallScores []float64) float64 {
	if len(overallScores) == 0 {
		return 1.0
	}
	avg := mean(overallScores)
	switch {
	case avg > 0.08:
		return 2.0
	case avg > 0.05:
		return 1.5
	case avg > 0.02:
		return 1.2
	case avg < 0.005:
		return 0.5
	default:
		return 1.0
	}
}

// CommunityStandingScore 粉丝数分档
func CommunityStandingScore(followers, posts int64) float64 {
	switch {
	case followers > 10000:
		return 2.0
	case followers > 1000:
		return 1.6
	case followers > 100:
		return 1.3
	case followers > 10:
		return 1.1
	case followers == 0 && posts == 0:
		return 0.5
	default:
		return 1.0
	}
}

// OverallReputation 加权后限制在 [0.3, 5.0]
func OverallReputation(age, quality, verification, standing float64) float64 {
	overall := 0.25*age + 0.35*quality + 0.25*verification + 0.15*standing
	return min(max(overall, reputationFloor), reputationCeiling)
}

func (s *reputationServiceImpl) verificationScore(tier string) float64 {
	if score, ok := s.verificationScores[strings.ToLower(tier)]; ok {
		return score
	}
	if score, ok := s.verificationScores[model.TierBasic]; ok {
		return score
	}
	return 1.0
}

func (s *reputationServiceImpl) Compute(ctx context.Context, userID uint64, now time.Time) (*model.UserReputationScore, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	scores, err := s.qualityScoreRepo.GetRecentOverallScores(ctx, userID, historicalPostLimit)
	if err != nil {
		return nil, fmt.Errorf("load historical quality of user %d: %w", userID, err)
	}

	ageDays := int(now.Sub(user.CreatedAt).Hours() / 24)
	detail := user.UserDetail

	rep := &model.UserReputationScore{
		UserID:                 userID,
		AccountAgeScore:        AccountAgeScore(ageDays),
		HistoricalQualityScore: HistoricalQualityScore(scores),
		VerificationScore:      s.verificationScore(detail.VerificationTier),
		CommunityStandingScore: CommunityStandingScore(detail.FollowersCount, detail.PostsCount),
		LastCalculated:         now,
	}
	rep.OverallReputation = OverallReputation(
		rep.AccountAgeScore,
		rep.HistoricalQualityScore,
		rep.VerificationScore,
		rep.CommunityStandingScore,
	)
	return rep, nil
}

func (s *reputationServiceImpl) Refresh(ctx context.Context, userID uint64) (*model.UserReputationScore, error) {
	rep, err := s.Compute(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if err = s.reputationRepo.SaveOrUpdateReputation(ctx, rep); err != nil {
		return nil, fmt.Errorf("save reputation of user %d: %w", userID, err)
	}
	return rep, nil
}

func (s *reputationServiceImpl) RefreshActive(ctx context.Context, since time.Time) (int, error) {
	ids, err := s.userRepo.GetActiveUserIDsSince(ctx, since, refreshBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("list active users: %w", err)
	}

	success := 0
	for _, id := range ids {
		if _, err = s.Refresh(ctx, id); err != nil {
			log.ErrorContext(ctx, "refresh reputation error", "userID", id, "err", err)
			continue
		}
		success++
	}
	return success, nil
}

func (s *reputationServiceImpl) GetMultiplier(ctx context.Context, userID uint64) (float64, error) {
	cached, err := s.reputationRepo.GetReputationByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load reputation of user %d: %w", userID, err)
	}
	if cached != nil {
		return cached.OverallReputation, nil
	}

	rep, err := s.Refresh(ctx, userID)
	if err != nil {
		// 账号读模型尚未同步时按中性倍率处理
		if errors.Is(err, ErrUserNotFound) {
			log.WarnContext(ctx, "user metadata missing, neutral reputation applied", "userID", userID)
			return 1.0, nil
		}
		return 0, err
	}
	return rep.OverallReputation, nil
}
