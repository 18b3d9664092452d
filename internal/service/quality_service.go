package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

// refreshBatchLimit 单次批量刷新的帖子上限
const refreshBatchLimit = 5000

type QualityService interface {
	// Score 根据帖子当前计数计算质量分，不落库
	Score(post *model.Post, now time.Time) *model.ContentQualityScore
	// Refresh 重新计算并缓存单个帖子的质量分，帖子不存在时返回 ErrPostNotFound
	Refresh(ctx context.Context, postID uint64) (*model.ContentQualityScore, error)
	// RefreshBatch 批量刷新，返回成功数
	RefreshBatch(ctx context.Context, postIDs []uint64) (int, error)
	// RefreshRecent 刷新 since 之后有计数变化的帖子
	RefreshRecent(ctx context.Context, since time.Time) (int, error)
	// UserMultiplier 用户近期已评分帖子倍率的均值，无数据时为 1.0
	UserMultiplier(ctx context.Context, userID uint64, now time.Time) (float64, error)
}

type qualityServiceImpl struct {
	lookbackDays     int
	postRepo         repository.PostRepo
	qualityScoreRepo repository.QualityScoreRepo
}

func NewQualityService(cfg config.RewardConfig, postRepo repository.PostRepo, qualityScoreRepo repository.QualityScoreRepo) QualityService {
	return &qualityServiceImpl{
		lookbackDays:     cfg.QualityLookbackDays,
		postRepo:         postRepo,
		qualityScoreRepo: qualityScoreRepo,
	}
}

func (s *qualityServiceImpl) Score(post *model.Post, now time.Time) *model.ContentQualityScore {
	views := float64(max(post.ViewsCount, 1))

	engagement := float64(post.LikesCount+post.CommentsCount+post.SharesCount) / views
	// 暂无观看时长数据，视频固定 0.7
	retention := 1.0
	if post.MediaType == model.MediaTypeVideo {
		retention = 0.7
	}
	virality := (float64(post.SharesCount) + 1.5*float64(post.RepostsCount)) / views
	commentQuality := min(post.AvgCommentLength/100, 1.0)

	overall := 0.4*engagement + 0.2*retention + 0.3*virality + 0.1*commentQuality

	return &model.ContentQualityScore{
		ContentID:      post.ID,
		EngagementRate: engagement,
		RetentionScore: retention,
		ViralityScore:  virality,
		CommentQuality: commentQuality,
		OverallScore:   overall,
		Multiplier:     QualityMultiplier(overall),
		CalculatedAt:   now,
	}
}

// QualityMultiplier 综合分分档映射为倍率
func QualityMultiplier(overall float64) float64 {
	switch {
	case overall < 0.005:
		return 0.1
	case overall < 0.01:
		return 0.5
	case overall < 0.02:
		return 1.0
	case overall < 0.05:
		return 2.0
	case overall < 0.10:
		return 5.0
	default:
		return 10.0
	}
}

func (s *qualityServiceImpl) Refresh(ctx context.Context, postID uint64) (*model.ContentQualityScore, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	score := s.Score(post, time.Now())
	if err = s.qualityScoreRepo.SaveOrUpdateScore(ctx, score); err != nil {
		return nil, fmt.Errorf("save quality score of post %d: %w", postID, err)
	}
	return score, nil
}

func (s *qualityServiceImpl) RefreshBatch(ctx context.Context, postIDs []uint64) (int, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	posts, err := s.postRepo.GetPostByIds(ctx, postIDs)
	if err != nil {
		return 0, fmt.Errorf("load posts: %w", err)
	}

	now := time.Now()
	success := 0
	for _, post := range posts {
		if err = s.qualityScoreRepo.SaveOrUpdateScore(ctx, s.Score(post, now)); err != nil {
			log.ErrorContext(ctx, "save quality score error", "postID", post.ID, "err", err)
			continue
		}
		success++
	}
	return success, nil
}

func (s *qualityServiceImpl) RefreshRecent(ctx context.Context, since time.Time) (int, error) {
	ids, err := s.postRepo.GetPostIDsUpdatedSince(ctx, since, refreshBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("list updated posts: %w", err)
	}
	return s.RefreshBatch(ctx, ids)
}

func (s *qualityServiceImpl) UserMultiplier(ctx context.Context, userID uint64, now time.Time) (float64, error) {
	since := now.AddDate(0, 0, -s.lookbackDays)
	multipliers, err := s.qualityScoreRepo.GetMultipliersSince(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("load quality multipliers of user %d: %w", userID, err)
	}
	if len(multipliers) == 0 {
		return 1.0, nil
	}
	return mean(multipliers), nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
