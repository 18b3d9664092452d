package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QualityScoreRepo interface {
	SaveOrUpdateScore(ctx context.Context, score *model.ContentQualityScore) error
	GetScoreByContentID(ctx context.Context, contentID uint64) (*model.ContentQualityScore, error)
	GetRecentOverallScores(ctx context.Context, userID uint64, limit int) ([]float64, error)
	GetMultipliersSince(ctx context.Context, userID uint64, since time.Time) ([]float64, error)
}

type qualityScoreRepoImpl struct {
	db *gorm.DB
}

func NewQualityScoreRepo(db *gorm.DB) QualityScoreRepo {
	return &qualityScoreRepoImpl{db: db}
}

// SaveOrUpdateScore content_id 已存在时覆盖各项评分
func (s *qualityScoreRepoImpl) SaveOrUpdateScore(ctx context.Context, score *model.ContentQualityScore) error {
	return database.Conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"engagement_rate",
			"retention_score",
			"virality_score",
			"comment_quality",
			"overall_score",
			"multiplier",
			"calculated_at",
		}),
	}).Create(score).Error
}

func (s *qualityScoreRepoImpl) GetScoreByContentID(ctx context.Context, contentID uint64) (*model.ContentQualityScore, error) {
	score := &model.ContentQualityScore{}
	err := database.Conn(ctx, s.db).Where("content_id = ?", contentID).First(score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return score, nil
}

// GetRecentOverallScores 用户最近 limit 篇已评分帖子的综合分
func (s *qualityScoreRepoImpl) GetRecentOverallScores(ctx context.Context, userID uint64, limit int) ([]float64, error) {
	scores := make([]float64, 0)
	err := database.Conn(ctx, s.db).
		Table("content_quality_scores AS q").
		Joins("JOIN posts AS p ON p.id = q.content_id").
		Where("p.user_id = ? AND p.is_deleted = ?", userID, false).
		Order("p.created_at DESC").
		Limit(limit).
		Pluck("q.overall_score", &scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// GetMultipliersSince 用户 since 之后发布且已评分帖子的倍率
func (s *qualityScoreRepoImpl) GetMultipliersSince(ctx context.Context, userID uint64, since time.Time) ([]float64, error) {
	multipliers := make([]float64, 0)
	err := database.Conn(ctx, s.db).
		Table("content_quality_scores AS q").
		Joins("JOIN posts AS p ON p.id = q.content_id").
		Where("p.user_id = ? AND p.is_deleted = ? AND p.created_at >= ?", userID, false, since).
		Pluck("q.multiplier", &multipliers).Error
	if err != nil {
		return nil, err
	}
	return multipliers, nil
}
