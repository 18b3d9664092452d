package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReputationRepo interface {
	SaveOrUpdateReputation(ctx context.Context, score *model.UserReputationScore) error
	GetReputationByUserID(ctx context.Context, userID uint64) (*model.UserReputationScore, error)
}

type reputationRepoImpl struct {
	db *gorm.DB
}

func NewReputationRepo(db *gorm.DB) ReputationRepo {
	return &reputationRepoImpl{db: db}
}

func (s *reputationRepoImpl) SaveOrUpdateReputation(ctx context.Context, score *model.UserReputationScore) error {
	return database.Conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_age_score",
			"historical_quality_score",
			"verification_score",
			"community_standing_score",
			"overall_reputation",
			"last_calculated",
		}),
	}).Create(score).Error
}

func (s *reputationRepoImpl) GetReputationByUserID(ctx context.Context, userID uint64) (*model.UserReputationScore, error) {
	score := &model.UserReputationScore{}
	err := database.Conn(ctx, s.db).Where("user_id = ?", userID).First(score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return score, nil
}
