package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"

	"gorm.io/gorm"
)

type DistributionRepo interface {
	GetDistributionByDate(ctx context.Context, date string) (*model.DailyRewardDistribution, error)
	CreateDistribution(ctx context.Context, record *model.DailyRewardDistribution) error
}

type distributionRepoImpl struct {
	db *gorm.DB
}

func NewDistributionRepo(db *gorm.DB) DistributionRepo {
	return &distributionRepoImpl{db: db}
}

func (s *distributionRepoImpl) GetDistributionByDate(ctx context.Context, date string) (*model.DailyRewardDistribution, error) {
	record := &model.DailyRewardDistribution{}
	err := database.Conn(ctx, s.db).Where("distribution_date = ?", date).First(record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// CreateDistribution 同一日期重复写入时返回 gorm.ErrDuplicatedKey
func (s *distributionRepoImpl) CreateDistribution(ctx context.Context, record *model.DailyRewardDistribution) error {
	return database.Conn(ctx, s.db).Create(record).Error
}
